package ipalloc

import (
	"context"
	"net"
	"testing"

	"github.com/chenglch/xcat3client/pkg/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocatorSkipsGateway(t *testing.T) {
	ctx := context.Background()
	a, err := NewAllocator(ctx, "10.1.0.0/24")
	require.NoError(t, err)
	assert.Equal(t, "255.255.255.0", a.Netmask())

	_, subnet, _ := net.ParseCIDR("10.1.0.0/24")
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		ip, err := a.Next(ctx)
		require.NoError(t, err)
		assert.True(t, subnet.Contains(net.ParseIP(ip)), ip)
		assert.NotEqual(t, "10.1.0.1", ip)
		assert.NotEqual(t, "10.1.0.0", ip)
		assert.False(t, seen[ip], "duplicate %s", ip)
		seen[ip] = true
	}
}

func TestAllocatorExhausted(t *testing.T) {
	ctx := context.Background()
	a, err := NewAllocator(ctx, "10.2.0.0/30")
	require.NoError(t, err)

	_, err = a.Next(ctx)
	require.NoError(t, err)
	_, err = a.Next(ctx)
	require.Error(t, err)
}

func TestNewAllocatorInvalid(t *testing.T) {
	_, err := NewAllocator(context.Background(), "not-a-cidr")
	require.Error(t, err)
}

func TestAssignNodes(t *testing.T) {
	ctx := context.Background()
	a, err := NewAllocator(ctx, "192.168.10.0/24")
	require.NoError(t, err)

	nodes := []*client.Node{
		{Name: "node1", NicsInfo: &client.NicsInfo{Nics: []client.Nic{{"mac": "42:87:0a:05:00:01", "ip": "192.168.10.2"}}}},
		{Name: "node2", NicsInfo: &client.NicsInfo{Nics: []client.Nic{
			{"mac": "42:87:0a:05:00:02", "name": "eth0"},
			{"mac": "42:87:0a:05:00:03", "name": "eth1", "primary": true},
		}}},
		{Name: "node3", NicsInfo: &client.NicsInfo{Nics: []client.Nic{{"mac": "42:87:0a:05:00:04"}}}},
		{Name: "node4"},
	}

	assigned, err := a.AssignNodes(ctx, nodes)
	require.NoError(t, err)
	assert.Equal(t, 2, assigned)

	assert.Equal(t, "192.168.10.2", nodes[0].NicsInfo.Nics[0]["ip"])
	assert.NotContains(t, nodes[1].NicsInfo.Nics[0], "ip")

	ip2 := nodes[1].NicsInfo.Nics[1]["ip"]
	ip3 := nodes[2].NicsInfo.Nics[0]["ip"]
	require.NotNil(t, ip2)
	require.NotNil(t, ip3)
	assert.NotEqual(t, ip2, ip3)
	for _, ip := range []interface{}{ip2, ip3} {
		assert.NotEqual(t, "192.168.10.1", ip)
		assert.NotEqual(t, "192.168.10.2", ip)
	}
	assert.Equal(t, "255.255.255.0", nodes[2].NicsInfo.Nics[0]["netmask"])
	assert.Nil(t, nodes[3].NicsInfo)
}
