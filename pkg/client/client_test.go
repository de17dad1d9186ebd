package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chenglch/xcat3client/pkg"
	"github.com/chenglch/xcat3client/pkg/batch"
	"github.com/chenglch/xcat3client/pkg/contrib"
	"github.com/chenglch/xcat3client/pkg/fakeserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, maxRetries int) (*Client, *fakeserver.Server) {
	t.Helper()
	state, err := fakeserver.NewServer()
	require.NoError(t, err)
	require.NoError(t, state.SeedDefaults())

	ts := httptest.NewServer(state.Handler(nil))
	t.Cleanup(ts.Close)

	c, err := NewClient(Config{Endpoint: ts.URL + "/v1/", MaxRetries: maxRetries})
	require.NoError(t, err)
	c.HTTP.retryInterval = 5 * time.Millisecond
	return c, state
}

func names(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return out
}

func createNodes(t *testing.T, c *Client, list []string) {
	t.Helper()
	nodes := make([]*Node, 0, len(list))
	for _, n := range list {
		nodes = append(nodes, &Node{Name: n, Mgt: "ipmi", Arch: "x86_64"})
	}
	result, err := c.Node.BulkCreate(context.Background(), nodes, contrib.OperationCreate, batch.Options{})
	require.NoError(t, err)
	require.True(t, batch.ReportFor(result, true).OK())
}

func TestRetryOnServiceUnavailable(t *testing.T) {
	c, state := newTestClient(t, 5)
	state.FailNext(2, http.StatusServiceUnavailable, `{"error_message": "{\"faultstring\": \"busy\"}"}`)

	_, err := c.Node.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, state.Requests("nodes.list"))
}

func TestRetryGivesUpAfterMaxRetries(t *testing.T) {
	c, state := newTestClient(t, 2)
	state.FailNext(10, http.StatusConflict, `{"error_message": "{\"faultstring\": \"Node node1 is locked\"}"}`)

	_, err := c.Node.List(context.Background())
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, 3, state.Requests("nodes.list"))

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindConflict, apiErr.Kind)
	assert.Equal(t, "Node node1 is locked", apiErr.Message)
}

func TestRetryDisabled(t *testing.T) {
	c, state := newTestClient(t, 0)
	state.FailNext(1, http.StatusServiceUnavailable, `{}`)

	_, err := c.Node.List(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, state.Requests("nodes.list"))
}

func TestConnectionRefusedBodyIsRetried(t *testing.T) {
	c, state := newTestClient(t, 1)
	state.FailNext(1, http.StatusBadRequest, `Connection refused by backend`)

	_, err := c.Node.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, state.Requests("nodes.list"))
}

func TestNotFoundIsNotRetried(t *testing.T) {
	c, state := newTestClient(t, 5)

	_, err := c.Node.Show(context.Background(), "ghost", nil)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsRetryable(err))
	assert.Equal(t, 1, state.Requests("nodes.show"))
	assert.Contains(t, err.Error(), "Node ghost could not be found.")
}

func TestRefusedConnection(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c, err := NewClient(Config{Endpoint: url, MaxRetries: 1})
	require.NoError(t, err)
	c.HTTP.retryInterval = time.Millisecond

	_, err = c.Node.List(context.Background())
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
}

func TestInvalidConfig(t *testing.T) {
	_, err := NewClient(Config{MaxRetries: -1})
	require.Error(t, err)
	_, err = NewClient(Config{RetryInterval: 10 * time.Millisecond})
	require.Error(t, err)
	_, err = NewClient(Config{CAFile: "/nonexistent/ca.pem"})
	require.Error(t, err)
}

func TestBulkSetPowerSevenThousandNodes(t *testing.T) {
	c, state := newTestClient(t, 0)
	list := names("node", 7000)
	createNodes(t, c, list)
	assert.Equal(t, 3, state.Requests("nodes.create"))

	result, err := c.Node.BulkSetPower(context.Background(), list, "on", batch.Options{Threshold: 3000, Shards: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Batches)
	assert.Equal(t, 4, state.Requests("nodes.set_power"))

	report := batch.ReportFor(result, true)
	assert.Equal(t, "Success: 7000  Total: 7000", report.Summary())
	assert.Equal(t, "on", state.Power("node6999"))
}

func TestBulkReportsFailedBatch(t *testing.T) {
	c, state := newTestClient(t, 0)
	list := names("node", 40)
	createNodes(t, c, list)

	state.SetInjector(func(route string, nodes []string) *fakeserver.Fault {
		if route != "nodes.set_boot_device" {
			return nil
		}
		for _, n := range nodes {
			if n == "node25" {
				return &fakeserver.Fault{Status: http.StatusInternalServerError, Body: `{"error_message": "{\"faultstring\": \"ipmi plugin crashed\"}"}`}
			}
		}
		return nil
	})

	result, err := c.Node.BulkSetBootDevice(context.Background(), list, "net", batch.Options{Threshold: 10, Shards: 4})
	require.Error(t, err)
	assert.True(t, batch.IsBatchFailure(err))
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 2, result.Failures[0].Index)
	assert.Contains(t, result.Failures[0].Error(), "ipmi plugin crashed")

	report := batch.ReportFor(result, true)
	assert.Equal(t, "Success: 30  Total: 30", report.Summary())
	assert.False(t, report.OK())
}

func TestBulkTimeoutLeavesBatchInDoubt(t *testing.T) {
	c, state := newTestClient(t, 0)
	list := names("node", 20)
	createNodes(t, c, list)

	state.SetInjector(func(route string, nodes []string) *fakeserver.Fault {
		if route == "nodes.delete" && len(nodes) > 0 && nodes[0] == "node0" {
			return &fakeserver.Fault{Delay: time.Minute}
		}
		return nil
	})

	result, err := c.Node.BulkDelete(context.Background(), list, batch.Options{Threshold: 5, Shards: 2, Timeout: 200 * time.Millisecond})
	require.Error(t, err)
	assert.True(t, batch.IsTimeout(err))
	assert.Equal(t, []int{0}, result.InDoubtBatches())
	assert.Len(t, result.InDoubtNodes(), 10)
	assert.Len(t, result.Nodes, 10)
}

func TestBulkRejectsInvalidInputBeforeSending(t *testing.T) {
	c, state := newTestClient(t, 0)

	_, err := c.Node.BulkSetPower(context.Background(), []string{"node1"}, "sideways", batch.Options{})
	var invalid *pkg.InvalidArgumentError
	require.ErrorAs(t, err, &invalid)

	_, err = c.Node.BulkDelete(context.Background(), nil, batch.Options{})
	require.ErrorAs(t, err, &invalid)

	_, err = c.Node.BulkUpdate(context.Background(), []string{"node1"}, nil, batch.Options{})
	require.ErrorAs(t, err, &invalid)

	assert.Equal(t, 0, state.Requests("nodes.set_power"))
	assert.Equal(t, 0, state.Requests("nodes.delete"))
}

func TestBulkUpdateAppliesAliases(t *testing.T) {
	c, state := newTestClient(t, 0)
	createNodes(t, c, []string{"node1", "node2"})

	patches, err := ParsePatches([]string{"control/bmc_address=10.0.0.9", "arch="}, NodeFieldAliases)
	require.NoError(t, err)

	result, err := c.Node.BulkUpdate(context.Background(), []string{"node1", "node2"}, patches, batch.Options{})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"node1": "updated", "node2": "updated"}, result.Nodes)

	node, _ := state.Node("node2")
	assert.Equal(t, "10.0.0.9", node["control_info"].(map[string]interface{})["bmc_address"])
	assert.NotContains(t, node, "arch")
}

func TestSetProvision(t *testing.T) {
	c, _ := newTestClient(t, 0)
	createNodes(t, c, []string{"node1"})

	out, err := c.Node.SetProvision(context.Background(), []string{"node1"}, "diskless", ProvisionOptions{OSImage: "rhels7.3-ppc64le", Subnet: "10.0.0.0"})
	require.NoError(t, err)
	assert.Equal(t, "provision", out["node1"])

	_, err = c.Node.SetProvision(context.Background(), []string{"node1"}, "diskless", ProvisionOptions{OSImage: "missing"})
	assert.True(t, IsNotFound(err))
}

func TestShowResolvesOSImage(t *testing.T) {
	c, state := newTestClient(t, 0)
	state.AddNode(fakeserver.Record{"name": "node1", "osimage_id": "1", "mgt": "ipmi"})

	node, err := c.Node.Show(context.Background(), "node1", nil)
	require.NoError(t, err)
	assert.Equal(t, "rhels7.3-ppc64le", node.Text("osimage"))

	node, err = c.Node.Show(context.Background(), "node1", []string{"mgt"})
	require.NoError(t, err)
	assert.Equal(t, "node1", node.Text("name"))
	assert.Equal(t, "ipmi", node.Text("mgt"))
}

func TestGetAndExport(t *testing.T) {
	c, state := newTestClient(t, 0)
	state.AddNode(fakeserver.Record{
		"name":         "node1",
		"mgt":          "kvm",
		"control_info": map[string]interface{}{"ssh_address": "10.0.0.2"},
		"nics_info":    map[string]interface{}{"nics": []interface{}{map[string]interface{}{"mac": "42:87:0a:05:00:00", "primary": true}}},
		"rack":         "r12",
	})
	state.AddNode(fakeserver.Record{"name": "node2"})

	records, err := c.Node.Get(context.Background(), []string{"node2", "node1"}, []string{"nics"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Contains(t, records[0], "nics_info")

	nodes, err := c.Node.Export(context.Background(), []string{"node1"})
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "kvm", nodes[0].Mgt)
	assert.Equal(t, "r12", nodes[0].Extra["rack"])
	assert.Equal(t, true, nodes[0].NicsInfo.Nics[0]["primary"])
}

func TestResourceManagers(t *testing.T) {
	c, _ := newTestClient(t, 0)
	ctx := context.Background()

	networks, err := c.Network.List(ctx)
	require.NoError(t, err)
	require.Len(t, networks, 1)

	_, err = c.Network.Create(ctx, "data", []string{"subnet=192.168.0.0", "color=blue"})
	var invalid *pkg.InvalidArgumentError
	require.ErrorAs(t, err, &invalid)

	created, err := c.Network.Create(ctx, "data", []string{"subnet=192.168.0.0", "netmask=255.255.255.0"})
	require.NoError(t, err)
	assert.Equal(t, "data", created.Text("name"))

	updated, err := c.Network.Update(ctx, "data", []string{"gateway=192.168.0.254"})
	require.NoError(t, err)
	assert.Equal(t, "192.168.0.254", updated.Text("gateway"))

	shown, err := c.Network.Show(ctx, "data", []string{"gateway"})
	require.NoError(t, err)
	assert.Equal(t, Record{"name": "data", "gateway": "192.168.0.254"}, shown)

	require.NoError(t, c.Network.Delete(ctx, "data"))
	assert.True(t, IsNotFound(c.Network.Delete(ctx, "data")))

	_, err = c.Nic.Create(ctx, "", []string{"mac=42:87:0a:05:00:00"})
	require.ErrorAs(t, err, &invalid)

	nic, err := c.Nic.Create(ctx, "", []string{"mac=42:87:0a:05:00:00", "node=node1"})
	require.NoError(t, err)
	byMac, err := c.Nic.GetByMAC(ctx, "42:87:0a:05:00:00")
	require.NoError(t, err)
	assert.Equal(t, nic.Text("uuid"), byMac.Text("uuid"))

	images, err := c.OSImage.List(ctx)
	require.NoError(t, err)
	assert.Len(t, images, 1)

	service, err := c.Service.GetByHostname(ctx, "c910f03c05k21", nil)
	require.NoError(t, err)
	assert.Equal(t, "api", service.Text("type"))
}

func TestTimings(t *testing.T) {
	c, _ := newTestClient(t, 0)
	c.HTTP.timings = true

	_, err := c.Node.List(context.Background())
	require.NoError(t, err)
	timings := c.HTTP.Timings()
	require.Len(t, timings, 1)
	assert.Contains(t, timings[0].Label, "GET ")
	assert.GreaterOrEqual(t, int64(timings[0].Duration()), int64(0))

	c.HTTP.ResetTimings()
	assert.Empty(t, c.HTTP.Timings())
}
