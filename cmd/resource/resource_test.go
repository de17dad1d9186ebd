package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/chenglch/xcat3client/cmd/utils"
	"github.com/chenglch/xcat3client/pkg/fakeserver"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *fakeserver.Server {
	t.Helper()
	state, err := fakeserver.NewServer()
	require.NoError(t, err)
	require.NoError(t, state.SeedDefaults())

	ts := httptest.NewServer(state.Handler(nil))
	t.Cleanup(ts.Close)

	viper.Set("xcat3-url", ts.URL)
	utils.ResetClient()
	t.Cleanup(func() {
		viper.Reset()
		utils.ResetClient()
	})
	return state
}

func resetFlags(cmd *cobra.Command) {
	for _, c := range cmd.Commands() {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	utils.Out = &buf
	t.Cleanup(func() { utils.Out = os.Stdout })

	resetFlags(cmd)
	cmd.SetArgs(args)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func decode(t *testing.T, out string) map[string]interface{} {
	t.Helper()
	var record map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &record))
	return record
}

func TestNetworkCommands(t *testing.T) {
	state := newTestServer(t)

	out, err := run(t, NetworkCmd, "create", "data", "subnet=192.168.0.0", "netmask=255.255.255.0")
	require.NoError(t, err)
	assert.Equal(t, "data", decode(t, out)["name"])

	out, err = run(t, NetworkCmd, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "mgmt (network)\n")
	assert.Contains(t, out, "data (network)\n")

	out, err = run(t, NetworkCmd, "show", "mgmt", "--fields", "gateway")
	require.NoError(t, err)
	record := decode(t, out)
	assert.Equal(t, "10.0.0.1", record["gateway"])
	assert.Equal(t, "mgmt", record["name"])
	assert.NotContains(t, record, "domain")

	out, err = run(t, NetworkCmd, "update", "data", "gateway=192.168.0.254", "netmask=")
	require.NoError(t, err)
	record = decode(t, out)
	assert.Equal(t, "192.168.0.254", record["gateway"])
	assert.NotContains(t, record, "netmask")

	out, err = run(t, NetworkCmd, "delete", "data")
	require.NoError(t, err)
	assert.Equal(t, "data deleted\n", out)
	assert.Equal(t, 1, state.Requests("networks.delete"))
}

func TestCreateRejectsUnknownField(t *testing.T) {
	state := newTestServer(t)

	_, err := run(t, NetworkCmd, "create", "data", "color=blue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid fields are")
	assert.Equal(t, 0, state.Requests("networks.create"))
}

func TestNicCommands(t *testing.T) {
	state := newTestServer(t)

	_, err := run(t, NicCmd, "create", "mac=42:87:0a:05:00:00")
	require.Error(t, err)
	assert.Equal(t, 0, state.Requests("nics.create"))

	out, err := run(t, NicCmd, "create", "mac=42:87:0a:05:00:00", "node=compute1", "name=eth0")
	require.NoError(t, err)
	uuid, _ := decode(t, out)["uuid"].(string)
	require.NotEmpty(t, uuid)

	out, err = run(t, NicCmd, "list")
	require.NoError(t, err)
	assert.Equal(t, uuid+" (uuid) 42:87:0a:05:00:00 (mac)\n", out)

	out, err = run(t, NicCmd, "show", "--mac", "42:87:0a:05:00:00")
	require.NoError(t, err)
	assert.Equal(t, "compute1", decode(t, out)["node"])

	_, err = run(t, NicCmd, "show")
	require.Error(t, err)
}

func TestPasswdAndOSImageCommands(t *testing.T) {
	newTestServer(t)

	out, err := run(t, PasswdCmd, "list")
	require.NoError(t, err)
	assert.Equal(t, "system (passwd)\n", out)

	out, err = run(t, PasswdCmd, "delete", "system")
	require.NoError(t, err)
	assert.Equal(t, "system deleted\n", out)

	out, err = run(t, PasswdCmd, "list")
	require.NoError(t, err)
	assert.Equal(t, "Could not find any resource.\n", out)

	out, err = run(t, OSImageCmd, "list")
	require.NoError(t, err)
	assert.Equal(t, "rhels7.3-ppc64le (osimage)\n", out)

	for _, c := range OSImageCmd.Commands() {
		assert.NotEqual(t, "create", c.Name())
	}
}

func TestServiceCommands(t *testing.T) {
	newTestServer(t)

	out, err := run(t, ServiceCmd, "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.ElementsMatch(t, []string{
		"c910f03c05k21(api): online workers: 4",
		"c910f03c05k22(conductor): offline",
	}, lines)

	out, err = run(t, ServiceCmd, "list", "--table")
	require.NoError(t, err)
	assert.Contains(t, out, "Hostname")
	assert.Contains(t, out, "conductor")

	out, err = run(t, ServiceCmd, "show", "c910f03c05k21")
	require.NoError(t, err)
	assert.Equal(t, "api", decode(t, out)["type"])

	_, err = run(t, ServiceCmd, "show", "unknown")
	require.Error(t, err)
}
