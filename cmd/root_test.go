package cmd

import (
	"bytes"
	"os"
	"testing"

	"github.com/chenglch/xcat3client/cmd/utils"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	RootCmd.SetArgs(args)
	RootCmd.SetOut(&bytes.Buffer{})
	RootCmd.SetErr(&bytes.Buffer{})
	return RootCmd.Execute()
}

func TestRetryValidation(t *testing.T) {
	err := execute(t, "--max-retries", "-1", "--retry-interval", "2", "history", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max-retries")

	err = execute(t, "--max-retries", "5", "--retry-interval", "0", "history", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry-interval")
}

func TestEnvironmentBinding(t *testing.T) {
	t.Setenv("XCAT3_URL", "http://xcat3.example.com:3010")
	t.Setenv("XCAT3_BATCH_THRESHOLD", "100")
	t.Setenv("XCAT3CLIENT_DEBUG", "true")

	assert.Equal(t, "http://xcat3.example.com:3010", viper.GetString("xcat3-url"))
	assert.Equal(t, 100, viper.GetInt("batch-threshold"))
	assert.True(t, viper.GetBool("debug"))
}

func TestSubcommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range RootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"node", "network", "nic", "osimage", "passwd", "service", "history", "version"} {
		assert.True(t, names[name], "missing command %s", name)
	}
}

func TestVersion(t *testing.T) {
	var buf bytes.Buffer
	utils.Out = &buf
	defer func() { utils.Out = os.Stdout }()

	require.NoError(t, execute(t, "--max-retries", "5", "--retry-interval", "2", "version"))
	assert.Contains(t, buf.String(), "xcat3 client version dev")
	assert.Contains(t, buf.String(), shortDescription)
}
