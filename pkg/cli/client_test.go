package cli

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromViper(t *testing.T) {
	viper.Set("xcat3-url", "http://10.0.0.1:3010/v1")
	viper.Set("max-retries", 3)
	viper.Set("retry-interval", 4)
	viper.Set("timeout", "90s")
	viper.Set("batch-threshold", 100)
	viper.Set("shards", 4)
	viper.Set("workers", 2)
	viper.Set("batch-timeout", "10m")
	defer viper.Reset()

	cfg := Config()
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 4*time.Second, cfg.RetryInterval)
	assert.Equal(t, 90*time.Second, cfg.Timeout)

	c, err := NewCLIClient()
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.1:3010", c.HTTP.Endpoint().String())

	opts := BatchOptions()
	assert.Equal(t, 100, opts.Threshold)
	assert.Equal(t, 4, opts.Shards)
	assert.Equal(t, 2, opts.MaxWorkers)
	assert.Equal(t, 10*time.Minute, opts.Timeout)
}
