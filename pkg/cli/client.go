package cli

import (
	"time"

	"github.com/chenglch/xcat3client/pkg/batch"
	"github.com/chenglch/xcat3client/pkg/client"
	"github.com/spf13/viper"
)

// Config returns the client configuration read from flags, environment and
// config file.
func Config() client.Config {
	return client.Config{
		Endpoint:      viper.GetString("xcat3-url"),
		MaxRetries:    viper.GetInt("max-retries"),
		RetryInterval: time.Duration(viper.GetInt("retry-interval")) * time.Second,
		Timeout:       viper.GetDuration("timeout"),
		CAFile:        viper.GetString("os-cacert"),
		CertFile:      viper.GetString("os-cert"),
		KeyFile:       viper.GetString("os-key"),
		Insecure:      viper.GetBool("insecure"),
		Timings:       viper.GetBool("timings"),
	}
}

// NewCLIClient returns a new xCAT3 client
func NewCLIClient() (*client.Client, error) {
	return client.NewClient(Config())
}

// BatchOptions returns the bulk operation settings
func BatchOptions() batch.Options {
	return batch.Options{
		Threshold:  viper.GetInt("batch-threshold"),
		Shards:     viper.GetInt("shards"),
		MaxWorkers: viper.GetInt("workers"),
		Timeout:    viper.GetDuration("batch-timeout"),
	}
}
