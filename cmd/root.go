package cmd

import (
	"fmt"
	"time"

	"github.com/chenglch/xcat3client/cmd/utils"
	"github.com/chenglch/xcat3client/pkg"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().BoolP("debug", "d", false, "print debugging output")
	err := viper.BindPFlag("debug", RootCmd.PersistentFlags().Lookup("debug"))
	if err != nil {
		log.Fatalf("Could not bind flag: %v", err)
	}
	err = viper.BindEnv("debug", "XCAT3CLIENT_DEBUG", "DEBUG")
	if err != nil {
		log.Fatalf("Could not bind config from env: %v", err)
	}

	utils.BoolConfig(RootCmd, "verbose", "v", false, "print more verbose output")
	utils.StringConfig(RootCmd, "config", "", "", "config file (default is $HOME/.xcat3.yaml)")
	utils.StringConfig(RootCmd, "xcat3-url", "", pkg.DefaultEndpoint, "xCAT3 API endpoint")
	utils.IntConfig(RootCmd, "max-retries", "", pkg.DefaultMaxRetries, "maximum number of retries in case of conflict error, 0 disables retrying")
	utils.IntConfig(RootCmd, "retry-interval", "", int(pkg.DefaultRetryInterval/time.Second), "amount of time (in seconds) between retries")
	utils.DurationConfig(RootCmd, "timeout", "", pkg.DefaultRequestTimeout, "timeout of a single request")
	utils.BoolConfig(RootCmd, "insecure", "k", false, "do not verify the server certificate")
	utils.StringConfig(RootCmd, "os-cacert", "", "", "CA certificate bundle file")
	utils.StringConfig(RootCmd, "os-cert", "", "", "client certificate file")
	utils.StringConfig(RootCmd, "os-key", "", "", "client certificate key file")
	utils.BoolConfig(RootCmd, "json", "", false, "print machine readable JSON")
	utils.BoolConfig(RootCmd, "timings", "", false, "print call timing information")

	utils.IntConfig(RootCmd, "batch-threshold", "", pkg.BatchThreshold, "node count above which bulk requests are split")
	utils.IntConfig(RootCmd, "shards", "", 0, "number of batches, computed from the threshold when 0")
	utils.IntConfig(RootCmd, "workers", "", 0, "maximum batches in flight, one per batch when 0")
	utils.DurationConfig(RootCmd, "batch-timeout", "", pkg.BatchTimeout, "time to wait for all batches of a bulk operation")
	utils.StringConfig(RootCmd, "journal", "", "", "bolt file recording bulk operations")
	utils.StringConfig(RootCmd, "metrics-textfile", "", "", "file receiving operation metrics in the Prometheus text format")
}

var shortDescription = "xcat3 is the command line client of the xCAT3 cluster management service."

// RootCmd is the main entrypoint for the CLI application.
var RootCmd = &cobra.Command{
	Use:     "xcat3",
	Short:   shortDescription,
	Version: fmt.Sprintf("%s %s", pkg.Version, pkg.BuildDate),
	Long: `
xcat3 manages the nodes, networks, nics, osimages and passwords known to an
xCAT3 service. Node arguments accept ranges such as node[001-200],other and
requests spanning thousands of nodes are split into parallel batches.
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch {
		case viper.GetBool("debug"):
			log.SetLevel(log.DebugLevel)
		case viper.GetBool("verbose"):
			log.SetLevel(log.InfoLevel)
		default:
			log.SetLevel(log.WarnLevel)
		}

		if viper.GetInt("max-retries") < 0 {
			return fmt.Errorf("max-retries should be greater than or equal to 0")
		}
		if viper.GetInt("retry-interval") < 1 {
			return fmt.Errorf("retry-interval should be greater than or equal to 1")
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if !viper.GetBool("timings") {
			return nil
		}
		c := utils.ActiveClient()
		if c == nil {
			return nil
		}
		return printTimings(c.HTTP.Timings())
	},
}
