package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chenglch/xcat3client/pkg/fakeserver"
	"github.com/chenglch/xcat3client/pkg/noderange"
	"github.com/chenglch/xcat3client/pkg/runtime"
	pkgutils "github.com/chenglch/xcat3client/pkg/utils"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	err := viper.BindEnv("debug", "XCAT3CLIENT_DEBUG", "DEBUG")
	if err != nil {
		log.Info("Could not bind env")
	}
	fakeServerCmd.Flags().String("listen", ":3010", "listen address")
	fakeServerCmd.Flags().String("seed-nodes", "", "node range enrolled at startup, like node[1-7000]")
	fakeServerCmd.Flags().Duration("latency", 0, "delay added to every request")
	if viper.GetBool("debug") {
		RootCmd.AddCommand(fakeServerCmd)
	}
}

var fakeServerCmd = &cobra.Command{
	Use:    "fake-server",
	Short:  "Serve an in-memory xCAT3 API to exercise the client",
	Hidden: true,
	Long: `
The fake server keeps nodes, networks, nics, osimages, passwords and services
in memory and answers the xCAT3 REST API under /v1. Prometheus metrics are
served on /metrics. It is used to test bulk operations without a cluster.
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		listen, err := flags.GetString("listen")
		if err != nil {
			return err
		}
		seed, err := flags.GetString("seed-nodes")
		if err != nil {
			return err
		}
		latency, err := flags.GetDuration("latency")
		if err != nil {
			return err
		}

		runtime.OptimizeRuntime()

		state, err := fakeserver.NewServer()
		if err != nil {
			return err
		}
		if err := state.SeedDefaults(); err != nil {
			return err
		}
		if seed != "" {
			names, err := noderange.Expand(seed)
			if err != nil {
				return err
			}
			for _, name := range names {
				state.AddNode(fakeserver.Record{"name": name, "mgt": "ipmi", "arch": "x86_64"})
			}
			log.Infof("Enrolled %d nodes", len(names))
		}
		if latency > 0 {
			state.SetInjector(func(route string, nodes []string) *fakeserver.Fault {
				return &fakeserver.Fault{Delay: latency}
			})
		}

		server, err := fakeserver.NewHTTPServer(listen, state, map[string]string{
			"listen":  listen,
			"nodes":   fmt.Sprintf("%d", len(state.NodeNames())),
			"latency": latency.String(),
		})
		if err != nil {
			return err
		}

		exitSig := make(chan os.Signal, 1)
		signal.Notify(exitSig, syscall.SIGINT, os.Interrupt, syscall.SIGTERM)

		// Exit
		go func() {
			s := <-exitSig
			log.Infof("Signal %s received, shutting down gracefully", s)
			go pkgutils.ForceExit(exitSig, 5*time.Second)
			if err := server.Shutdown(); err != nil {
				log.Errorf("Could not gracefully exit: %v", err)
				os.Exit(1)
			}
		}()

		log.Infof("Starting fake xCAT3 service on %s", server.GetListenAddr())
		return server.Run()
	},
}
