package node

import (
	"context"
	"strings"

	"github.com/chenglch/xcat3client/cmd/utils"
	"github.com/chenglch/xcat3client/pkg/batch"
	"github.com/chenglch/xcat3client/pkg/client"
	"github.com/chenglch/xcat3client/pkg/contrib"
	"github.com/spf13/cobra"
)

func init() {
	NodeCmd.AddCommand(setBootDeviceCmd)
	NodeCmd.AddCommand(getBootDeviceCmd)
}

var setBootDeviceCmd = &cobra.Command{
	Use:       "set-boot-device <nodes> <" + strings.Join(client.BootDevices, "|") + ">",
	Short:     "Set the next boot device of nodes",
	Args:      cobra.ExactArgs(2),
	ValidArgs: client.BootDevices,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := nodesArg(args)
		if err != nil {
			return err
		}
		return utils.RunBulk(cmd, contrib.OperationSetBootDevice, true, func(ctx context.Context, c *client.Client, opts batch.Options) (*batch.Result, error) {
			return c.Node.BulkSetBootDevice(ctx, names, args[1], opts)
		})
	},
}

var getBootDeviceCmd = &cobra.Command{
	Use:   "get-boot-device <nodes>",
	Short: "Get the next boot device of nodes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := nodesArg(args)
		if err != nil {
			return err
		}
		return utils.RunBulk(cmd, contrib.OperationGetBootDevice, true, func(ctx context.Context, c *client.Client, opts batch.Options) (*batch.Result, error) {
			return c.Node.BulkGetBootDevice(ctx, names, opts)
		})
	},
}
