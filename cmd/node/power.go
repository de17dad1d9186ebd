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
	NodeCmd.AddCommand(setPowerCmd)
	NodeCmd.AddCommand(getPowerCmd)
}

var setPowerCmd = &cobra.Command{
	Use:       "set-power <nodes> <" + strings.Join(client.PowerStates, "|") + ">",
	Short:     "Power nodes on or off or reboot them",
	Args:      cobra.ExactArgs(2),
	ValidArgs: client.PowerStates,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := nodesArg(args)
		if err != nil {
			return err
		}
		return utils.RunBulk(cmd, contrib.OperationSetPower, true, func(ctx context.Context, c *client.Client, opts batch.Options) (*batch.Result, error) {
			return c.Node.BulkSetPower(ctx, names, args[1], opts)
		})
	},
}

var getPowerCmd = &cobra.Command{
	Use:   "get-power <nodes>",
	Short: "Get the power state of nodes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := nodesArg(args)
		if err != nil {
			return err
		}
		return utils.RunBulk(cmd, contrib.OperationGetPower, true, func(ctx context.Context, c *client.Client, opts batch.Options) (*batch.Result, error) {
			return c.Node.BulkGetPower(ctx, names, opts)
		})
	},
}
