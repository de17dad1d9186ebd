package node

import (
	"context"

	"github.com/chenglch/xcat3client/cmd/utils"
	"github.com/chenglch/xcat3client/pkg/batch"
	"github.com/chenglch/xcat3client/pkg/client"
	"github.com/chenglch/xcat3client/pkg/contrib"
	"github.com/spf13/cobra"
)

func init() {
	NodeCmd.AddCommand(deleteCmd)
}

var deleteCmd = &cobra.Command{
	Use:   "delete <nodes>",
	Short: "Unregister nodes from the xCAT3 service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := nodesArg(args)
		if err != nil {
			return err
		}
		return utils.RunBulk(cmd, contrib.OperationDelete, true, func(ctx context.Context, c *client.Client, opts batch.Options) (*batch.Result, error) {
			return c.Node.BulkDelete(ctx, names, opts)
		})
	},
}
