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
	NodeCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Enroll the nodes of a JSON or YAML data file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nodes, err := readNodes(args[0])
		if err != nil {
			return err
		}
		return utils.RunBulk(cmd, contrib.OperationImport, true, func(ctx context.Context, c *client.Client, opts batch.Options) (*batch.Result, error) {
			return c.Node.BulkCreate(ctx, nodes, contrib.OperationImport, opts)
		})
	},
}
