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
	NodeCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:   "update <nodes> <path=value>...",
	Short: "Update attributes of registered nodes",
	Long: `
Every path=value argument adds or replaces an attribute, an empty value
removes it. The control and nics prefixes stand for control_info and
nics_info, for example control/bmc_password=secret.
`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := nodesArg(args)
		if err != nil {
			return err
		}
		patches, err := client.ParsePatches(args[1:], client.NodeFieldAliases)
		if err != nil {
			return err
		}
		return utils.RunBulk(cmd, contrib.OperationUpdate, true, func(ctx context.Context, c *client.Client, opts batch.Options) (*batch.Result, error) {
			return c.Node.BulkUpdate(ctx, names, patches, opts)
		})
	},
}
