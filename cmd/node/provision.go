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
	setProvisionCmd.Flags().String("osimage", "", "name of the osimage to deploy")
	setProvisionCmd.Flags().String("subnet", "", "subnet used for the dhcp configuration")
	NodeCmd.AddCommand(setProvisionCmd)
}

var setProvisionCmd = &cobra.Command{
	Use:   "set-provision <nodes> [" + strings.Join(client.ProvisionTargets, "|") + "]",
	Short: "Deploy nodes or refresh their dhcp and hosts configuration",
	Long: `
Without a target the nodes are prepared for their next network boot.
`,
	Args:      cobra.RangeArgs(1, 2),
	ValidArgs: client.ProvisionTargets,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := nodesArg(args)
		if err != nil {
			return err
		}

		var target string
		if len(args) > 1 {
			target = args[1]
		}

		provision := client.ProvisionOptions{}
		if provision.OSImage, err = cmd.Flags().GetString("osimage"); err != nil {
			return err
		}
		if provision.Subnet, err = cmd.Flags().GetString("subnet"); err != nil {
			return err
		}

		return utils.RunBulk(cmd, contrib.OperationSetProvision, true, func(ctx context.Context, c *client.Client, opts batch.Options) (*batch.Result, error) {
			return c.Node.BulkSetProvision(ctx, names, target, provision, opts)
		})
	},
}
