package node

import (
	"github.com/chenglch/xcat3client/cmd/utils"
	pkgutils "github.com/chenglch/xcat3client/pkg/utils"
	"github.com/spf13/cobra"
)

func init() {
	NodeCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list [nodes]",
	Short: "List the nodes registered with the xCAT3 service",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := utils.Client()
		if err != nil {
			return err
		}
		ctx, cancel := utils.Context(cmd)
		defer cancel()

		names, err := c.Node.List(ctx)
		if err != nil {
			return err
		}

		if len(args) > 0 {
			targets, err := nodesArg(args)
			if err != nil {
				return err
			}
			names = pkgutils.FilterStringList(names, pkgutils.StringListToMap(targets))
		}

		out := make([]string, 0, len(names))
		for _, name := range names {
			out = append(out, name+" (node)")
		}
		return utils.PrintList(out)
	},
}
