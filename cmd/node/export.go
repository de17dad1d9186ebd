package node

import (
	"fmt"
	"os"

	"github.com/chenglch/xcat3client/cmd/utils"
	"github.com/spf13/cobra"
)

func init() {
	exportCmd.Flags().StringP("output", "o", "", "file receiving the node data, YAML for .yaml and .yml files, JSON otherwise")
	NodeCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <nodes>",
	Short: "Export nodes as a data file accepted by import",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := nodesArg(args)
		if err != nil {
			return err
		}
		output, err := cmd.Flags().GetString("output")
		if err != nil {
			return err
		}

		c, err := utils.Client()
		if err != nil {
			return err
		}
		ctx, cancel := utils.Context(cmd)
		defer cancel()

		nodes, err := c.Node.Export(ctx, names)
		if err != nil {
			return err
		}

		buf, err := encodeNodes(output, nodes)
		if err != nil {
			return err
		}

		if output == "" {
			_, err = fmt.Fprintln(utils.Out, string(buf))
			return err
		}
		if err := os.WriteFile(output, buf, 0644); err != nil {
			return err
		}
		_, err = fmt.Fprintf(utils.Out, "Exported %d nodes to %s\n", len(nodes), output)
		return err
	},
}
