package node

import (
	"github.com/chenglch/xcat3client/cmd/utils"
	"github.com/chenglch/xcat3client/pkg/client"
	"github.com/spf13/cobra"
)

func init() {
	showCmd.Flags().String("fields", "", "comma separated fields fetched from the service, like mgt,name,nics")
	NodeCmd.AddCommand(showCmd)
}

type shownNode struct {
	Node string        `json:"node"`
	Attr client.Record `json:"attr"`
}

var showCmd = &cobra.Command{
	Use:   "show <nodes>",
	Short: "Show detailed information about nodes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := nodesArg(args)
		if err != nil {
			return err
		}
		raw, err := cmd.Flags().GetString("fields")
		if err != nil {
			return err
		}
		fields := client.SplitFields(raw)

		c, err := utils.Client()
		if err != nil {
			return err
		}
		ctx, cancel := utils.Context(cmd)
		defer cancel()

		var records []client.Record
		if len(names) == 1 {
			record, err := c.Node.Show(ctx, names[0], fields)
			if err != nil {
				return err
			}
			records = append(records, record)
		} else {
			records, err = c.Node.Get(ctx, names, fields)
			if err != nil {
				return err
			}
		}

		out := make([]shownNode, 0, len(records))
		for _, r := range records {
			out = append(out, shownNode{Node: r.Text("name"), Attr: r})
		}
		return utils.PrintDict(out)
	},
}
