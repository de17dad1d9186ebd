package resource

import (
	"fmt"

	"github.com/chenglch/xcat3client/cmd/utils"
	"github.com/chenglch/xcat3client/pkg/client"
	"github.com/spf13/cobra"
)

func init() {
	serviceShowCmd.Flags().String("fields", "", "comma separated fields fetched from the service")
	serviceListCmd.Flags().BoolP("table", "t", false, "print the services as a table")
	ServiceCmd.AddCommand(serviceShowCmd)
	ServiceCmd.AddCommand(serviceListCmd)
}

// ServiceCmd inspects the registered xCAT3 service instances
var ServiceCmd = &cobra.Command{
	Use:   "service",
	Short: "Inspect the xCAT3 service instances",
}

func online(r client.Record) bool {
	v, _ := r["online"].(bool)
	return v
}

func serviceLine(r client.Record) string {
	status := "offline"
	if online(r) {
		status = "online"
	}
	line := fmt.Sprintf("%s(%s): %s", r.Text("hostname"), r.Text("type"), status)
	if online(r) {
		line += fmt.Sprintf(" workers: %v", r["workers"])
	}
	return line
}

var serviceShowCmd = &cobra.Command{
	Use:   "show <hostname>",
	Short: "Show detailed information about a service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := cmd.Flags().GetString("fields")
		if err != nil {
			return err
		}
		c, err := utils.Client()
		if err != nil {
			return err
		}
		ctx, cancel := utils.Context(cmd)
		defer cancel()

		record, err := c.Service.GetByHostname(ctx, args[0], client.SplitFields(raw))
		if err != nil {
			return err
		}
		return utils.PrintDict(record)
	},
}

var serviceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the services registered with the xCAT3 service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := cmd.Flags().GetBool("table")
		if err != nil {
			return err
		}
		c, err := utils.Client()
		if err != nil {
			return err
		}
		ctx, cancel := utils.Context(cmd)
		defer cancel()

		services, err := c.Service.List(ctx)
		if err != nil {
			return err
		}

		if table {
			rows := make([][]string, 0, len(services))
			for _, s := range services {
				rows = append(rows, []string{s.Text("hostname"), s.Text("type"), fmt.Sprintf("%t", online(s)), fmt.Sprintf("%v", s["workers"])})
			}
			return utils.PrintTable([]string{"Hostname", "Type", "Online", "Workers"}, rows)
		}

		lines := make([]string, 0, len(services))
		for _, s := range services {
			lines = append(lines, serviceLine(s))
		}
		return utils.PrintList(lines)
	},
}
