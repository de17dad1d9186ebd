package cmd

import (
	"fmt"

	"github.com/chenglch/xcat3client/cmd/utils"
	"github.com/chenglch/xcat3client/pkg"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the xcat3 client version",
	Run: func(cmd *cobra.Command, args []string) {
		utils.PrintHeader(shortDescription)
		fmt.Fprintf(utils.Out, "xcat3 client version %s (built %s)\n", pkg.Version, pkg.BuildDate)
	},
}
