package node

import (
	"github.com/chenglch/xcat3client/pkg/noderange"
	"github.com/spf13/cobra"
)

// NodeCmd is the main cmd entrypoint for the node commands
var NodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Manage the nodes registered with the xCAT3 service",
	Long: `
Node arguments are node ranges: comma separated names where a token such as
compute[001-100] stands for compute001 to compute100.
`,
}

func nodesArg(args []string) ([]string, error) {
	return noderange.Expand(args[0])
}
