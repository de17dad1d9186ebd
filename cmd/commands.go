package cmd

import (
	"github.com/chenglch/xcat3client/cmd/history"
	"github.com/chenglch/xcat3client/cmd/node"
	"github.com/chenglch/xcat3client/cmd/resource"
)

func init() {
	RootCmd.AddCommand(node.NodeCmd)
	RootCmd.AddCommand(resource.NetworkCmd)
	RootCmd.AddCommand(resource.NicCmd)
	RootCmd.AddCommand(resource.OSImageCmd)
	RootCmd.AddCommand(resource.PasswdCmd)
	RootCmd.AddCommand(resource.ServiceCmd)
	RootCmd.AddCommand(history.HistoryCmd)
}
