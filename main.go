package main

import (
	"context"
	"fmt"
	"os"

	"github.com/chenglch/xcat3client/cmd"
	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
)

func init() {
	log.SetOutput(os.Stderr)
}

func main() {
	if err := cmd.RootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("ERROR: %v", err))
		os.Exit(1)
	}
}
