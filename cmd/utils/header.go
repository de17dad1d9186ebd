package utils

import (
	"fmt"

	"github.com/common-nighthawk/go-figure"
)

// PrintHeader writes the xcat3 banner and a subtitle to the command output
func PrintHeader(subtitle string) {
	logo := figure.NewFigure("xcat3", "small", true)
	fmt.Fprint(Out, logo.String())
	if subtitle != "" {
		fmt.Fprintf(Out, "\n %s\n\n", subtitle)
	}
}
