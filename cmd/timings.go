package cmd

import (
	"fmt"
	"time"

	"github.com/chenglch/xcat3client/cmd/utils"
	"github.com/chenglch/xcat3client/pkg/client"
)

func printTimings(timings []client.Timing) error {
	if len(timings) == 0 {
		return nil
	}

	var total time.Duration
	rows := make([][]string, 0, len(timings)+1)
	for _, t := range timings {
		total += t.Duration()
		rows = append(rows, []string{t.Label, t.Start.Format(time.RFC3339), fmt.Sprintf("%.3f", t.Duration().Seconds())})
	}
	rows = append(rows, []string{"Total", "", fmt.Sprintf("%.3f", total.Seconds())})

	return utils.PrintTable([]string{"Request", "Start", "Seconds"}, rows)
}
