package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	tm "github.com/buger/goterm"
	"github.com/chenglch/xcat3client/pkg/batch"
	"github.com/fatih/color"
	"github.com/spf13/viper"
)

// Out receives the command output
var Out io.Writer = os.Stdout

// JSONOutput reports whether --json was given
func JSONOutput() bool {
	return viper.GetBool("json")
}

// PrintList prints one item per line, or a JSON array with --json
func PrintList(items []string) error {
	if JSONOutput() {
		return printJSON(items, false)
	}
	if len(items) == 0 {
		_, err := fmt.Fprintln(Out, "Could not find any resource.")
		return err
	}
	for _, item := range items {
		if _, err := fmt.Fprintln(Out, item); err != nil {
			return err
		}
	}
	return nil
}

// PrintDict prints v as indented JSON
func PrintDict(v interface{}) error {
	if v == nil {
		_, err := fmt.Fprintln(Out, "Could not find any record")
		return err
	}
	return printJSON(v, !JSONOutput())
}

func printJSON(v interface{}, indent bool) error {
	enc := json.NewEncoder(Out)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "    ")
	}
	return enc.Encode(v)
}

// PrintTable prints rows under a header as aligned columns
func PrintTable(header []string, rows [][]string) error {
	if JSONOutput() {
		out := make([]map[string]string, 0, len(rows))
		for _, row := range rows {
			m := map[string]string{}
			for i, h := range header {
				if i < len(row) {
					m[strings.ToLower(h)] = row[i]
				}
			}
			out = append(out, m)
		}
		return printJSON(out, false)
	}

	table := tm.NewTable(0, 10, 5, ' ', 0)
	if _, err := fmt.Fprintln(table, strings.Join(header, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(table, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(Out, table.String())
	return err
}

type jsonReport struct {
	Nodes   map[string]string `json:"nodes"`
	Success *int              `json:"success,omitempty"`
	Total   int               `json:"total"`
	Failed  []int             `json:"failed_batches,omitempty"`
	InDoubt []int             `json:"in_doubt_batches,omitempty"`
}

// PrintReport prints the per-node outcomes, the tally line and the failed
// or abandoned batches.
func PrintReport(report *batch.Report, nodes map[string]string) error {
	if JSONOutput() {
		out := jsonReport{Nodes: nodes, Total: report.Total}
		if report.Checked {
			success := report.Success
			out.Success = &success
		}
		for _, f := range report.Failures {
			out.Failed = append(out.Failed, f.Index)
		}
		out.InDoubt = report.InDoubtBatches()
		return printJSON(out, false)
	}

	for _, line := range report.Lines {
		if _, err := fmt.Fprintln(Out, line); err != nil {
			return err
		}
	}

	summary := color.GreenString(report.Summary())
	if !report.OK() {
		summary = color.RedString(report.Summary())
	}
	if _, err := fmt.Fprintf(Out, "\n%s\n", summary); err != nil {
		return err
	}

	for _, line := range report.BatchLines() {
		if _, err := fmt.Fprintln(Out, color.YellowString(line)); err != nil {
			return err
		}
	}
	return nil
}
