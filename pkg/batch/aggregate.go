package batch

import (
	"fmt"
	"sort"
)

// SuccessOutcomes is the closed set of outcome tokens counted as success.
// Any other outcome, including unknown text, is a failure.
var SuccessOutcomes = map[string]bool{
	"ok":        true,
	"updated":   true,
	"deleted":   true,
	"on":        true,
	"off":       true,
	"net":       true,
	"cdrom":     true,
	"disk":      true,
	"provision": true,
}

// IsSuccess reports whether outcome is in SuccessOutcomes
func IsSuccess(outcome string) bool {
	return SuccessOutcomes[outcome]
}

// Report is the reduced form of a bulk operation result
type Report struct {
	Success int
	Total   int
	Checked bool
	// Lines holds one "name: outcome" entry per node ordered by name.
	Lines []string

	Failures []*BatchFailureError
	InDoubt  map[int][]string
}

// Aggregate counts the outcomes using the success allow-list
func Aggregate(results map[string]string, check bool) *Report {
	return AggregateWith(results, IsSuccess, check)
}

// AggregateWith counts the outcomes using a custom success predicate
func AggregateWith(results map[string]string, success func(string) bool, check bool) *Report {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	report := &Report{Checked: check, Lines: make([]string, 0, len(names))}
	for _, name := range names {
		outcome := results[name]
		if check && success(outcome) {
			report.Success++
		}
		report.Total++
		report.Lines = append(report.Lines, name+": "+outcome)
	}
	return report
}

// ReportFor aggregates a result and carries over its failed and abandoned
// batches.
func ReportFor(result *Result, check bool) *Report {
	report := Aggregate(result.Nodes, check)
	report.Failures = result.Failures
	report.InDoubt = result.InDoubt
	return report
}

// Summary returns the tally line
func (r *Report) Summary() string {
	if r.Checked {
		return fmt.Sprintf("Success: %d  Total: %d", r.Success, r.Total)
	}
	return fmt.Sprintf("Total: %d", r.Total)
}

// BatchLines describes the failed and abandoned batches, one line each
func (r *Report) BatchLines() []string {
	var lines []string
	for _, f := range r.Failures {
		lines = append(lines, fmt.Sprintf("Batch %d failed (%d nodes): %v", f.Index, len(f.Nodes), f.Err))
	}

	for _, index := range r.InDoubtBatches() {
		lines = append(lines, fmt.Sprintf("Batch %d in doubt (%d nodes): no response before the deadline, the service may still apply it", index, len(r.InDoubt[index])))
	}
	return lines
}

// InDoubtBatches returns the sorted indices of the abandoned batches
func (r *Report) InDoubtBatches() []int {
	return sortedIndices(r.InDoubt)
}

// OK reports whether every node succeeded and every batch returned
func (r *Report) OK() bool {
	if len(r.Failures) > 0 || len(r.InDoubt) > 0 {
		return false
	}
	return !r.Checked || r.Success == r.Total
}
