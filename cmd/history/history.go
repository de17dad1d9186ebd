// Package history inspects the bulk operations recorded in the journal.
package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/chenglch/xcat3client/cmd/utils"
	"github.com/chenglch/xcat3client/pkg/journal"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	pruneCmd.Flags().Duration("older-than", 30*24*time.Hour, "remove entries started before this age")
	HistoryCmd.AddCommand(listCmd, showCmd, pruneCmd)
}

// HistoryCmd is the main cmd entrypoint for the journal commands
var HistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the bulk operations recorded with --journal",
}

func withJournal(fn func(j *journal.Journal) error) error {
	j, err := utils.OpenJournal()
	if err != nil {
		return err
	}
	defer func() {
		if err := j.Close(); err != nil {
			log.Warnf("Could not close journal: %v", err)
		}
	}()
	return fn(j)
}

func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the recorded operations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withJournal(func(j *journal.Journal) error {
			entries, err := j.List()
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				result := fmt.Sprintf("%d", e.Total)
				if e.Checked {
					result = fmt.Sprintf("%d/%d", e.Success, e.Total)
				}
				rows = append(rows, []string{
					shortID(e.ID),
					e.Operation,
					e.Started.Local().Format(time.RFC3339),
					e.Finished.Sub(e.Started).Round(time.Millisecond).String(),
					result,
					fmt.Sprintf("%d", e.Batches),
					e.Status(),
				})
			}
			return utils.PrintTable([]string{"ID", "Operation", "Started", "Duration", "Nodes", "Batches", "Status"}, rows)
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a recorded operation with its failed and in doubt batches",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withJournal(func(j *journal.Journal) error {
			entry, err := j.Get(args[0])
			if err != nil {
				return err
			}
			return utils.PrintDict(entry)
		})
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old entries from the journal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		age, err := cmd.Flags().GetDuration("older-than")
		if err != nil {
			return err
		}
		return withJournal(func(j *journal.Journal) error {
			removed, err := j.Prune(time.Now().Add(-age))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(utils.Out, "Removed %d entries\n", removed)
			return err
		})
	},
}
