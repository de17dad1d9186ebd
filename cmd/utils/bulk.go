package utils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chenglch/xcat3client/pkg/batch"
	"github.com/chenglch/xcat3client/pkg/cli"
	"github.com/chenglch/xcat3client/pkg/client"
	"github.com/chenglch/xcat3client/pkg/contrib"
	"github.com/chenglch/xcat3client/pkg/journal"
	"github.com/chenglch/xcat3client/pkg/metrics"
	"github.com/chenglch/xcat3client/pkg/runtime"
	pkgutils "github.com/chenglch/xcat3client/pkg/utils"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	clientLock   sync.Mutex
	activeClient *client.Client
)

// Client returns the xCAT3 client shared by the commands of one invocation
func Client() (*client.Client, error) {
	clientLock.Lock()
	defer clientLock.Unlock()

	if activeClient != nil {
		return activeClient, nil
	}
	c, err := cli.NewCLIClient()
	if err != nil {
		return nil, err
	}
	activeClient = c
	return c, nil
}

// ActiveClient returns the client if a command created one
func ActiveClient() *client.Client {
	clientLock.Lock()
	defer clientLock.Unlock()
	return activeClient
}

// ResetClient drops the shared client, the next call to Client reads the
// configuration again.
func ResetClient() {
	clientLock.Lock()
	defer clientLock.Unlock()
	activeClient = nil
}

// Context returns the command context, cancelled on SIGINT or SIGTERM
func Context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return pkgutils.SignalContext(parent, 5*time.Second)
}

// BulkFunc runs one bulk node operation with the given batch options
type BulkFunc func(ctx context.Context, c *client.Client, opts batch.Options) (*batch.Result, error)

// IncompleteError is returned when a bulk operation did not succeed on
// every node.
type IncompleteError struct {
	Operation contrib.Operation
	Success   int
	Total     int
	Checked   bool
	JournalID string
}

func (e *IncompleteError) Error() string {
	msg := fmt.Sprintf("%s did not complete on every node", e.Operation)
	if e.Checked {
		msg = fmt.Sprintf("%s, %d of %d nodes succeeded", msg, e.Success, e.Total)
	}
	if e.JournalID != "" {
		msg = fmt.Sprintf("%s, see 'xcat3 history show %s'", msg, e.JournalID)
	}
	return msg
}

// RunBulk runs a bulk operation, prints the per-node outcomes with the tally
// line and records the operation in the journal and the metrics textfile
// when these are configured. check enables success counting.
func RunBulk(cmd *cobra.Command, op contrib.Operation, check bool, run BulkFunc) error {
	c, err := Client()
	if err != nil {
		return err
	}

	runtime.OptimizeRuntime()

	ctx, cancel := Context(cmd)
	defer cancel()

	opts := cli.BatchOptions()
	opts.Operation = op

	started := time.Now()
	result, err := run(ctx, c, opts)
	if result == nil {
		return err
	}
	if err != nil {
		log.Debugf("Bulk %s returned: %v", op, err)
	}

	report := batch.ReportFor(result, check)
	metrics.ObserveNodes(op, report.Success, report.Total)

	if err := PrintReport(report, result.Nodes); err != nil {
		return err
	}

	id := record(op, started, result, report)
	writeMetrics()

	if !report.OK() {
		return &IncompleteError{
			Operation: op,
			Success:   report.Success,
			Total:     report.Total,
			Checked:   report.Checked,
			JournalID: id,
		}
	}
	return nil
}

func record(op contrib.Operation, started time.Time, result *batch.Result, report *batch.Report) string {
	path := viper.GetString("journal")
	if path == "" {
		return ""
	}

	j, err := journal.Open(path)
	if err != nil {
		log.Warnf("Could not open journal: %v", err)
		return ""
	}
	defer func() {
		if err := j.Close(); err != nil {
			log.Warnf("Could not close journal: %v", err)
		}
	}()

	entry := journal.NewEntry(op, started, result, report)
	if err := j.Put(entry); err != nil {
		log.Warnf("Could not write journal entry: %v", err)
		return ""
	}
	log.Debugf("Recorded %s as journal entry %s", op, entry.ID)
	return entry.ID
}

func writeMetrics() {
	path := viper.GetString("metrics-textfile")
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(path); err != nil {
		log.Warnf("Could not write metrics textfile: %v", err)
	}
}

// OpenJournal opens the journal configured with --journal
func OpenJournal() (*journal.Journal, error) {
	path := viper.GetString("journal")
	if path == "" {
		return nil, fmt.Errorf("no journal configured, set --journal or XCAT3_JOURNAL")
	}
	return journal.Open(path)
}
