// Package journal keeps a local record of bulk operations so that batches
// left in doubt can be inspected after the command exited.
package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/chenglch/xcat3client/pkg/batch"
	"github.com/chenglch/xcat3client/pkg/contrib"
	"github.com/chenglch/xcat3client/pkg/metrics"
	bolt "github.com/coreos/bbolt"
	uuid "github.com/satori/go.uuid"
	log "github.com/sirupsen/logrus"
)

var operationsBucket = []byte("operations")

// ErrNotFound is returned when no entry matches an id
var ErrNotFound = errors.New("journal entry not found")

// BatchEntry describes one failed or abandoned batch
type BatchEntry struct {
	Index int      `json:"index"`
	Nodes []string `json:"nodes"`
	Error string   `json:"error,omitempty"`
}

// Entry is the record of one bulk operation
type Entry struct {
	ID        string       `json:"id"`
	Operation string       `json:"operation"`
	Started   time.Time    `json:"started"`
	Finished  time.Time    `json:"finished"`
	Batches   int          `json:"batches"`
	Total     int          `json:"total"`
	Success   int          `json:"success"`
	Checked   bool         `json:"checked"`
	Failed    []BatchEntry `json:"failed,omitempty"`
	InDoubt   []BatchEntry `json:"in_doubt,omitempty"`
}

// Status summarises the entry in one word
func (e *Entry) Status() string {
	switch {
	case len(e.InDoubt) > 0:
		return "in-doubt"
	case len(e.Failed) > 0:
		return "failed"
	case e.Checked && e.Success != e.Total:
		return "partial"
	}
	return "ok"
}

// NewEntry builds the entry of a finished operation
func NewEntry(op contrib.Operation, started time.Time, result *batch.Result, report *batch.Report) *Entry {
	e := &Entry{
		ID:        uuid.NewV4().String(),
		Operation: op.String(),
		Started:   started.UTC(),
		Finished:  time.Now().UTC(),
	}
	if report != nil {
		e.Total = report.Total
		e.Success = report.Success
		e.Checked = report.Checked
	}
	if result == nil {
		return e
	}

	e.Batches = result.Batches
	for _, f := range result.Failures {
		e.Failed = append(e.Failed, BatchEntry{Index: f.Index, Nodes: f.Nodes, Error: f.Err.Error()})
	}
	for _, index := range result.InDoubtBatches() {
		e.InDoubt = append(e.InDoubt, BatchEntry{Index: index, Nodes: result.InDoubt[index]})
	}
	return e
}

// Journal stores entries in a bolt database
type Journal struct {
	db *bolt.DB
}

// Open opens or creates the journal at path
func Open(path string) (*Journal, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("could not open journal %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(operationsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

// Put stores an entry
func (j *Journal) Put(e *Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewV4().String()
	}
	return j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(operationsBucket)

		buf, err := json.Marshal(e)
		if err != nil {
			return err
		}
		return b.Put([]byte(e.ID), buf)
	})
}

// Get returns the entry whose id starts with prefix. The prefix must be
// unambiguous.
func (j *Journal) Get(prefix string) (*Entry, error) {
	var matches []*Entry

	err := j.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(operationsBucket).Cursor()
		for k, v := c.Seek([]byte(prefix)); k != nil && strings.HasPrefix(string(k), prefix); k, v = c.Next() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			matches = append(matches, &e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, prefix)
	case 1:
		return matches[0], nil
	}
	return nil, fmt.Errorf("journal id %s is ambiguous, %d entries match", prefix, len(matches))
}

// List returns all entries, oldest first
func (j *Journal) List() ([]*Entry, error) {
	var entries []*Entry

	err := j.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(operationsBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			entries = append(entries, &e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(a, b int) bool {
		return entries[a].Started.Before(entries[b].Started)
	})
	return entries, nil
}

// Prune removes entries started before the given time and returns their
// number.
func (j *Journal) Prune(before time.Time) (int, error) {
	removed := 0
	err := j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(operationsBucket)
		c := b.Cursor()

		var stale [][]byte
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			if e.Started.Before(before) {
				stale = append(stale, append([]byte(nil), k...))
			}
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		log.Infof("Journal prune removed %d entries", removed)
	}
	return removed, nil
}

// Close exports the database statistics and closes the journal
func (j *Journal) Close() error {
	stats := j.db.Stats()
	metrics.ReportBoltStats(&stats)
	return j.db.Close()
}
