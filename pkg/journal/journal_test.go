package journal

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/chenglch/xcat3client/pkg/batch"
	"github.com/chenglch/xcat3client/pkg/contrib"
	bolt "github.com/coreos/bbolt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestRecordInDoubtOperation(t *testing.T) {
	j := openJournal(t)

	result := &batch.Result{
		Nodes:   map[string]string{"node1": "on", "node2": "Power on failed"},
		Batches: 3,
		Failures: []*batch.BatchFailureError{
			{Index: 1, Nodes: []string{"node3"}, Err: errors.New("ipmi plugin crashed")},
		},
		InDoubt: map[int][]string{2: {"node4", "node5"}},
	}
	report := batch.ReportFor(result, true)

	e := NewEntry(contrib.OperationSetPower, time.Now().Add(-time.Minute), result, report)
	require.NoError(t, j.Put(e))

	got, err := j.Get(e.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, "set-power", got.Operation)
	assert.Equal(t, 1, got.Success)
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, "in-doubt", got.Status())
	require.Len(t, got.InDoubt, 1)
	assert.Equal(t, []string{"node4", "node5"}, got.InDoubt[0].Nodes)
	require.Len(t, got.Failed, 1)
	assert.Equal(t, "ipmi plugin crashed", got.Failed[0].Error)
}

func TestListIsOrderedAndPrunable(t *testing.T) {
	j := openJournal(t)
	now := time.Now()

	for i, op := range []contrib.Operation{contrib.OperationCreate, contrib.OperationUpdate, contrib.OperationDelete} {
		e := NewEntry(op, now.Add(time.Duration(i-3)*time.Hour), &batch.Result{Nodes: map[string]string{}}, &batch.Report{Checked: true})
		require.NoError(t, j.Put(e))
	}

	entries, err := j.List()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "create", entries[0].Operation)
	assert.Equal(t, "delete", entries[2].Operation)
	assert.Equal(t, "ok", entries[2].Status())

	removed, err := j.Prune(now.Add(-90 * time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	entries, err = j.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "delete", entries[0].Operation)
}

func TestGetMissing(t *testing.T) {
	j := openJournal(t)
	_, err := j.Get("does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path)
	require.NoError(t, err)
	e := NewEntry(contrib.OperationImport, time.Now(), nil, nil)
	require.NoError(t, j.Put(e))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()
	got, err := j.Get(e.ID)
	require.NoError(t, err)
	assert.Equal(t, "import", got.Operation)
}

func TestPruneFailureRemovesNothing(t *testing.T) {
	j := openJournal(t)
	now := time.Now()

	stale := NewEntry(contrib.OperationDelete, now.Add(-48*time.Hour), &batch.Result{Nodes: map[string]string{}}, &batch.Report{})
	require.NoError(t, j.Put(stale))
	require.NoError(t, j.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(operationsBucket).Put([]byte("zz-corrupt"), []byte("{"))
	}))

	removed, err := j.Prune(now)
	require.Error(t, err)
	assert.Equal(t, 0, removed)

	kept, err := j.Get(stale.ID)
	require.NoError(t, err)
	assert.Equal(t, stale.ID, kept.ID)
}
