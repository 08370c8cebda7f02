package history

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/quantumchain-labs/quantumchain/pkg/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s, err := NewSQLiteStore(logger, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func finishedJob(id string, finished time.Time) *types.Job {
	started := finished.Add(-2 * time.Second)
	return &types.Job{
		ID:         id,
		Type:       "bell-state",
		Provider:   "qsim-local",
		Status:     types.StatusCompleted,
		Shots:      1024,
		StartedAt:  &started,
		FinishedAt: &finished,
		Result:     &types.JobResult{Fidelity: 0.95},
	}
}

func TestRecordAndRecent(t *testing.T) {
	s := newTestStore(t)

	now := time.Now().Truncate(time.Second)
	require.NoError(t, s.Record(finishedJob("job-1", now.Add(-time.Minute))))
	require.NoError(t, s.Record(finishedJob("job-2", now)))

	records, err := s.Recent(10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "job-2", records[0].JobID)
	assert.Equal(t, "job-1", records[1].JobID)
	assert.Equal(t, "completed", records[0].Status)
	assert.Equal(t, 1024, records[0].Shots)
	assert.InDelta(t, 0.95, records[0].Fidelity, 1e-9)
	require.NotNil(t, records[0].FinishedAt)
	assert.Equal(t, now.Unix(), records[0].FinishedAt.Unix())
}

func TestRecordWithoutResult(t *testing.T) {
	s := newTestStore(t)

	now := time.Now()
	job := &types.Job{
		ID:         "job-failed",
		Type:       "grover",
		Provider:   "ionq-aria",
		Status:     types.StatusFailed,
		Shots:      512,
		FinishedAt: &now,
	}
	require.NoError(t, s.Record(job))

	records, err := s.Recent(10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "failed", records[0].Status)
	assert.Zero(t, records[0].Fidelity)
	assert.Nil(t, records[0].StartedAt)
}

func TestRecentLimit(t *testing.T) {
	s := newTestStore(t)

	now := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(finishedJob("job", now.Add(time.Duration(i)*time.Second))))
	}

	records, err := s.Recent(3)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	// Non-positive limit falls back to the default
	all, err := s.Recent(0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestNewSQLiteStoreUnwritablePath(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	// Missing parent directory: the caller downgrades to NopRecorder on
	// this error instead of aborting.
	_, err := NewSQLiteStore(logger, filepath.Join(t.TempDir(), "missing", "history.db"))
	assert.Error(t, err)
}

func TestNopRecorder(t *testing.T) {
	var r NopRecorder
	assert.NoError(t, r.Record(&types.Job{}))

	records, err := r.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, records)
}
