package results

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilati06/recall/internal/export"
)

func Test_Store_RecordAndQuery(t *testing.T) {
	assert := assert.New(t)

	store, err := Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	defer store.Close()

	run := uuid.New()
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, Row{
		Run:  run,
		File: "first.rcl",
		Metrics: export.Metrics{
			TimeMS:      12,
			States:      5,
			Transitions: 8,
			Individuals: 2,
			Actions:     3,
			SizeMB:      0.25,
			PeakMemMB:   32,
		},
		Obs: "success",
	}))
	require.NoError(t, store.Record(ctx, Row{
		Run:  run,
		File: "second.rcl",
		Metrics: export.Metrics{
			ConflictFound: true,
			ConflictCount: 2,
		},
		Obs: "success",
	}))

	// rows from another run stay invisible
	require.NoError(t, store.Record(ctx, Row{Run: uuid.New(), File: "other.rcl", Obs: "success"}))

	rows, err := store.ForRun(ctx, run)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal("first.rcl", rows[0].File)
	assert.Equal(5, rows[0].Metrics.States)
	assert.Equal(int64(12), rows[0].Metrics.TimeMS)
	assert.False(rows[0].Metrics.ConflictFound)
	assert.False(rows[0].At.IsZero())

	assert.Equal("second.rcl", rows[1].File)
	assert.True(rows[1].Metrics.ConflictFound)
	assert.Equal(2, rows[1].Metrics.ConflictCount)
}

func Test_Store_ReopenKeepsRows(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "results.db")
	run := uuid.New()
	ctx := context.Background()

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, Row{Run: run, File: "kept.rcl", Obs: "success"}))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	rows, err := reopened.ForRun(ctx, run)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal("kept.rcl", rows[0].File)
}
