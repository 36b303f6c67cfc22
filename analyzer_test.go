package recall

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilati06/recall/internal/rclerr"
)

func Test_Analyzer_AnalyzeText(t *testing.T) {
	assert := assert.New(t)

	result, err := New(Config{}, nil).AnalyzeText(`
		individuals: alice, bob;
		O[pay](alice->bob) / O[compensate](alice->bob) /;
	`)
	require.NoError(t, err)

	m := result.Metrics()
	assert.Equal(4, m.States)
	assert.Equal(4, m.Transitions)
	assert.False(m.ConflictFound)
	assert.Zero(m.ConflictCount)
	assert.NotEmpty(result.Summary())
}

func Test_Analyzer_ConflictReported(t *testing.T) {
	assert := assert.New(t)

	result, err := New(Config{}, nil).AnalyzeText(`
		individuals: alice;
		O[pay] & F[pay];
	`)
	require.NoError(t, err)

	m := result.Metrics()
	assert.True(m.ConflictFound)
	assert.Equal(1, m.ConflictCount)
	assert.Contains(result.Summary(), "conflict")
}

func Test_Analyzer_AnalyzeFile(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "contract.rcl")
	require.NoError(t, os.WriteFile(path, []byte("P[deliver](bob);"), 0o644))

	result, err := New(Config{}, nil).AnalyzeFile(path)
	require.NoError(t, err)

	assert.Equal(2, result.Automaton.StateCount())
}

func Test_Analyzer_ParseErrors(t *testing.T) {
	assert := assert.New(t)

	_, err := New(Config{}, nil).AnalyzeText("O[pay")
	assert.ErrorIs(err, rclerr.ErrParse)

	_, err = New(Config{}, nil).AnalyzeFile(filepath.Join(t.TempDir(), "missing.rcl"))
	assert.Error(err)
}

func Test_Analyzer_FreshTablePerRun(t *testing.T) {
	assert := assert.New(t)

	a := New(Config{}, nil)

	r1, err := a.AnalyzeText("P[pay](alice);")
	require.NoError(t, err)
	r2, err := a.AnalyzeText("P[deliver](bob);")
	require.NoError(t, err)

	// both contracts get ids starting from 1 in their own tables
	pay, ok := r1.Table.Lookup("pay")
	require.True(t, ok)
	deliver, ok := r2.Table.Lookup("deliver")
	require.True(t, ok)
	assert.Equal(pay.ID(), deliver.ID())

	_, crossed := r2.Table.Lookup("pay")
	assert.False(crossed)
}
