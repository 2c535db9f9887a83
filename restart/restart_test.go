package restart

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	var (
		ctx = context.Background()
		fs  = NewFileStore(filepath.Join(t.TempDir(), "restart.yaml"))
		s   = &Snapshot{
			RunID: NewRunID(),
			Time:  0.125,
			Step:  40,
			K:     2,
			Nb:    2,
			Ns:    1,
			U:     []float64{1, -0.5, 1.e-17, 3.25},
		}
	)
	_, err := fs.Load(ctx)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, fs.Save(ctx, s))
	got, err := fs.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	// Saving replaces the previous snapshot
	s.Step, s.U[0] = 41, 2
	require.NoError(t, fs.Save(ctx, s))
	got, err = fs.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 41, got.Step)
	assert.Equal(t, 2., got.U[0])
}

func TestValidate(t *testing.T) {
	s := &Snapshot{RunID: "run-1", K: 1, Nb: 1, Ns: 1, U: []float64{1}}
	assert.Error(t, s.Validate())
	s.RunID = NewRunID()
	assert.NoError(t, s.Validate())
	s.U = nil
	assert.Error(t, s.Validate())

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewFileStore(filepath.Join(t.TempDir(), "x.yaml")).Save(cancelled, s), context.Canceled)
}
