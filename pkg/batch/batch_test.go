package batch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectralab/zhukovsky/pkg/kinematics"
	"github.com/spectralab/zhukovsky/pkg/paths"
)

func TestRunBuildsContours(t *testing.T) {
	jobs := []Job{
		{Consts: kinematics.NewCouplingConstants(2.0, 5)},
		{Consts: kinematics.NewCouplingConstants(1.5, 3)},
	}
	gen := NewGenerator(2, jobs)

	results, err := gen.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	for i, result := range results {
		require.NotNil(t, result.Contours, "job %d", i)
		assert.NotEmpty(t, result.Contours.Cuts(), "job %d", i)
		assert.Empty(t, result.Encoded, "job %d", i)
	}

	for _, snap := range gen.Snapshots() {
		assert.Equal(t, StatusCompleted, snap.Status)
		assert.Equal(t, snap.Total, snap.Done)
		assert.False(t, snap.CompletedAt.IsZero())
	}

	done, total := gen.Progress()
	assert.Equal(t, total, done)
}

func TestRunEncodesStates(t *testing.T) {
	jobs := []Job{
		{Consts: kinematics.NewCouplingConstants(2.0, 5), StatePoints: 2},
	}
	gen := NewGenerator(1, jobs)

	results, err := gen.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, results[0].Encoded)

	saved, err := paths.DecodeState(results[0].Encoded)
	require.NoError(t, err)
	assert.Equal(t, jobs[0].Consts, saved.Consts)
	assert.Len(t, saved.State.Points, 2)
}

func TestRunRejectsInvalidConstants(t *testing.T) {
	jobs := []Job{
		{Consts: kinematics.CouplingConstants{H: -1.0}},
	}
	gen := NewGenerator(1, jobs)

	_, err := gen.Run(context.Background())
	require.Error(t, err)

	snaps := gen.Snapshots()
	assert.Equal(t, StatusFailed, snaps[0].Status)
	assert.NotEmpty(t, snaps[0].Err)
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []Job{
		{Consts: kinematics.NewCouplingConstants(2.0, 5)},
	}
	gen := NewGenerator(1, jobs)

	_, err := gen.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewGeneratorClampsWorkers(t *testing.T) {
	gen := NewGenerator(0, []Job{
		{Consts: kinematics.NewCouplingConstants(2.0, 5)},
	})

	// A worker count below one still runs the batch.
	results, err := gen.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSnapshotsBeforeRun(t *testing.T) {
	gen := NewGenerator(2, []Job{
		{Consts: kinematics.NewCouplingConstants(2.0, 5)},
		{Consts: kinematics.NewCouplingConstants(2.0, 5)},
	})

	snaps := gen.Snapshots()
	require.Len(t, snaps, 2)
	for i, snap := range snaps {
		assert.Equal(t, i, snap.Index)
		assert.Equal(t, StatusQueued, snap.Status)
	}
}
