//go:build unix

package qp

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/qp/internal/store/planfs"
)

func TestOptimizer_RejectsConcurrentRun(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	runner := &fakeRunner{respond: commentary}
	opt := NewOptimizer(store, runner, testConfig("holes"), zerolog.Nop())

	p := approvedPlan(t, store)

	release, err := store.LockOptimize(p.ID)
	require.NoError(t, err)

	_, err = opt.RunStep(ctx, p.ID, "holes")
	require.ErrorIs(t, err, planfs.ErrLocked)

	_, err = opt.RunAllSteps(ctx, p.ID, false)
	require.ErrorIs(t, err, planfs.ErrLocked)
	assert.Equal(t, 0, runner.count())

	release()

	_, err = opt.RunStep(ctx, p.ID, "holes")
	require.NoError(t, err)
}
