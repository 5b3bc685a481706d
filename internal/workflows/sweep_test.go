package workflows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/geodrop/internal/core/usecases"
)

type fakeExpirer struct {
	ids []int64
	err error
	at  time.Time
}

func (f *fakeExpirer) DeleteExpired(ctx context.Context, now time.Time) ([]int64, error) {
	f.at = now
	if f.err != nil {
		return nil, f.err
	}
	ids := f.ids
	f.ids = nil
	return ids, nil
}

func TestSweepActivities(t *testing.T) {
	offers := &fakeExpirer{ids: []int64{1, 2}}
	notes := &fakeExpirer{ids: []int64{3}}
	sw := usecases.NewSweeper(nil)
	sw.Register(usecases.KindOffers, offers, nil)
	sw.Register(usecases.KindNotes, notes, nil)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	act := &SweepActivities{Sweeper: sw, Now: func() time.Time { return now }}

	n, err := act.SweepOffers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, offers.at.Equal(now))

	n, err = act.SweepNotes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Idempotent once everything expired is gone.
	n, err = act.SweepOffers(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweepActivitiesError(t *testing.T) {
	sw := usecases.NewSweeper(nil)
	sw.Register(usecases.KindOffers, &fakeExpirer{err: errors.New("db down")}, nil)

	_, err := (&SweepActivities{Sweeper: sw}).SweepOffers(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestSweepWorkflow(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	act := &SweepActivities{}
	env.RegisterActivity(act)
	env.OnActivity(act.SweepOffers, mock.Anything).Return(4, nil)
	env.OnActivity(act.SweepNotes, mock.Anything).Return(7, nil)

	env.ExecuteWorkflow(SweepWorkflow)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result SweepResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, SweepResult{Offers: 4, Notes: 7}, result)
}

func TestSweepWorkflowPartialFailure(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	act := &SweepActivities{}
	env.RegisterActivity(act)
	env.OnActivity(act.SweepOffers, mock.Anything).Return(0, errors.New("offers store down"))
	env.OnActivity(act.SweepNotes, mock.Anything).Return(2, nil)

	env.ExecuteWorkflow(SweepWorkflow)

	require.True(t, env.IsWorkflowCompleted())
	assert.Error(t, env.GetWorkflowError())
	env.AssertExpectations(t)
}
