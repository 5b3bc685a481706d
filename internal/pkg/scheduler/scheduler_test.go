package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddRejectsBadSchedule(t *testing.T) {
	s := New(0)
	err := s.Add("whenever", "sweep", func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestWrapRecoversPanicAndErrors(t *testing.T) {
	s := New(time.Second)

	assert.NotPanics(t, s.wrap("boom", func(context.Context) error { panic("boom") }))
	assert.NotPanics(t, s.wrap("fail", func(context.Context) error { return errors.New("storage down") }))
}

func TestWrapAppliesTimeout(t *testing.T) {
	s := New(50 * time.Millisecond)

	var hadDeadline atomic.Bool
	s.wrap("deadline", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		hadDeadline.Store(ok)
		return nil
	})()
	assert.True(t, hadDeadline.Load())
}

func TestSchedulerRunsAndStops(t *testing.T) {
	s := New(0)

	var runs atomic.Int32
	require.NoError(t, s.Add("@every 1s", "tick", func(context.Context) error {
		runs.Add(1)
		return nil
	}))
	s.Start()

	require.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestStopCancelsJobContext(t *testing.T) {
	s := New(0)

	var cancelled atomic.Bool
	started := make(chan struct{})
	job := s.wrap("long", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	})
	go job()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.Eventually(t, cancelled.Load, time.Second, 10*time.Millisecond)
}
