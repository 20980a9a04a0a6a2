package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendly/enrollment-server/internal/config"
)

// stubReconciler counts passes; the mocks package cannot be used here
// without an import cycle.
type stubReconciler struct {
	calls  atomic.Int64
	result *Result
	err    *Error
	block  chan struct{}
}

func (s *stubReconciler) RunPass(_ context.Context) (*Result, *Error) {
	s.calls.Add(1)
	if s.block != nil {
		<-s.block
	}
	return s.result, s.err
}

func TestNewCoordinator(t *testing.T) {
	t.Parallel()

	coord := NewCoordinator(&stubReconciler{result: &Result{}}, &config.Config{})
	assert.NotNil(t, coord)
}

func TestCoordinatorStopBeforeStart(t *testing.T) {
	t.Parallel()

	coord := NewCoordinator(&stubReconciler{result: &Result{}}, &config.Config{})
	require.NoError(t, coord.Stop())
}

func TestCoordinatorPerformsInitialAndPeriodicPasses(t *testing.T) {
	t.Parallel()

	stub := &stubReconciler{result: &Result{Eligible: 3, Processed: 3}}
	cfg := &config.Config{
		Scheduler: config.SchedulerConfig{Interval: "10ms"},
	}
	coord := NewCoordinator(stub, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	require.NoError(t, coord.Start(ctx))

	// At least the startup pass plus one tick
	assert.GreaterOrEqual(t, stub.calls.Load(), int64(2))
}

func TestCoordinatorSurvivesPassErrors(t *testing.T) {
	t.Parallel()

	stub := &stubReconciler{err: &Error{Message: "token acquisition failed"}}
	cfg := &config.Config{
		Scheduler: config.SchedulerConfig{Interval: "10ms"},
	}
	coord := NewCoordinator(stub, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	// The loop keeps running through failed passes
	require.NoError(t, coord.Start(ctx))
	assert.GreaterOrEqual(t, stub.calls.Load(), int64(2))
}

func TestCoordinatorStopTerminatesLoop(t *testing.T) {
	t.Parallel()

	stub := &stubReconciler{result: &Result{}}
	cfg := &config.Config{
		Scheduler: config.SchedulerConfig{Interval: "10ms"},
	}
	coord := NewCoordinator(stub, cfg)

	started := make(chan error, 1)
	go func() {
		started <- coord.Start(context.Background())
	}()

	// Give the loop a moment to spin up
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, coord.Stop())

	select {
	case err := <-started:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("coordinator did not stop")
	}
}

func TestRunPassSkipsWhenPreviousPassInFlight(t *testing.T) {
	t.Parallel()

	stub := &stubReconciler{result: &Result{}}
	coord := &defaultCoordinator{
		reconciler: stub,
		config:     &config.Config{},
	}

	// Simulate a pass still in flight
	coord.passRunning.Store(true)
	coord.runPass(context.Background())
	assert.Equal(t, int64(0), stub.calls.Load())

	// Once the flag clears, passes run again
	coord.passRunning.Store(false)
	coord.runPass(context.Background())
	assert.Equal(t, int64(1), stub.calls.Load())
}

func TestSlowPassSuppressesTicks(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	stub := &stubReconciler{result: &Result{}, block: block}
	cfg := &config.Config{
		Scheduler: config.SchedulerConfig{Interval: "5ms"},
	}
	coord := NewCoordinator(stub, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- coord.Start(ctx)
	}()

	// The initial pass blocks across many intervals; ticks must not stack
	// up additional passes behind it
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int64(1), stub.calls.Load())

	close(block)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("coordinator did not stop")
	}
}
