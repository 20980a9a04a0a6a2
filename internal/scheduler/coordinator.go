package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/attendly/enrollment-server/internal/config"
	"github.com/attendly/enrollment-server/internal/telemetry"
)

// Coordinator manages the recurring reconciliation loop
type Coordinator interface {
	// Start begins the background reconciliation loop.
	// Blocks until the context is cancelled.
	Start(ctx context.Context) error

	// Stop gracefully stops the coordinator
	Stop() error
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	reconciler Reconciler
	config     *config.Config

	// Lifecycle management
	cancelFunc context.CancelFunc
	done       chan struct{}

	// passRunning guards against overlapping passes when a pass outlives
	// the scan interval
	passRunning atomic.Bool

	metrics *telemetry.SchedulerMetrics
}

// CoordinatorOption is a function that configures the coordinator
type CoordinatorOption func(*defaultCoordinator)

// WithCoordinatorMetrics sets the scheduler metrics for the coordinator
func WithCoordinatorMetrics(metrics *telemetry.SchedulerMetrics) CoordinatorOption {
	return func(c *defaultCoordinator) {
		c.metrics = metrics
	}
}

// NewCoordinator creates a coordinator with injected dependencies
func NewCoordinator(
	reconciler Reconciler,
	cfg *config.Config,
	opts ...CoordinatorOption,
) Coordinator {
	c := &defaultCoordinator{
		reconciler: reconciler,
		config:     cfg,
		done:       make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start begins the background reconciliation loop
func (c *defaultCoordinator) Start(ctx context.Context) error {
	interval := c.config.GetScanInterval()
	slog.Info("Starting enrollment reconciliation coordinator", "interval", interval)

	// Create cancellable context for this coordinator
	coordCtx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel
	defer func() {
		close(c.done)
		slog.Info("Enrollment reconciliation coordinator shutting down")
	}()

	// Create ticker for periodic passes
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Perform an initial pass on startup so that records accumulated while
	// the service was down are enrolled without waiting a full interval
	c.runPass(coordCtx)

	// Run the coordinator loop
	for {
		select {
		case <-ticker.C:
			c.runPass(coordCtx)
		case <-coordCtx.Done():
			slog.Info("Enrollment reconciliation coordinator stopping")
			return nil
		}
	}
}

// Stop gracefully stops the coordinator
func (c *defaultCoordinator) Stop() error {
	if c.cancelFunc != nil {
		slog.Info("Stopping enrollment reconciliation coordinator")
		c.cancelFunc()
		// Wait for coordinator to finish
		<-c.done
	}
	return nil
}

// runPass executes a single reconciliation pass, suppressing the tick when
// the previous pass is still in flight
func (c *defaultCoordinator) runPass(ctx context.Context) {
	if !c.passRunning.CompareAndSwap(false, true) {
		slog.Warn("Previous reconciliation pass still running, skipping tick")
		return
	}
	defer c.passRunning.Store(false)

	startTime := time.Now()
	slog.Info("Starting reconciliation pass")

	result, passErr := c.reconciler.RunPass(ctx)

	passDuration := time.Since(startTime)

	if passErr != nil {
		// A failed pass mutates nothing; the next interval retries everything
		slog.Error("Reconciliation pass failed", "error", passErr.Message)
		c.metrics.RecordPassDuration(ctx, passDuration, false)
		return
	}

	slog.Info("Reconciliation pass completed",
		"eligible", result.Eligible,
		"processed", result.Processed,
		"rejected", result.Rejected,
		"retried", result.Retried,
		"duration", passDuration)
	c.metrics.RecordPassDuration(ctx, passDuration, true)
}
