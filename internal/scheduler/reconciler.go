// Package scheduler implements the delayed-enrollment reconciliation job.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/attendly/enrollment-server/internal/registration"
	"github.com/attendly/enrollment-server/internal/sequence"
	"github.com/attendly/enrollment-server/internal/telemetry"
)

// Error represents a structured scheduler error. Scheduler failures are
// logged and retried on a later pass; they never crash the process.
type Error struct {
	Err     error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Result contains the counts of one reconciliation pass
type Result struct {
	// Eligible is the number of records selected for this pass
	Eligible int

	// Processed is the number of records successfully enrolled
	Processed int

	// Rejected is the number of records the external system refused (terminal)
	Rejected int

	// Retried is the number of records left pending for a later pass
	Retried int
}

// Reconciler executes one full reconciliation pass
type Reconciler interface {
	// RunPass selects eligible registrations, enrolls each one, and commits
	// all accumulated status changes atomically at the end of the pass.
	RunPass(ctx context.Context) (*Result, *Error)
}

// defaultReconciler is the default implementation of Reconciler
type defaultReconciler struct {
	store    registration.Store
	tokens   sequence.TokenProvider
	enroller sequence.Enroller
	metrics  *telemetry.SchedulerMetrics

	// now is a hook for tests
	now func() time.Time
}

// Option is a function that configures the reconciler
type Option func(*defaultReconciler)

// WithMetrics sets the scheduler metrics for the reconciler
func WithMetrics(metrics *telemetry.SchedulerMetrics) Option {
	return func(r *defaultReconciler) {
		r.metrics = metrics
	}
}

// WithClock overrides the reconciler's time source
func WithClock(now func() time.Time) Option {
	return func(r *defaultReconciler) {
		r.now = now
	}
}

// NewReconciler creates a reconciler with injected dependencies
func NewReconciler(
	store registration.Store,
	tokens sequence.TokenProvider,
	enroller sequence.Enroller,
	opts ...Option,
) Reconciler {
	r := &defaultReconciler{
		store:    store,
		tokens:   tokens,
		enroller: enroller,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// RunPass executes the reconciliation algorithm:
//
//  1. Compute the eligibility threshold (yesterday's date).
//  2. Select pending registrations whose session date has passed. An empty
//     set ends the pass with no token request.
//  3. Obtain a fresh token. On failure the whole pass aborts with no record
//     mutated; everything stays pending for the next interval.
//  4. Enroll each record independently, accumulating status changes.
//  5. Commit all accumulated changes in a single transaction.
func (r *defaultReconciler) RunPass(ctx context.Context) (*Result, *Error) {
	asOf := r.eligibilityThreshold()

	records, err := r.store.FindEligible(ctx, asOf)
	if err != nil {
		return nil, &Error{
			Err:     err,
			Message: fmt.Sprintf("failed to select eligible registrations: %v", err),
		}
	}

	slog.Info("Reconciliation scan", "as_of", asOf.Format(registration.SessionDateFormat), "eligible", len(records))

	if len(records) == 0 {
		return &Result{}, nil
	}

	// Lazy token acquisition: only when there is work to do
	token, err := r.tokens.GetToken(ctx)
	if err != nil {
		return nil, &Error{
			Err:     err,
			Message: fmt.Sprintf("token acquisition failed, pass aborted: %v", err),
		}
	}

	result := &Result{Eligible: len(records)}
	updates := make([]registration.StatusUpdate, 0, len(records))

	for _, record := range records {
		outcome := r.enroller.Enroll(ctx, token, record)
		r.metrics.RecordEnrollment(ctx, string(outcome.Kind))

		switch outcome.Kind {
		case sequence.OutcomeSuccess:
			updates = append(updates, registration.StatusUpdate{
				ID:     record.ID,
				Status: registration.StatusProcessed,
			})
			result.Processed++
			slog.Info("Enrollment succeeded", "email", record.Email)

		case sequence.OutcomeRejected:
			updates = append(updates, registration.StatusUpdate{
				ID:     record.ID,
				Status: registration.StatusError,
				Detail: outcome.Detail,
			})
			result.Rejected++
			slog.Warn("Enrollment rejected",
				"email", record.Email,
				"detail", outcome.Detail)

		case sequence.OutcomeRetryableRejected:
			// Transient refusal (429/5xx): leave pending for the next pass
			result.Retried++
			slog.Warn("Enrollment deferred, will retry",
				"email", record.Email,
				"detail", outcome.Detail)

		case sequence.OutcomeNetworkFailure:
			// No authoritative answer: leave pending for the next pass
			result.Retried++
			slog.Error("Enrollment network failure, will retry",
				"email", record.Email,
				"detail", outcome.Detail)
		}
	}

	// Single atomic commit for the whole pass
	if err := r.store.CommitStatuses(ctx, updates); err != nil {
		// The records stay pending and are retried in full next pass
		return nil, &Error{
			Err:     err,
			Message: fmt.Sprintf("failed to commit status updates, pass lost: %v", err),
		}
	}

	return result, nil
}

// eligibilityThreshold returns yesterday's date: a session is eligible one
// day after it took place. The threshold only ever moves forward, so records
// accumulated during an outage are all caught by the next successful pass.
func (r *defaultReconciler) eligibilityThreshold() time.Time {
	today := r.now().UTC().Truncate(24 * time.Hour)
	return today.AddDate(0, 0, -1)
}
