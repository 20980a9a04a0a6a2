package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/attendly/enrollment-server/internal/registration"
	regmocks "github.com/attendly/enrollment-server/internal/registration/mocks"
	"github.com/attendly/enrollment-server/internal/sequence"
	seqmocks "github.com/attendly/enrollment-server/internal/sequence/mocks"
)

// fixedClock pins the reconciler to 2026-03-15 12:30 UTC, making the
// eligibility threshold 2026-03-14.
func fixedClock() time.Time {
	return time.Date(2026, 3, 15, 12, 30, 0, 0, time.UTC)
}

func pendingRegistration(email string, sessionDate time.Time) *registration.Registration {
	return &registration.Registration{
		ID:          uuid.New(),
		Email:       email,
		SessionDate: sessionDate,
		Status:      registration.StatusPending,
	}
}

func TestRunPassEmptySetSkipsTokenRequest(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	store := regmocks.NewMockStore(ctrl)
	tokens := seqmocks.NewMockTokenProvider(ctrl)
	enroller := seqmocks.NewMockEnroller(ctrl)

	expectedAsOf := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	store.EXPECT().FindEligible(gomock.Any(), expectedAsOf).Return(nil, nil)
	// No GetToken, no Enroll, no CommitStatuses expectations: any call fails the test

	r := NewReconciler(store, tokens, enroller, WithClock(fixedClock))
	result, passErr := r.RunPass(context.Background())

	require.Nil(t, passErr)
	assert.Equal(t, 0, result.Eligible)
	assert.Equal(t, 0, result.Processed)
}

func TestRunPassTokenFailureAbortsWithoutMutation(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	store := regmocks.NewMockStore(ctrl)
	tokens := seqmocks.NewMockTokenProvider(ctrl)
	enroller := seqmocks.NewMockEnroller(ctrl)

	records := []*registration.Registration{
		pendingRegistration("alice@example.com", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)),
	}
	store.EXPECT().FindEligible(gomock.Any(), gomock.Any()).Return(records, nil)
	tokens.EXPECT().GetToken(gomock.Any()).Return("", errors.New("401 unauthorized"))
	// No Enroll and no CommitStatuses: the pass must not touch any record

	r := NewReconciler(store, tokens, enroller, WithClock(fixedClock))
	result, passErr := r.RunPass(context.Background())

	require.NotNil(t, passErr)
	assert.Nil(t, result)
	assert.Contains(t, passErr.Message, "token acquisition failed")
}

func TestRunPassSelectionFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	store := regmocks.NewMockStore(ctrl)
	tokens := seqmocks.NewMockTokenProvider(ctrl)
	enroller := seqmocks.NewMockEnroller(ctrl)

	store.EXPECT().FindEligible(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))

	r := NewReconciler(store, tokens, enroller, WithClock(fixedClock))
	result, passErr := r.RunPass(context.Background())

	require.NotNil(t, passErr)
	assert.Nil(t, result)
	assert.Contains(t, passErr.Message, "failed to select eligible registrations")
}

func TestRunPassMixedOutcomes(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	store := regmocks.NewMockStore(ctrl)
	tokens := seqmocks.NewMockTokenProvider(ctrl)
	enroller := seqmocks.NewMockEnroller(ctrl)

	sessionDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	ok := pendingRegistration("ok@example.com", sessionDate)
	rejected := pendingRegistration("rejected@example.com", sessionDate)
	throttled := pendingRegistration("throttled@example.com", sessionDate)
	unreachable := pendingRegistration("unreachable@example.com", sessionDate)
	records := []*registration.Registration{ok, rejected, throttled, unreachable}

	store.EXPECT().FindEligible(gomock.Any(), gomock.Any()).Return(records, nil)
	tokens.EXPECT().GetToken(gomock.Any()).Return("tok-123", nil)

	enroller.EXPECT().Enroll(gomock.Any(), "tok-123", ok).
		Return(sequence.Outcome{Kind: sequence.OutcomeSuccess})
	enroller.EXPECT().Enroll(gomock.Any(), "tok-123", rejected).
		Return(sequence.Outcome{Kind: sequence.OutcomeRejected, Detail: "status 400: invalid email"})
	enroller.EXPECT().Enroll(gomock.Any(), "tok-123", throttled).
		Return(sequence.Outcome{Kind: sequence.OutcomeRetryableRejected, Detail: "status 429"})
	enroller.EXPECT().Enroll(gomock.Any(), "tok-123", unreachable).
		Return(sequence.Outcome{Kind: sequence.OutcomeNetworkFailure, Detail: "connection refused"})

	store.EXPECT().CommitStatuses(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, updates []registration.StatusUpdate) error {
			// Only authoritative outcomes are committed; retryable ones stay pending
			require.Len(t, updates, 2)
			assert.Equal(t, ok.ID, updates[0].ID)
			assert.Equal(t, registration.StatusProcessed, updates[0].Status)
			assert.Equal(t, rejected.ID, updates[1].ID)
			assert.Equal(t, registration.StatusError, updates[1].Status)
			assert.Equal(t, "status 400: invalid email", updates[1].Detail)
			return nil
		})

	r := NewReconciler(store, tokens, enroller, WithClock(fixedClock))
	result, passErr := r.RunPass(context.Background())

	require.Nil(t, passErr)
	assert.Equal(t, 4, result.Eligible)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Rejected)
	assert.Equal(t, 2, result.Retried)
}

func TestRunPassCommitFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	store := regmocks.NewMockStore(ctrl)
	tokens := seqmocks.NewMockTokenProvider(ctrl)
	enroller := seqmocks.NewMockEnroller(ctrl)

	records := []*registration.Registration{
		pendingRegistration("alice@example.com", time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)),
	}
	store.EXPECT().FindEligible(gomock.Any(), gomock.Any()).Return(records, nil)
	tokens.EXPECT().GetToken(gomock.Any()).Return("tok-123", nil)
	enroller.EXPECT().Enroll(gomock.Any(), "tok-123", records[0]).
		Return(sequence.Outcome{Kind: sequence.OutcomeSuccess})
	store.EXPECT().CommitStatuses(gomock.Any(), gomock.Any()).Return(errors.New("deadlock detected"))

	r := NewReconciler(store, tokens, enroller, WithClock(fixedClock))
	result, passErr := r.RunPass(context.Background())

	require.NotNil(t, passErr)
	assert.Nil(t, result)
	assert.Contains(t, passErr.Message, "failed to commit status updates")
}

func TestRunPassRetryableOnlyStillCommitsNothing(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	store := regmocks.NewMockStore(ctrl)
	tokens := seqmocks.NewMockTokenProvider(ctrl)
	enroller := seqmocks.NewMockEnroller(ctrl)

	records := []*registration.Registration{
		pendingRegistration("alice@example.com", time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)),
	}
	store.EXPECT().FindEligible(gomock.Any(), gomock.Any()).Return(records, nil)
	tokens.EXPECT().GetToken(gomock.Any()).Return("tok-123", nil)
	enroller.EXPECT().Enroll(gomock.Any(), "tok-123", records[0]).
		Return(sequence.Outcome{Kind: sequence.OutcomeNetworkFailure, Detail: "timeout"})
	store.EXPECT().CommitStatuses(gomock.Any(), gomock.Len(0)).Return(nil)

	r := NewReconciler(store, tokens, enroller, WithClock(fixedClock))
	result, passErr := r.RunPass(context.Background())

	require.Nil(t, passErr)
	assert.Equal(t, 1, result.Eligible)
	assert.Equal(t, 1, result.Retried)
}

func TestEligibilityThreshold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "midday",
			now:  time.Date(2026, 3, 15, 12, 30, 0, 0, time.UTC),
			want: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "just after midnight",
			now:  time.Date(2026, 3, 15, 0, 0, 1, 0, time.UTC),
			want: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "month boundary",
			now:  time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
			want: time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := &defaultReconciler{now: func() time.Time { return tt.now }}
			assert.Equal(t, tt.want, r.eligibilityThreshold())
		})
	}
}
