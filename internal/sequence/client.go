package sequence

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/attendly/enrollment-server/internal/registration"
)

//go:generate mockgen -destination=mocks/mock_enroller.go -package=mocks -source=client.go Enroller

// OutcomeKind classifies the result of one enrollment submission.
type OutcomeKind string

const (
	// OutcomeSuccess means the external system accepted the contact (200/201).
	OutcomeSuccess OutcomeKind = "success"

	// OutcomeRejected means the external system gave an authoritative refusal.
	// The record will not be retried automatically.
	OutcomeRejected OutcomeKind = "rejected"

	// OutcomeRetryableRejected means the external system answered with a
	// status that indicates a transient condition (429 or 5xx). The record
	// stays pending and is retried on a later pass.
	OutcomeRetryableRejected OutcomeKind = "retryable-rejected"

	// OutcomeNetworkFailure means no authoritative answer was received
	// (timeout, connection error, DNS failure). The record stays pending.
	OutcomeNetworkFailure OutcomeKind = "network-failure"
)

// Outcome is the interpreted result of an enrollment call.
type Outcome struct {
	Kind   OutcomeKind
	Detail string
}

// Enroller submits one participant to the external contact endpoint.
type Enroller interface {
	Enroll(ctx context.Context, token string, reg *registration.Registration) Outcome
}

type httpEnroller struct {
	client     *http.Client
	contactURL string

	// now is a hook for tests; the consent date sent upstream is the
	// submission date.
	now func() time.Time
}

// NewEnroller creates an Enroller backed by the configured contact endpoint.
func NewEnroller(contactURL string) Enroller {
	return &httpEnroller{
		client: &http.Client{
			Timeout: requestTimeout,
		},
		contactURL: contactURL,
		now:        time.Now,
	}
}

// Enroll submits the participant's contact fields with bearer authentication.
// Form field names follow the upstream contact API contract.
func (e *httpEnroller) Enroll(ctx context.Context, token string, reg *registration.Registration) Outcome {
	form := url.Values{}
	form.Set("prenom", reg.FirstName)
	form.Set("nom", reg.LastName)
	form.Set("email", reg.Email)
	form.Set("mobile", reg.Phone)
	if reg.SequenceID != nil {
		form.Set("id_sequence", strconv.FormatInt(*reg.SequenceID, 10))
	}
	form.Set("rgpd", "1")
	form.Set("rgpd_date", e.now().Format(registration.SessionDateFormat))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.contactURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Outcome{Kind: OutcomeNetworkFailure, Detail: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		// No authoritative answer from the external system
		return Outcome{Kind: OutcomeNetworkFailure, Detail: err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return Outcome{Kind: OutcomeNetworkFailure, Detail: fmt.Sprintf("failed to read response: %v", err)}
	}

	return classifyResponse(resp.StatusCode, string(body))
}

// classifyResponse maps an HTTP response to an enrollment outcome.
// Rate limiting and server errors are transient conditions, not
// authoritative refusals, so they stay retryable.
func classifyResponse(statusCode int, body string) Outcome {
	detail := fmt.Sprintf("%d: %s", statusCode, truncate(body, 256))

	switch {
	case statusCode == http.StatusOK || statusCode == http.StatusCreated:
		return Outcome{Kind: OutcomeSuccess}
	case statusCode == http.StatusTooManyRequests || statusCode >= 500:
		return Outcome{Kind: OutcomeRetryableRejected, Detail: detail}
	default:
		return Outcome{Kind: OutcomeRejected, Detail: detail}
	}
}
