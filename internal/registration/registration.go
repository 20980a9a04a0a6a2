// Package registration defines the registration model and its durable store.
package registration

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrValidation is returned when a registration fails validation.
// Callers can use errors.Is to map it to a client error.
var ErrValidation = errors.New("invalid registration")

// SessionDateFormat is the wire format for session dates.
const SessionDateFormat = "2006-01-02"

// Status is the lifecycle state of a registration.
type Status string

const (
	// StatusPending marks a registration awaiting enrollment.
	StatusPending Status = "pending"

	// StatusProcessed marks a registration successfully enrolled. Terminal.
	StatusProcessed Status = "processed"

	// StatusError marks a registration the external system refused. Terminal,
	// recovered only by out-of-band correction.
	StatusError Status = "error"
)

// Registration is one participant-session pair.
type Registration struct {
	ID           uuid.UUID
	Email        string
	FirstName    string
	LastName     string
	Phone        string
	SequenceID   *int64
	SessionDate  time.Time
	Status       Status
	StatusDetail string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewRegistration holds the fields accepted at intake time.
type NewRegistration struct {
	Email       string
	FirstName   string
	LastName    string
	Phone       string
	SequenceID  *int64
	SessionDate time.Time
}

// Validate checks the required intake fields.
func (n *NewRegistration) Validate() error {
	email := strings.TrimSpace(n.Email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if !strings.Contains(email, "@") {
		return fmt.Errorf("%w: email is malformed", ErrValidation)
	}
	if n.SessionDate.IsZero() {
		return fmt.Errorf("%w: session_date is required", ErrValidation)
	}
	return nil
}

// StatusUpdate is one accumulated status change, applied as part of a
// single end-of-pass transaction.
type StatusUpdate struct {
	ID     uuid.UUID
	Status Status
	Detail string
}
