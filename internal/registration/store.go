package registration

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/attendly/enrollment-server/internal/db/sqlc"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=store.go Store

// Store is the durable registration store. It owns all registration rows;
// the scheduler only reads eligible subsets and commits status updates.
type Store interface {
	// Create inserts a new registration with status pending.
	Create(ctx context.Context, reg *NewRegistration) (*Registration, error)

	// FindEligible returns all pending registrations whose session date is
	// on or before asOf, in unspecified order.
	FindEligible(ctx context.Context, asOf time.Time) ([]*Registration, error)

	// CommitStatuses applies all accumulated status updates in a single
	// transaction. Either every update is persisted or none is.
	CommitStatuses(ctx context.Context, updates []StatusUpdate) error

	// CountByStatus returns the number of registrations in the given status.
	CountByStatus(ctx context.Context, status Status) (int64, error)
}

// postgresStore implements Store on top of a pgx connection pool.
type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed registration store.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

func (s *postgresStore) Create(ctx context.Context, reg *NewRegistration) (*Registration, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	queries := sqlc.New(s.pool)

	row, err := queries.InsertRegistration(ctx, sqlc.InsertRegistrationParams{
		Email:       reg.Email,
		FirstName:   optionalText(reg.FirstName),
		LastName:    optionalText(reg.LastName),
		Phone:       optionalText(reg.Phone),
		SequenceID:  optionalInt8(reg.SequenceID),
		SessionDate: pgtype.Date{Time: reg.SessionDate, Valid: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert registration: %w", err)
	}

	return rowToRegistration(row), nil
}

func (s *postgresStore) FindEligible(ctx context.Context, asOf time.Time) ([]*Registration, error) {
	queries := sqlc.New(s.pool)

	rows, err := queries.ListEligibleRegistrations(ctx, pgtype.Date{Time: asOf, Valid: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible registrations: %w", err)
	}

	result := make([]*Registration, 0, len(rows))
	for _, row := range rows {
		result = append(result, rowToRegistration(row))
	}
	return result, nil
}

func (s *postgresStore) CommitStatuses(ctx context.Context, updates []StatusUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	queries := sqlc.New(s.pool).WithTx(tx)

	for _, update := range updates {
		err := queries.UpdateRegistrationStatus(ctx, sqlc.UpdateRegistrationStatusParams{
			ID:           update.ID,
			Status:       sqlc.RegistrationStatus(update.Status),
			StatusDetail: optionalText(update.Detail),
		})
		if err != nil {
			return fmt.Errorf("failed to update status for %s: %w", update.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit status updates: %w", err)
	}
	return nil
}

func (s *postgresStore) CountByStatus(ctx context.Context, status Status) (int64, error) {
	queries := sqlc.New(s.pool)
	return queries.CountRegistrationsByStatus(ctx, sqlc.RegistrationStatus(status))
}

// rowToRegistration converts a database row to the domain model
func rowToRegistration(row sqlc.Registration) *Registration {
	reg := &Registration{
		ID:          row.ID,
		Email:       row.Email,
		SessionDate: row.SessionDate.Time,
		Status:      Status(row.Status),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}

	if row.FirstName.Valid {
		reg.FirstName = row.FirstName.String
	}
	if row.LastName.Valid {
		reg.LastName = row.LastName.String
	}
	if row.Phone.Valid {
		reg.Phone = row.Phone.String
	}
	if row.SequenceID.Valid {
		seqID := row.SequenceID.Int64
		reg.SequenceID = &seqID
	}
	if row.StatusDetail.Valid {
		reg.StatusDetail = row.StatusDetail.String
	}

	return reg
}

func optionalText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func optionalInt8(v *int64) pgtype.Int8 {
	if v == nil {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: *v, Valid: true}
}
