// Package repository implements all database queries for the issuance and
// attendance-validation service. It uses pgx directly (no ORM) for
// transparency and performance.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventgate/eventgate/internal/model"
)

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// CreateEvent inserts a new event.
func (r *EventRepository) CreateEvent(ctx context.Context, event *model.Event) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO events (id, name, type, eligibility, payment_required, payment_amount, payment_currency, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.ID, event.Name, event.Type, event.Eligibility,
		event.Payment.Required, event.Payment.Amount, event.Payment.Currency,
		event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetEvent returns a single event or model.ErrNotFound.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	var e model.Event
	err := r.db.QueryRow(ctx,
		`SELECT id, name, type, eligibility, payment_required, payment_amount, payment_currency, created_at, updated_at
		 FROM events WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.Name, &e.Type, &e.Eligibility,
		&e.Payment.Required, &e.Payment.Amount, &e.Payment.Currency,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

// UpdateEvent persists new eligibility and payment settings for an event.
func (r *EventRepository) UpdateEvent(ctx context.Context, event *model.Event) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE events
		 SET name = $2, eligibility = $3, payment_required = $4, payment_amount = $5, payment_currency = $6, updated_at = $7
		 WHERE id = $1`,
		event.ID, event.Name, event.Eligibility,
		event.Payment.Required, event.Payment.Amount, event.Payment.Currency,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ListEvents returns all events ordered by creation time descending.
func (r *EventRepository) ListEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, type, eligibility, payment_required, payment_amount, payment_currency, created_at, updated_at
		 FROM events
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Type, &e.Eligibility,
			&e.Payment.Required, &e.Payment.Amount, &e.Payment.Currency,
			&e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// uniqueViolation maps a PostgreSQL unique-constraint violation to the
// matching sentinel error, or returns nil if err is something else.
func uniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	switch pgErr.ConstraintName {
	case "records_event_manual_code_key":
		return model.ErrDuplicateCode
	case "records_unique_id_key":
		return model.ErrDuplicateUniqueID
	case "records_ticket_number_key":
		return model.ErrDuplicateTicketNumber
	}
	return nil
}
