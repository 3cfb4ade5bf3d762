package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventgate/eventgate/internal/model"
)

const recordColumns = `id, event_id, kind, applicant_type, fields, unique_id, qr_payload,
	manual_code, ticket_number, status, payment_status, validated_at, validated_by, created_at`

// RecordRepository handles persistence for issued records.
type RecordRepository struct {
	db *pgxpool.Pool
}

// NewRecordRepository constructs a RecordRepository.
func NewRecordRepository(db *pgxpool.Pool) *RecordRepository {
	return &RecordRepository{db: db}
}

// CreateRecord inserts a new record. Unique-constraint violations surface as
// the matching sentinel error so the issuance path can retry code collisions.
func (r *RecordRepository) CreateRecord(ctx context.Context, rec *model.Record) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO records (`+recordColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		rec.ID, rec.EventID, rec.Kind, rec.ApplicantType, rec.Fields,
		rec.UniqueID, rec.QRPayload, rec.ManualCode, rec.TicketNumber,
		rec.Status, rec.PaymentStatus, rec.ValidatedAt, rec.ValidatedBy, rec.CreatedAt,
	)
	if err != nil {
		if dup := uniqueViolation(err); dup != nil {
			return dup
		}
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// GetRecordByID returns a record or model.ErrNotFound.
func (r *RecordRepository) GetRecordByID(ctx context.Context, id string) (*model.Record, error) {
	return r.getOne(ctx, `SELECT `+recordColumns+` FROM records WHERE id = $1`, id)
}

// GetByUniqueID looks up a record by its long opaque identifier.
func (r *RecordRepository) GetByUniqueID(ctx context.Context, uniqueID string) (*model.Record, error) {
	return r.getOne(ctx, `SELECT `+recordColumns+` FROM records WHERE unique_id = $1`, uniqueID)
}

// GetByManualCode looks up a record by its short code within one event.
func (r *RecordRepository) GetByManualCode(ctx context.Context, eventID, code string) (*model.Record, error) {
	return r.getOne(ctx,
		`SELECT `+recordColumns+` FROM records WHERE event_id = $1 AND manual_code = $2`,
		eventID, code)
}

// GetByTicketNumber looks up a record by its globally unique ticket number.
func (r *RecordRepository) GetByTicketNumber(ctx context.Context, number string) (*model.Record, error) {
	return r.getOne(ctx, `SELECT `+recordColumns+` FROM records WHERE ticket_number = $1`, number)
}

// ListByEvent returns all records for an event, oldest first.
func (r *RecordRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Record, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+recordColumns+` FROM records WHERE event_id = $1 ORDER BY created_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// CodeExists reports whether a manual code is taken within an event.
func (r *RecordRepository) CodeExists(ctx context.Context, eventID, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM records WHERE event_id = $1 AND manual_code = $2)`,
		eventID, code,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check manual code: %w", err)
	}
	return exists, nil
}

// TicketNumberExists reports whether a ticket number is taken.
func (r *RecordRepository) TicketNumberExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM records WHERE ticket_number = $1)`,
		number,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check ticket number: %w", err)
	}
	return exists, nil
}

// SetPaymentStatus writes the settled fact from the external payment
// collaborator. It touches payment_status only.
func (r *RecordRepository) SetPaymentStatus(ctx context.Context, recordID string, status model.PaymentStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE records SET payment_status = $2 WHERE id = $1`,
		recordID, status,
	)
	if err != nil {
		return fmt.Errorf("set payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// MarkAttended performs the at-most-once transition to the terminal status.
//
// The transition is a single conditional write: the WHERE clause excludes
// already-terminal rows, so when multiple scanners race on the same record
// exactly one UPDATE matches. Rows-affected is the sole source of truth for
// valid-vs-already-used; there is no preceding read to race against.
func (r *RecordRepository) MarkAttended(ctx context.Context, recordID string, status model.RecordStatus, actor string, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE records
		 SET status = $2, validated_at = $3, validated_by = $4
		 WHERE id = $1 AND status NOT IN ('online', 'used')`,
		recordID, status, at, actor,
	)
	if err != nil {
		return false, fmt.Errorf("mark attended: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *RecordRepository) getOne(ctx context.Context, query string, args ...any) (*model.Record, error) {
	rec, err := scanRecord(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

type recordRow interface {
	Scan(dest ...any) error
}

func scanRecord(row recordRow) (*model.Record, error) {
	var rec model.Record
	if err := row.Scan(
		&rec.ID, &rec.EventID, &rec.Kind, &rec.ApplicantType, &rec.Fields,
		&rec.UniqueID, &rec.QRPayload, &rec.ManualCode, &rec.TicketNumber,
		&rec.Status, &rec.PaymentStatus, &rec.ValidatedAt, &rec.ValidatedBy, &rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}
