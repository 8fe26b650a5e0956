package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lironamy/wedding-us-sub002/internal/model"
)

type RecordRepositoryInterface interface {
	Create(ctx context.Context, rec *model.RecipientMessageRecord) error
	GetByGatewayMessageID(ctx context.Context, gatewayMessageID string) (*model.RecipientMessageRecord, error)
	ListByBatch(ctx context.Context, batchID string) ([]*model.RecipientMessageRecord, error)
	UpdateDeliveryStatus(ctx context.Context, id string, status model.DeliveryStatus, errorCode, errorMessage string) error
	MarkTerminalCounted(ctx context.Context, id string) (bool, error)
	ListStaleNonTerminal(ctx context.Context, olderThan time.Time) ([]*model.RecipientMessageRecord, error)
}

type RecordRepository struct {
	DB *sql.DB
}

const recordColumns = `id, batch_id, guest_id, rendered_body, gateway_message_id,
	delivery_status, error_code, error_message, terminal_counted,
	status_updated_at, created_at`

func scanRecord(row interface{ Scan(...any) error }) (*model.RecipientMessageRecord, error) {
	var rec model.RecipientMessageRecord
	var gatewayID sql.NullString
	err := row.Scan(
		&rec.ID, &rec.BatchID, &rec.GuestID, &rec.RenderedBody, &gatewayID,
		&rec.DeliveryStatus, &rec.ErrorCode, &rec.ErrorMessage, &rec.TerminalCounted,
		&rec.StatusUpdatedAt, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.GatewayMessageID = gatewayID.String
	return &rec, nil
}

func (r *RecordRepository) Create(ctx context.Context, rec *model.RecipientMessageRecord) error {
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.StatusUpdatedAt = now

	var gatewayID any
	if rec.GatewayMessageID != "" {
		gatewayID = rec.GatewayMessageID
	}

	query := `
        INSERT INTO recipient_message_records
        (id, batch_id, guest_id, rendered_body, gateway_message_id, delivery_status, error_code, error_message, status_updated_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
	_, err := r.DB.ExecContext(ctx, query,
		rec.ID, rec.BatchID, rec.GuestID, rec.RenderedBody, gatewayID,
		rec.DeliveryStatus, rec.ErrorCode, rec.ErrorMessage, rec.StatusUpdatedAt, rec.CreatedAt)
	return err
}

// GetByGatewayMessageID returns (nil, nil) on a correlation miss; the caller
// decides whether a miss is an error (for webhooks it is not).
func (r *RecordRepository) GetByGatewayMessageID(ctx context.Context, gatewayMessageID string) (*model.RecipientMessageRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM recipient_message_records WHERE gateway_message_id=$1`
	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, gatewayMessageID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func (r *RecordRepository) ListByBatch(ctx context.Context, batchID string) ([]*model.RecipientMessageRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM recipient_message_records WHERE batch_id=$1 ORDER BY created_at`
	return r.queryRecords(ctx, query, batchID)
}

// ListStaleNonTerminal lists records that never reached a terminal status.
// Supports the manual cleanup pass; nothing expires automatically.
func (r *RecordRepository) ListStaleNonTerminal(ctx context.Context, olderThan time.Time) ([]*model.RecipientMessageRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM recipient_message_records
        WHERE delivery_status NOT IN ('delivered', 'read', 'failed', 'undelivered')
        AND created_at < $1 ORDER BY created_at`
	return r.queryRecords(ctx, query, olderThan)
}

func (r *RecordRepository) queryRecords(ctx context.Context, query string, args ...any) ([]*model.RecipientMessageRecord, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*model.RecipientMessageRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *RecordRepository) UpdateDeliveryStatus(ctx context.Context, id string, status model.DeliveryStatus, errorCode, errorMessage string) error {
	query := `UPDATE recipient_message_records
        SET delivery_status=$2, error_code=$3, error_message=$4, status_updated_at=NOW()
        WHERE id=$1`
	_, err := r.DB.ExecContext(ctx, query, id, status, errorCode, errorMessage)
	return err
}

// MarkTerminalCounted flips the first-terminal guard. Returns true only for
// the single caller that wins the flip; duplicate terminal callbacks for the
// same record get false and must not touch batch aggregates again.
func (r *RecordRepository) MarkTerminalCounted(ctx context.Context, id string) (bool, error) {
	query := `UPDATE recipient_message_records
        SET terminal_counted=TRUE
        WHERE id=$1 AND terminal_counted=FALSE`
	res, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

var _ RecordRepositoryInterface = (*RecordRepository)(nil)
