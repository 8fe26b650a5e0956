package repository

import (
	"context"
	"database/sql"
	"time"

	appErrors "github.com/lironamy/wedding-us-sub002/internal/errors"
	"github.com/lironamy/wedding-us-sub002/internal/model"
)

type BatchRepositoryInterface interface {
	Create(ctx context.Context, b *model.ScheduledBatch) error
	GetByID(ctx context.Context, id string) (*model.ScheduledBatch, error)
	ListByEvent(ctx context.Context, eventID int) ([]*model.ScheduledBatch, error)
	ListOpenByEvent(ctx context.Context, eventID int) ([]*model.ScheduledBatch, error)
	DueBatches(ctx context.Context, now time.Time, limit int) ([]*model.ScheduledBatch, error)

	// State machine. Every transition is a conditional UPDATE so concurrent
	// invocations race safely at the store, not in application memory.
	ClaimPending(ctx context.Context, id string) (bool, error)
	MarkCompleted(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, lastError string) error
	CancelPending(ctx context.Context, id string) (bool, error)
	DeletePendingUnsent(ctx context.Context, id string) (bool, error)

	// Aggregate counters.
	SetTotalRecipients(ctx context.Context, id string, total int) error
	IncrementSent(ctx context.Context, id string) error
	IncrementFailed(ctx context.Context, id string) error
	ApplyDeliveryConfirmation(ctx context.Context, id string) error
	ApplyFailureCorrection(ctx context.Context, id string) error

	MarkOwnerNotified(ctx context.Context, id string) error
}

type BatchRepository struct {
	DB *sql.DB
}

const batchColumns = `id, event_id, kind, fires_at, target_filter, state,
	total_recipients, sent_count, delivered_count, failed_count,
	owner_notified, owner_notified_at, started_at, completed_at, last_error,
	created_at, updated_at`

func scanBatch(row interface{ Scan(...any) error }) (*model.ScheduledBatch, error) {
	var b model.ScheduledBatch
	err := row.Scan(
		&b.ID, &b.EventID, &b.Kind, &b.FiresAt, &b.TargetFilter, &b.State,
		&b.TotalRecipients, &b.SentCount, &b.DeliveredCount, &b.FailedCount,
		&b.OwnerNotified, &b.OwnerNotifiedAt, &b.StartedAt, &b.CompletedAt,
		&b.LastError, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BatchRepository) Create(ctx context.Context, b *model.ScheduledBatch) error {
	if b.State == "" {
		b.State = model.BatchPending
	}
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	query := `
        INSERT INTO scheduled_batches (id, event_id, kind, fires_at, target_filter, state, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	_, err := r.DB.ExecContext(ctx, query,
		b.ID, b.EventID, b.Kind, b.FiresAt, b.TargetFilter, b.State, b.CreatedAt, b.UpdatedAt)
	return err
}

func (r *BatchRepository) GetByID(ctx context.Context, id string) (*model.ScheduledBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM scheduled_batches WHERE id=$1`
	b, err := scanBatch(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewBatchNotFound(id)
		}
		return nil, err
	}
	return b, nil
}

func (r *BatchRepository) ListByEvent(ctx context.Context, eventID int) ([]*model.ScheduledBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM scheduled_batches WHERE event_id=$1 ORDER BY fires_at`
	return r.queryBatches(ctx, query, eventID)
}

// ListOpenByEvent returns the event's non-terminal batches, used by the
// regenerate delete-or-cancel pass.
func (r *BatchRepository) ListOpenByEvent(ctx context.Context, eventID int) ([]*model.ScheduledBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM scheduled_batches
        WHERE event_id=$1 AND state IN ('pending', 'sending') ORDER BY fires_at`
	return r.queryBatches(ctx, query, eventID)
}

func (r *BatchRepository) DueBatches(ctx context.Context, now time.Time, limit int) ([]*model.ScheduledBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM scheduled_batches
        WHERE state='pending' AND fires_at <= $1
        ORDER BY fires_at LIMIT $2`
	return r.queryBatches(ctx, query, now, limit)
}

func (r *BatchRepository) queryBatches(ctx context.Context, query string, args ...any) ([]*model.ScheduledBatch, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	batches := []*model.ScheduledBatch{}
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// ClaimPending is the compare-and-swap on state. Exactly one of any number of
// concurrent claimers sees rows=1; the rest must skip the batch entirely.
func (r *BatchRepository) ClaimPending(ctx context.Context, id string) (bool, error) {
	query := `UPDATE scheduled_batches
        SET state='sending', started_at=NOW(), updated_at=NOW()
        WHERE id=$1 AND state='pending'`
	res, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *BatchRepository) MarkCompleted(ctx context.Context, id string) error {
	query := `UPDATE scheduled_batches
        SET state='completed', completed_at=NOW(), updated_at=NOW()
        WHERE id=$1 AND state='sending'`
	_, err := r.DB.ExecContext(ctx, query, id)
	return err
}

func (r *BatchRepository) MarkFailed(ctx context.Context, id string, lastError string) error {
	query := `UPDATE scheduled_batches
        SET state='failed', last_error=$2, completed_at=NOW(), updated_at=NOW()
        WHERE id=$1 AND state='sending'`
	_, err := r.DB.ExecContext(ctx, query, id, lastError)
	return err
}

func (r *BatchRepository) CancelPending(ctx context.Context, id string) (bool, error) {
	query := `UPDATE scheduled_batches
        SET state='cancelled', updated_at=NOW()
        WHERE id=$1 AND state='pending'`
	res, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// DeletePendingUnsent hard-deletes a batch only while it is still pending
// with zero sent messages. Anything with history gets cancelled instead.
func (r *BatchRepository) DeletePendingUnsent(ctx context.Context, id string) (bool, error) {
	query := `DELETE FROM scheduled_batches WHERE id=$1 AND state='pending' AND sent_count=0`
	res, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *BatchRepository) SetTotalRecipients(ctx context.Context, id string, total int) error {
	query := `UPDATE scheduled_batches SET total_recipients=$2, updated_at=NOW() WHERE id=$1`
	_, err := r.DB.ExecContext(ctx, query, id, total)
	return err
}

func (r *BatchRepository) IncrementSent(ctx context.Context, id string) error {
	query := `UPDATE scheduled_batches SET sent_count=sent_count+1, updated_at=NOW() WHERE id=$1`
	_, err := r.DB.ExecContext(ctx, query, id)
	return err
}

func (r *BatchRepository) IncrementFailed(ctx context.Context, id string) error {
	query := `UPDATE scheduled_batches SET failed_count=failed_count+1, updated_at=NOW() WHERE id=$1`
	_, err := r.DB.ExecContext(ctx, query, id)
	return err
}

// ApplyDeliveryConfirmation counts one confirmed delivery.
func (r *BatchRepository) ApplyDeliveryConfirmation(ctx context.Context, id string) error {
	query := `UPDATE scheduled_batches SET delivered_count=delivered_count+1, updated_at=NOW() WHERE id=$1`
	_, err := r.DB.ExecContext(ctx, query, id)
	return err
}

// ApplyFailureCorrection counts one confirmed failure and takes back the
// optimistic sent increment made at submission time.
func (r *BatchRepository) ApplyFailureCorrection(ctx context.Context, id string) error {
	query := `UPDATE scheduled_batches
        SET failed_count=failed_count+1, sent_count=sent_count-1, updated_at=NOW()
        WHERE id=$1`
	_, err := r.DB.ExecContext(ctx, query, id)
	return err
}

func (r *BatchRepository) MarkOwnerNotified(ctx context.Context, id string) error {
	query := `UPDATE scheduled_batches
        SET owner_notified=TRUE, owner_notified_at=NOW(), updated_at=NOW()
        WHERE id=$1`
	_, err := r.DB.ExecContext(ctx, query, id)
	return err
}

var _ BatchRepositoryInterface = (*BatchRepository)(nil)
