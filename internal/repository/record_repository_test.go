package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/lironamy/wedding-us-sub002/internal/model"
)

func TestMarkTerminalCountedGuardsDoubleCounting(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := &RecordRepository{DB: db}

	mock.ExpectExec(`UPDATE recipient_message_records\s+SET terminal_counted=TRUE\s+WHERE id=\$1 AND terminal_counted=FALSE`).
		WithArgs("rec-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE recipient_message_records\s+SET terminal_counted=TRUE\s+WHERE id=\$1 AND terminal_counted=FALSE`).
		WithArgs("rec-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	first, err := repo.MarkTerminalCounted(ctx, "rec-1")
	assert.NoError(t, err)
	assert.True(t, first)

	second, err := repo.MarkTerminalCounted(ctx, "rec-1")
	assert.NoError(t, err)
	assert.False(t, second, "duplicate terminal callback must not win the guard")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByGatewayMessageIDMissIsNotError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := &RecordRepository{DB: db}

	mock.ExpectQuery(`FROM recipient_message_records WHERE gateway_message_id=\$1`).
		WithArgs("SMunknown").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "batch_id", "guest_id", "rendered_body", "gateway_message_id",
			"delivery_status", "error_code", "error_message", "terminal_counted",
			"status_updated_at", "created_at",
		}))

	rec, err := repo.GetByGatewayMessageID(context.Background(), "SMunknown")
	assert.NoError(t, err)
	assert.Nil(t, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRecordNullsEmptyGatewayID(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := &RecordRepository{DB: db}

	// A failed submission has no gateway id; the unique column must get
	// NULL, not the empty string, or two failures would collide.
	mock.ExpectExec(`INSERT INTO recipient_message_records`).
		WithArgs("rec-1", "batch-1", 42, "", nil,
			string(model.StatusFailed), "21211", "invalid number",
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := &model.RecipientMessageRecord{
		ID:             "rec-1",
		BatchID:        "batch-1",
		GuestID:        42,
		DeliveryStatus: model.StatusFailed,
		ErrorCode:      "21211",
		ErrorMessage:   "invalid number",
	}
	assert.NoError(t, repo.Create(context.Background(), rec))
	assert.False(t, rec.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateDeliveryStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := &RecordRepository{DB: db}

	mock.ExpectExec(`UPDATE recipient_message_records\s+SET delivery_status=\$2, error_code=\$3, error_message=\$4, status_updated_at=NOW\(\)\s+WHERE id=\$1`).
		WithArgs("rec-1", string(model.StatusDelivered), "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.UpdateDeliveryStatus(context.Background(), "rec-1", model.StatusDelivered, "", "")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListStaleNonTerminal(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := &RecordRepository{DB: db}

	cutoff := time.Now().UTC().Add(-72 * time.Hour)
	created := cutoff.Add(-time.Hour)
	rows := sqlmock.NewRows([]string{
		"id", "batch_id", "guest_id", "rendered_body", "gateway_message_id",
		"delivery_status", "error_code", "error_message", "terminal_counted",
		"status_updated_at", "created_at",
	}).AddRow("rec-1", "batch-1", 42, "hello", "SM1", "sent", "", "", false, created, created)

	mock.ExpectQuery(`delivery_status NOT IN \('delivered', 'read', 'failed', 'undelivered'\)`).
		WithArgs(cutoff).
		WillReturnRows(rows)

	recs, err := repo.ListStaleNonTerminal(context.Background(), cutoff)
	assert.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, model.StatusSent, recs[0].DeliveryStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}
