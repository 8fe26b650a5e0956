// internal/service/reconciler.go
package service

import (
	"context"
	"log"

	"github.com/lironamy/wedding-us-sub002/internal/gateway"
	"github.com/lironamy/wedding-us-sub002/internal/repository"
)

// Reconciler maps asynchronous gateway status callbacks onto recipient
// message records and the owning batch's aggregates. Callbacks arrive
// at-least-once and unordered, possibly hours late, and several may be
// processed in parallel; every aggregate mutation is therefore a conditional
// update at the store, guarded by the record's terminal_counted flag.
type Reconciler struct {
	Records repository.RecordRepositoryInterface
	Batches repository.BatchRepositoryInterface
}

// ProcessCallback applies one status callback:
//
//  1. Correlation miss -> logged and dropped; stale callbacks after data
//     cleanup are expected, the gateway must not see an error.
//  2. The record's status fields are overwritten unconditionally.
//  3. The first terminal status for a record adjusts the batch: delivered or
//     read bumps delivered_count; failed or undelivered bumps failed_count
//     and takes back the optimistic sent_count increment. Duplicates lose
//     the terminal_counted flip and touch nothing.
//
// Non-terminal statuses (queued, sending, sent) only update the record.
func (r *Reconciler) ProcessCallback(ctx context.Context, cb gateway.StatusCallback) error {
	rec, err := r.Records.GetByGatewayMessageID(ctx, cb.MessageID)
	if err != nil {
		return err
	}
	if rec == nil {
		log.Println("delivery callback for unknown message", cb.MessageID, "ignored")
		return nil
	}

	if err := r.Records.UpdateDeliveryStatus(ctx, rec.ID, cb.Status, cb.ErrorCode, cb.ErrorMessage); err != nil {
		return err
	}

	if !cb.Status.Terminal() {
		return nil
	}

	first, err := r.Records.MarkTerminalCounted(ctx, rec.ID)
	if err != nil {
		return err
	}
	if !first {
		return nil
	}

	if cb.Status.ConfirmedSuccess() {
		return r.Batches.ApplyDeliveryConfirmation(ctx, rec.BatchID)
	}
	return r.Batches.ApplyFailureCorrection(ctx, rec.BatchID)
}
