// internal/service/orchestrator.go
package service

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/lironamy/wedding-us-sub002/internal/gateway"
	"github.com/lironamy/wedding-us-sub002/internal/model"
	"github.com/lironamy/wedding-us-sub002/internal/repository"
)

// OwnerSummaryTemplateID is the pre-approved gateway template for the
// post-batch summary pushed to the event owner.
const OwnerSummaryTemplateID = "wedding_owner_summary"

// Orchestrator is the cron entry point. It is stateless and safe to invoke
// concurrently or redundantly: the pending->sending claim is a conditional
// update at the store, so a batch is only ever worked once.
type Orchestrator struct {
	Batches    repository.BatchRepositoryInterface
	Events     repository.EventRepositoryInterface
	Guests     repository.GuestRepositoryInterface
	Sender     *BatchSender
	Gateway    gateway.Client
	BatchLimit int

	Now func() time.Time
}

// RunSummary reports what one invocation did.
type RunSummary struct {
	Due       int `json:"due"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// RunDue claims and dispatches up to BatchLimit due batches, sequentially.
// Losing a claim to a concurrent invocation is a skip, not an error. A batch
// failure stops that batch only; the next due batch is still attempted.
func (o *Orchestrator) RunDue(ctx context.Context) (RunSummary, error) {
	// The periodic trigger may drop the request mid-run. A claimed batch
	// has left pending and must reach completed or failed, so the run is
	// detached from the caller's cancellation.
	ctx = context.WithoutCancel(ctx)

	now := o.now()
	due, err := o.Batches.DueBatches(ctx, now, o.BatchLimit)
	if err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{Due: len(due)}
	for _, b := range due {
		claimed, err := o.Batches.ClaimPending(ctx, b.ID)
		if err != nil {
			log.Println("failed to claim batch", b.ID, ":", err)
			summary.Failed++
			continue
		}
		if !claimed {
			// Another invocation got here first. Expected, no side effects.
			log.Println("batch", b.ID, "no longer pending, skipping")
			summary.Skipped++
			continue
		}

		if err := o.runBatch(ctx, b); err != nil {
			log.Println("batch", b.ID, "failed:", err)
			if markErr := o.Batches.MarkFailed(ctx, b.ID, err.Error()); markErr != nil {
				log.Println("failed to mark batch", b.ID, "failed:", markErr)
			}
			summary.Failed++
			continue
		}
		summary.Completed++
	}
	return summary, nil
}

func (o *Orchestrator) runBatch(ctx context.Context, b *model.ScheduledBatch) error {
	ev, err := o.Events.GetByID(ctx, b.EventID)
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(ev.Timezone)
	if err != nil {
		return err
	}

	guests, err := o.Guests.ListByFilter(ctx, b.EventID, b.TargetFilter)
	if err != nil {
		return err
	}
	if err := o.Batches.SetTotalRecipients(ctx, b.ID, len(guests)); err != nil {
		return err
	}

	outcomes, err := o.Sender.Send(ctx, b, ev, guests, loc)
	if err != nil {
		return err
	}

	// The sender owns counter mutations at submission time; this loop only
	// tallies for the log and the owner summary.
	var sent, failed int
	for oc := range outcomes {
		if oc.Err != nil {
			failed++
			log.Printf("batch %s recipient %d/%d guest %d failed: %v", b.ID, oc.Position, oc.Total, oc.GuestID, oc.Err)
			continue
		}
		sent++
		log.Printf("batch %s recipient %d/%d guest %d accepted as %s", b.ID, oc.Position, oc.Total, oc.GuestID, oc.GatewayMessageID)
	}

	// Some failed recipients still leave the batch completed; failed is
	// reserved for batch-level errors before any aggregate exists.
	if err := o.Batches.MarkCompleted(ctx, b.ID); err != nil {
		return err
	}

	o.notifyOwner(ctx, b, ev, len(guests), sent, failed)
	return nil
}

// notifyOwner pushes the post-batch summary to the event owner. Best-effort:
// a failure here is logged and never fails the batch.
func (o *Orchestrator) notifyOwner(ctx context.Context, b *model.ScheduledBatch, ev *model.Event, total, sent, failed int) {
	if ev.OwnerPhone == "" {
		return
	}

	vars := map[string]string{
		"1": string(b.Kind),
		"2": strconv.Itoa(sent),
		"3": strconv.Itoa(total),
		"4": strconv.Itoa(failed),
	}
	if _, err := o.Gateway.SendTemplate(ctx, ev.OwnerPhone, OwnerSummaryTemplateID, vars); err != nil {
		log.Println("owner notification for batch", b.ID, "failed:", err)
		return
	}
	if err := o.Batches.MarkOwnerNotified(ctx, b.ID); err != nil {
		log.Println("failed to mark owner notified for batch", b.ID, ":", err)
	}
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now().UTC()
}
