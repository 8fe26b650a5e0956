// internal/service/sender.go
package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lironamy/wedding-us-sub002/internal/gateway"
	"github.com/lironamy/wedding-us-sub002/internal/model"
	"github.com/lironamy/wedding-us-sub002/internal/render"
	"github.com/lironamy/wedding-us-sub002/internal/repository"
)

// RecipientOutcome is one per-recipient event in the send stream. The
// orchestrator consumes these to build the batch aggregate and to surface
// partial progress.
type RecipientOutcome struct {
	RecordID         string
	GuestID          int
	GuestName        string
	GatewayMessageID string
	Err              error
	Position         int
	Total            int
}

// BatchSender drives one outbound batch: render, submit, record, pause,
// repeat. Strictly sequential per recipient: the inter-message delay is
// deliberate backpressure against the shared rate-limited gateway, not an
// optimization target.
type BatchSender struct {
	Gateway     gateway.Client
	Records     repository.RecordRepositoryInterface
	Batches     repository.BatchRepositoryInterface
	Delay       time.Duration
	RSVPBaseURL string

	// Sleep is swappable so tests run without wall-clock delays.
	Sleep func(time.Duration)
}

func NewBatchSender(gw gateway.Client, records repository.RecordRepositoryInterface, batches repository.BatchRepositoryInterface, delay time.Duration, rsvpBaseURL string) *BatchSender {
	return &BatchSender{
		Gateway:     gw,
		Records:     records,
		Batches:     batches,
		Delay:       delay,
		RSVPBaseURL: rsvpBaseURL,
		Sleep:       time.Sleep,
	}
}

// Send dispatches the batch to every guest, emitting one outcome per guest on
// the returned channel and closing it when the list is exhausted. A non-nil
// error is batch-level (unconfigured gateway, unknown template) and means no
// recipient was attempted; per-recipient failures never abort the batch.
// Zero guests is a valid send: the channel just closes immediately.
func (s *BatchSender) Send(ctx context.Context, batch *model.ScheduledBatch, ev *model.Event, guests []model.Guest, loc *time.Location) (<-chan RecipientOutcome, error) {
	if err := s.Gateway.Configured(); err != nil {
		return nil, err
	}
	tpl, err := render.TemplateFor(batch.Kind)
	if err != nil {
		return nil, err
	}

	out := make(chan RecipientOutcome)
	go func() {
		defer close(out)
		total := len(guests)
		for i, g := range guests {
			oc := s.sendOne(ctx, batch, ev, tpl, g, loc)
			oc.Position = i + 1
			oc.Total = total
			select {
			case out <- oc:
			case <-ctx.Done():
				return
			}
			if i < total-1 {
				s.Sleep(s.Delay)
			}
		}
	}()
	return out, nil
}

func (s *BatchSender) sendOne(ctx context.Context, batch *model.ScheduledBatch, ev *model.Event, tpl render.Template, g model.Guest, loc *time.Location) RecipientOutcome {
	oc := RecipientOutcome{GuestID: g.ID, GuestName: g.Name}

	bag := render.BagForGuest(*ev, g, s.rsvpLink(ev.ID, g.ID), loc)

	body, err := render.Render(tpl, bag)
	if err != nil {
		oc.Err = err
		oc.RecordID = s.recordFailure(ctx, batch.ID, g.ID, "", err)
		return oc
	}
	vars, err := render.GatewayVariables(tpl, bag)
	if err != nil {
		oc.Err = err
		oc.RecordID = s.recordFailure(ctx, batch.ID, g.ID, body, err)
		return oc
	}

	sid, err := s.Gateway.SendTemplate(ctx, g.Phone, tpl.ID, vars)
	if err != nil {
		oc.Err = err
		oc.RecordID = s.recordFailure(ctx, batch.ID, g.ID, body, err)
		return oc
	}

	// Optimistic: the gateway accepted the message, so it counts as sent
	// until a delivery callback says otherwise.
	rec := &model.RecipientMessageRecord{
		ID:               uuid.NewString(),
		BatchID:          batch.ID,
		GuestID:          g.ID,
		RenderedBody:     body,
		GatewayMessageID: sid,
		DeliveryStatus:   model.StatusSent,
	}
	if err := s.Records.Create(ctx, rec); err != nil {
		// The message is already on its way; surface the bookkeeping
		// failure but keep the gateway id for manual correlation.
		oc.Err = fmt.Errorf("message %s submitted but record not persisted: %w", sid, err)
	}
	// Counted at submission so a delivery callback racing ahead of us can
	// only ever correct a count that already exists.
	if err := s.Batches.IncrementSent(ctx, batch.ID); err != nil {
		log.Println("failed to increment sent count for batch", batch.ID, ":", err)
	}
	oc.RecordID = rec.ID
	oc.GatewayMessageID = sid
	return oc
}

func (s *BatchSender) recordFailure(ctx context.Context, batchID string, guestID int, body string, cause error) string {
	rec := &model.RecipientMessageRecord{
		ID:             uuid.NewString(),
		BatchID:        batchID,
		GuestID:        guestID,
		RenderedBody:   body,
		DeliveryStatus: model.StatusFailed,
		ErrorMessage:   cause.Error(),
	}
	if err := s.Batches.IncrementFailed(ctx, batchID); err != nil {
		log.Println("failed to increment failed count for batch", batchID, ":", err)
	}
	if err := s.Records.Create(ctx, rec); err != nil {
		return ""
	}
	return rec.ID
}

func (s *BatchSender) rsvpLink(eventID, guestID int) string {
	return strings.TrimRight(s.RSVPBaseURL, "/") + "/rsvp/" + strconv.Itoa(eventID) + "/" + strconv.Itoa(guestID)
}
