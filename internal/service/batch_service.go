// internal/service/batch_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/lironamy/wedding-us-sub002/internal/errors"
	"github.com/lironamy/wedding-us-sub002/internal/model"
	"github.com/lironamy/wedding-us-sub002/internal/render"
	"github.com/lironamy/wedding-us-sub002/internal/repository"
	"github.com/lironamy/wedding-us-sub002/internal/schedule"
)

// BatchService is the operator-facing surface: thin wrappers over the batch
// state machine and the schedule calculator.
type BatchService struct {
	Batches    repository.BatchRepositoryInterface
	Records    repository.RecordRepositoryInterface
	Events     repository.EventRepositoryInterface
	Guests     repository.GuestRepositoryInterface
	Calculator *schedule.Calculator

	Now func() time.Time
}

func (s *BatchService) ListForEvent(ctx context.Context, eventID int) ([]*model.ScheduledBatch, error) {
	return s.Batches.ListByEvent(ctx, eventID)
}

func (s *BatchService) GetBatch(ctx context.Context, id string) (*model.ScheduledBatch, error) {
	return s.Batches.GetByID(ctx, id)
}

// ListRecipients is the per-recipient breakdown for one batch.
func (s *BatchService) ListRecipients(ctx context.Context, batchID string) ([]*model.RecipientMessageRecord, error) {
	if _, err := s.Batches.GetByID(ctx, batchID); err != nil {
		return nil, err
	}
	return s.Records.ListByBatch(ctx, batchID)
}

// GenerateDefaults creates the auto-computed batch set for an event from the
// schedule rules. With regenerate, existing open batches are first cleared:
// pending batches that never sent anything are hard-deleted, anything with
// send history is cancelled so the record survives. Without regenerate,
// generation refuses to run while open batches exist.
func (s *BatchService) GenerateDefaults(ctx context.Context, eventID int, regenerate bool) ([]*model.ScheduledBatch, error) {
	ev, err := s.Events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(ev.Timezone)
	if err != nil {
		return nil, fmt.Errorf("event %d has invalid timezone %q: %w", eventID, ev.Timezone, err)
	}

	open, err := s.Batches.ListOpenByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if len(open) > 0 && !regenerate {
		return nil, fmt.Errorf("event %d already has %d open batches; regenerate to replace them", eventID, len(open))
	}
	for _, b := range open {
		if b.State != model.BatchPending {
			// A batch mid-send is left alone; the orchestrator owns it.
			continue
		}
		deleted, err := s.Batches.DeletePendingUnsent(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		if deleted {
			continue
		}
		if _, err := s.Batches.CancelPending(ctx, b.ID); err != nil {
			return nil, err
		}
	}

	fireTimes := s.Calculator.FireTimes(ev.EventDate, loc, s.now())
	created := make([]*model.ScheduledBatch, 0, len(fireTimes))
	for _, ft := range fireTimes {
		b := &model.ScheduledBatch{
			ID:           uuid.NewString(),
			EventID:      eventID,
			Kind:         ft.Kind,
			FiresAt:      ft.At,
			TargetFilter: ft.TargetFilter,
		}
		if err := s.Batches.Create(ctx, b); err != nil {
			return nil, err
		}
		created = append(created, b)
	}
	return created, nil
}

// CreateManual schedules one operator-defined batch with an explicit fire
// time and target filter.
func (s *BatchService) CreateManual(ctx context.Context, eventID int, kind model.BatchKind, firesAt time.Time, filter model.TargetFilter) (*model.ScheduledBatch, error) {
	if _, err := s.Events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	if kind == "" {
		kind = model.KindCustom
	}
	if _, err := render.TemplateFor(kind); err != nil {
		return nil, err
	}
	if filter == "" {
		filter = model.TargetAll
	}
	if !firesAt.After(s.now()) {
		return nil, fmt.Errorf("fire time %v is in the past", firesAt)
	}

	b := &model.ScheduledBatch{
		ID:           uuid.NewString(),
		EventID:      eventID,
		Kind:         kind,
		FiresAt:      firesAt.UTC(),
		TargetFilter: filter,
	}
	if err := s.Batches.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Cancel transitions a pending batch to cancelled. Batches in any other
// state are refused: terminal states are final and a sending batch cannot be
// stopped mid-flight.
func (s *BatchService) Cancel(ctx context.Context, id string) error {
	cancelled, err := s.Batches.CancelPending(ctx, id)
	if err != nil {
		return err
	}
	if cancelled {
		return nil
	}
	b, err := s.Batches.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return appErrors.NewBatchNotCancellable(id, string(b.State))
}

// ListStaleRecords surfaces records that never reached a terminal delivery
// status. Retention is unbounded and cleanup is a manual operator decision;
// this is the visibility half of that policy.
func (s *BatchService) ListStaleRecords(ctx context.Context, olderThan time.Duration) ([]*model.RecipientMessageRecord, error) {
	return s.Records.ListStaleNonTerminal(ctx, s.now().Add(-olderThan))
}

// Preview renders the batch kind's template for one guest without sending.
func (s *BatchService) Preview(ctx context.Context, eventID, guestID int, kind model.BatchKind, rsvpBaseURL string) (string, error) {
	ev, err := s.Events.GetByID(ctx, eventID)
	if err != nil {
		return "", err
	}
	g, err := s.Guests.GetByID(ctx, guestID)
	if err != nil {
		return "", err
	}
	if g == nil || g.EventID != eventID {
		return "", fmt.Errorf("guest %d not found for event %d", guestID, eventID)
	}
	loc, err := time.LoadLocation(ev.Timezone)
	if err != nil {
		return "", err
	}
	tpl, err := render.TemplateFor(kind)
	if err != nil {
		return "", err
	}
	link := fmt.Sprintf("%s/rsvp/%d/%d", rsvpBaseURL, eventID, guestID)
	return render.Render(tpl, render.BagForGuest(*ev, *g, link, loc))
}

func (s *BatchService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
