package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	appErrors "github.com/lironamy/wedding-us-sub002/internal/errors"
	"github.com/lironamy/wedding-us-sub002/internal/model"
)

// In-memory repositories with the same conditional-update semantics as the
// SQL layer, so claim races and terminal guards behave like production.

type memBatchRepo struct {
	mu      sync.Mutex
	batches map[string]*model.ScheduledBatch
}

func newMemBatchRepo() *memBatchRepo {
	return &memBatchRepo{batches: map[string]*model.ScheduledBatch{}}
}

func (m *memBatchRepo) add(b *model.ScheduledBatch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	m.batches[b.ID] = &cp
}

func (m *memBatchRepo) get(id string) model.ScheduledBatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.batches[id]
}

func (m *memBatchRepo) Create(ctx context.Context, b *model.ScheduledBatch) error {
	if b.State == "" {
		b.State = model.BatchPending
	}
	m.add(b)
	return nil
}

func (m *memBatchRepo) GetByID(ctx context.Context, id string) (*model.ScheduledBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok {
		return nil, appErrors.NewBatchNotFound(id)
	}
	cp := *b
	return &cp, nil
}

func (m *memBatchRepo) ListByEvent(ctx context.Context, eventID int) ([]*model.ScheduledBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ScheduledBatch
	for _, b := range m.batches {
		if b.EventID == eventID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memBatchRepo) ListOpenByEvent(ctx context.Context, eventID int) ([]*model.ScheduledBatch, error) {
	all, _ := m.ListByEvent(ctx, eventID)
	var out []*model.ScheduledBatch
	for _, b := range all {
		if !b.State.Terminal() {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memBatchRepo) DueBatches(ctx context.Context, now time.Time, limit int) ([]*model.ScheduledBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ScheduledBatch
	for _, b := range m.batches {
		if b.State == model.BatchPending && !b.FiresAt.After(now) && len(out) < limit {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memBatchRepo) ClaimPending(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok || b.State != model.BatchPending {
		return false, nil
	}
	now := time.Now()
	b.State = model.BatchSending
	b.StartedAt = &now
	return true, nil
}

func (m *memBatchRepo) MarkCompleted(ctx context.Context, id string) error {
	return m.transition(id, model.BatchSending, model.BatchCompleted, "")
}

func (m *memBatchRepo) MarkFailed(ctx context.Context, id string, lastError string) error {
	return m.transition(id, model.BatchSending, model.BatchFailed, lastError)
}

func (m *memBatchRepo) transition(id string, from, to model.BatchState, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok || b.State != from {
		return nil
	}
	now := time.Now()
	b.State = to
	b.CompletedAt = &now
	if lastError != "" {
		b.LastError = lastError
	}
	return nil
}

func (m *memBatchRepo) CancelPending(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok || b.State != model.BatchPending {
		return false, nil
	}
	b.State = model.BatchCancelled
	return true, nil
}

func (m *memBatchRepo) DeletePendingUnsent(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok || b.State != model.BatchPending || b.SentCount != 0 {
		return false, nil
	}
	delete(m.batches, id)
	return true, nil
}

func (m *memBatchRepo) SetTotalRecipients(ctx context.Context, id string, total int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches[id].TotalRecipients = total
	return nil
}

func (m *memBatchRepo) IncrementSent(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches[id].SentCount++
	return nil
}

func (m *memBatchRepo) IncrementFailed(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches[id].FailedCount++
	return nil
}

func (m *memBatchRepo) ApplyDeliveryConfirmation(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches[id].DeliveredCount++
	return nil
}

func (m *memBatchRepo) ApplyFailureCorrection(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches[id].FailedCount++
	m.batches[id].SentCount--
	return nil
}

func (m *memBatchRepo) MarkOwnerNotified(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	m.batches[id].OwnerNotified = true
	m.batches[id].OwnerNotifiedAt = &now
	return nil
}

type memRecordRepo struct {
	mu      sync.Mutex
	records map[string]*model.RecipientMessageRecord
}

func newMemRecordRepo() *memRecordRepo {
	return &memRecordRepo{records: map[string]*model.RecipientMessageRecord{}}
}

func (m *memRecordRepo) get(id string) model.RecipientMessageRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.records[id]
}

func (m *memRecordRepo) Create(ctx context.Context, rec *model.RecipientMessageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	rec.CreatedAt = now
	rec.StatusUpdatedAt = now
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *memRecordRepo) GetByGatewayMessageID(ctx context.Context, sid string) (*model.RecipientMessageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.GatewayMessageID == sid && sid != "" {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memRecordRepo) ListByBatch(ctx context.Context, batchID string) ([]*model.RecipientMessageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.RecipientMessageRecord
	for _, rec := range m.records {
		if rec.BatchID == batchID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memRecordRepo) UpdateDeliveryStatus(ctx context.Context, id string, status model.DeliveryStatus, errorCode, errorMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return fmt.Errorf("record %s not found", id)
	}
	rec.DeliveryStatus = status
	rec.ErrorCode = errorCode
	rec.ErrorMessage = errorMessage
	rec.StatusUpdatedAt = time.Now()
	return nil
}

func (m *memRecordRepo) MarkTerminalCounted(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok || rec.TerminalCounted {
		return false, nil
	}
	rec.TerminalCounted = true
	return true, nil
}

func (m *memRecordRepo) ListStaleNonTerminal(ctx context.Context, olderThan time.Time) ([]*model.RecipientMessageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.RecipientMessageRecord
	for _, rec := range m.records {
		if !rec.DeliveryStatus.Terminal() && rec.CreatedAt.Before(olderThan) {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memEventRepo struct {
	events map[int]*model.Event
}

func (m *memEventRepo) GetByID(ctx context.Context, id int) (*model.Event, error) {
	ev, ok := m.events[id]
	if !ok {
		return nil, appErrors.NewEventNotFound(id)
	}
	cp := *ev
	return &cp, nil
}

type memGuestRepo struct {
	guests []model.Guest
}

func (m *memGuestRepo) ListByFilter(ctx context.Context, eventID int, filter model.TargetFilter) ([]model.Guest, error) {
	var out []model.Guest
	for _, g := range m.guests {
		if g.EventID != eventID {
			continue
		}
		switch filter {
		case model.TargetAll, "":
		case model.TargetNotResponded:
			if g.RSVPStatus != model.RSVPPending {
				continue
			}
		case model.TargetAttending:
			if g.RSVPStatus != model.RSVPAttending {
				continue
			}
		case model.TargetDeclined:
			if g.RSVPStatus != model.RSVPDeclined {
				continue
			}
		}
		out = append(out, g)
	}
	return out, nil
}

func (m *memGuestRepo) GetByID(ctx context.Context, id int) (*model.Guest, error) {
	for _, g := range m.guests {
		if g.ID == id {
			cp := g
			return &cp, nil
		}
	}
	return nil, nil
}

// fakeGateway records submissions and fails selected phone numbers.
type fakeGateway struct {
	mu            sync.Mutex
	configuredErr error
	failPhones    map[string]error
	calls         []fakeCall
	nextSid       int
}

type fakeCall struct {
	To         string
	TemplateID string
	Vars       map[string]string
}

func (f *fakeGateway) Configured() error { return f.configuredErr }

func (f *fakeGateway) SendTemplate(ctx context.Context, to, templateID string, vars map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failPhones[to]; ok {
		return "", err
	}
	f.calls = append(f.calls, fakeCall{To: to, TemplateID: templateID, Vars: vars})
	f.nextSid++
	return fmt.Sprintf("SM%04d", f.nextSid), nil
}

func (f *fakeGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
