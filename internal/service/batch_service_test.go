package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	appErrors "github.com/lironamy/wedding-us-sub002/internal/errors"
	"github.com/lironamy/wedding-us-sub002/internal/model"
	"github.com/lironamy/wedding-us-sub002/internal/schedule"
	"github.com/lironamy/wedding-us-sub002/internal/service"
)

func testBatchService(batches *memBatchRepo) *service.BatchService {
	return &service.BatchService{
		Batches:    batches,
		Records:    newMemRecordRepo(),
		Events:     &memEventRepo{events: map[int]*model.Event{1: testEvent()}},
		Guests:     &memGuestRepo{guests: testGuests(2)},
		Calculator: schedule.NewCalculator(schedule.DefaultRules()),
		Now:        func() time.Time { return time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC) },
	}
}

func TestGenerateDefaultsCreatesFullSchedule(t *testing.T) {
	batches := newMemBatchRepo()
	svc := testBatchService(batches)

	created, err := svc.GenerateDefaults(context.Background(), 1, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(created) != len(schedule.DefaultRules()) {
		t.Fatalf("created %d batches, want %d", len(created), len(schedule.DefaultRules()))
	}
	for _, b := range created {
		if b.State != model.BatchPending {
			t.Errorf("batch %s state = %s, want pending", b.Kind, b.State)
		}
		if b.ID == "" {
			t.Errorf("batch %s has no id", b.Kind)
		}
	}
}

func TestGenerateDefaultsRefusesWithoutRegenerate(t *testing.T) {
	batches := newMemBatchRepo()
	svc := testBatchService(batches)

	if _, err := svc.GenerateDefaults(context.Background(), 1, false); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GenerateDefaults(context.Background(), 1, false); err == nil {
		t.Fatal("second generation without regenerate should refuse")
	}
}

func TestRegenerateDeletesUnsentAndCancelsHistory(t *testing.T) {
	batches := newMemBatchRepo()
	svc := testBatchService(batches)

	// A pending batch that never sent: eligible for hard delete.
	batches.add(&model.ScheduledBatch{
		ID: "fresh", EventID: 1, Kind: model.KindInvitation,
		FiresAt: time.Date(2025, 5, 27, 7, 0, 0, 0, time.UTC),
		State:   model.BatchPending,
	})
	// A pending batch with send history: must be cancelled, not deleted.
	batches.add(&model.ScheduledBatch{
		ID: "historic", EventID: 1, Kind: model.KindReminder1,
		FiresAt: time.Date(2025, 6, 3, 7, 0, 0, 0, time.UTC),
		State:   model.BatchPending, SentCount: 4,
	})

	created, err := svc.GenerateDefaults(context.Background(), 1, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(created) == 0 {
		t.Fatal("regeneration created nothing")
	}

	if _, err := batches.GetByID(context.Background(), "fresh"); err == nil {
		t.Error("unsent pending batch should have been deleted")
	}
	historic := batches.get("historic")
	if historic.State != model.BatchCancelled {
		t.Errorf("batch with history state = %s, want cancelled (history preserved)", historic.State)
	}
}

func TestCreateManualBatch(t *testing.T) {
	batches := newMemBatchRepo()
	svc := testBatchService(batches)

	firesAt := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	b, err := svc.CreateManual(context.Background(), 1, "", firesAt, model.TargetDeclined)
	if err != nil {
		t.Fatal(err)
	}
	if b.Kind != model.KindCustom {
		t.Errorf("kind = %s, want default custom", b.Kind)
	}
	if b.TargetFilter != model.TargetDeclined {
		t.Errorf("filter = %s, want declined", b.TargetFilter)
	}
	if !b.FiresAt.Equal(firesAt) {
		t.Errorf("fires at %v, want %v", b.FiresAt, firesAt)
	}
}

func TestCreateManualRejectsPastFireTime(t *testing.T) {
	svc := testBatchService(newMemBatchRepo())

	past := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	if _, err := svc.CreateManual(context.Background(), 1, model.KindCustom, past, model.TargetAll); err == nil {
		t.Fatal("past fire time should be rejected")
	}
}

func TestCancelOnlyPending(t *testing.T) {
	batches := newMemBatchRepo()
	svc := testBatchService(batches)

	batches.add(&model.ScheduledBatch{ID: "p", EventID: 1, State: model.BatchPending})
	batches.add(&model.ScheduledBatch{ID: "c", EventID: 1, State: model.BatchCompleted})

	if err := svc.Cancel(context.Background(), "p"); err != nil {
		t.Fatalf("cancel pending: %v", err)
	}
	if got := batches.get("p"); got.State != model.BatchCancelled {
		t.Errorf("state = %s, want cancelled", got.State)
	}

	err := svc.Cancel(context.Background(), "c")
	var notCancellable *appErrors.ErrBatchNotCancellable
	if !errors.As(err, &notCancellable) {
		t.Fatalf("cancel completed: got %v, want ErrBatchNotCancellable", err)
	}
}

func TestPreviewRendersForGuest(t *testing.T) {
	svc := testBatchService(newMemBatchRepo())

	body, err := svc.Preview(context.Background(), 1, 1, model.KindInvitation, "https://wedding.example")
	if err != nil {
		t.Fatal(err)
	}
	if body == "" {
		t.Fatal("empty preview")
	}
}
