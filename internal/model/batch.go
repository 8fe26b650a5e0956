// internal/model/batch.go
package model

import "time"

// BatchState is the lifecycle state of a ScheduledBatch.
type BatchState string

const (
	BatchPending   BatchState = "pending"
	BatchSending   BatchState = "sending"
	BatchCompleted BatchState = "completed"
	BatchFailed    BatchState = "failed"
	BatchCancelled BatchState = "cancelled"
)

// Terminal reports whether no further state transition may leave s.
func (s BatchState) Terminal() bool {
	return s == BatchCompleted || s == BatchFailed || s == BatchCancelled
}

// BatchKind names the purpose of a notification wave.
type BatchKind string

const (
	KindInvitation BatchKind = "invitation"
	KindReminder1  BatchKind = "reminder1"
	KindReminder2  BatchKind = "reminder2"
	KindDayBefore  BatchKind = "day_before"
	KindThankYou   BatchKind = "thank_you"
	KindCustom     BatchKind = "custom"
)

// TargetFilter selects which guests a batch goes to. The filter is evaluated
// at fire time against the current roster, not frozen at creation.
type TargetFilter string

const (
	TargetAll          TargetFilter = "all"
	TargetNotResponded TargetFilter = "not_responded"
	TargetAttending    TargetFilter = "attending"
	TargetDeclined     TargetFilter = "declined"
)

type ScheduledBatch struct {
	ID              string       `db:"id" json:"id"`
	EventID         int          `db:"event_id" json:"event_id"`
	Kind            BatchKind    `db:"kind" json:"kind"`
	FiresAt         time.Time    `db:"fires_at" json:"fires_at"`
	TargetFilter    TargetFilter `db:"target_filter" json:"target_filter"`
	State           BatchState   `db:"state" json:"state"`
	TotalRecipients int          `db:"total_recipients" json:"total_recipients"`
	SentCount       int          `db:"sent_count" json:"sent_count"`
	DeliveredCount  int          `db:"delivered_count" json:"delivered_count"`
	FailedCount     int          `db:"failed_count" json:"failed_count"`
	OwnerNotified   bool         `db:"owner_notified" json:"owner_notified"`
	OwnerNotifiedAt *time.Time   `db:"owner_notified_at" json:"owner_notified_at,omitempty"`
	StartedAt       *time.Time   `db:"started_at" json:"started_at,omitempty"`
	CompletedAt     *time.Time   `db:"completed_at" json:"completed_at,omitempty"`
	LastError       string       `db:"last_error" json:"last_error,omitempty"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}
