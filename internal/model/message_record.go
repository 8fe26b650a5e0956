// internal/model/message_record.go
package model

import "time"

// DeliveryStatus mirrors the gateway's status vocabulary. Causal order is
// queued -> sending -> sent -> delivered|read, or -> failed|undelivered,
// but callbacks may arrive in any order and more than once.
type DeliveryStatus string

const (
	StatusQueued      DeliveryStatus = "queued"
	StatusSending     DeliveryStatus = "sending"
	StatusSent        DeliveryStatus = "sent"
	StatusDelivered   DeliveryStatus = "delivered"
	StatusRead        DeliveryStatus = "read"
	StatusFailed      DeliveryStatus = "failed"
	StatusUndelivered DeliveryStatus = "undelivered"
)

// ConfirmedSuccess reports whether the recipient's device is known to have
// received the message. "sent" is NOT success: it only means the gateway
// accepted the message for carrier delivery.
func (s DeliveryStatus) ConfirmedSuccess() bool {
	return s == StatusDelivered || s == StatusRead
}

// ConfirmedFailure reports whether delivery conclusively did not happen.
func (s DeliveryStatus) ConfirmedFailure() bool {
	return s == StatusFailed || s == StatusUndelivered
}

// Terminal reports whether s ends the delivery lifecycle for a record.
func (s DeliveryStatus) Terminal() bool {
	return s.ConfirmedSuccess() || s.ConfirmedFailure()
}

// ValidDeliveryStatus reports whether raw is a status this service tracks.
func ValidDeliveryStatus(raw string) bool {
	switch DeliveryStatus(raw) {
	case StatusQueued, StatusSending, StatusSent, StatusDelivered,
		StatusRead, StatusFailed, StatusUndelivered:
		return true
	}
	return false
}

// RecipientMessageRecord is one outbound attempt to one guest. Created by the
// batch sender with an optimistic status, mutated only by the reconciler
// afterwards, never deleted.
type RecipientMessageRecord struct {
	ID               string         `db:"id" json:"id"`
	BatchID          string         `db:"batch_id" json:"batch_id"`
	GuestID          int            `db:"guest_id" json:"guest_id"`
	RenderedBody     string         `db:"rendered_body" json:"rendered_body"`
	GatewayMessageID string         `db:"gateway_message_id" json:"gateway_message_id,omitempty"`
	DeliveryStatus   DeliveryStatus `db:"delivery_status" json:"delivery_status"`
	ErrorCode        string         `db:"error_code" json:"error_code,omitempty"`
	ErrorMessage     string         `db:"error_message" json:"error_message,omitempty"`
	TerminalCounted  bool           `db:"terminal_counted" json:"-"`
	StatusUpdatedAt  time.Time      `db:"status_updated_at" json:"status_updated_at"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
}
