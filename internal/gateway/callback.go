// internal/gateway/callback.go
package gateway

import (
	"fmt"
	"net/url"

	"github.com/lironamy/wedding-us-sub002/internal/model"
)

// StatusCallback is one inbound delivery-status notification from the
// gateway. Callbacks arrive form-encoded, at-least-once, in no particular
// order, seconds to hours after submission.
type StatusCallback struct {
	MessageID    string
	Status       model.DeliveryStatus
	ErrorCode    string
	ErrorMessage string
}

// ParseStatusCallback extracts the fields this service cares about from the
// gateway's form payload.
func ParseStatusCallback(form url.Values) (StatusCallback, error) {
	id := form.Get("MessageSid")
	if id == "" {
		id = form.Get("SmsSid")
	}
	if id == "" {
		return StatusCallback{}, fmt.Errorf("status callback missing MessageSid")
	}

	raw := form.Get("MessageStatus")
	if !model.ValidDeliveryStatus(raw) {
		return StatusCallback{}, fmt.Errorf("status callback has unknown status %q", raw)
	}

	return StatusCallback{
		MessageID:    id,
		Status:       model.DeliveryStatus(raw),
		ErrorCode:    form.Get("ErrorCode"),
		ErrorMessage: form.Get("ErrorMessage"),
	}, nil
}
