// internal/model/guest.go
package model

// RSVPStatus is the guest's current response status, used by target filters.
type RSVPStatus string

const (
	RSVPPending   RSVPStatus = "pending"
	RSVPAttending RSVPStatus = "attending"
	RSVPDeclined  RSVPStatus = "declined"
)

type Guest struct {
	ID          int        `db:"id" json:"id"`
	EventID     int        `db:"event_id" json:"event_id"`
	Name        string     `db:"name" json:"name"`
	Phone       string     `db:"phone" json:"phone"`
	RSVPStatus  RSVPStatus `db:"rsvp_status" json:"rsvp_status"`
	TableNumber *int       `db:"table_number" json:"table_number,omitempty"`
}
