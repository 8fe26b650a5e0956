// internal/model/event.go
package model

import "time"

// PartnerRole tags one of the two event principals for grammatical-gender
// resolution. The rule lives in the gendertext package.
type PartnerRole string

const (
	RoleBride PartnerRole = "bride"
	RoleGroom PartnerRole = "groom"
)

type Event struct {
	ID           int         `db:"id" json:"id"`
	Partner1Name string      `db:"partner1_name" json:"partner1_name"`
	Partner2Name string      `db:"partner2_name" json:"partner2_name"`
	Partner1Role PartnerRole `db:"partner1_role" json:"partner1_role"`
	Partner2Role PartnerRole `db:"partner2_role" json:"partner2_role"`
	EventDate    time.Time   `db:"event_date" json:"event_date"`
	Venue        string      `db:"venue" json:"venue"`
	Timezone     string      `db:"timezone" json:"timezone"`
	OwnerPhone   string      `db:"owner_phone" json:"owner_phone"`
}
