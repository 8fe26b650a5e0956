// internal/render/bag.go
package render

import (
	"time"

	"github.com/lironamy/wedding-us-sub002/internal/model"
)

// BagForGuest assembles the substitution context for one guest. Dates are
// formatted in the event's local calendar, the way invitees read them.
func BagForGuest(ev model.Event, g model.Guest, rsvpLink string, loc *time.Location) VariableBag {
	local := ev.EventDate.In(loc)
	return VariableBag{
		GuestName:    g.Name,
		Partner1Name: ev.Partner1Name,
		Partner2Name: ev.Partner2Name,
		Partner1Role: ev.Partner1Role,
		Partner2Role: ev.Partner2Role,
		EventDate:    local.Format("02/01/2006"),
		EventTime:    local.Format("15:04"),
		Venue:        ev.Venue,
		RSVPLink:     rsvpLink,
		TableNumber:  g.TableNumber,
	}
}
