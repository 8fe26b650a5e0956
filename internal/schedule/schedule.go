// internal/schedule/schedule.go
package schedule

import (
	"time"

	"github.com/lironamy/wedding-us-sub002/internal/model"
)

// SendHour is the event-local hour of day at which scheduled waves go out.
const SendHour = 10

// Rule declares one notification kind: how many days before the event it
// fires (negative = after) and which guests it targets by default.
type Rule struct {
	Kind         model.BatchKind
	DaysBefore   int
	SendHour     int
	TargetFilter model.TargetFilter
	Description  string
}

// DefaultRules is the stock schedule. It is configuration, not law: the
// calculator accepts any rule set, so deployments can swap offsets or kinds.
func DefaultRules() []Rule {
	return []Rule{
		{Kind: model.KindInvitation, DaysBefore: 14, SendHour: SendHour, TargetFilter: model.TargetAll, Description: "הזמנה ראשונית - שבועיים לפני האירוע"},
		{Kind: model.KindReminder1, DaysBefore: 7, SendHour: SendHour, TargetFilter: model.TargetNotResponded, Description: "תזכורת ראשונה - שבוע לפני האירוע"},
		{Kind: model.KindReminder2, DaysBefore: 2, SendHour: SendHour, TargetFilter: model.TargetNotResponded, Description: "תזכורת שנייה - יומיים לפני האירוע"},
		{Kind: model.KindDayBefore, DaysBefore: 1, SendHour: SendHour, TargetFilter: model.TargetAttending, Description: "תזכורת יום לפני האירוע"},
		{Kind: model.KindThankYou, DaysBefore: -1, SendHour: SendHour, TargetFilter: model.TargetAttending, Description: "הודעת תודה - יום אחרי האירוע"},
	}
}

// FireTime is one computed entry of the schedule.
type FireTime struct {
	Kind         model.BatchKind
	At           time.Time
	TargetFilter model.TargetFilter
}

// Calculator derives fire times from an event timestamp. Pure: the caller
// supplies "now" and the event's location.
type Calculator struct {
	rules []Rule
}

func NewCalculator(rules []Rule) *Calculator {
	return &Calculator{rules: rules}
}

func (c *Calculator) Rules() []Rule {
	return c.rules
}

// FireTimes computes the fire instant for every rule whose fire time has not
// already elapsed. "Day before" boundaries follow the event's local civil
// calendar: the offset walks whole calendar days in loc, then the send hour
// is applied in loc, and the result is converted to UTC for storage. Rules
// whose fire time is not after now are omitted (never schedule in the past).
func (c *Calculator) FireTimes(eventDate time.Time, loc *time.Location, now time.Time) []FireTime {
	local := eventDate.In(loc)

	var out []FireTime
	for _, r := range c.rules {
		day := time.Date(local.Year(), local.Month(), local.Day(), r.SendHour, 0, 0, 0, loc)
		fire := day.AddDate(0, 0, -r.DaysBefore)
		if !fire.After(now) {
			continue
		}
		out = append(out, FireTime{
			Kind:         r.Kind,
			At:           fire.UTC(),
			TargetFilter: r.TargetFilter,
		})
	}
	return out
}
