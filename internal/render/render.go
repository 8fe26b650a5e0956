// internal/render/render.go
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lironamy/wedding-us-sub002/internal/gendertext"
	"github.com/lironamy/wedding-us-sub002/internal/model"
)

// NoTableFallback renders in place of a table number when the guest has not
// been assigned a seat yet.
const NoTableFallback = "טרם שובצתם לשולחן"

// VariableBag is the per-recipient substitution context. Built fresh for each
// guest at send time, never persisted.
type VariableBag struct {
	GuestName    string
	Partner1Name string
	Partner2Name string
	Partner1Role model.PartnerRole
	Partner2Role model.PartnerRole
	EventDate    string
	EventTime    string
	Venue        string
	RSVPLink     string
	TableNumber  *int
}

func (b VariableBag) values() map[string]string {
	table := NoTableFallback
	if b.TableNumber != nil {
		table = "שולחן " + strconv.Itoa(*b.TableNumber)
	}
	return map[string]string{
		"guest_name":    b.GuestName,
		"partner1_name": b.Partner1Name,
		"partner2_name": b.Partner2Name,
		"event_date":    b.EventDate,
		"event_time":    b.EventTime,
		"venue":         b.Venue,
		"rsvp_link":     b.RSVPLink,
		"table_number":  table,
	}
}

// Template couples a body with the exact variable set it requires, in the
// order the pre-approved gateway template expects its slots. Gendered phrases
// are declared like any other variable ("gender:key"), so the resolved word
// occupies its own slot in the wire payload instead of living only in the
// audit body. Rendering fails before send when a declared variable is missing
// from the bag, so a broken message can never reach the gateway.
type Template struct {
	ID   string
	Body string
	Vars []string
}

var templates = map[model.BatchKind]Template{
	model.KindInvitation: {
		ID: "wedding_invitation",
		Body: "היי {guest_name}! אנחנו {gender:excited} להזמין אתכם לחתונה של {partner1_name} ו{partner2_name}! " +
			"האירוע יתקיים בתאריך {event_date} בשעה {event_time} ב{venue}. " +
			"נשמח לאישור הגעה: {rsvp_link}",
		Vars: []string{"guest_name", "gender:excited", "partner1_name", "partner2_name", "event_date", "event_time", "venue", "rsvp_link"},
	},
	model.KindReminder1: {
		ID: "wedding_reminder_1",
		Body: "היי {guest_name}, עוד לא אישרתם הגעה לחתונה של {partner1_name} ו{partner2_name} בתאריך {event_date}. " +
			"אנחנו {gender:waiting} לתשובה! לאישור הגעה: {rsvp_link}",
		Vars: []string{"guest_name", "partner1_name", "partner2_name", "event_date", "gender:waiting", "rsvp_link"},
	},
	model.KindReminder2: {
		ID: "wedding_reminder_2",
		Body: "היי {guest_name}, החתונה של {partner1_name} ו{partner2_name} כבר ממש קרובה - {event_date} בשעה {event_time}! " +
			"אנחנו עדיין {gender:waiting} לאישור שלכם: {rsvp_link}",
		Vars: []string{"guest_name", "partner1_name", "partner2_name", "event_date", "event_time", "gender:waiting", "rsvp_link"},
	},
	model.KindDayBefore: {
		ID: "wedding_day_before",
		Body: "היי {guest_name}, מחר זה קורה! אנחנו {gender:happy} לראות אתכם בחתונה של {partner1_name} ו{partner2_name} " +
			"בשעה {event_time} ב{venue}. {table_number}.",
		Vars: []string{"guest_name", "gender:happy", "partner1_name", "partner2_name", "event_time", "venue", "table_number"},
	},
	model.KindThankYou: {
		ID: "wedding_thank_you",
		Body: "היי {guest_name}, תודה שחגגתם איתנו! אנחנו {gender:grateful} לכם מכל הלב. " +
			"באהבה, {partner1_name} ו{partner2_name}",
		Vars: []string{"guest_name", "gender:grateful", "partner1_name", "partner2_name"},
	},
	model.KindCustom: {
		ID: "wedding_custom",
		Body: "היי {guest_name}, עדכון לגבי החתונה של {partner1_name} ו{partner2_name} בתאריך {event_date}: " +
			"לפרטים ואישור הגעה: {rsvp_link}",
		Vars: []string{"guest_name", "partner1_name", "partner2_name", "event_date", "rsvp_link"},
	},
}

// TemplateFor returns the template registered for a batch kind.
func TemplateFor(kind model.BatchKind) (Template, error) {
	tpl, ok := templates[kind]
	if !ok {
		return Template{}, fmt.Errorf("no template registered for kind %q", kind)
	}
	return tpl, nil
}

// resolve produces the value for one declared variable. "gender:" names go
// through the gender-text engine; everything else comes from the bag.
func resolve(tpl Template, name string, bag VariableBag, values map[string]string) (string, error) {
	if key, isGender := strings.CutPrefix(name, "gender:"); isGender {
		return gendertext.Resolve(key, bag.Partner1Role, bag.Partner2Role)
	}
	v, ok := values[name]
	if !ok || v == "" {
		return "", fmt.Errorf("template %s: missing variable %q", tpl.ID, name)
	}
	return v, nil
}

// Render substitutes every declared variable, gendered phrases included, into
// the template body. It guarantees no raw {placeholder} token survives: a
// missing variable or an unresolved token is an error, not silent output.
func Render(tpl Template, bag VariableBag) (string, error) {
	body := tpl.Body
	values := bag.values()
	for _, name := range tpl.Vars {
		v, err := resolve(tpl, name, bag, values)
		if err != nil {
			return "", err
		}
		body = strings.ReplaceAll(body, "{"+name+"}", v)
	}

	if i := strings.IndexByte(body, '{'); i >= 0 {
		if j := strings.IndexByte(body[i:], '}'); j >= 0 {
			return "", fmt.Errorf("template %s: unresolved placeholder %s", tpl.ID, body[i:i+j+1])
		}
	}
	return body, nil
}

// GatewayVariables produces the ordered substitution map the gateway expects
// ("1", "2", ... following the template's declared variable order). It draws
// from the same declared set as Render, so the wire payload always matches
// the audit body, gendered slots included.
func GatewayVariables(tpl Template, bag VariableBag) (map[string]string, error) {
	values := bag.values()
	out := make(map[string]string, len(tpl.Vars))
	for i, name := range tpl.Vars {
		v, err := resolve(tpl, name, bag, values)
		if err != nil {
			return nil, err
		}
		out[strconv.Itoa(i+1)] = v
	}
	return out, nil
}
