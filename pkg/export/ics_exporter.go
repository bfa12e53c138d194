package export

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

// WeeklyEvent is a lesson that repeats every week on the same day and time.
type WeeklyEvent struct {
	UID         string
	Summary     string
	Description string
	Weekday     time.Weekday
	StartMinute int
	EndMinute   int
}

// ICSExporter renders weekly events as an iCalendar document.
type ICSExporter struct {
	productID string
	location  *time.Location
	now       func() time.Time
}

// NewICSExporter builds an exporter anchoring events in loc (UTC when nil).
func NewICSExporter(productID string, loc *time.Location) *ICSExporter {
	if loc == nil {
		loc = time.UTC
	}
	return &ICSExporter{productID: productID, location: loc, now: time.Now}
}

// Render emits one VEVENT per lesson with a weekly RRULE, starting at the
// first occurrence on or after from. DTSTART is written in UTC, so the rule
// carries no BYDAY: the series repeats on DTSTART's own weekday, which may
// differ from the local one.
func (e *ICSExporter) Render(events []WeeklyEvent, from time.Time) ([]byte, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("calendar requires at least one event")
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(e.productID)

	stamp := e.now().UTC()
	for _, ev := range events {
		if ev.EndMinute <= ev.StartMinute {
			return nil, fmt.Errorf("event %s ends before it starts", ev.UID)
		}
		start := firstOccurrence(from.In(e.location), ev.Weekday, ev.StartMinute)
		end := start.Add(time.Duration(ev.EndMinute-ev.StartMinute) * time.Minute)

		vevent := cal.AddEvent(ev.UID)
		vevent.SetDtStampTime(stamp)
		vevent.SetStartAt(start)
		vevent.SetEndAt(end)
		vevent.SetSummary(ev.Summary)
		if ev.Description != "" {
			vevent.SetDescription(ev.Description)
		}
		vevent.AddRrule("FREQ=WEEKLY")
	}

	return []byte(cal.Serialize()), nil
}

func firstOccurrence(from time.Time, day time.Weekday, minute int) time.Time {
	base := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	offset := (int(day) - int(base.Weekday()) + 7) % 7
	start := base.AddDate(0, 0, offset).Add(time.Duration(minute) * time.Minute)
	if start.Before(from) {
		start = start.AddDate(0, 0, 7)
	}
	return start
}

// Filename turns a label into a safe download name.
func Filename(label, ext string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, label)
	return strings.Trim(clean, "-") + "." + ext
}
