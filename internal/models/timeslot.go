package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
)

// DayOfWeek is a weekly recurrence day.
type DayOfWeek string

const (
	Monday    DayOfWeek = "MONDAY"
	Tuesday   DayOfWeek = "TUESDAY"
	Wednesday DayOfWeek = "WEDNESDAY"
	Thursday  DayOfWeek = "THURSDAY"
	Friday    DayOfWeek = "FRIDAY"
	Saturday  DayOfWeek = "SATURDAY"
	Sunday    DayOfWeek = "SUNDAY"
)

var weekdays = []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Weekdays returns the days Monday through Sunday.
func Weekdays() []DayOfWeek {
	out := make([]DayOfWeek, len(weekdays))
	copy(out, weekdays)
	return out
}

// ParseDayOfWeek accepts full names, three letter abbreviations and ISO numbers (1=Monday).
func ParseDayOfWeek(raw string) (DayOfWeek, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if n, err := strconv.Atoi(value); err == nil {
		if n >= 1 && n <= 7 {
			return weekdays[n-1], nil
		}
		return "", appErrors.Clone(appErrors.ErrInvalidSlot, fmt.Sprintf("unknown day of week %q", raw))
	}
	for _, day := range weekdays {
		if value == string(day) || (len(value) == 3 && strings.HasPrefix(string(day), value)) {
			return day, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrInvalidSlot, fmt.Sprintf("unknown day of week %q", raw))
}

// Index returns 1 for Monday through 7 for Sunday, 0 for unknown values.
func (d DayOfWeek) Index() int {
	for i, day := range weekdays {
		if day == d {
			return i + 1
		}
	}
	return 0
}

// Valid reports whether d is one of the seven known days.
func (d DayOfWeek) Valid() bool {
	return d.Index() > 0
}

// ClockTime is a wall clock value in minutes since midnight.
type ClockTime int

// MaxClockTime is 23:59.
const MaxClockTime ClockTime = 24*60 - 1

// ParseClockTime parses a 24-hour HH:MM value.
func ParseClockTime(raw string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 || len(parts[1]) != 2 || len(parts[0]) == 0 || len(parts[0]) > 2 {
		return 0, appErrors.Clone(appErrors.ErrInvalidSlot, fmt.Sprintf("invalid clock time %q, expected HH:MM", raw))
	}
	hours, errH := strconv.Atoi(parts[0])
	minutes, errM := strconv.Atoi(parts[1])
	if errH != nil || errM != nil || hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, appErrors.Clone(appErrors.ErrInvalidSlot, fmt.Sprintf("invalid clock time %q, expected HH:MM", raw))
	}
	return ClockTime(hours*60 + minutes), nil
}

// String renders HH:MM.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Hour returns the hour component.
func (c ClockTime) Hour() int { return int(c) / 60 }

// Minute returns the minute component.
func (c ClockTime) Minute() int { return int(c) % 60 }

// TimeSlot is a weekly recurring availability window on a single day.
// Start is inclusive and End exclusive.
type TimeSlot struct {
	Day   DayOfWeek
	Start ClockTime
	End   ClockTime
}

// NewTimeSlot validates and builds a slot. Zero-length and overnight windows are rejected.
func NewTimeSlot(day DayOfWeek, start, end ClockTime) (TimeSlot, error) {
	if !day.Valid() {
		return TimeSlot{}, appErrors.Clone(appErrors.ErrInvalidSlot, fmt.Sprintf("unknown day of week %q", day))
	}
	if start < 0 || end < 0 || start > MaxClockTime || end > MaxClockTime {
		return TimeSlot{}, appErrors.Clone(appErrors.ErrInvalidSlot, "clock time out of range")
	}
	if start >= end {
		return TimeSlot{}, appErrors.Clone(appErrors.ErrInvalidSlot, fmt.Sprintf("slot %s %s-%s must start before it ends", day, start, end))
	}
	return TimeSlot{Day: day, Start: start, End: end}, nil
}

// ParseTimeSlot builds a slot from its textual parts.
func ParseTimeSlot(day, start, end string) (TimeSlot, error) {
	d, err := ParseDayOfWeek(day)
	if err != nil {
		return TimeSlot{}, err
	}
	s, err := ParseClockTime(start)
	if err != nil {
		return TimeSlot{}, err
	}
	e, err := ParseClockTime(end)
	if err != nil {
		return TimeSlot{}, err
	}
	return NewTimeSlot(d, s, e)
}

// MustTimeSlot panics on invalid input. Intended for fixtures.
func MustTimeSlot(day, start, end string) TimeSlot {
	slot, err := ParseTimeSlot(day, start, end)
	if err != nil {
		panic(err)
	}
	return slot
}

// Duration returns the slot length in minutes.
func (t TimeSlot) Duration() int {
	return int(t.End - t.Start)
}

// String renders e.g. "MONDAY 09:00-10:00".
func (t TimeSlot) String() string {
	return fmt.Sprintf("%s %s-%s", t.Day, t.Start, t.End)
}

type timeSlotJSON struct {
	Day       string `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// MarshalJSON renders the slot with HH:MM clock values.
func (t TimeSlot) MarshalJSON() ([]byte, error) {
	return json.Marshal(timeSlotJSON{Day: string(t.Day), StartTime: t.Start.String(), EndTime: t.End.String()})
}

// UnmarshalJSON parses and validates a slot.
func (t *TimeSlot) UnmarshalJSON(data []byte) error {
	var raw timeSlotJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	slot, err := ParseTimeSlot(raw.Day, raw.StartTime, raw.EndTime)
	if err != nil {
		return err
	}
	*t = slot
	return nil
}

// TimeSlots is an ordered availability list persisted as JSONB.
type TimeSlots []TimeSlot

// Value implements driver.Valuer.
func (s TimeSlots) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]TimeSlot(s))
}

// Scan implements sql.Scanner.
func (s *TimeSlots) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*s = TimeSlots{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan time slots: unsupported type %T", src)
	}
	var slots []TimeSlot
	if err := json.Unmarshal(data, &slots); err != nil {
		return fmt.Errorf("scan time slots: %w", err)
	}
	*s = slots
	return nil
}
