package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// ClassType is the lesson format a teacher offers.
type ClassType string

const (
	ClassTypePrivate ClassType = "private"
	ClassTypeGroup   ClassType = "group"
)

// Valid reports whether c is a known class type.
func (c ClassType) Valid() bool {
	return c == ClassTypePrivate || c == ClassTypeGroup
}

// Mode is the delivery mode of a lesson.
type Mode string

const (
	ModeOnline   Mode = "online"
	ModeInPerson Mode = "in-person"
)

// Valid reports whether m is a known delivery mode.
func (m Mode) Valid() bool {
	return m == ModeOnline || m == ModeInPerson
}

// Choice is the constraint satisfied by concrete preference values.
type Choice interface {
	~string
	Valid() bool
}

// EitherValue is the wire and storage form of an open preference.
const EitherValue = "both"

// Preference is either a specific value or an open "either" choice.
// The zero value is Either.
type Preference[T Choice] struct {
	value    T
	specific bool
}

// Either returns the open preference.
func Either[T Choice]() Preference[T] {
	return Preference[T]{}
}

// Specific returns a preference bound to v.
func Specific[T Choice](v T) Preference[T] {
	return Preference[T]{value: v, specific: true}
}

// ParsePreference parses "both" or a concrete value.
func ParsePreference[T Choice](raw string) (Preference[T], error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" || value == EitherValue {
		return Either[T](), nil
	}
	v := T(value)
	if !v.Valid() {
		return Preference[T]{}, fmt.Errorf("invalid preference %q", raw)
	}
	return Specific(v), nil
}

// Get returns the specific value and true, or the zero value and false for Either.
func (p Preference[T]) Get() (T, bool) {
	return p.value, p.specific
}

// IsEither reports whether any value is acceptable.
func (p Preference[T]) IsEither() bool {
	return !p.specific
}

// Allows reports whether v satisfies the preference.
func (p Preference[T]) Allows(v T) bool {
	return !p.specific || p.value == v
}

// SatisfiedBy reports whether at least one offered value satisfies the preference.
func (p Preference[T]) SatisfiedBy(offered []T) bool {
	if !p.specific {
		return true
	}
	for _, v := range offered {
		if v == p.value {
			return true
		}
	}
	return false
}

// String renders the concrete value or "both".
func (p Preference[T]) String() string {
	if !p.specific {
		return EitherValue
	}
	return string(p.value)
}

// MarshalJSON implements json.Marshaler.
func (p Preference[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Preference[T]) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParsePreference[T](raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Value implements driver.Valuer.
func (p Preference[T]) Value() (driver.Value, error) {
	return p.String(), nil
}

// Scan implements sql.Scanner.
func (p *Preference[T]) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*p = Either[T]()
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("scan preference: unsupported type %T", src)
	}
	parsed, err := ParsePreference[T](raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ClassTypePreference is a student's class type choice.
type ClassTypePreference = Preference[ClassType]

// ModePreference is a student's delivery mode choice.
type ModePreference = Preference[Mode]
