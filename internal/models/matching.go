package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// ChoiceList is a set of concrete choices stored as a Postgres text array.
type ChoiceList[T Choice] []T

// Contains reports whether v is in the list.
func (l ChoiceList[T]) Contains(v T) bool {
	for _, item := range l {
		if item == v {
			return true
		}
	}
	return false
}

// Value implements driver.Valuer.
func (l ChoiceList[T]) Value() (driver.Value, error) {
	arr := make(pq.StringArray, len(l))
	for i, v := range l {
		arr[i] = string(v)
	}
	return arr.Value()
}

// Scan implements sql.Scanner.
func (l *ChoiceList[T]) Scan(src interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	out := make(ChoiceList[T], 0, len(arr))
	for _, raw := range arr {
		v := T(raw)
		if !v.Valid() {
			return fmt.Errorf("scan choice list: invalid value %q", raw)
		}
		out = append(out, v)
	}
	*l = out
	return nil
}

// StudentDemand is a student waiting for a teacher. It is deleted when an
// assignment is committed, so at most one exists per student.
type StudentDemand struct {
	ID                 string              `db:"id" json:"id"`
	FullName           string              `db:"full_name" json:"full_name"`
	Email              *string             `db:"email" json:"email,omitempty"`
	Language           string              `db:"language" json:"language"`
	Level              string              `db:"level" json:"level"`
	PreferredClassType ClassTypePreference `db:"preferred_class_type" json:"preferred_class_type"`
	PreferredMode      ModePreference      `db:"preferred_mode" json:"preferred_mode"`
	TimeSlots          TimeSlots           `db:"time_slots" json:"time_slots"`
	CreatedAt          time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time           `db:"updated_at" json:"updated_at"`
}

// TeacherOffer is a teacher's teaching profile and remaining capacity.
// Version is bumped on every capacity change and checked at commit time.
type TeacherOffer struct {
	ID              string                `db:"id" json:"id"`
	FullName        string                `db:"full_name" json:"full_name"`
	Email           *string               `db:"email" json:"email,omitempty"`
	Languages       pq.StringArray        `db:"languages" json:"languages"`
	Levels          pq.StringArray        `db:"levels" json:"levels"`
	ClassTypes      ChoiceList[ClassType] `db:"class_types" json:"class_types"`
	Modes           ChoiceList[Mode]      `db:"modes" json:"modes"`
	TimeSlots       TimeSlots             `db:"time_slots" json:"time_slots"`
	MaxStudents     int                   `db:"max_students" json:"max_students"`
	CurrentStudents int                   `db:"current_students" json:"current_students"`
	Version         int                   `db:"version" json:"version"`
	CreatedAt       time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time             `db:"updated_at" json:"updated_at"`
}

// HasCapacity reports whether the teacher can take one more student.
func (t TeacherOffer) HasCapacity() bool {
	return t.CurrentStudents < t.MaxStudents
}

// RemainingCapacity returns the number of free seats.
func (t TeacherOffer) RemainingCapacity() int {
	if t.CurrentStudents >= t.MaxStudents {
		return 0
	}
	return t.MaxStudents - t.CurrentStudents
}

// Assignment binds one student to one teacher on a set of overlapping slots.
// It is the single source of truth for the student-teacher link.
type Assignment struct {
	ID             string    `db:"id" json:"id"`
	TeacherID      string    `db:"teacher_id" json:"teacher_id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	StudentName    string    `db:"student_name" json:"student_name"`
	StudentEmail   *string   `db:"student_email" json:"student_email,omitempty"`
	ClassType      ClassType `db:"class_type" json:"class_type"`
	Mode           Mode      `db:"mode" json:"mode"`
	ScheduledSlots TimeSlots `db:"scheduled_slots" json:"scheduled_slots"`
	Notes          *string   `db:"notes" json:"notes,omitempty"`
	CreatedBy      *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`

	// TeacherVersion is the teacher record version the assignment was validated against.
	TeacherVersion int `db:"-" json:"-"`
}

// AssignmentDetail enriches an assignment with the teacher's name and contact.
// Student details are snapshotted on the assignment since the demand row is retired.
type AssignmentDetail struct {
	Assignment
	TeacherName  string  `db:"teacher_name" json:"teacher_name"`
	TeacherEmail *string `db:"teacher_email" json:"teacher_email,omitempty"`
}

// DemandFilter describes pagination and filters for the student pool.
type DemandFilter struct {
	Language string
	Level    string
	Page     int
	PageSize int
}

// OfferFilter describes pagination and filters for the teacher pool.
type OfferFilter struct {
	Language string
	Level    string
	Page     int
	PageSize int
}

// AssignmentFilter narrows assignment listings.
type AssignmentFilter struct {
	TeacherID string
	StudentID string
	Page      int
	PageSize  int
}
