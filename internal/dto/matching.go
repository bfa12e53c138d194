package dto

import (
	"time"

	"github.com/noah-isme/tutor-match-api/internal/matching"
	"github.com/noah-isme/tutor-match-api/internal/models"
)

// TimeSlotPayload is a weekly slot as sent by clients.
type TimeSlotPayload struct {
	Day       string `json:"day" validate:"required,weekday"`
	StartTime string `json:"start_time" validate:"required,clock"`
	EndTime   string `json:"end_time" validate:"required,clock"`
}

// ReplaceAvailabilityRequest swaps a participant's whole availability. An
// empty list clears it.
type ReplaceAvailabilityRequest struct {
	TimeSlots []TimeSlotPayload `json:"time_slots" validate:"max=100,dive"`
}

// CreateStudentDemandRequest registers a student waiting for a teacher.
type CreateStudentDemandRequest struct {
	FullName           string            `json:"full_name" validate:"required,max=200"`
	Email              *string           `json:"email" validate:"omitempty,email"`
	Language           string            `json:"language" validate:"required,max=64"`
	Level              string            `json:"level" validate:"required,max=32"`
	PreferredClassType string            `json:"preferred_class_type" validate:"omitempty,oneof=private group both"`
	PreferredMode      string            `json:"preferred_mode" validate:"omitempty,oneof=online in-person both"`
	TimeSlots          []TimeSlotPayload `json:"time_slots" validate:"max=100,dive"`
}

// CreateTeacherOfferRequest registers a teacher's profile and capacity.
type CreateTeacherOfferRequest struct {
	FullName    string            `json:"full_name" validate:"required,max=200"`
	Email       *string           `json:"email" validate:"omitempty,email"`
	Languages   []string          `json:"languages" validate:"required,min=1,dive,required,max=64"`
	Levels      []string          `json:"levels" validate:"required,min=1,dive,required,max=32"`
	ClassTypes  []string          `json:"class_types" validate:"required,min=1,dive,oneof=private group"`
	Modes       []string          `json:"modes" validate:"required,min=1,dive,oneof=online in-person"`
	MaxStudents int               `json:"max_students" validate:"min=0,max=500"`
	TimeSlots   []TimeSlotPayload `json:"time_slots" validate:"max=100,dive"`
}

// CreateAssignmentRequest is an operator-confirmed pairing. Class type, mode
// and slot checks happen in the assignment builder so they report domain errors.
type CreateAssignmentRequest struct {
	StudentID string            `json:"student_id" validate:"required"`
	TeacherID string            `json:"teacher_id" validate:"required"`
	ClassType string            `json:"class_type"`
	Mode      string            `json:"mode"`
	TimeSlots []TimeSlotPayload `json:"time_slots" validate:"max=100,dive"`
	Notes     string            `json:"notes" validate:"max=1000"`
}

// ExcludedTeacher explains why a teacher is not a candidate.
type ExcludedTeacher struct {
	TeacherID  string                `json:"teacher_id"`
	FullName   string                `json:"full_name"`
	Rejections []matching.Rejection `json:"rejections"`
}

// CandidateListResponse is the ranked list shown to the operator.
type CandidateListResponse struct {
	Student     models.StudentDemand `json:"student"`
	Candidates  []matching.Candidate `json:"candidates"`
	Excluded    []ExcludedTeacher    `json:"excluded"`
	Reason      string               `json:"reason,omitempty"`
	Message     string               `json:"message,omitempty"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// AssignmentNotification is published after an assignment commits.
type AssignmentNotification struct {
	AssignmentID string           `json:"assignment_id"`
	TeacherID    string           `json:"teacher_id"`
	StudentID    string           `json:"student_id"`
	ClassType    models.ClassType `json:"class_type"`
	Mode         models.Mode      `json:"mode"`
	Slots        models.TimeSlots `json:"slots"`
	CommittedAt  time.Time        `json:"committed_at"`
}
