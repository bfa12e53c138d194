package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target carries the same code, so clones match their sentinel.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Matching and assignment errors. Each maps to an operator-facing message.
var (
	ErrInvalidSlot            = New("INVALID_SLOT", http.StatusBadRequest, "time slot must start before it ends on a single day")
	ErrNoEligibleTeachers     = New("NO_ELIGIBLE_TEACHERS", http.StatusOK, "No teachers match this student's language, level and preferences")
	ErrNoOverlappingSlots     = New("NO_OVERLAPPING_SLOTS", http.StatusConflict, "This teacher has no availability overlapping the student's schedule")
	ErrInvalidAssignment      = New("INVALID_ASSIGNMENT_REQUEST", http.StatusBadRequest, "invalid assignment request")
	ErrStaleSlotSelection     = New("STALE_SLOT_SELECTION", http.StatusConflict, "The selected time slots are no longer available, refresh and pick again")
	ErrStaleTeacherState      = New("STALE_TEACHER_STATE", http.StatusConflict, "This teacher's record changed, refresh the candidate list")
	ErrCapacityExceeded       = New("CAPACITY_EXCEEDED", http.StatusConflict, "This teacher just reached capacity, pick another")
	ErrStudentAlreadyAssigned = New("STUDENT_ALREADY_ASSIGNED", http.StatusConflict, "This student already has a teacher, refresh the student list")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
