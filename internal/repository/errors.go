package repository

import "errors"

// Sentinel errors returned by the assignment commit. The service layer maps
// them onto API errors.
var (
	ErrTeacherNotFound        = errors.New("teacher offer not found")
	ErrTeacherVersionConflict = errors.New("teacher offer version changed")
	ErrTeacherAtCapacity      = errors.New("teacher offer at capacity")
	ErrDemandNotFound         = errors.New("student demand not found")
	ErrStudentAlreadyAssigned = errors.New("student already assigned")
)
