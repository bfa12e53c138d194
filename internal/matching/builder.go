package matching

import (
	"fmt"
	"strings"

	"github.com/noah-isme/tutor-match-api/internal/models"
	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
)

// AssignmentInput is an operator-confirmed pairing waiting for validation.
type AssignmentInput struct {
	Student       models.StudentDemand
	Teacher       models.TeacherOffer
	ClassType     models.ClassType
	Mode          models.Mode
	SelectedSlots []models.TimeSlot
	Notes         string
	CreatedBy     string
}

// BuildAssignment re-validates the pairing against current pool data and
// returns the assignment to commit. It has no side effects; persisting the
// assignment and adjusting both pools is the gateway's job.
func BuildAssignment(in AssignmentInput) (models.Assignment, error) {
	if err := checkClassTypeAndMode(in); err != nil {
		return models.Assignment{}, err
	}

	selected := dedupe(in.SelectedSlots)
	if len(selected) == 0 {
		return models.Assignment{}, appErrors.Clone(appErrors.ErrInvalidAssignment, "select at least one time slot")
	}

	available := MatchingSlots(in.Student.TimeSlots, in.Teacher.TimeSlots)
	if len(available) == 0 {
		return models.Assignment{}, appErrors.Clone(appErrors.ErrNoOverlappingSlots, "")
	}
	for _, slot := range selected {
		if !containsSlot(available, slot) {
			return models.Assignment{}, appErrors.Clone(appErrors.ErrStaleSlotSelection,
				fmt.Sprintf("%s is no longer shared by the student and teacher, refresh and pick again", slot))
		}
	}

	if !in.Teacher.HasCapacity() {
		return models.Assignment{}, appErrors.Clone(appErrors.ErrCapacityExceeded, "")
	}

	assignment := models.Assignment{
		TeacherID:      in.Teacher.ID,
		StudentID:      in.Student.ID,
		StudentName:    in.Student.FullName,
		StudentEmail:   in.Student.Email,
		ClassType:      in.ClassType,
		Mode:           in.Mode,
		ScheduledSlots: models.TimeSlots(selected),
		TeacherVersion: in.Teacher.Version,
	}
	if notes := strings.TrimSpace(in.Notes); notes != "" {
		assignment.Notes = &notes
	}
	if in.CreatedBy != "" {
		createdBy := in.CreatedBy
		assignment.CreatedBy = &createdBy
	}
	return assignment, nil
}

func checkClassTypeAndMode(in AssignmentInput) error {
	if !in.ClassType.Valid() {
		return appErrors.Clone(appErrors.ErrInvalidAssignment, fmt.Sprintf("unknown class type %q", in.ClassType))
	}
	if !in.Student.PreferredClassType.Allows(in.ClassType) {
		return appErrors.Clone(appErrors.ErrInvalidAssignment,
			fmt.Sprintf("student prefers %s classes", in.Student.PreferredClassType))
	}
	if !in.Teacher.ClassTypes.Contains(in.ClassType) {
		return appErrors.Clone(appErrors.ErrInvalidAssignment,
			fmt.Sprintf("teacher does not offer %s classes", in.ClassType))
	}
	if !in.Mode.Valid() {
		return appErrors.Clone(appErrors.ErrInvalidAssignment, fmt.Sprintf("unknown mode %q", in.Mode))
	}
	if !in.Student.PreferredMode.Allows(in.Mode) {
		return appErrors.Clone(appErrors.ErrInvalidAssignment,
			fmt.Sprintf("student prefers %s lessons", in.Student.PreferredMode))
	}
	if !in.Teacher.Modes.Contains(in.Mode) {
		return appErrors.Clone(appErrors.ErrInvalidAssignment,
			fmt.Sprintf("teacher does not teach %s", in.Mode))
	}
	return nil
}

func dedupe(slots []models.TimeSlot) []models.TimeSlot {
	out := make([]models.TimeSlot, 0, len(slots))
	seen := make(map[models.TimeSlot]struct{}, len(slots))
	for _, s := range slots {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
