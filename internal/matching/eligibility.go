package matching

import "github.com/noah-isme/tutor-match-api/internal/models"

// RejectionCode names the hard constraint a teacher failed.
type RejectionCode string

const (
	RejectCapacityFull      RejectionCode = "CAPACITY_FULL"
	RejectLanguageMismatch  RejectionCode = "LANGUAGE_MISMATCH"
	RejectLevelMismatch     RejectionCode = "LEVEL_MISMATCH"
	RejectClassTypeMismatch RejectionCode = "CLASS_TYPE_MISMATCH"
	RejectModeMismatch      RejectionCode = "MODE_MISMATCH"
)

// Rejection explains why a teacher is not eligible for a student.
type Rejection struct {
	Code    RejectionCode `json:"code"`
	Message string        `json:"message"`
}

// Evaluate returns every hard constraint the teacher fails for the student.
// An empty result means the teacher is eligible.
func Evaluate(student models.StudentDemand, teacher models.TeacherOffer) []Rejection {
	var rejections []Rejection
	if !teacher.HasCapacity() {
		rejections = append(rejections, Rejection{Code: RejectCapacityFull, Message: "teacher has no remaining capacity"})
	}
	if !containsString(teacher.Languages, student.Language) {
		rejections = append(rejections, Rejection{Code: RejectLanguageMismatch, Message: "teacher does not teach " + student.Language})
	}
	if !containsString(teacher.Levels, student.Level) {
		rejections = append(rejections, Rejection{Code: RejectLevelMismatch, Message: "teacher does not teach level " + student.Level})
	}
	if !student.PreferredClassType.SatisfiedBy(teacher.ClassTypes) {
		rejections = append(rejections, Rejection{Code: RejectClassTypeMismatch, Message: "teacher does not offer " + student.PreferredClassType.String() + " classes"})
	}
	if !student.PreferredMode.SatisfiedBy(teacher.Modes) {
		rejections = append(rejections, Rejection{Code: RejectModeMismatch, Message: "teacher does not teach " + student.PreferredMode.String()})
	}
	return rejections
}

// IsEligible reports whether the teacher passes all hard constraints.
func IsEligible(student models.StudentDemand, teacher models.TeacherOffer) bool {
	return len(Evaluate(student, teacher)) == 0
}

// EligibleTeachers narrows the pool to teachers passing every hard constraint,
// preserving pool order. Schedule overlap is not considered here.
func EligibleTeachers(student models.StudentDemand, pool []models.TeacherOffer) []models.TeacherOffer {
	eligible := make([]models.TeacherOffer, 0, len(pool))
	for _, teacher := range pool {
		if IsEligible(student, teacher) {
			eligible = append(eligible, teacher)
		}
	}
	return eligible
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
