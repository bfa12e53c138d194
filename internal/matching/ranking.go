package matching

import (
	"sort"

	"github.com/noah-isme/tutor-match-api/internal/models"
)

// Candidate is a ranked teacher for one student.
type Candidate struct {
	Teacher         models.TeacherOffer `json:"teacher"`
	Score           int                 `json:"score"`
	MatchingSlots   []models.TimeSlot   `json:"matching_slots"`
	TeacherCoverage int                 `json:"teacher_coverage"`
}

// Assignable reports whether at least one slot can be booked with this teacher.
func (c Candidate) Assignable() bool {
	return len(c.MatchingSlots) > 0
}

// Rank scores eligible teachers and orders them by score descending, then
// current load ascending, then id ascending. Equal inputs give equal output.
func Rank(student models.StudentDemand, eligible []models.TeacherOffer) []Candidate {
	candidates := make([]Candidate, 0, len(eligible))
	for _, teacher := range eligible {
		slots := MatchingSlots(student.TimeSlots, teacher.TimeSlots)
		candidates = append(candidates, Candidate{
			Teacher:         teacher,
			Score:           ratio(len(slots), len(student.TimeSlots)),
			MatchingSlots:   slots,
			TeacherCoverage: TeacherCoverage(student.TimeSlots, teacher.TimeSlots),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Teacher.CurrentStudents != b.Teacher.CurrentStudents {
			return a.Teacher.CurrentStudents < b.Teacher.CurrentStudents
		}
		return a.Teacher.ID < b.Teacher.ID
	})
	return candidates
}
