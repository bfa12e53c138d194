// Package matching ranks teachers for an unassigned student and validates
// operator-confirmed assignments. Every function is pure: inputs are never
// mutated and no state is kept between calls.
package matching

import (
	"math"

	"github.com/noah-isme/tutor-match-api/internal/models"
)

// Overlaps reports whether two slots share at least one minute on the same day.
// Back-to-back slots (a.End == b.Start) do not overlap.
func Overlaps(a, b models.TimeSlot) bool {
	return a.Day == b.Day && a.Start < b.End && b.Start < a.End
}

// MatchingSlots returns the demand slots that overlap at least one offer slot,
// in demand order and without duplicates.
func MatchingSlots(demand, offer []models.TimeSlot) []models.TimeSlot {
	result := make([]models.TimeSlot, 0, len(demand))
	if len(demand) == 0 || len(offer) == 0 {
		return result
	}
	seen := make(map[models.TimeSlot]struct{}, len(demand))
	for _, d := range demand {
		if _, dup := seen[d]; dup {
			continue
		}
		for _, o := range offer {
			if Overlaps(d, o) {
				seen[d] = struct{}{}
				result = append(result, d)
				break
			}
		}
	}
	return result
}

// MatchScore is the share (0-100) of the student's availability the teacher can serve,
// measured against the full demand list. It is 0 when either side has no slots.
func MatchScore(demand, offer []models.TimeSlot) int {
	return ratio(len(MatchingSlots(demand, offer)), len(demand))
}

// TeacherCoverage is the reverse share: how much of the teacher's availability
// overlaps the student's. Display only, it does not influence ranking.
func TeacherCoverage(demand, offer []models.TimeSlot) int {
	return ratio(len(MatchingSlots(offer, demand)), len(offer))
}

func ratio(matched, total int) int {
	if total == 0 || matched == 0 {
		return 0
	}
	return int(math.Round(100 * float64(matched) / float64(total)))
}

func containsSlot(slots []models.TimeSlot, target models.TimeSlot) bool {
	for _, s := range slots {
		if s == target {
			return true
		}
	}
	return false
}
