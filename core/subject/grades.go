package subject

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/studia/core"
)

var errWeightOutOfRange = errors.New("weight must be between 0 and 100")

// ComputeTotalGrade computes a subject's overall grade as a percentage.
//
// Each assessment with at least one recorded grade contributes the mean of its
// grade values, weighted by the assessment's weight. Assessments without any
// grade are left out of both the numerator and the denominator, so the result
// is renormalized as if only graded assessments counted toward the total.
// Returns 0 when nothing has been graded yet.
func ComputeTotalGrade(assessments []Assessment, gradesByAssessment map[string][]Grade) float64 {
	var numerator, denominator float64
	for _, ass := range assessments {
		grades := gradesByAssessment[ass.ID]
		if len(grades) == 0 {
			continue
		}
		var sum float64
		for _, g := range grades {
			sum += g.Value
		}
		mean := sum / float64(len(grades))
		numerator += mean * ass.Weight
		denominator += ass.Weight
	}
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// GroupGradesByAssessment indexes a subject's grades by their assessment ID.
func GroupGradesByAssessment(grades []Grade) map[string][]Grade {
	grouped := make(map[string][]Grade, len(grades))
	for _, g := range grades {
		grouped[g.AssessmentID] = append(grouped[g.AssessmentID], g)
	}
	return grouped
}

// ValidateWeight checks that newWeight is a valid percentage and that, added
// to the weights of the subject's other assessments, it does not push the
// subject's weight budget past 100%. existingWeights must exclude the
// assessment being edited.
func ValidateWeight(newWeight float64, existingWeights []float64) error {
	if newWeight < 0 || newWeight > 100 {
		return core.NewValidationError(
			errWeightOutOfRange,
			core.FieldError{Field: "weight", Error: errWeightOutOfRange.Error()},
		)
	}
	total := newWeight
	for _, w := range existingWeights {
		total += w
	}
	if total > 100 {
		err := fmt.Errorf("assessment weights cannot exceed 100%%; this change would bring the total to %g%%", total)
		return core.NewValidationError(err, core.FieldError{Field: "weight", Error: err.Error()})
	}
	return nil
}
