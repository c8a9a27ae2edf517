package service

import (
	"fmt"

	"github.com/noah-isme/edusmart-import-api/internal/models"
)

const lowCourseLoadThreshold = 4

// Recommend flags cohorts that are too large, too small or under-enrolled.
func Recommend(distribution []models.ProgramDistribution, policy SizingPolicy) []models.Recommendation {
	policy = policy.normalized()

	out := make([]models.Recommendation, 0)
	for _, p := range distribution {
		switch {
		case p.TotalStudents > policy.Max:
			batches := (p.TotalStudents + policy.SplitTarget - 1) / policy.SplitTarget
			out = append(out, models.Recommendation{
				Program:        p.ProgramCode,
				EnrollmentYear: p.EnrollmentYear,
				Issue:          "Large cohort",
				Suggestion:     fmt.Sprintf("Split %d students into %d batches", p.TotalStudents, batches),
				Priority:       models.PriorityHigh,
			})
		case p.TotalStudents < policy.Min:
			out = append(out, models.Recommendation{
				Program:        p.ProgramCode,
				EnrollmentYear: p.EnrollmentYear,
				Issue:          "Small cohort",
				Suggestion:     "Consider merging with similar program or creating mixed batch",
				Priority:       models.PriorityMedium,
			})
		}

		if p.AvgCoursesPerStudent < lowCourseLoadThreshold {
			out = append(out, models.Recommendation{
				Program:        p.ProgramCode,
				EnrollmentYear: p.EnrollmentYear,
				Issue:          "Low course load",
				Suggestion:     "Verify if all student enrollments are complete",
				Priority:       models.PriorityHigh,
			})
		}
	}
	return out
}
