package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edusmart-import-api/internal/models"
)

func enrolled(n int, startID int64, program string, year int, courses string) []models.EnrolledStudent {
	out := make([]models.EnrolledStudent, 0, n)
	for i := 0; i < n; i++ {
		id := startID + int64(i)
		out = append(out, models.EnrolledStudent{
			ID:             id,
			StudentID:      fmt.Sprintf("%dU%04d", year, id),
			ProgramID:      4,
			ProgramCode:    program,
			EnrollmentYear: year,
			Courses:        courses,
		})
	}
	return out
}

func TestPlanBatchesSplitsLargePatternGroup(t *testing.T) {
	students := enrolled(61, 1, "CSE-BTECH", 2024, "CS101,MATH101")

	plan := PlanBatches(students, DefaultSizingPolicy)
	require.Len(t, plan, 2)
	assert.Equal(t, "CSE-BTECH-2024-B1", plan[0].Name)
	assert.Equal(t, "CSE-BTECH-2024-B2", plan[1].Name)
	assert.Len(t, plan[0].StudentIDs, 31)
	assert.Len(t, plan[1].StudentIDs, 30)
	assert.Equal(t, int64(1), plan[0].StudentIDs[0])
	assert.Equal(t, int64(32), plan[1].StudentIDs[0])
}

func TestPlanBatchesKeepsGroupAtMaximum(t *testing.T) {
	plan := PlanBatches(enrolled(60, 1, "CSE-BTECH", 2024, "CS101"), DefaultSizingPolicy)
	require.Len(t, plan, 1)
	assert.Len(t, plan[0].StudentIDs, 60)
}

func TestPlanBatchesSmallGroupsAreNotMerged(t *testing.T) {
	students := append(enrolled(5, 1, "CSE-BTECH", 2024, "CS101"), enrolled(3, 10, "CSE-BTECH", 2024, "CS102")...)

	plan := PlanBatches(students, DefaultSizingPolicy)
	require.Len(t, plan, 2)
	assert.Equal(t, "CS101", plan[0].Signature)
	assert.Equal(t, "CSE-BTECH-2024-B1", plan[0].Name)
	assert.Equal(t, "CS102", plan[1].Signature)
	assert.Equal(t, "CSE-BTECH-2024-B2", plan[1].Name)
}

func TestPlanBatchesSequenceRestartsPerProgramGroup(t *testing.T) {
	students := append(enrolled(2, 1, "CSE-BTECH", 2024, "CS101"), enrolled(2, 10, "ECE-BTECH", 2024, "EC101")...)
	students = append(students, enrolled(2, 20, "CSE-BTECH", 2025, "CS101")...)

	plan := PlanBatches(students, DefaultSizingPolicy)
	names := make([]string, 0, len(plan))
	for _, p := range plan {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"CSE-BTECH-2024-B1", "ECE-BTECH-2024-B1", "CSE-BTECH-2025-B1"}, names)
}

func TestPlanBatchesEndYearUsesProgramDuration(t *testing.T) {
	three := 3
	students := enrolled(1, 1, "DIP-CSE", 2024, "CS101")
	students[0].DurationYears = &three
	students = append(students, enrolled(1, 2, "CSE-BTECH", 2024, "CS101")...)

	plan := PlanBatches(students, DefaultSizingPolicy)
	require.Len(t, plan, 2)
	assert.Equal(t, 2027, plan[0].EndYear)
	assert.Equal(t, 2028, plan[1].EndYear)
}

func TestPlanBatchesIsDeterministic(t *testing.T) {
	students := append(enrolled(70, 1, "CSE-BTECH", 2024, "CS101"), enrolled(25, 100, "CSE-BTECH", 2024, "CS101,CS102")...)
	assert.Equal(t, PlanBatches(students, DefaultSizingPolicy), PlanBatches(students, DefaultSizingPolicy))
	assert.Empty(t, PlanBatches(nil, DefaultSizingPolicy))
}

func TestRecommend(t *testing.T) {
	recs := Recommend([]models.ProgramDistribution{
		{ProgramCode: "CSE-BTECH", EnrollmentYear: 2024, TotalStudents: 120, AvgCoursesPerStudent: 5},
		{ProgramCode: "ME-BTECH", EnrollmentYear: 2024, TotalStudents: 12, AvgCoursesPerStudent: 3.5},
		{ProgramCode: "ECE-BTECH", EnrollmentYear: 2024, TotalStudents: 40, AvgCoursesPerStudent: 4},
	}, DefaultSizingPolicy)

	require.Len(t, recs, 3)
	assert.Equal(t, models.Recommendation{Program: "CSE-BTECH", EnrollmentYear: 2024, Issue: "Large cohort", Suggestion: "Split 120 students into 3 batches", Priority: models.PriorityHigh}, recs[0])
	assert.Equal(t, "Small cohort", recs[1].Issue)
	assert.Equal(t, models.PriorityMedium, recs[1].Priority)
	assert.Equal(t, "Low course load", recs[2].Issue)
	assert.Equal(t, "ME-BTECH", recs[2].Program)
	assert.Equal(t, "Verify if all student enrollments are complete", recs[2].Suggestion)
}
