package models

import "time"

// Batch is a named cohort of students scheduled together.
type Batch struct {
	ID              int64     `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	ProgramID       int64     `db:"program_id" json:"program_id"`
	StartYear       int       `db:"start_year" json:"start_year"`
	EndYear         int       `db:"end_year" json:"end_year"`
	CurrentSemester int       `db:"current_semester" json:"current_semester"`
	TotalStudents   int       `db:"total_students" json:"total_students"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// BatchSummary describes a batch touched by a grouping run together with its live membership.
type BatchSummary struct {
	ID                 int64  `db:"id" json:"id"`
	Name               string `db:"name" json:"name"`
	ProgramID          int64  `db:"program_id" json:"program_id"`
	ProgramCode        string `db:"program_code" json:"program_code"`
	ProgramName        string `db:"program_name" json:"program_name"`
	StartYear          int    `db:"start_year" json:"start_year"`
	EndYear            int    `db:"end_year" json:"end_year"`
	CurrentSemester    int    `db:"current_semester" json:"current_semester"`
	TotalStudents      int    `db:"total_students" json:"total_students"`
	ActualStudentCount int    `db:"actual_student_count" json:"actual_student_count"`
}

// ExistingBatch is a batch listed by the analysis pass with its current student count.
type ExistingBatch struct {
	ID              int64  `db:"id" json:"id"`
	Name            string `db:"name" json:"name"`
	ProgramCode     string `db:"program_code" json:"program_code"`
	StartYear       int    `db:"start_year" json:"start_year"`
	EndYear         int    `db:"end_year" json:"end_year"`
	CurrentSemester int    `db:"current_semester" json:"current_semester"`
	TotalStudents   int    `db:"total_students" json:"total_students"`
	CurrentStudents int    `db:"current_students" json:"current_students"`
}

// ProgramDistribution aggregates one (program, enrollment year) cohort for a term.
type ProgramDistribution struct {
	ProgramCode          string  `db:"program_code" json:"program_code"`
	ProgramName          string  `db:"program_name" json:"program_name"`
	DepartmentCode       string  `db:"department_code" json:"department_code"`
	EnrollmentYear       int     `db:"enrollment_year" json:"enrollment_year"`
	TotalStudents        int     `db:"total_students" json:"total_students"`
	UniqueCourses        int     `db:"unique_courses" json:"unique_courses"`
	CourseList           string  `db:"course_list" json:"course_list"`
	AvgCoursesPerStudent float64 `db:"avg_courses_per_student" json:"avg_courses_per_student"`
}

// RecommendationPriority ranks analysis findings.
type RecommendationPriority string

const (
	PriorityHigh   RecommendationPriority = "high"
	PriorityMedium RecommendationPriority = "medium"
)

// Recommendation is a cohort sizing or completeness finding.
type Recommendation struct {
	Program        string                 `json:"program"`
	EnrollmentYear int                    `json:"enrollment_year"`
	Issue          string                 `json:"issue"`
	Suggestion     string                 `json:"suggestion"`
	Priority       RecommendationPriority `json:"priority"`
}

// BatchAnalysis is the payload of the batch-analysis operation.
type BatchAnalysis struct {
	ProgramDistribution []ProgramDistribution `json:"programDistribution"`
	ExistingBatches     []ExistingBatch       `json:"existingBatches"`
	Recommendations     []Recommendation      `json:"recommendations"`
}

// BatchGenerationResult reports what a grouping run created.
type BatchGenerationResult struct {
	Success                bool           `json:"-"`
	Message                string         `json:"-"`
	BatchesCreated         int            `json:"batchesCreated"`
	TotalStudentsProcessed int            `json:"totalStudentsProcessed"`
	ErrorCount             int            `json:"errorCount"`
	Errors                 []string       `json:"errors"`
	Batches                []BatchSummary `json:"batches"`
}
