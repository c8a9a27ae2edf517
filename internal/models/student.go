package models

// EnrolledStudent is a student with at least one enrollment in the term being
// grouped, annotated with the sorted comma-joined course signature.
type EnrolledStudent struct {
	ID             int64  `db:"id" json:"id"`
	StudentID      string `db:"student_id" json:"student_id"`
	ProgramID      int64  `db:"program_id" json:"program_id"`
	ProgramCode    string `db:"program_code" json:"program_code"`
	ProgramName    string `db:"program_name" json:"program_name"`
	DurationYears  *int   `db:"duration_years" json:"duration_years,omitempty"`
	DepartmentCode string `db:"department_code" json:"department_code"`
	EnrollmentYear int    `db:"enrollment_year" json:"enrollment_year"`
	Courses        string `db:"enrolled_courses" json:"enrolled_courses"`
	CourseCount    int    `db:"course_count" json:"course_count"`
}

// RosterEntry is one student row of a batch roster export.
type RosterEntry struct {
	StudentID       string  `db:"student_id" json:"student_id"`
	Name            string  `db:"name" json:"name"`
	Email           string  `db:"email" json:"email"`
	ProgramCode     string  `db:"program_code" json:"program_code"`
	EnrollmentYear  int     `db:"enrollment_year" json:"enrollment_year"`
	CurrentSemester *int    `db:"current_semester" json:"current_semester,omitempty"`
	Status          *string `db:"status" json:"status,omitempty"`
}
