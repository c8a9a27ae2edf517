package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/edusmart-import-api/internal/models"
)

// BatchRepository persists cohorts and reads the enrollment data they are derived from.
type BatchRepository struct {
	db *sqlx.DB
}

// NewBatchRepository constructs the repository.
func NewBatchRepository(db *sqlx.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

func (r *BatchRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const enrolledStudentsQuery = `
SELECT
    s.id,
    s.student_id,
    s.program_id,
    s.enrollment_year,
    p.code AS program_code,
    p.name AS program_name,
    p.duration_years,
    d.code AS department_code,
    STRING_AGG(c.course_code, ',' ORDER BY c.course_code) AS enrolled_courses,
    COUNT(e.course_id) AS course_count
FROM students s
JOIN programs p ON s.program_id = p.id
JOIN departments d ON p.department_id = d.id
JOIN enrollments e ON s.id = e.student_id
JOIN courses c ON e.course_id = c.id
WHERE e.academic_year = $1 AND e.semester = $2 AND s.deleted_at IS NULL
GROUP BY s.id, s.student_id, s.program_id, s.enrollment_year, p.code, p.name, p.duration_years, d.code
ORDER BY p.code, s.enrollment_year, enrolled_courses, s.student_id`

// ListEnrolledStudents returns students with at least one enrollment in the term,
// ordered by program code, enrollment year, course signature and student id.
func (r *BatchRepository) ListEnrolledStudents(ctx context.Context, exec sqlx.ExtContext, academicYear string, semester int) ([]models.EnrolledStudent, error) {
	var students []models.EnrolledStudent
	if err := sqlx.SelectContext(ctx, r.exec(exec), &students, enrolledStudentsQuery, academicYear, semester); err != nil {
		return nil, fmt.Errorf("list enrolled students: %w", err)
	}
	return students, nil
}

// UpsertBatch creates the batch or refreshes its size and semester, returning its id.
func (r *BatchRepository) UpsertBatch(ctx context.Context, exec sqlx.ExtContext, batch *models.Batch) (int64, error) {
	const query = `
INSERT INTO batches (name, program_id, start_year, end_year, current_semester, total_students)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (name) DO UPDATE
SET total_students = EXCLUDED.total_students,
    current_semester = EXCLUDED.current_semester
RETURNING id`

	var id int64
	if err := sqlx.GetContext(ctx, r.exec(exec), &id, query,
		batch.Name, batch.ProgramID, batch.StartYear, batch.EndYear, batch.CurrentSemester, batch.TotalStudents,
	); err != nil {
		return 0, fmt.Errorf("upsert batch %s: %w", batch.Name, err)
	}
	batch.ID = id
	return id, nil
}

// AssignStudents points every listed student row at the batch.
func (r *BatchRepository) AssignStudents(ctx context.Context, exec sqlx.ExtContext, batchID int64, studentIDs []int64) error {
	if len(studentIDs) == 0 {
		return nil
	}
	if _, err := r.exec(exec).ExecContext(ctx, `UPDATE students SET batch_id = $1 WHERE id = ANY($2)`, batchID, pq.Array(studentIDs)); err != nil {
		return fmt.Errorf("assign students to batch %d: %w", batchID, err)
	}
	return nil
}

// ListByNames returns the named batches with their live student counts.
func (r *BatchRepository) ListByNames(ctx context.Context, exec sqlx.ExtContext, names []string) ([]models.BatchSummary, error) {
	if len(names) == 0 {
		return []models.BatchSummary{}, nil
	}
	const query = `
SELECT b.id, b.name, b.program_id, p.code AS program_code, p.name AS program_name,
       b.start_year, b.end_year, b.current_semester, b.total_students,
       COUNT(s.id) AS actual_student_count
FROM batches b
JOIN programs p ON b.program_id = p.id
LEFT JOIN students s ON b.id = s.batch_id AND s.deleted_at IS NULL
WHERE b.name = ANY($1)
GROUP BY b.id, p.code, p.name
ORDER BY b.name`

	var batches []models.BatchSummary
	if err := sqlx.SelectContext(ctx, r.exec(exec), &batches, query, pq.Array(names)); err != nil {
		return nil, fmt.Errorf("list batches by name: %w", err)
	}
	return batches, nil
}

// ProgramDistribution aggregates enrollments per (program, enrollment year) for a term.
func (r *BatchRepository) ProgramDistribution(ctx context.Context, academicYear string, semester int) ([]models.ProgramDistribution, error) {
	// Course counts are taken per student first so the average is not
	// weighted by the number of enrollment rows each student contributes.
	const query = `
WITH term_enrollments AS (
    SELECT s.id AS student_id, p.code AS program_code, p.name AS program_name,
           d.code AS department_code, s.enrollment_year, c.course_code
    FROM students s
    JOIN programs p ON s.program_id = p.id
    JOIN departments d ON p.department_id = d.id
    JOIN enrollments e ON s.id = e.student_id
    JOIN courses c ON e.course_id = c.id
    WHERE e.academic_year = $1 AND e.semester = $2 AND s.deleted_at IS NULL
),
per_student AS (
    SELECT student_id, program_code, program_name, department_code, enrollment_year,
           COUNT(*) AS course_count
    FROM term_enrollments
    GROUP BY student_id, program_code, program_name, department_code, enrollment_year
),
per_program AS (
    SELECT program_code, enrollment_year,
           COUNT(DISTINCT course_code) AS unique_courses,
           STRING_AGG(DISTINCT course_code, ', ' ORDER BY course_code) AS course_list
    FROM term_enrollments
    GROUP BY program_code, enrollment_year
)
SELECT
    ps.program_code,
    ps.program_name,
    ps.department_code,
    ps.enrollment_year,
    COUNT(*) AS total_students,
    pp.unique_courses,
    pp.course_list,
    ROUND(AVG(ps.course_count), 2) AS avg_courses_per_student
FROM per_student ps
JOIN per_program pp ON pp.program_code = ps.program_code AND pp.enrollment_year = ps.enrollment_year
GROUP BY ps.program_code, ps.program_name, ps.department_code, ps.enrollment_year, pp.unique_courses, pp.course_list
ORDER BY ps.program_code, ps.enrollment_year`

	var rows []models.ProgramDistribution
	if err := r.db.SelectContext(ctx, &rows, query, academicYear, semester); err != nil {
		return nil, fmt.Errorf("program distribution: %w", err)
	}
	return rows, nil
}

// ExistingBatches lists every batch with its current non-deleted student count.
func (r *BatchRepository) ExistingBatches(ctx context.Context) ([]models.ExistingBatch, error) {
	const query = `
SELECT b.id, b.name, p.code AS program_code, b.start_year, b.end_year,
       b.current_semester, b.total_students, COUNT(s.id) AS current_students
FROM batches b
JOIN programs p ON b.program_id = p.id
LEFT JOIN students s ON b.id = s.batch_id AND s.deleted_at IS NULL
GROUP BY b.id, p.code
ORDER BY b.name`

	var rows []models.ExistingBatch
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list existing batches: %w", err)
	}
	return rows, nil
}

// Roster lists the students assigned to a batch.
func (r *BatchRepository) Roster(ctx context.Context, batchName string) ([]models.RosterEntry, error) {
	const query = `
SELECT s.student_id, s.name, s.email, p.code AS program_code, s.enrollment_year, s.current_semester, s.status
FROM students s
JOIN batches b ON s.batch_id = b.id
JOIN programs p ON s.program_id = p.id
WHERE b.name = $1 AND s.deleted_at IS NULL
ORDER BY s.student_id`

	var rows []models.RosterEntry
	if err := r.db.SelectContext(ctx, &rows, query, batchName); err != nil {
		return nil, fmt.Errorf("list batch roster: %w", err)
	}
	return rows, nil
}

// Exists reports whether a batch with the given name exists.
func (r *BatchRepository) Exists(ctx context.Context, batchName string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM batches WHERE name = $1)`, batchName); err != nil {
		return false, fmt.Errorf("check batch exists: %w", err)
	}
	return exists, nil
}
