package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edusmart-import-api/internal/importer"
)

// ErrReferenceNotFound indicates a business key with no matching row.
var ErrReferenceNotFound = errors.New("reference not found")

// ReferenceError reports an unresolved business key for a row.
type ReferenceError struct {
	Target importer.RefTarget
	Key    string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s '%s' not found", referenceLookups[e.Target].label, e.Key)
}

func (e *ReferenceError) Unwrap() error {
	return ErrReferenceNotFound
}

type referenceLookup struct {
	label string
	query string
}

var referenceLookups = map[importer.RefTarget]referenceLookup{
	importer.RefDepartment: {label: "Department code", query: `SELECT id FROM departments WHERE code = $1`},
	importer.RefProgram:    {label: "Program code", query: `SELECT id FROM programs WHERE code = $1`},
	importer.RefCourse:     {label: "Course code", query: `SELECT id FROM courses WHERE course_code = $1`},
	importer.RefStudent:    {label: "Student ID", query: `SELECT id FROM students WHERE student_id = $1 AND deleted_at IS NULL`},
	importer.RefFaculty:    {label: "Faculty employee ID", query: `SELECT id FROM faculty WHERE employee_id = $1 AND deleted_at IS NULL`},
}

// ReferenceRepository resolves business keys to surrogate ids.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository constructs the repository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

func (r *ReferenceRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Resolve returns the id for key in the target table. Callers pass the import
// transaction so rows written earlier in the same file are visible.
func (r *ReferenceRepository) Resolve(ctx context.Context, exec sqlx.ExtContext, target importer.RefTarget, key string) (int64, error) {
	lookup, ok := referenceLookups[target]
	if !ok {
		return 0, fmt.Errorf("unknown reference target %q", target)
	}
	key = strings.TrimSpace(key)

	var id int64
	if err := sqlx.GetContext(ctx, r.exec(exec), &id, lookup.query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, &ReferenceError{Target: target, Key: key}
		}
		return 0, fmt.Errorf("resolve %s %s: %w", target, key, err)
	}
	return id, nil
}
