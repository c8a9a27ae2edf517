package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// UpsertStatement describes one insert-or-update keyed by a unique constraint.
type UpsertStatement struct {
	Table         string
	Columns       []string
	Values        []any
	ConflictKey   []string
	UpdateColumns []string
}

// ConstraintError is a row-level database rejection (integrity or data exception).
type ConstraintError struct {
	Err *pq.Error
}

func (e *ConstraintError) Error() string {
	if e.Err.Detail != "" {
		return fmt.Sprintf("%s (%s)", e.Err.Message, e.Err.Detail)
	}
	return e.Err.Message
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// AsConstraintError classifies integrity violations (SQLSTATE class 23) and
// data exceptions (class 22) as row-level failures.
func AsConstraintError(err error) (*ConstraintError, bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil, false
	}
	switch pqErr.Code.Class() {
	case "22", "23":
		return &ConstraintError{Err: pqErr}, true
	}
	return nil, false
}

const rowSavepoint = "import_row"

// UpsertRepository writes schema-driven rows with ON CONFLICT semantics.
type UpsertRepository struct {
	db *sqlx.DB
}

// NewUpsertRepository constructs the repository.
func NewUpsertRepository(db *sqlx.DB) *UpsertRepository {
	return &UpsertRepository{db: db}
}

func (r *UpsertRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// BuildUpsertQuery renders the INSERT ... ON CONFLICT ... RETURNING id statement.
func BuildUpsertQuery(stmt UpsertStatement) (string, error) {
	if stmt.Table == "" || len(stmt.Columns) == 0 {
		return "", fmt.Errorf("upsert requires table and columns")
	}
	if len(stmt.Columns) != len(stmt.Values) {
		return "", fmt.Errorf("upsert %s: %d columns but %d values", stmt.Table, len(stmt.Columns), len(stmt.Values))
	}
	if len(stmt.ConflictKey) == 0 {
		return "", fmt.Errorf("upsert %s: conflict key required", stmt.Table)
	}

	placeholders := make([]string, len(stmt.Columns))
	for i := range stmt.Columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	key := make(map[string]struct{}, len(stmt.ConflictKey))
	for _, k := range stmt.ConflictKey {
		key[k] = struct{}{}
	}
	sets := make([]string, 0, len(stmt.UpdateColumns))
	for _, col := range stmt.UpdateColumns {
		if _, isKey := key[col]; isKey {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	if len(sets) == 0 {
		// A no-op assignment keeps RETURNING populated for existing rows.
		first := stmt.ConflictKey[0]
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", first, first))
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s RETURNING id",
		stmt.Table,
		strings.Join(stmt.Columns, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(stmt.ConflictKey, ", "),
		strings.Join(sets, ", "),
	), nil
}

// Upsert inserts or updates one row and returns its id.
func (r *UpsertRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, stmt UpsertStatement) (int64, error) {
	query, err := BuildUpsertQuery(stmt)
	if err != nil {
		return 0, err
	}

	args := make([]any, len(stmt.Values))
	for i, v := range stmt.Values {
		if list, ok := v.([]string); ok {
			args[i] = pq.Array(list)
			continue
		}
		args[i] = v
	}

	var id int64
	if err := sqlx.GetContext(ctx, r.exec(exec), &id, query, args...); err != nil {
		if ce, ok := AsConstraintError(err); ok {
			return 0, ce
		}
		return 0, fmt.Errorf("upsert %s: %w", stmt.Table, err)
	}
	return id, nil
}

// Savepoint marks the start of a row so a row-level failure can be undone
// without aborting the surrounding transaction.
func (r *UpsertRepository) Savepoint(ctx context.Context, exec sqlx.ExtContext) error {
	if _, err := r.exec(exec).ExecContext(ctx, "SAVEPOINT "+rowSavepoint); err != nil {
		return fmt.Errorf("create row savepoint: %w", err)
	}
	return nil
}

// RollbackToSavepoint discards the work of a failed row.
func (r *UpsertRepository) RollbackToSavepoint(ctx context.Context, exec sqlx.ExtContext) error {
	if _, err := r.exec(exec).ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+rowSavepoint); err != nil {
		return fmt.Errorf("rollback row savepoint: %w", err)
	}
	return nil
}

// ReleaseSavepoint keeps the work of a successful row.
func (r *UpsertRepository) ReleaseSavepoint(ctx context.Context, exec sqlx.ExtContext) error {
	if _, err := r.exec(exec).ExecContext(ctx, "RELEASE SAVEPOINT "+rowSavepoint); err != nil {
		return fmt.Errorf("release row savepoint: %w", err)
	}
	return nil
}
