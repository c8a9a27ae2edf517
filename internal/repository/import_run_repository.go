package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edusmart-import-api/internal/models"
)

// ImportRunRepository stores the audit trail of CSV imports.
type ImportRunRepository struct {
	db *sqlx.DB
}

// NewImportRunRepository constructs the repository.
func NewImportRunRepository(db *sqlx.DB) *ImportRunRepository {
	return &ImportRunRepository{db: db}
}

// Create inserts a run record and populates its id.
func (r *ImportRunRepository) Create(ctx context.Context, run *models.ImportRun) error {
	const query = `
INSERT INTO import_runs (entity_type, filename, actor_id, total_rows, success_count, error_count, errors, status, started_at, finished_at)
VALUES (:entity_type, :filename, :actor_id, :total_rows, :success_count, :error_count, :errors, :status, :started_at, :finished_at)
RETURNING id`

	rows, err := r.db.NamedQueryContext(ctx, query, run)
	if err != nil {
		return fmt.Errorf("insert import run: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	if rows.Next() {
		if err := rows.Scan(&run.ID); err != nil {
			return fmt.Errorf("scan import run id: %w", err)
		}
	}
	return rows.Err()
}

// ListRecent returns the latest runs, optionally filtered by entity type.
func (r *ImportRunRepository) ListRecent(ctx context.Context, entityType string, limit int) ([]models.ImportRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := `SELECT id, entity_type, filename, actor_id, total_rows, success_count, error_count, errors, status, started_at, finished_at FROM import_runs`
	args := []interface{}{}
	if entityType != "" {
		query += " WHERE entity_type = $1"
		args = append(args, entityType)
	}
	query += fmt.Sprintf(" ORDER BY started_at DESC, id DESC LIMIT %d", limit)

	var runs []models.ImportRun
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}
	return runs, nil
}
