package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// StatsRepository counts imported master data for the upload dashboard.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository constructs the repository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

var statsQueries = map[string]string{
	"departments": `SELECT COUNT(*) FROM departments`,
	"subjects":    `SELECT COUNT(*) FROM courses`,
	"students":    `SELECT COUNT(*) FROM students WHERE deleted_at IS NULL`,
	"faculty":     `SELECT COUNT(*) FROM faculty WHERE deleted_at IS NULL`,
	"classrooms":  `SELECT COUNT(*) FROM classrooms`,
}

// StatKeys lists the counters in response order.
var StatKeys = []string{"departments", "subjects", "students", "faculty", "classrooms"}

// Count returns the row count for one dashboard counter.
func (r *StatsRepository) Count(ctx context.Context, key string) (int, error) {
	query, ok := statsQueries[key]
	if !ok {
		return 0, fmt.Errorf("unknown stat %q", key)
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count %s: %w", key, err)
	}
	return count, nil
}
