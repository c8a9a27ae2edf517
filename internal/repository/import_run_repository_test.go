package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edusmart-import-api/internal/models"
)

func TestImportRunRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewImportRunRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO import_runs")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	now := time.Now().UTC()
	run := &models.ImportRun{
		EntityType:   "departments",
		Filename:     "departments.csv",
		ActorID:      "admin",
		TotalRows:    3,
		SuccessCount: 2,
		ErrorCount:   1,
		Errors:       models.ImportErrors{"Row 3: Missing required fields (Name)"},
		Status:       models.ImportStatusPartial,
		StartedAt:    now,
		FinishedAt:   now,
	}
	require.NoError(t, repo.Create(context.Background(), run))
	assert.Equal(t, int64(42), run.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportRunRepositoryListRecent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewImportRunRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "entity_type", "filename", "actor_id", "total_rows", "success_count", "error_count", "errors", "status", "started_at", "finished_at"}).
		AddRow(int64(1), "programs", "programs.csv", "admin", 2, 1, 1, []byte(`["Row 2: Department code 'XYZ' not found"]`), "partial", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM import_runs WHERE entity_type = $1 ORDER BY started_at DESC, id DESC LIMIT 20")).
		WithArgs("programs").
		WillReturnRows(rows)

	runs, err := repo.ListRecent(context.Background(), "programs", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.ImportErrors{"Row 2: Department code 'XYZ' not found"}, runs[0].Errors)
	assert.Equal(t, models.ImportStatusPartial, runs[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
