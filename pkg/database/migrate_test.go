package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreGooseFiles(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, entry := range entries {
		body, err := fs.ReadFile(migrationFiles, "migrations/"+entry.Name())
		require.NoError(t, err)
		text := string(body)
		assert.True(t, strings.HasPrefix(text, "-- +goose Up"), entry.Name())
		assert.Contains(t, text, "-- +goose Down", entry.Name())
	}
}

func TestMigrationsCreateImportTables(t *testing.T) {
	var all strings.Builder
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	require.NoError(t, err)
	for _, entry := range entries {
		body, err := fs.ReadFile(migrationFiles, "migrations/"+entry.Name())
		require.NoError(t, err)
		all.Write(body)
	}

	for _, table := range []string{
		"academic_terms", "departments", "programs", "time_slots", "classrooms", "faculty",
		"courses", "course_prerequisites", "batches", "students", "enrollments", "course_assignments", "import_runs",
	} {
		assert.Contains(t, all.String(), "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}
}

func TestMigrationsDeclareUniqueEmails(t *testing.T) {
	for file, column := range map[string]string{
		"migrations/00001_create_master_data.sql":          "email VARCHAR(200) NOT NULL UNIQUE,",
		"migrations/00002_create_students_and_batches.sql": "email VARCHAR(200) NOT NULL UNIQUE,",
	} {
		body, err := fs.ReadFile(migrationFiles, file)
		require.NoError(t, err)
		assert.Contains(t, string(body), column, file)
	}
}
