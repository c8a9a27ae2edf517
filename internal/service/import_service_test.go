package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edusmart-import-api/internal/models"
	"github.com/noah-isme/edusmart-import-api/internal/repository"
	appErrors "github.com/noah-isme/edusmart-import-api/pkg/errors"
	"github.com/noah-isme/edusmart-import-api/pkg/jobs"
	"github.com/noah-isme/edusmart-import-api/pkg/storage"
)

type importRunStoreStub struct {
	mu   sync.Mutex
	runs []*models.ImportRun
	list []models.ImportRun
	err  error
}

func (s *importRunStoreStub) Create(ctx context.Context, run *models.ImportRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	run.ID = int64(len(s.runs) + 1)
	s.runs = append(s.runs, run)
	return nil
}

func (s *importRunStoreStub) ListRecent(ctx context.Context, entityType string, limit int) ([]models.ImportRun, error) {
	return s.list, s.err
}

type importFixture struct {
	svc     *ImportService
	mock    sqlmock.Sqlmock
	staging *UploadStagingService
	store   *storage.LocalStorage
	runs    *importRunStoreStub
}

func newImportFixture(t *testing.T) *importFixture {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	sqlxdb := sqlx.NewDb(db, "sqlmock")

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	staging := NewUploadStagingService(store, nil, UploadStagingConfig{})
	runs := &importRunStoreStub{}

	svc := NewImportService(
		sqlxdb,
		repository.NewReferenceRepository(sqlxdb),
		repository.NewUpsertRepository(sqlxdb),
		runs,
		staging,
		nil,
		nil,
		nil,
		nil,
		ImportServiceConfig{MaxReportedErrors: 10},
	)
	return &importFixture{svc: svc, mock: mock, staging: staging, store: store, runs: runs}
}

func (f *importFixture) stage(t *testing.T, body string) string {
	t.Helper()
	name, err := f.staging.Stage("upload.csv", strings.NewReader(body))
	require.NoError(t, err)
	return name
}

func (f *importFixture) assertRemoved(t *testing.T, name string) {
	t.Helper()
	_, err := os.Stat(f.store.Path(name))
	assert.True(t, os.IsNotExist(err), "staged file %s should be removed", name)
}

const programsHeader = "Code,Name,Department Code,Duration Years,Total Semesters,Description\n"

func TestImportServiceIsolatesRowFailures(t *testing.T) {
	f := newImportFixture(t)
	name := f.stage(t, programsHeader+
		"CSE-BTECH,B.Tech CSE,CSE,4,8,Undergraduate\n"+
		"XYZ-BTECH,B.Tech XYZ,XYZ,4,8,\n"+
		"ECE-BTECH,,ECE,4,8,\n")

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM departments WHERE code = $1")).
		WithArgs("CSE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	f.mock.ExpectExec(regexp.QuoteMeta("SAVEPOINT import_row")).WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO programs (code, name, duration_years, total_semesters, description, department_id)")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))
	f.mock.ExpectExec(regexp.QuoteMeta("RELEASE SAVEPOINT import_row")).WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM departments WHERE code = $1")).
		WithArgs("XYZ").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	f.mock.ExpectCommit()

	result, err := f.svc.Import(context.Background(), ImportRequest{EntityType: "programs", StagedName: name, Filename: "programs.csv", ActorID: "admin"})
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 2, result.ErrorCount)
	assert.Equal(t, []string{
		"Row 3: Department code 'XYZ' not found",
		"Row 4: Missing required fields (Name)",
	}, result.Errors)
	assert.Equal(t, "Successfully imported 1 programs", result.Message())
	assert.NoError(t, f.mock.ExpectationsWereMet())
	f.assertRemoved(t, name)

	require.Len(t, f.runs.runs, 1)
	assert.Equal(t, models.ImportStatusPartial, f.runs.runs[0].Status)
	assert.Equal(t, "admin", f.runs.runs[0].ActorID)
}

const studentsHeader = "Student ID,Name,Email,Program Code,Enrollment Year\n"

func TestImportServiceConstraintViolationRollsBackRowOnly(t *testing.T) {
	f := newImportFixture(t)
	name := f.stage(t, studentsHeader+
		"S001,Asha Rao,asha@univ.edu,CSE-BTECH,2024\n"+
		"S002,Asha R,asha@univ.edu,CSE-BTECH,2024\n"+
		"S003,Vikram Iyer,vikram@univ.edu,CSE-BTECH,2024\n")
	programLookup := regexp.QuoteMeta("SELECT id FROM programs WHERE code = $1")
	insertStudent := regexp.QuoteMeta("INSERT INTO students (")

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(programLookup).WithArgs("CSE-BTECH").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))
	f.mock.ExpectExec(regexp.QuoteMeta("SAVEPOINT import_row")).WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectQuery(insertStudent).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	f.mock.ExpectExec(regexp.QuoteMeta("RELEASE SAVEPOINT import_row")).WillReturnResult(sqlmock.NewResult(0, 0))

	f.mock.ExpectQuery(programLookup).WithArgs("CSE-BTECH").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))
	f.mock.ExpectExec(regexp.QuoteMeta("SAVEPOINT import_row")).WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectQuery(insertStudent).
		WillReturnError(&pq.Error{Code: "23505", Message: `duplicate key value violates unique constraint "students_email_key"`})
	f.mock.ExpectExec(regexp.QuoteMeta("ROLLBACK TO SAVEPOINT import_row")).WillReturnResult(sqlmock.NewResult(0, 0))

	f.mock.ExpectQuery(programLookup).WithArgs("CSE-BTECH").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))
	f.mock.ExpectExec(regexp.QuoteMeta("SAVEPOINT import_row")).WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectQuery(insertStudent).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
	f.mock.ExpectExec(regexp.QuoteMeta("RELEASE SAVEPOINT import_row")).WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectCommit()

	result, err := f.svc.Import(context.Background(), ImportRequest{EntityType: "students", StagedName: name})
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.ErrorCount)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Row 3: duplicate key value")
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestImportServiceIsIdempotentOnBusinessKey(t *testing.T) {
	f := newImportFixture(t)
	body := "Code,Name,Description,Head of Department Email\nCSE,Computer Science,,hod.cse@univ.edu\n"
	upsert := regexp.QuoteMeta("INSERT INTO departments (code, name, description, hod_email) VALUES ($1, $2, $3, $4) ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name")

	for i := 0; i < 2; i++ {
		f.mock.ExpectBegin()
		f.mock.ExpectExec(regexp.QuoteMeta("SAVEPOINT import_row")).WillReturnResult(sqlmock.NewResult(0, 0))
		f.mock.ExpectQuery(upsert).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
		f.mock.ExpectExec(regexp.QuoteMeta("RELEASE SAVEPOINT import_row")).WillReturnResult(sqlmock.NewResult(0, 0))
		f.mock.ExpectCommit()
	}

	for i := 0; i < 2; i++ {
		result, err := f.svc.Import(context.Background(), ImportRequest{EntityType: "departments", StagedName: f.stage(t, body)})
		require.NoError(t, err)
		assert.Equal(t, 1, result.SuccessCount)
		assert.Zero(t, result.ErrorCount)
	}
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestImportServiceCapsReportedErrors(t *testing.T) {
	f := newImportFixture(t)
	var b strings.Builder
	b.WriteString("Code,Name,Description,Head of Department Email\n")
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&b, "D%02d,,,\n", i)
	}
	name := f.stage(t, b.String())

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	result, err := f.svc.Import(context.Background(), ImportRequest{EntityType: "departments", StagedName: name})
	require.NoError(t, err)
	assert.Equal(t, 12, result.TotalRows)
	assert.Equal(t, 12, result.ErrorCount)
	assert.Len(t, result.Errors, 10)
	assert.Equal(t, "Row 2: Missing required fields (Name)", result.Errors[0])
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestImportServiceMalformedRecordIsRowError(t *testing.T) {
	f := newImportFixture(t)
	name := f.stage(t, "Code,Name,Description,Head of Department Email\n"+
		"\"CSE\"x,Computer Science,,\n")

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	result, err := f.svc.Import(context.Background(), ImportRequest{EntityType: "departments", StagedName: name})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ErrorCount)
	require.Len(t, result.Errors, 1)
	assert.True(t, strings.HasPrefix(result.Errors[0], "Row 2: Malformed CSV record"))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestImportServiceFatalErrorRollsBack(t *testing.T) {
	f := newImportFixture(t)
	name := f.stage(t, "Code,Name,Description,Head of Department Email\nCSE,Computer Science,,\n")

	f.mock.ExpectBegin()
	f.mock.ExpectExec(regexp.QuoteMeta("SAVEPOINT import_row")).WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectQuery("INSERT INTO departments").WillReturnError(errors.New("connection reset"))
	f.mock.ExpectRollback()

	result, err := f.svc.Import(context.Background(), ImportRequest{EntityType: "departments", StagedName: name, Filename: "departments.csv"})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, appErrors.Is(err, appErrors.ErrImportFailed))
	assert.Contains(t, appErrors.FromError(err).Detail(), "connection reset")
	assert.NoError(t, f.mock.ExpectationsWereMet())
	f.assertRemoved(t, name)

	require.Len(t, f.runs.runs, 1)
	assert.Equal(t, models.ImportStatusFailed, f.runs.runs[0].Status)
}

func TestImportServiceInputErrors(t *testing.T) {
	f := newImportFixture(t)

	unknown := f.stage(t, "Name\nx\n")
	_, err := f.svc.Import(context.Background(), ImportRequest{EntityType: "rooms", StagedName: unknown})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInput))
	assert.Contains(t, err.Error(), "Unsupported upload type 'rooms'")
	f.assertRemoved(t, unknown)

	empty := f.stage(t, "")
	_, err = f.svc.Import(context.Background(), ImportRequest{EntityType: "departments", StagedName: empty})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInput))
	f.assertRemoved(t, empty)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestImportServiceHistory(t *testing.T) {
	f := newImportFixture(t)
	f.runs.list = []models.ImportRun{{ID: 1, EntityType: "programs"}}

	runs, err := f.svc.History(context.Background(), "programs", 5)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	_, err = f.svc.History(context.Background(), "rooms", 5)
	assert.True(t, appErrors.Is(err, appErrors.ErrInput))
}

func TestImportRunJobHandler(t *testing.T) {
	runs := &importRunStoreStub{}
	handler := ImportRunJobHandler(runs)

	run := &models.ImportRun{EntityType: "faculty"}
	require.NoError(t, handler(context.Background(), jobs.Job{Type: JobTypeImportRun, Payload: run}))
	assert.Equal(t, int64(1), run.ID)
	require.NoError(t, handler(context.Background(), jobs.Job{Type: JobTypeImportRun, Payload: run}))
	assert.Len(t, runs.runs, 1)

	assert.Error(t, handler(context.Background(), jobs.Job{Type: JobTypeImportRun, Payload: "not a run"}))
}
