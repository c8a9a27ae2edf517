package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edusmart-import-api/internal/dto"
	"github.com/noah-isme/edusmart-import-api/internal/models"
	appErrors "github.com/noah-isme/edusmart-import-api/pkg/errors"
)

type batchStoreFake struct {
	mu         sync.Mutex
	students   []models.EnrolledStudent
	listErr    error
	upsertErr  error
	upserted   []models.Batch
	assigned   map[int64][]int64
	distErr    error
	dist       []models.ProgramDistribution
	existing   []models.ExistingBatch
	distCalls  int
	roster     []models.RosterEntry
	knownBatch string
}

func (f *batchStoreFake) ListEnrolledStudents(ctx context.Context, exec sqlx.ExtContext, academicYear string, semester int) ([]models.EnrolledStudent, error) {
	return f.students, f.listErr
}

func (f *batchStoreFake) UpsertBatch(ctx context.Context, exec sqlx.ExtContext, batch *models.Batch) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	batch.ID = int64(len(f.upserted) + 1)
	f.upserted = append(f.upserted, *batch)
	return batch.ID, nil
}

func (f *batchStoreFake) AssignStudents(ctx context.Context, exec sqlx.ExtContext, batchID int64, studentIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.assigned == nil {
		f.assigned = map[int64][]int64{}
	}
	f.assigned[batchID] = append([]int64(nil), studentIDs...)
	return nil
}

func (f *batchStoreFake) ListByNames(ctx context.Context, exec sqlx.ExtContext, names []string) ([]models.BatchSummary, error) {
	out := make([]models.BatchSummary, 0, len(names))
	for _, b := range f.upserted {
		out = append(out, models.BatchSummary{ID: b.ID, Name: b.Name, TotalStudents: b.TotalStudents, ActualStudentCount: len(f.assigned[b.ID])})
	}
	return out, nil
}

func (f *batchStoreFake) ProgramDistribution(ctx context.Context, academicYear string, semester int) ([]models.ProgramDistribution, error) {
	f.mu.Lock()
	f.distCalls++
	f.mu.Unlock()
	return f.dist, f.distErr
}

func (f *batchStoreFake) ExistingBatches(ctx context.Context) ([]models.ExistingBatch, error) {
	return f.existing, nil
}

func (f *batchStoreFake) Roster(ctx context.Context, batchName string) ([]models.RosterEntry, error) {
	return f.roster, nil
}

func (f *batchStoreFake) Exists(ctx context.Context, batchName string) (bool, error) {
	return batchName == f.knownBatch, nil
}

type memoryCacheRepo struct {
	mu    sync.Mutex
	items map[string]interface{}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	if analysis, ok := dest.(*models.BatchAnalysis); ok {
		*analysis = *(v.(*models.BatchAnalysis))
		return nil
	}
	if stats, ok := dest.(*models.UploadStats); ok {
		*stats = *(v.(*models.UploadStats))
		return nil
	}
	return errors.New("unsupported cache type")
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = map[string]interface{}{}
	}
	m.items[key] = value
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			delete(m.items, k)
		}
	}
	return nil
}

func newBatchFixture(t *testing.T, store *batchStoreFake) (*BatchService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	svc := NewBatchService(store, sqlx.NewDb(db, "sqlmock"), nil, nil, nil, nil, BatchServiceConfig{Policy: DefaultSizingPolicy})
	return svc, mock
}

func TestBatchServiceGenerateAssignsEveryStudentOnce(t *testing.T) {
	store := &batchStoreFake{students: append(enrolled(61, 1, "CSE-BTECH", 2024, "CS101,MATH101"), enrolled(10, 100, "CSE-BTECH", 2024, "CS101")...)}
	svc, mock := newBatchFixture(t, store)
	mock.ExpectBegin()
	mock.ExpectCommit()

	result, err := svc.Generate(context.Background(), dto.GenerateBatchesRequest{AcademicYear: "2024-25", Semester: 1})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.BatchesCreated)
	assert.Equal(t, 71, result.TotalStudentsProcessed)
	assert.Equal(t, "Successfully created 3 batches using intelligent grouping algorithm", result.Message)
	require.Len(t, result.Batches, 3)

	require.Len(t, store.upserted, 3)
	assert.Equal(t, "CSE-BTECH-2024-B1", store.upserted[0].Name)
	assert.Equal(t, 31, store.upserted[0].TotalStudents)
	assert.Equal(t, 2028, store.upserted[0].EndYear)
	assert.Equal(t, 1, store.upserted[0].CurrentSemester)
	assert.Equal(t, "CSE-BTECH-2024-B3", store.upserted[2].Name)

	seen := map[int64]bool{}
	for _, ids := range store.assigned {
		for _, id := range ids {
			assert.False(t, seen[id], "student %d assigned twice", id)
			seen[id] = true
		}
	}
	assert.Len(t, seen, 71)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchServiceGenerateEmptyTerm(t *testing.T) {
	svc, mock := newBatchFixture(t, &batchStoreFake{})
	mock.ExpectBegin()
	mock.ExpectRollback()

	result, err := svc.Generate(context.Background(), dto.GenerateBatchesRequest{AcademicYear: "2030-31", Semester: 2})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "No student enrollments found for the specified academic year and semester", result.Message)
	assert.Zero(t, result.BatchesCreated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchServiceGenerateValidation(t *testing.T) {
	svc, _ := newBatchFixture(t, &batchStoreFake{})

	_, err := svc.Generate(context.Background(), dto.GenerateBatchesRequest{Semester: 1})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInput))
	assert.Equal(t, "Academic year and semester are required", err.Error())

	_, err = svc.Generate(context.Background(), dto.GenerateBatchesRequest{AcademicYear: "2024-25"})
	assert.True(t, appErrors.Is(err, appErrors.ErrInput))
}

func TestBatchServiceGenerateFailureRollsBack(t *testing.T) {
	store := &batchStoreFake{students: enrolled(5, 1, "CSE-BTECH", 2024, "CS101"), upsertErr: errors.New("deadlock detected")}
	svc, mock := newBatchFixture(t, store)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Generate(context.Background(), dto.GenerateBatchesRequest{AcademicYear: "2024-25", Semester: 1})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrBatchGenerationFailed))
	assert.Equal(t, "deadlock detected", appErrors.FromError(err).Detail())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchServiceGenerateThroughWorker(t *testing.T) {
	store := &batchStoreFake{students: enrolled(3, 1, "CSE-BTECH", 2024, "CS101")}
	svc, mock := newBatchFixture(t, store)
	mock.ExpectBegin()
	mock.ExpectCommit()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Stop()

	result, err := svc.Generate(context.Background(), dto.GenerateBatchesRequest{AcademicYear: "2024-25", Semester: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, result.BatchesCreated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchServiceAnalyzeUsesCache(t *testing.T) {
	store := &batchStoreFake{dist: []models.ProgramDistribution{{ProgramCode: "CSE-BTECH", EnrollmentYear: 2024, TotalStudents: 61, AvgCoursesPerStudent: 4.5}}}
	cache := NewCacheService(&memoryCacheRepo{}, nil, time.Minute, nil, true)
	svc := NewBatchService(store, nil, cache, nil, nil, nil, BatchServiceConfig{})

	first, err := svc.Analyze(context.Background(), "2024-25", 1)
	require.NoError(t, err)
	require.Len(t, first.Recommendations, 1)
	assert.Equal(t, "Split 61 students into 2 batches", first.Recommendations[0].Suggestion)
	assert.NotNil(t, first.ExistingBatches)

	_, err = svc.Analyze(context.Background(), "2024-25", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, store.distCalls)

	cache.InvalidateDerived(context.Background())
	_, err = svc.Analyze(context.Background(), "2024-25", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, store.distCalls)
}

func TestBatchServiceAnalyzeFailure(t *testing.T) {
	svc := NewBatchService(&batchStoreFake{distErr: errors.New("relation does not exist")}, nil, nil, nil, nil, nil, BatchServiceConfig{})
	_, err := svc.Analyze(context.Background(), "2024-25", 1)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrAnalysisFailed))
}

func TestBatchServiceRosterExport(t *testing.T) {
	semester := 1
	store := &batchStoreFake{
		knownBatch: "CSE-BTECH-2024-B1",
		roster: []models.RosterEntry{
			{StudentID: "2024U0001", Name: "John Doe", Email: "john.doe@univ.edu", ProgramCode: "CSE-BTECH", EnrollmentYear: 2024, CurrentSemester: &semester},
		},
	}
	svc := NewBatchService(store, nil, nil, nil, nil, nil, BatchServiceConfig{})

	file, err := svc.RosterExport(context.Background(), "CSE-BTECH-2024-B1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "CSE-BTECH-2024-B1-roster.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Contains(t, string(file.Data), "2024U0001,John Doe,john.doe@univ.edu,CSE-BTECH,2024,1,\n")

	_, err = svc.RosterExport(context.Background(), "missing", "pdf")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = svc.RosterExport(context.Background(), "CSE-BTECH-2024-B1", "docx")
	assert.True(t, appErrors.Is(err, appErrors.ErrInput))
}
