package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/edusmart-import-api/internal/dto"
	"github.com/noah-isme/edusmart-import-api/internal/models"
	appErrors "github.com/noah-isme/edusmart-import-api/pkg/errors"
	"github.com/noah-isme/edusmart-import-api/pkg/export"
	"github.com/noah-isme/edusmart-import-api/pkg/jobs"
)

const jobTypeGenerateBatches = "generate_batches"

type batchStore interface {
	ListEnrolledStudents(ctx context.Context, exec sqlx.ExtContext, academicYear string, semester int) ([]models.EnrolledStudent, error)
	UpsertBatch(ctx context.Context, exec sqlx.ExtContext, batch *models.Batch) (int64, error)
	AssignStudents(ctx context.Context, exec sqlx.ExtContext, batchID int64, studentIDs []int64) error
	ListByNames(ctx context.Context, exec sqlx.ExtContext, names []string) ([]models.BatchSummary, error)
	ProgramDistribution(ctx context.Context, academicYear string, semester int) ([]models.ProgramDistribution, error)
	ExistingBatches(ctx context.Context) ([]models.ExistingBatch, error)
	Roster(ctx context.Context, batchName string) ([]models.RosterEntry, error)
	Exists(ctx context.Context, batchName string) (bool, error)
}

// BatchServiceConfig tunes cohort sizing and the generation worker.
type BatchServiceConfig struct {
	Policy      SizingPolicy
	QueueBuffer int
	CacheTTL    time.Duration
}

// BatchService generates cohorts from term enrollments and analyses cohort readiness.
type BatchService struct {
	repo      batchStore
	db        txProvider
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       BatchServiceConfig
	queue     *jobs.Queue
}

// RosterFile is a rendered batch roster ready for download.
type RosterFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type generationJob struct {
	req    dto.GenerateBatchesRequest
	result *models.BatchGenerationResult
}

// NewBatchService wires batch generation and analysis.
func NewBatchService(repo batchStore, db txProvider, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg BatchServiceConfig) *BatchService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Policy = cfg.Policy.normalized()
	return &BatchService{
		repo:      repo,
		db:        db,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Start launches the single generation worker so concurrent requests run one
// at a time. Without it Generate runs on the caller's goroutine.
func (s *BatchService) Start(ctx context.Context) {
	s.queue = jobs.NewQueue("batch-generation", s.handleJob, jobs.QueueConfig{
		Workers:    1,
		BufferSize: s.cfg.QueueBuffer,
		Logger:     s.logger,
	})
	s.queue.Start(ctx)
}

// Stop drains the generation worker.
func (s *BatchService) Stop() {
	if s.queue != nil {
		s.queue.Stop()
	}
}

func (s *BatchService) handleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(*generationJob)
	if !ok {
		return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.Type)
	}
	result, err := s.generate(ctx, payload.req)
	payload.result = result
	return err
}

// Generate partitions the term's enrolled students into batches and assigns them.
// The whole run is one transaction.
func (s *BatchService) Generate(ctx context.Context, req dto.GenerateBatchesRequest) (*models.BatchGenerationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInput, "Academic year and semester are required")
	}
	if s.queue == nil {
		return s.generate(ctx, req)
	}

	payload := &generationJob{req: req}
	if err := s.queue.Submit(ctx, jobs.Job{Type: jobTypeGenerateBatches, Payload: payload}); err != nil {
		return nil, err
	}
	return payload.result, nil
}

func (s *BatchService) generate(ctx context.Context, req dto.GenerateBatchesRequest) (result *models.BatchGenerationResult, err error) {
	defer func() {
		if err != nil {
			s.metrics.ObserveBatchGeneration("failed", 0)
			s.logger.Error("batch generation failed",
				zap.String("academic_year", req.AcademicYear),
				zap.Int("semester", req.Semester),
				zap.Error(err),
			)
			err = appErrors.Wrap(err, appErrors.ErrBatchGenerationFailed.Code, appErrors.ErrBatchGenerationFailed.Status, appErrors.ErrBatchGenerationFailed.Message)
		}
	}()

	if s.db == nil {
		return nil, fmt.Errorf("transaction provider missing")
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	students, err := s.repo.ListEnrolledStudents(ctx, tx, req.AcademicYear, req.Semester)
	if err != nil {
		return nil, err
	}
	if len(students) == 0 {
		s.metrics.ObserveBatchGeneration("empty", 0)
		return &models.BatchGenerationResult{
			Success: false,
			Message: "No student enrollments found for the specified academic year and semester",
			Errors:  []string{},
			Batches: []models.BatchSummary{},
		}, nil
	}

	plan := PlanBatches(students, s.cfg.Policy)
	names := make([]string, 0, len(plan))
	for _, p := range plan {
		batch := &models.Batch{
			Name:            p.Name,
			ProgramID:       p.ProgramID,
			StartYear:       p.EnrollmentYear,
			EndYear:         p.EndYear,
			CurrentSemester: req.Semester,
			TotalStudents:   len(p.StudentIDs),
		}
		id, err := s.repo.UpsertBatch(ctx, tx, batch)
		if err != nil {
			return nil, err
		}
		if err := s.repo.AssignStudents(ctx, tx, id, p.StudentIDs); err != nil {
			return nil, err
		}
		names = append(names, p.Name)
	}

	summaries, err := s.repo.ListByNames(ctx, tx, names)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch transaction: %w", err)
	}
	committed = true

	s.cache.InvalidateDerived(context.WithoutCancel(ctx))
	s.metrics.ObserveBatchGeneration("success", len(plan))
	s.logger.Info("batches generated",
		zap.String("academic_year", req.AcademicYear),
		zap.Int("semester", req.Semester),
		zap.Int("students", len(students)),
		zap.Int("batches", len(plan)),
	)

	return &models.BatchGenerationResult{
		Success:                true,
		Message:                fmt.Sprintf("Successfully created %d batches using intelligent grouping algorithm", len(plan)),
		BatchesCreated:         len(plan),
		TotalStudentsProcessed: len(students),
		ErrorCount:             0,
		Errors:                 []string{},
		Batches:                summaries,
	}, nil
}

// Analyze reports the per-program distribution of a term, the existing batches
// and sizing recommendations. Results are cached until the next import or run.
func (s *BatchService) Analyze(ctx context.Context, academicYear string, semester int) (*models.BatchAnalysis, error) {
	if err := s.validator.Struct(dto.BatchAnalysisQuery{AcademicYear: academicYear, Semester: semester}); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInput, "Academic year and semester are required")
	}

	key := analysisCacheKey(academicYear, semester)
	var cached models.BatchAnalysis
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	var (
		distribution []models.ProgramDistribution
		existing     []models.ExistingBatch
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		distribution, err = s.repo.ProgramDistribution(gctx, academicYear, semester)
		return err
	})
	g.Go(func() error {
		var err error
		existing, err = s.repo.ExistingBatches(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("batch analysis failed", zap.String("academic_year", academicYear), zap.Int("semester", semester), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrAnalysisFailed.Code, appErrors.ErrAnalysisFailed.Status, appErrors.ErrAnalysisFailed.Message)
	}
	if distribution == nil {
		distribution = []models.ProgramDistribution{}
	}
	if existing == nil {
		existing = []models.ExistingBatch{}
	}

	analysis := &models.BatchAnalysis{
		ProgramDistribution: distribution,
		ExistingBatches:     existing,
		Recommendations:     Recommend(distribution, s.cfg.Policy),
	}
	_ = s.cache.Set(ctx, key, analysis, s.cfg.CacheTTL)
	return analysis, nil
}

// RosterExport renders the students of a batch as CSV, PDF or XLSX.
func (s *BatchService) RosterExport(ctx context.Context, batchName, format string) (*RosterFile, error) {
	renderer, ok := export.ForFormat(format)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInput, fmt.Sprintf("Unsupported roster format '%s'. Use csv, pdf, or xlsx", format))
	}

	exists, err := s.repo.Exists(ctx, batchName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("Batch '%s' not found", batchName))
	}

	entries, err := s.repo.Roster(ctx, batchName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch roster")
	}

	data := export.Dataset{
		Title:   batchName,
		Headers: []string{"Student ID", "Name", "Email", "Program Code", "Enrollment Year", "Current Semester", "Status"},
		Rows:    make([][]string, 0, len(entries)),
	}
	for _, e := range entries {
		semester, status := "", ""
		if e.CurrentSemester != nil {
			semester = strconv.Itoa(*e.CurrentSemester)
		}
		if e.Status != nil {
			status = *e.Status
		}
		data.Rows = append(data.Rows, []string{e.StudentID, e.Name, e.Email, e.ProgramCode, strconv.Itoa(e.EnrollmentYear), semester, status})
	}

	body, err := renderer.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}
	return &RosterFile{
		Filename:    batchName + "-roster" + renderer.Extension(),
		ContentType: renderer.ContentType(),
		Data:        body,
	}, nil
}
