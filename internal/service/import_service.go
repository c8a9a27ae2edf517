package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/edusmart-import-api/internal/importer"
	"github.com/noah-isme/edusmart-import-api/internal/models"
	"github.com/noah-isme/edusmart-import-api/internal/repository"
	appErrors "github.com/noah-isme/edusmart-import-api/pkg/errors"
	"github.com/noah-isme/edusmart-import-api/pkg/jobs"
)

// JobTypeImportRun identifies audit records dispatched through the job queue.
const JobTypeImportRun = "import_run"

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type referenceResolver interface {
	Resolve(ctx context.Context, exec sqlx.ExtContext, target importer.RefTarget, key string) (int64, error)
}

type rowUpserter interface {
	Upsert(ctx context.Context, exec sqlx.ExtContext, stmt repository.UpsertStatement) (int64, error)
	Savepoint(ctx context.Context, exec sqlx.ExtContext) error
	RollbackToSavepoint(ctx context.Context, exec sqlx.ExtContext) error
	ReleaseSavepoint(ctx context.Context, exec sqlx.ExtContext) error
}

type importRunStore interface {
	Create(ctx context.Context, run *models.ImportRun) error
	ListRecent(ctx context.Context, entityType string, limit int) ([]models.ImportRun, error)
}

type stagedFiles interface {
	Open(name string) (*os.File, error)
	Discard(name string)
}

type auditDispatcher interface {
	Enqueue(job jobs.Job) error
}

// ImportRequest identifies one staged CSV file to load.
type ImportRequest struct {
	EntityType string
	StagedName string
	Filename   string
	ActorID    string
}

// ImportServiceConfig tunes the import pipeline.
type ImportServiceConfig struct {
	MaxReportedErrors int
}

// ImportService loads CSV files into the master-data tables. Each file is
// imported in one transaction; row failures are isolated with savepoints and
// reported without aborting the rest of the file.
type ImportService struct {
	db      txProvider
	refs    referenceResolver
	upserts rowUpserter
	runs    importRunStore
	files   stagedFiles
	audit   auditDispatcher
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	cfg     ImportServiceConfig
}

// NewImportService wires the import pipeline. audit may be nil, in which case
// run records are written inline.
func NewImportService(
	db txProvider,
	refs referenceResolver,
	upserts rowUpserter,
	runs importRunStore,
	files stagedFiles,
	audit auditDispatcher,
	cache *CacheService,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg ImportServiceConfig,
) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxReportedErrors <= 0 {
		cfg.MaxReportedErrors = 10
	}
	return &ImportService{
		db:      db,
		refs:    refs,
		upserts: upserts,
		runs:    runs,
		files:   files,
		audit:   audit,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// Import loads the staged file for the given entity type. The staged file is
// removed on every path.
func (s *ImportService) Import(ctx context.Context, req ImportRequest) (*models.ImportResult, error) {
	defer s.files.Discard(req.StagedName)

	entity := strings.TrimSpace(req.EntityType)
	schema, ok := importer.Lookup(entity)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInput, fmt.Sprintf("Unsupported upload type '%s'. Supported types: %s", entity, strings.Join(importer.SupportedTypes(), ", ")))
	}

	file, err := s.files.Open(req.StagedName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrImportFailed.Code, appErrors.ErrImportFailed.Status, appErrors.ErrImportFailed.Message)
	}
	defer file.Close() //nolint:errcheck

	reader, err := importer.NewRecordReader(file)
	if err != nil {
		if errors.Is(err, importer.ErrMissingHeader) {
			return nil, appErrors.Clone(appErrors.ErrInput, err.Error())
		}
		return nil, appErrors.Wrap(err, appErrors.ErrImportFailed.Code, appErrors.ErrImportFailed.Status, appErrors.ErrImportFailed.Message)
	}

	started := time.Now().UTC()
	s.logger.Info("csv import started",
		zap.String("entity", entity),
		zap.String("file", req.Filename),
		zap.String("actor", req.ActorID),
	)

	result, err := s.load(ctx, schema, reader)
	finished := time.Now().UTC()
	if err != nil {
		s.logger.Error("csv import failed", zap.String("entity", entity), zap.String("file", req.Filename), zap.Error(err))
		s.metrics.ObserveImport(entity, models.ImportStatusFailed, 0, 0, finished.Sub(started))
		s.recordRun(ctx, &models.ImportRun{
			EntityType: entity,
			Filename:   req.Filename,
			ActorID:    req.ActorID,
			Errors:     models.ImportErrors{err.Error()},
			Status:     models.ImportStatusFailed,
			StartedAt:  started,
			FinishedAt: finished,
		})
		return nil, appErrors.Wrap(err, appErrors.ErrImportFailed.Code, appErrors.ErrImportFailed.Status, appErrors.ErrImportFailed.Message)
	}

	s.cache.InvalidateDerived(context.WithoutCancel(ctx))
	s.metrics.ObserveImport(entity, result.Status(), result.SuccessCount, result.ErrorCount, finished.Sub(started))
	s.recordRun(ctx, &models.ImportRun{
		EntityType:   entity,
		Filename:     req.Filename,
		ActorID:      req.ActorID,
		TotalRows:    result.TotalRows,
		SuccessCount: result.SuccessCount,
		ErrorCount:   result.ErrorCount,
		Errors:       models.ImportErrors(result.Errors),
		Status:       result.Status(),
		StartedAt:    started,
		FinishedAt:   finished,
	})

	s.logger.Info("csv import finished",
		zap.String("entity", entity),
		zap.String("actor", req.ActorID),
		zap.Int("total_rows", result.TotalRows),
		zap.Int("success", result.SuccessCount),
		zap.Int("errors", result.ErrorCount),
	)
	return result, nil
}

func (s *ImportService) load(ctx context.Context, schema *importer.Schema, reader *importer.RecordReader) (result *models.ImportResult, err error) {
	if s.db == nil {
		return nil, errors.New("transaction provider missing")
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin import transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result = &models.ImportResult{
		EntityType: schema.Key,
		Label:      schema.Label,
		Errors:     []string{},
	}

	rowNumber := 1
	for {
		row, readErr := reader.Next()
		if errors.Is(readErr, io.EOF) {
			break
		}
		rowNumber++
		result.TotalRows++

		if readErr != nil {
			var malformed *importer.MalformedRecordError
			if !errors.As(readErr, &malformed) {
				return nil, fmt.Errorf("read csv row %d: %w", rowNumber, readErr)
			}
			s.rowFailed(result, rowNumber, malformed.Error())
			continue
		}

		rowErr := s.importRow(ctx, tx, schema, row)
		if rowErr == nil {
			result.SuccessCount++
			continue
		}
		reason, isRowErr := rowFailureReason(rowErr)
		if !isRowErr {
			return nil, fmt.Errorf("row %d: %w", rowNumber, rowErr)
		}
		s.rowFailed(result, rowNumber, reason)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import transaction: %w", err)
	}
	return result, nil
}

// importRow prepares, resolves and writes one row inside its own savepoint.
func (s *ImportService) importRow(ctx context.Context, tx *sqlx.Tx, schema *importer.Schema, row map[string]string) error {
	prepared, err := importer.PrepareRow(schema, row)
	if err != nil {
		return err
	}

	columns := append([]string(nil), prepared.Columns...)
	values := append([]any(nil), prepared.Values...)
	for _, ref := range prepared.Refs {
		columns = append(columns, ref.Column)
		if ref.Key == "" {
			values = append(values, nil)
			continue
		}
		id, err := s.refs.Resolve(ctx, tx, ref.Target, ref.Key)
		if err != nil {
			return err
		}
		values = append(values, id)
	}

	if err := s.upserts.Savepoint(ctx, tx); err != nil {
		return err
	}
	_, err = s.upserts.Upsert(ctx, tx, repository.UpsertStatement{
		Table:         schema.Table,
		Columns:       columns,
		Values:        values,
		ConflictKey:   schema.ConflictKey,
		UpdateColumns: schema.UpdateSet(),
	})
	if err != nil {
		var constraint *repository.ConstraintError
		if errors.As(err, &constraint) {
			if rbErr := s.upserts.RollbackToSavepoint(ctx, tx); rbErr != nil {
				return rbErr
			}
		}
		return err
	}
	return s.upserts.ReleaseSavepoint(ctx, tx)
}

func (s *ImportService) rowFailed(result *models.ImportResult, rowNumber int, reason string) {
	result.ErrorCount++
	if len(result.Errors) < s.cfg.MaxReportedErrors {
		result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", rowNumber, reason))
	}
}

// rowFailureReason reports whether err only invalidates the current row.
func rowFailureReason(err error) (string, bool) {
	var fieldErr *importer.FieldError
	if errors.As(err, &fieldErr) {
		return fieldErr.Error(), true
	}
	var refErr *repository.ReferenceError
	if errors.As(err, &refErr) {
		return refErr.Error(), true
	}
	var constraint *repository.ConstraintError
	if errors.As(err, &constraint) {
		return constraint.Error(), true
	}
	return "", false
}

func (s *ImportService) recordRun(ctx context.Context, run *models.ImportRun) {
	if s.runs == nil {
		return
	}
	if s.audit != nil {
		err := s.audit.Enqueue(jobs.Job{Type: JobTypeImportRun, Payload: run})
		if err == nil {
			return
		}
		s.logger.Warn("failed to enqueue import run, writing inline", zap.Error(err))
	}
	if err := s.runs.Create(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Warn("failed to record import run", zap.String("entity", run.EntityType), zap.Error(err))
	}
}

// History lists recent import runs, optionally filtered by entity type.
func (s *ImportService) History(ctx context.Context, entityType string, limit int) ([]models.ImportRun, error) {
	entityType = strings.TrimSpace(entityType)
	if entityType != "" && !importer.IsSupported(entityType) {
		return nil, appErrors.Clone(appErrors.ErrInput, fmt.Sprintf("Unsupported upload type '%s'", entityType))
	}
	runs, err := s.runs.ListRecent(ctx, entityType, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list import history")
	}
	if runs == nil {
		runs = []models.ImportRun{}
	}
	return runs, nil
}

// ImportRunJobHandler persists import run records dispatched through a jobs.Queue.
func ImportRunJobHandler(runs importRunStore) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		run, ok := job.Payload.(*models.ImportRun)
		if !ok {
			return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.Type)
		}
		if run.ID != 0 {
			return nil
		}
		if err := runs.Create(ctx, run); err != nil {
			return fmt.Errorf("record import run: %w", err)
		}
		return nil
	}
}
