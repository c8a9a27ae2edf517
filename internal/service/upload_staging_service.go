package service

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type stagingStore interface {
	SaveStream(filename string, r io.Reader) (int64, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// UploadStagingConfig governs how long orphaned uploads survive.
type UploadStagingConfig struct {
	StaleTTL        time.Duration
	CleanupInterval time.Duration
}

// UploadStagingService writes uploaded CSV files to disk under unique names and
// removes them once an import finishes or when they are left behind.
type UploadStagingService struct {
	store  stagingStore
	logger *zap.Logger
	cfg    UploadStagingConfig
}

// NewUploadStagingService constructs the staging service.
func NewUploadStagingService(store stagingStore, logger *zap.Logger, cfg UploadStagingConfig) *UploadStagingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StaleTTL <= 0 {
		cfg.StaleTTL = time.Hour
	}
	return &UploadStagingService{store: store, logger: logger, cfg: cfg}
}

// Stage copies r to a new staged file named after a fresh UUID and the
// original extension.
func (s *UploadStagingService) Stage(original string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(original))
	if ext == "" {
		ext = ".csv"
	}
	name := uuid.NewString() + ext
	if _, err := s.store.SaveStream(name, r); err != nil {
		s.Discard(name)
		return "", err
	}
	return name, nil
}

// Open returns a handle to a staged file.
func (s *UploadStagingService) Open(name string) (*os.File, error) {
	return s.store.Open(name)
}

// Discard deletes a staged file, logging failures.
func (s *UploadStagingService) Discard(name string) {
	if name == "" {
		return
	}
	if err := s.store.Delete(name); err != nil {
		s.logger.Warn("failed to remove staged upload", zap.String("file", name), zap.Error(err))
	}
}

// StartCleanup boots a goroutine that purges stale uploads periodically.
func (s *UploadStagingService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CleanupStale()
			}
		}
	}()
}

// CleanupStale removes uploads older than the configured TTL.
func (s *UploadStagingService) CleanupStale() int {
	deleted, err := s.store.CleanupOlderThan(s.cfg.StaleTTL)
	if err != nil {
		s.logger.Warn("staged upload cleanup failed", zap.Error(err))
		return 0
	}
	if len(deleted) > 0 {
		s.logger.Info("removed stale uploads", zap.Int("count", len(deleted)))
	}
	return len(deleted)
}
