package service

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/edusmart-import-api/internal/models"
	appErrors "github.com/noah-isme/edusmart-import-api/pkg/errors"
)

type statsCounter interface {
	Count(ctx context.Context, key string) (int, error)
}

// StatsService assembles the upload dashboard counters.
type StatsService struct {
	repo   statsCounter
	keys   []string
	cache  *CacheService
	logger *zap.Logger
}

// NewStatsService constructs the stats service. keys lists the counters to load.
func NewStatsService(repo statsCounter, keys []string, cache *CacheService, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{repo: repo, keys: keys, cache: cache, logger: logger}
}

// Get returns the current counters, counting each table concurrently on a miss.
func (s *StatsService) Get(ctx context.Context) (*models.UploadStats, error) {
	var cached models.UploadStats
	if hit, _ := s.cache.Get(ctx, statsCacheKey, &cached); hit {
		return &cached, nil
	}

	var mu sync.Mutex
	counts := make(map[string]int, len(s.keys))
	g, gctx := errgroup.WithContext(ctx)
	for _, key := range s.keys {
		key := key
		g.Go(func() error {
			n, err := s.repo.Count(gctx, key)
			if err != nil {
				return err
			}
			mu.Lock()
			counts[key] = n
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load upload stats", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to get statistics")
	}

	stats := &models.UploadStats{
		Departments: counts["departments"],
		Subjects:    counts["subjects"],
		Students:    counts["students"],
		Faculty:     counts["faculty"],
		Classrooms:  counts["classrooms"],
	}
	_ = s.cache.Set(ctx, statsCacheKey, stats, 0)
	return stats, nil
}
