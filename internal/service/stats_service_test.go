package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/edusmart-import-api/pkg/errors"
)

type statsCounterStub struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
	calls  int
}

func (s *statsCounterStub) Count(ctx context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.counts[key], nil
}

var statKeys = []string{"departments", "subjects", "students", "faculty", "classrooms"}

func TestStatsServiceGet(t *testing.T) {
	repo := &statsCounterStub{counts: map[string]int{"departments": 2, "subjects": 3, "students": 40, "faculty": 5, "classrooms": 6}}
	svc := NewStatsService(repo, statKeys, nil, nil)

	stats, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Departments)
	assert.Equal(t, 3, stats.Subjects)
	assert.Equal(t, 40, stats.Students)
	assert.Equal(t, 5, stats.Faculty)
	assert.Equal(t, 6, stats.Classrooms)
}

func TestStatsServiceCachesUntilImport(t *testing.T) {
	repo := &statsCounterStub{counts: map[string]int{"students": 1}}
	cache := NewCacheService(&memoryCacheRepo{}, nil, time.Minute, nil, true)
	svc := NewStatsService(repo, statKeys, cache, nil)

	_, err := svc.Get(context.Background())
	require.NoError(t, err)
	_, err = svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(statKeys), repo.calls)

	cache.InvalidateDerived(context.Background())
	_, err = svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2*len(statKeys), repo.calls)
}

func TestStatsServiceFailure(t *testing.T) {
	svc := NewStatsService(&statsCounterStub{err: errors.New("connection refused")}, statKeys, nil, nil)
	_, err := svc.Get(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Failed to get statistics", appErrors.FromError(err).Message)
}
