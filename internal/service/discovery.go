package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"gamedex/internal/export"
)

// DiscoveryService serves the master.json projection from the store,
// cached for a fixed interval so the read path never hammers the
// database on every request.
type DiscoveryService struct {
	Collection *CollectionService
	CacheTTL   time.Duration
	MaxGames   int
	Logger     *zap.Logger

	mu       sync.Mutex
	cached   []export.GameRecord
	cachedAt time.Time
}

// MasterJSON returns the export records, refreshing the cache when it has
// expired. A refresh failure with a warm cache serves the stale copy.
func (s *DiscoveryService) MasterJSON(ctx context.Context) ([]export.GameRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ttl := s.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if s.cached != nil && time.Since(s.cachedAt) < ttl {
		return s.cached, nil
	}

	records, err := s.Collection.ProjectExport(ctx, s.MaxGames)
	if err != nil {
		if s.cached != nil {
			if s.Logger != nil {
				s.Logger.Warn("master.json refresh failed, serving stale cache", zap.Error(err))
			}
			return s.cached, nil
		}
		return nil, err
	}

	s.cached = records
	s.cachedAt = time.Now()
	return records, nil
}

// Invalidate drops the cache; the next read rebuilds it. Called after a
// collection run completes so fresh data shows up immediately.
func (s *DiscoveryService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
	s.cachedAt = time.Time{}
}
