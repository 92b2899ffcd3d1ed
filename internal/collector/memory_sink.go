package collector

import (
	"context"
	"sort"
	"sync"
	"time"

	"gamedex/internal/models"
)

// MemorySink accumulates collector output in memory. It backs the
// database-less direct export pipeline and doubles as the store fake in
// tests. Implements both Sink and GameStore.
type MemorySink struct {
	mu          sync.Mutex
	games       map[int64]models.Game
	metadata    map[int64]models.GameMetadata
	storefronts map[int64]models.StorefrontData
}

func NewMemorySink() *MemorySink {
	return &MemorySink{
		games:       map[int64]models.Game{},
		metadata:    map[int64]models.GameMetadata{},
		storefronts: map[int64]models.StorefrontData{},
	}
}

func (m *MemorySink) UpsertGame(ctx context.Context, item *models.Game) error {
	if item == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[item.AppID] = *item
	return nil
}

func (m *MemorySink) ListGamesByIDs(ctx context.Context, appIDs []int64) ([]models.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Game, 0, len(appIDs))
	for _, id := range appIDs {
		if game, ok := m.games[id]; ok {
			out = append(out, game)
		}
	}
	return out, nil
}

func (m *MemorySink) DeactivateGamesNotIn(ctx context.Context, appIDs []int64) (int64, error) {
	keep := make(map[int64]struct{}, len(appIDs))
	for _, id := range appIDs {
		keep[id] = struct{}{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var deactivated int64
	for id, game := range m.games {
		if _, ok := keep[id]; ok || !game.IsActive {
			continue
		}
		game.IsActive = false
		game.UpdatedAt = time.Now().UTC()
		m.games[id] = game
		deactivated++
	}
	return deactivated, nil
}

func (m *MemorySink) UpsertGameMetadata(ctx context.Context, item *models.GameMetadata) error {
	if item == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record := *item
	if prev, ok := m.metadata[item.AppID]; ok {
		record.FetchAttempts = prev.FetchAttempts + item.FetchAttempts
	}
	m.metadata[item.AppID] = record
	return nil
}

func (m *MemorySink) UpsertStorefrontData(ctx context.Context, item *models.StorefrontData) error {
	if item == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record := *item
	if prev, ok := m.storefronts[item.AppID]; ok {
		record.FetchAttempts = prev.FetchAttempts + item.FetchAttempts
	}
	m.storefronts[item.AppID] = record
	return nil
}

// Games returns all accumulated games ordered by app id.
func (m *MemorySink) Games() []models.Game {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Game, 0, len(m.games))
	for _, game := range m.games {
		out = append(out, game)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppID < out[j].AppID })
	return out
}

// ActiveGames returns accumulated games still marked active.
func (m *MemorySink) ActiveGames() []models.Game {
	out := m.Games()
	filtered := out[:0]
	for _, game := range out {
		if game.IsActive {
			filtered = append(filtered, game)
		}
	}
	return filtered
}

func (m *MemorySink) Metadata(appID int64) (models.GameMetadata, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.metadata[appID]
	return item, ok
}

func (m *MemorySink) Storefront(appID int64) (models.StorefrontData, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.storefronts[appID]
	return item, ok
}

// Snapshot hands back joined views for the export projector.
func (m *MemorySink) Snapshot() ([]models.Game, map[int64]models.GameMetadata, map[int64]models.StorefrontData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	games := make([]models.Game, 0, len(m.games))
	for _, game := range m.games {
		games = append(games, game)
	}
	sort.Slice(games, func(i, j int) bool { return games[i].AppID < games[j].AppID })
	metadata := make(map[int64]models.GameMetadata, len(m.metadata))
	for id, item := range m.metadata {
		metadata[id] = item
	}
	storefronts := make(map[int64]models.StorefrontData, len(m.storefronts))
	for id, item := range m.storefronts {
		storefronts[id] = item
	}
	return games, metadata, storefronts
}
