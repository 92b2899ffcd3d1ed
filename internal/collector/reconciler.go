package collector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gamedex/internal/models"
)

type ReconcileStats struct {
	Created     int `json:"created"`
	Updated     int `json:"updated"`
	Deactivated int `json:"deactivated"`
}

func (s *ReconcileStats) add(other ReconcileStats) {
	s.Created += other.Created
	s.Updated += other.Updated
	s.Deactivated += other.Deactivated
}

// Reconciler merges a freshly fetched set of games into the store:
// upsert by app id, soft-deactivate actives missing from the fresh set.
// Re-applying the same fresh set is a no-op (zero updates reported).
type Reconciler struct {
	Store  GameStore
	Logger *zap.Logger
}

func (r *Reconciler) Reconcile(ctx context.Context, fresh []models.Game, deactivateMissing bool) (ReconcileStats, error) {
	var stats ReconcileStats

	seen := make(map[int64]struct{}, len(fresh))
	deduped := make([]models.Game, 0, len(fresh))
	ids := make([]int64, 0, len(fresh))
	for _, game := range fresh {
		if _, ok := seen[game.AppID]; ok {
			continue
		}
		seen[game.AppID] = struct{}{}
		deduped = append(deduped, game)
		ids = append(ids, game.AppID)
	}

	existing, err := r.Store.ListGamesByIDs(ctx, ids)
	if err != nil {
		return stats, err
	}
	existingByID := make(map[int64]models.Game, len(existing))
	for _, game := range existing {
		existingByID[game.AppID] = game
	}

	now := time.Now().UTC()
	for _, game := range deduped {
		prev, exists := existingByID[game.AppID]
		if exists && prev.Name == game.Name && prev.IsActive {
			continue
		}

		item := models.Game{
			AppID:     game.AppID,
			Name:      game.Name,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if exists {
			item.CreatedAt = prev.CreatedAt
		}
		if err := r.Store.UpsertGame(ctx, &item); err != nil {
			// Integrity conflicts skip the single offending item; the
			// rest of the batch proceeds.
			if r.Logger != nil {
				r.Logger.Warn("game upsert failed",
					zap.Int64("app_id", game.AppID),
					zap.Error(err))
			}
			continue
		}
		if exists {
			stats.Updated++
		} else {
			stats.Created++
		}
	}

	if deactivateMissing {
		deactivated, err := r.Store.DeactivateGamesNotIn(ctx, ids)
		if err != nil {
			return stats, err
		}
		stats.Deactivated = int(deactivated)
	}

	return stats, nil
}
