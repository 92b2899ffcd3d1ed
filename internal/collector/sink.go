package collector

import (
	"context"

	"gamedex/internal/models"
)

// Sink receives per-title records as soon as each fetch completes. The
// store-backed repository and the in-memory accumulator used by the direct
// export pipeline are interchangeable implementations.
type Sink interface {
	UpsertGameMetadata(ctx context.Context, item *models.GameMetadata) error
	UpsertStorefrontData(ctx context.Context, item *models.StorefrontData) error
}

// GameStore is the slice of the store the listing reconciler needs.
type GameStore interface {
	ListGamesByIDs(ctx context.Context, appIDs []int64) ([]models.Game, error)
	UpsertGame(ctx context.Context, item *models.Game) error
	DeactivateGamesNotIn(ctx context.Context, appIDs []int64) (int64, error)
}
