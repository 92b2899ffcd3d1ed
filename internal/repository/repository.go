package repository

import (
	"context"

	"gorm.io/gorm"

	"gamedex/internal/models"
)

type ListGamesParams struct {
	Limit   int
	Offset  int
	Active  *bool
	Name    *string
	OrderBy string
	Asc     *bool
}

// Store is the persistence surface the pipeline and the read layer share.
type Store interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Games (listing + reconciliation)
	UpsertGame(ctx context.Context, item *models.Game) error
	GetGame(ctx context.Context, appID int64) (*models.Game, error)
	ListGamesByIDs(ctx context.Context, appIDs []int64) ([]models.Game, error)
	ListActiveGames(ctx context.Context) ([]models.Game, error)
	DeactivateGamesNotIn(ctx context.Context, appIDs []int64) (int64, error)
	ListGames(ctx context.Context, params ListGamesParams) ([]models.Game, error)
	CountGames(ctx context.Context, params ListGamesParams) (int64, error)

	// Per-title records (upserted on every fetch attempt)
	UpsertGameMetadata(ctx context.Context, item *models.GameMetadata) error
	UpsertStorefrontData(ctx context.Context, item *models.StorefrontData) error
	GetGameMetadata(ctx context.Context, appID int64) (*models.GameMetadata, error)
	GetStorefrontData(ctx context.Context, appID int64) (*models.StorefrontData, error)

	// Export projection
	ListExportGames(ctx context.Context, ownerBuckets []string, limit int) ([]models.Game, error)

	// Run bookkeeping
	GetCollectionRun(ctx context.Context, scope string) (*models.CollectionRun, error)
	SaveCollectionRun(ctx context.Context, run *models.CollectionRun) error
	ListCollectionRuns(ctx context.Context) ([]models.CollectionRun, error)
}
