package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gamedex/internal/models"
	"gamedex/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- games -------------------------------------------------------------------

func (s *Store) UpsertGame(ctx context.Context, item *models.Game) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "app_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name",
			"is_active",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) GetGame(ctx context.Context, appID int64) (*models.Game, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Game
	err := s.db.WithContext(ctx).Where("app_id = ?", appID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListGamesByIDs(ctx context.Context, appIDs []int64) ([]models.Game, error) {
	if s == nil || s.db == nil || len(appIDs) == 0 {
		return nil, nil
	}
	var items []models.Game
	if err := s.db.WithContext(ctx).Where("app_id IN ?", appIDs).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListActiveGames(ctx context.Context) ([]models.Game, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Game
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("app_id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) DeactivateGamesNotIn(ctx context.Context, appIDs []int64) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.Game{}).
		Where("is_active = ?", true)
	if len(appIDs) > 0 {
		query = query.Where("app_id NOT IN ?", appIDs)
	}
	res := query.Updates(map[string]any{
		"is_active":  false,
		"updated_at": time.Now().UTC(),
	})
	return res.RowsAffected, res.Error
}

func (s *Store) ListGames(ctx context.Context, params repository.ListGamesParams) ([]models.Game, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.gamesQuery(ctx, params)
	query = applyOrder(query, params.OrderBy, params.Asc, "app_id")
	limit := normalizeLimit(params.Limit, 100)
	var items []models.Game
	if err := query.Limit(limit).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountGames(ctx context.Context, params repository.ListGamesParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	if err := s.gamesQuery(ctx, params).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) gamesQuery(ctx context.Context, params repository.ListGamesParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Game{})
	if params.Active != nil {
		query = query.Where("is_active = ?", *params.Active)
	}
	if params.Name != nil && strings.TrimSpace(*params.Name) != "" {
		query = query.Where("name ILIKE ?", "%"+strings.TrimSpace(*params.Name)+"%")
	}
	return query
}

// --- per-title records -------------------------------------------------------

// UpsertGameMetadata writes one fetch outcome. fetch_attempts accumulates
// across runs via the conflict expression, so it only ever increases.
func (s *Store) UpsertGameMetadata(ctx context.Context, item *models.GameMetadata) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "app_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"developer":                gorm.Expr("excluded.developer"),
			"publisher":                gorm.Expr("excluded.publisher"),
			"owners_estimate":          gorm.Expr("excluded.owners_estimate"),
			"positive_reviews":         gorm.Expr("excluded.positive_reviews"),
			"negative_reviews":         gorm.Expr("excluded.negative_reviews"),
			"score_rank":               gorm.Expr("excluded.score_rank"),
			"average_playtime_forever": gorm.Expr("excluded.average_playtime_forever"),
			"average_playtime_2weeks":  gorm.Expr("excluded.average_playtime_2weeks"),
			"price":                    gorm.Expr("excluded.price"),
			"genre":                    gorm.Expr("excluded.genre"),
			"languages":                gorm.Expr("excluded.languages"),
			"tags":                     gorm.Expr("excluded.tags"),
			"last_updated":             gorm.Expr("excluded.last_updated"),
			"fetch_attempts":           gorm.Expr("game_metadata.fetch_attempts + excluded.fetch_attempts"),
			"fetch_status":             gorm.Expr("excluded.fetch_status"),
		}),
	}).Create(item).Error
}

func (s *Store) UpsertStorefrontData(ctx context.Context, item *models.StorefrontData) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "app_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"short_description":    gorm.Expr("excluded.short_description"),
			"detailed_description": gorm.Expr("excluded.detailed_description"),
			"is_free":              gorm.Expr("excluded.is_free"),
			"required_age":         gorm.Expr("excluded.required_age"),
			"website":              gorm.Expr("excluded.website"),
			"header_image":         gorm.Expr("excluded.header_image"),
			"release_date":         gorm.Expr("excluded.release_date"),
			"developers":           gorm.Expr("excluded.developers"),
			"publishers":           gorm.Expr("excluded.publishers"),
			"genres":               gorm.Expr("excluded.genres"),
			"categories":           gorm.Expr("excluded.categories"),
			"supported_languages":  gorm.Expr("excluded.supported_languages"),
			"price_overview":       gorm.Expr("excluded.price_overview"),
			"pc_requirements":      gorm.Expr("excluded.pc_requirements"),
			"screenshots":          gorm.Expr("excluded.screenshots"),
			"movies":               gorm.Expr("excluded.movies"),
			"last_updated":         gorm.Expr("excluded.last_updated"),
			"fetch_attempts":       gorm.Expr("storefront_data.fetch_attempts + excluded.fetch_attempts"),
			"fetch_status":         gorm.Expr("excluded.fetch_status"),
		}),
	}).Create(item).Error
}

func (s *Store) GetGameMetadata(ctx context.Context, appID int64) (*models.GameMetadata, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.GameMetadata
	err := s.db.WithContext(ctx).Where("app_id = ?", appID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetStorefrontData(ctx context.Context, appID int64) (*models.StorefrontData, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.StorefrontData
	err := s.db.WithContext(ctx).Where("app_id = ?", appID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// --- export ------------------------------------------------------------------

func (s *Store) ListExportGames(ctx context.Context, ownerBuckets []string, limit int) ([]models.Game, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit = normalizeLimit(limit, 1000)
	var items []models.Game
	err := s.db.WithContext(ctx).
		Model(&models.Game{}).
		Joins("JOIN game_metadata ON game_metadata.app_id = games.app_id").
		Where("games.is_active = ?", true).
		Where("game_metadata.fetch_status = ?", models.FetchSuccess.String()).
		Where("game_metadata.owners_estimate IN ?", ownerBuckets).
		Where("game_metadata.tags IS NOT NULL").
		Where("game_metadata.tags::text <> '{}'").
		Order("game_metadata.score_rank ASC NULLS LAST").
		Limit(limit).
		Preload("Metadata").
		Preload("Storefront").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- run bookkeeping ---------------------------------------------------------

func (s *Store) GetCollectionRun(ctx context.Context, scope string) (*models.CollectionRun, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.CollectionRun
	err := s.db.WithContext(ctx).Where("scope = ?", scope).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) SaveCollectionRun(ctx context.Context, run *models.CollectionRun) error {
	if s == nil || s.db == nil || run == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "scope"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"last_attempt_at",
			"last_success_at",
			"last_error",
			"stats_json",
		}),
	}).Create(run).Error
}

func (s *Store) ListCollectionRuns(ctx context.Context) ([]models.CollectionRun, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.CollectionRun
	if err := s.db.WithContext(ctx).
		Model(&models.CollectionRun{}).
		Order("scope asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- helpers -----------------------------------------------------------------

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "asc"
	if asc != nil && !*asc {
		direction = "desc"
	}
	return query.Order(column + " " + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
