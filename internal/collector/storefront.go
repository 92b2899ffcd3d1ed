package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"gamedex/internal/client/steamstore"
	"gamedex/internal/models"
)

// StorefrontCollector fetches per-title presentation data from the Steam
// storefront API.
type StorefrontCollector struct {
	Client *steamstore.Client
	Logger *zap.Logger
}

type storefrontPayload struct {
	ShortDescription    string          `json:"short_description"`
	DetailedDescription string          `json:"detailed_description"`
	IsFree              *bool           `json:"is_free"`
	RequiredAge         json.RawMessage `json:"required_age"`
	Website             string          `json:"website"`
	HeaderImage         string          `json:"header_image"`
	ReleaseDate         json.RawMessage `json:"release_date"`
	Developers          json.RawMessage `json:"developers"`
	Publishers          json.RawMessage `json:"publishers"`
	Genres              json.RawMessage `json:"genres"`
	Categories          json.RawMessage `json:"categories"`
	SupportedLanguages  string          `json:"supported_languages"`
	PriceOverview       json.RawMessage `json:"price_overview"`
	PCRequirements      json.RawMessage `json:"pc_requirements"`
	Screenshots         json.RawMessage `json:"screenshots"`
	Movies              json.RawMessage `json:"movies"`
}

// FetchOne fetches and parses storefront data for a single title. The
// storefront signals absence through success=false in its envelope rather
// than an HTTP status, so that maps to not_found here.
func (c *StorefrontCollector) FetchOne(ctx context.Context, appID int64) *models.StorefrontData {
	data, found, err := c.Client.AppDetails(ctx, appID)
	if err != nil {
		if c.Logger != nil {
			c.Logger.Warn("storefront fetch failed", zap.Int64("app_id", appID), zap.Error(err))
		}
		return &models.StorefrontData{
			AppID:         appID,
			LastUpdated:   time.Now().UTC(),
			FetchAttempts: 1,
			FetchStatus:   models.FetchFailed.String(),
		}
	}
	if !found {
		return &models.StorefrontData{
			AppID:         appID,
			LastUpdated:   time.Now().UTC(),
			FetchAttempts: 1,
			FetchStatus:   models.FetchNotFound.String(),
		}
	}

	var payload storefrontPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return &models.StorefrontData{
			AppID:         appID,
			LastUpdated:   time.Now().UTC(),
			FetchAttempts: 1,
			FetchStatus:   models.FetchNotFound.String(),
		}
	}

	return &models.StorefrontData{
		AppID:               appID,
		ShortDescription:    strPtr(payload.ShortDescription),
		DetailedDescription: strPtr(payload.DetailedDescription),
		IsFree:              payload.IsFree,
		RequiredAge:         parseRequiredAge(payload.RequiredAge),
		Website:             strPtr(payload.Website),
		HeaderImage:         strPtr(payload.HeaderImage),
		ReleaseDate:         parseReleaseDate(payload.ReleaseDate),
		Developers:          jsonColumn(payload.Developers),
		Publishers:          jsonColumn(payload.Publishers),
		Genres:              jsonColumn(payload.Genres),
		Categories:          jsonColumn(payload.Categories),
		SupportedLanguages:  strPtr(payload.SupportedLanguages),
		PriceOverview:       jsonColumn(payload.PriceOverview),
		PCRequirements:      jsonColumn(payload.PCRequirements),
		Screenshots:         jsonColumn(payload.Screenshots),
		Movies:              jsonColumn(payload.Movies),
		LastUpdated:         time.Now().UTC(),
		FetchAttempts:       1,
		FetchStatus:         models.FetchSuccess.String(),
	}
}

// CollectFor mirrors MetadataCollector.CollectFor for the storefront
// surface: concurrent fetches per batch, immediate per-item persistence,
// write-then-notify progress.
func (c *StorefrontCollector) CollectFor(ctx context.Context, games []models.Game, sink Sink, batchSize int, progress ProgressFunc) (Stats, error) {
	var stats Stats
	total := len(games)
	if batchSize <= 0 {
		batchSize = 10
	}

	for start := 0; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}
		batch := games[start:end]

		records := make([]*models.StorefrontData, len(batch))
		var wg sync.WaitGroup
		for i := range batch {
			wg.Add(1)
			go func(i int, appID int64) {
				defer wg.Done()
				records[i] = c.FetchOne(ctx, appID)
			}(i, batch[i].AppID)
		}
		wg.Wait()

		for i, record := range records {
			if err := sink.UpsertStorefrontData(ctx, record); err != nil {
				return stats, fmt.Errorf("persist storefront for %d: %w", record.AppID, err)
			}
			stats.count(models.FetchStatus(record.FetchStatus))
			if progress != nil {
				progress(Progress{
					Processed: stats.Processed,
					Total:     total,
					Name:      batch[i].Name,
					Status:    models.FetchStatus(record.FetchStatus),
				})
			}
		}
	}

	return stats, nil
}

// parseReleaseDate digs the date string out of {"date": "...", ...},
// tolerating missing or differently shaped substructure.
func parseReleaseDate(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	var wrapper struct {
		Date string `json:"date"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil
	}
	return strPtr(wrapper.Date)
}

// parseRequiredAge handles the storefront returning either a number or a
// numeric string.
func parseRequiredAge(raw json.RawMessage) *int {
	if len(raw) == 0 {
		return nil
	}
	var asInt int
	if err := json.Unmarshal(raw, &asInt); err == nil {
		return &asInt
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err != nil {
		return nil
	}
	parsed, err := strconv.Atoi(asString)
	if err != nil {
		return nil
	}
	return &parsed
}

func jsonColumn(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return datatypes.JSON(raw)
}
