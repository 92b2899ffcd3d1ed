package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"gamedex/internal/client/steamspy"
	"gamedex/internal/models"
)

// Stats aggregates per-title fetch outcomes for one collection pass.
type Stats struct {
	Processed int `json:"processed"`
	Success   int `json:"success"`
	Failed    int `json:"failed"`
	NotFound  int `json:"not_found"`
}

func (s *Stats) count(status models.FetchStatus) {
	s.Processed++
	switch status {
	case models.FetchSuccess:
		s.Success++
	case models.FetchNotFound:
		s.NotFound++
	default:
		s.Failed++
	}
}

// MetadataCollector fetches per-title statistics from SteamSpy.
type MetadataCollector struct {
	Client *steamspy.Client
	Logger *zap.Logger
}

type appDetailsPayload struct {
	AppID          int64           `json:"appid"`
	Developer      string          `json:"developer"`
	Publisher      string          `json:"publisher"`
	Owners         string          `json:"owners"`
	Positive       *int            `json:"positive"`
	Negative       *int            `json:"negative"`
	ScoreRank      json.RawMessage `json:"score_rank"`
	AverageForever *int            `json:"average_forever"`
	Average2Weeks  *int            `json:"average_2weeks"`
	Price          json.RawMessage `json:"price"`
	Genre          string          `json:"genre"`
	Languages      string          `json:"languages"`
	Tags           json.RawMessage `json:"tags"`
}

// FetchOne fetches and parses statistics for a single title. Failures are
// absorbed into the returned record: transport errors (after retries) give
// fetch_status=failed, an empty or id-less payload gives not_found. Every
// outcome carries fetch_attempts=1 for this pass.
func (c *MetadataCollector) FetchOne(ctx context.Context, appID int64) *models.GameMetadata {
	raw, err := c.Client.AppDetails(ctx, appID)
	if err != nil {
		if c.Logger != nil {
			c.Logger.Warn("metadata fetch failed", zap.Int64("app_id", appID), zap.Error(err))
		}
		return &models.GameMetadata{
			AppID:         appID,
			LastUpdated:   time.Now().UTC(),
			FetchAttempts: 1,
			FetchStatus:   models.FetchFailed.String(),
		}
	}

	var payload appDetailsPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.AppID == 0 {
		return &models.GameMetadata{
			AppID:         appID,
			LastUpdated:   time.Now().UTC(),
			FetchAttempts: 1,
			FetchStatus:   models.FetchNotFound.String(),
		}
	}

	return c.parse(appID, payload)
}

func (c *MetadataCollector) parse(appID int64, payload appDetailsPayload) *models.GameMetadata {
	tags := normalizeTags(payload.Tags)
	tagsJSON, _ := json.Marshal(tags)

	return &models.GameMetadata{
		AppID:                  appID,
		Developer:              strPtr(payload.Developer),
		Publisher:              strPtr(payload.Publisher),
		OwnersEstimate:         strPtr(payload.Owners),
		PositiveReviews:        payload.Positive,
		NegativeReviews:        payload.Negative,
		ScoreRank:              parseScoreRank(payload.ScoreRank),
		AveragePlaytimeForever: payload.AverageForever,
		AveragePlaytime2Weeks:  payload.Average2Weeks,
		Price:                  FormatPrice(rawToString(payload.Price)),
		Genre:                  strPtr(payload.Genre),
		Languages:              strPtr(payload.Languages),
		Tags:                   datatypes.JSON(tagsJSON),
		LastUpdated:            time.Now().UTC(),
		FetchAttempts:          1,
		FetchStatus:            models.FetchSuccess.String(),
	}
}

// CollectFor drives per-title collection over games: fetches concurrently
// within each batch (admission bounded by the shared rate gate), persists
// every record to the sink as soon as its batch lands, and fires the
// progress callback after each write. Per-item failures never abort the
// run; a sink error does, since the store itself is unhealthy.
func (c *MetadataCollector) CollectFor(ctx context.Context, games []models.Game, sink Sink, batchSize int, progress ProgressFunc) (Stats, error) {
	var stats Stats
	total := len(games)
	if batchSize <= 0 {
		batchSize = 50
	}

	for start := 0; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}
		batch := games[start:end]

		records := make([]*models.GameMetadata, len(batch))
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
			if err := sink.UpsertGameMetadata(ctx, record); err != nil {
				return stats, fmt.Errorf("persist metadata for %d: %w", record.AppID, err)
			}
			stats.count(models.FetchStatus(record.FetchStatus))
			if progress != nil {
				var tags map[string]int
				_ = json.Unmarshal(record.Tags, &tags)
				progress(Progress{
					Processed: stats.Processed,
					Total:     total,
					Name:      batch[i].Name,
					Status:    models.FetchStatus(record.FetchStatus),
					TopTags:   topTags(tags, 3),
				})
			}
		}

		if c.Logger != nil {
			c.Logger.Info("metadata batch done",
				zap.Int("from", start+1),
				zap.Int("to", end),
				zap.Int("total", total))
		}
	}

	return stats, nil
}

// normalizeTags tolerates SteamSpy answering with an empty array (or any
// non-object value) instead of the tag->votes mapping.
func normalizeTags(raw json.RawMessage) map[string]int {
	tags := map[string]int{}
	if len(raw) == 0 {
		return tags
	}
	var parsed map[string]int
	if err := json.Unmarshal(raw, &parsed); err != nil || parsed == nil {
		return tags
	}
	return parsed
}

// FormatPrice converts a price in cents to its display form: "0" becomes
// "Free", anything else becomes two-decimal dollars. Empty or unparseable
// input yields nil.
func FormatPrice(priceCents string) *string {
	priceCents = strings.TrimSpace(priceCents)
	if priceCents == "" {
		return nil
	}
	cents, err := strconv.ParseInt(priceCents, 10, 64)
	if err != nil {
		return nil
	}
	if cents == 0 {
		free := "Free"
		return &free
	}
	dollars := decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
	return &dollars
}

func parseScoreRank(raw json.RawMessage) *int {
	if len(raw) == 0 {
		return nil
	}
	// SteamSpy returns either a number or a (possibly empty) string.
	var asInt int
	if err := json.Unmarshal(raw, &asInt); err == nil {
		return &asInt
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err != nil {
		return nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(asString))
	if err != nil {
		return nil
	}
	return &parsed
}

func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}
	var asInt int64
	if err := json.Unmarshal(raw, &asInt); err == nil {
		return strconv.FormatInt(asInt, 10)
	}
	return ""
}

func strPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
