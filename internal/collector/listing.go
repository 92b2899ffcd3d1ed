package collector

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"gamedex/internal/client/steamspy"
	"gamedex/internal/models"
)

// ListingCollector pulls the popularity-sorted SteamSpy listing page by
// page and reconciles each page into the store. Pagination is strictly
// sequential: the /all endpoint carries the tightest rate limit in the
// system (one request per minute).
type ListingCollector struct {
	Client     *steamspy.Client
	Reconciler *Reconciler
	Logger     *zap.Logger
}

type ListingStats struct {
	Pages     int            `json:"pages"`
	Processed int            `json:"processed"`
	Reconcile ReconcileStats `json:"reconcile"`
}

type listingEntry struct {
	AppID int64  `json:"appid"`
	Name  string `json:"name"`
}

// Collect paginates until an empty page or maxPages (0 = unlimited).
func (c *ListingCollector) Collect(ctx context.Context, maxPages int, progress PageProgressFunc) (ListingStats, error) {
	var stats ListingStats

	for page := 0; ; page++ {
		if maxPages > 0 && page >= maxPages {
			break
		}

		entries, err := c.Client.AllPage(ctx, page)
		if err != nil {
			if c.Logger != nil {
				c.Logger.Error("listing page fetch failed", zap.Int("page", page), zap.Error(err))
			}
			if progress != nil {
				progress(PageProgress{Page: page, Status: "failed"})
			}
			return stats, err
		}
		if len(entries) == 0 {
			if c.Logger != nil {
				c.Logger.Info("listing exhausted", zap.Int("page", page))
			}
			break
		}

		games := c.parsePage(entries)
		if len(games) == 0 {
			break
		}

		// Deactivation sweeps only run against page 0. A title that
		// legitimately lives on a later page of the current run is
		// still marked active again when its page arrives, but between
		// those two points it reads as inactive. Known limitation.
		deactivateMissing := page == 0
		result, err := c.Reconciler.Reconcile(ctx, games, deactivateMissing)
		if err != nil {
			return stats, err
		}

		stats.Pages++
		stats.Processed += len(games)
		stats.Reconcile.add(result)

		if progress != nil {
			progress(PageProgress{Page: page, Games: len(games), Status: "success"})
		}
		if c.Logger != nil {
			c.Logger.Info("listing page reconciled",
				zap.Int("page", page),
				zap.Int("games", len(games)),
				zap.Int("created", result.Created),
				zap.Int("updated", result.Updated),
				zap.Int("deactivated", result.Deactivated))
		}
	}

	return stats, nil
}

// parsePage converts one listing page into games, skipping entries that
// are missing an id or a name. A bad entry never aborts the page.
func (c *ListingCollector) parsePage(entries map[string]json.RawMessage) []models.Game {
	games := make([]models.Game, 0, len(entries))
	for key, raw := range entries {
		var entry listingEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			if c.Logger != nil {
				c.Logger.Warn("skipping malformed listing entry", zap.String("key", key), zap.Error(err))
			}
			continue
		}
		if entry.AppID == 0 || entry.Name == "" {
			if c.Logger != nil {
				c.Logger.Warn("skipping listing entry with missing fields", zap.String("key", key))
			}
			continue
		}
		games = append(games, models.Game{
			AppID:    entry.AppID,
			Name:     entry.Name,
			IsActive: true,
		})
	}
	return games
}
