package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"gamedex/internal/collector"
	"gamedex/internal/export"
	"gamedex/internal/models"
	"gamedex/internal/repository"
)

// CollectionService drives one full pipeline pass: listing reconciliation,
// per-title collection fanned out in batches, then the export projection.
// Scopes can also run individually.
type CollectionService struct {
	Store        repository.Store
	Listing      *collector.ListingCollector
	Orchestrator *collector.Orchestrator
	Logger       *zap.Logger
}

type RunOptions struct {
	Scope       string
	MaxPages    int
	BatchSize   int
	ExportPath  string
	ExportLimit int
	Progress    collector.ProgressFunc
	PageDone    collector.PageProgressFunc
}

type RunResult struct {
	Scope      string                  `json:"scope"`
	Listing    *collector.ListingStats `json:"listing,omitempty"`
	Metadata   *collector.Stats        `json:"metadata,omitempty"`
	Storefront *collector.Stats        `json:"storefront,omitempty"`
	Batches    int                     `json:"batches"`
	Exported   int                     `json:"exported"`
	Duration   string                  `json:"duration"`
}

// Run executes the requested scope. "all" chains listing, details and
// export; a fetch failure in one scope stops the chain so the run state
// records where it broke.
func (s *CollectionService) Run(ctx context.Context, opts RunOptions) (RunResult, error) {
	started := time.Now()
	scope := strings.ToLower(strings.TrimSpace(opts.Scope))
	if scope == "" {
		scope = "all"
	}
	result := RunResult{Scope: scope}

	var err error
	switch scope {
	case "listing":
		err = s.runListing(ctx, opts, &result)
	case "details":
		err = s.runDetails(ctx, opts, &result)
	case "export":
		err = s.runExport(ctx, opts, &result)
	case "all":
		if err = s.runListing(ctx, opts, &result); err == nil {
			if err = s.runDetails(ctx, opts, &result); err == nil {
				err = s.runExport(ctx, opts, &result)
			}
		}
	default:
		return result, fmt.Errorf("unsupported scope: %s", scope)
	}

	result.Duration = time.Since(started).Round(time.Millisecond).String()
	if err != nil {
		return result, err
	}
	if s.Logger != nil {
		s.Logger.Info("collection run finished",
			zap.String("scope", scope),
			zap.String("duration", result.Duration))
	}
	return result, nil
}

func (s *CollectionService) runListing(ctx context.Context, opts RunOptions, result *RunResult) error {
	stats, err := s.Listing.Collect(ctx, opts.MaxPages, opts.PageDone)
	result.Listing = &stats
	if err != nil {
		s.writeRunError(ctx, "listing", err)
		return err
	}
	s.writeRunSuccess(ctx, "listing", map[string]int{
		"pages":       stats.Pages,
		"processed":   stats.Processed,
		"created":     stats.Reconcile.Created,
		"updated":     stats.Reconcile.Updated,
		"deactivated": stats.Reconcile.Deactivated,
	})
	return nil
}

func (s *CollectionService) runDetails(ctx context.Context, opts RunOptions, result *RunResult) error {
	games, err := s.Store.ListActiveGames(ctx)
	if err != nil {
		s.writeRunError(ctx, "details", err)
		return err
	}

	batches := s.Orchestrator.Run(ctx, games, s.Store, opts.BatchSize, opts.Progress)
	result.Batches = len(batches)

	var metadata collector.Stats
	var storefront collector.Stats
	var haveStorefront bool
	var firstErr error
	for _, batch := range batches {
		metadata.Processed += batch.Metadata.Processed
		metadata.Success += batch.Metadata.Success
		metadata.Failed += batch.Metadata.Failed
		metadata.NotFound += batch.Metadata.NotFound
		if batch.Storefront != nil {
			haveStorefront = true
			storefront.Processed += batch.Storefront.Processed
			storefront.Success += batch.Storefront.Success
			storefront.Failed += batch.Storefront.Failed
			storefront.NotFound += batch.Storefront.NotFound
		}
		if batch.Err != nil && firstErr == nil {
			firstErr = fmt.Errorf("batch %d: %w", batch.Index, batch.Err)
		}
	}
	result.Metadata = &metadata
	if haveStorefront {
		result.Storefront = &storefront
	}

	// Per-item failures are already absorbed into failed/not_found
	// records; an error at this level means the store itself broke.
	if firstErr != nil {
		s.writeRunError(ctx, "details", firstErr)
		return firstErr
	}
	s.writeRunSuccess(ctx, "details", map[string]int{
		"games":               len(games),
		"batches":             len(batches),
		"metadata_success":    metadata.Success,
		"metadata_failed":     metadata.Failed,
		"metadata_not_found":  metadata.NotFound,
		"storefront_success":  storefront.Success,
		"storefront_failed":   storefront.Failed,
		"storefront_notfound": storefront.NotFound,
	})
	return nil
}

func (s *CollectionService) runExport(ctx context.Context, opts RunOptions, result *RunResult) error {
	records, err := s.ProjectExport(ctx, opts.ExportLimit)
	if err != nil {
		s.writeRunError(ctx, "export", err)
		return err
	}
	result.Exported = len(records)

	if opts.ExportPath != "" {
		if err := export.WriteFile(opts.ExportPath, records); err != nil {
			s.writeRunError(ctx, "export", err)
			return err
		}
		if s.Logger != nil {
			s.Logger.Info("export written",
				zap.String("path", opts.ExportPath),
				zap.Int("games", len(records)))
		}
	}
	s.writeRunSuccess(ctx, "export", map[string]int{"games": len(records)})
	return nil
}

// ProjectExport builds the export records from the store without writing
// the artifact. The discovery read layer shares this query.
func (s *CollectionService) ProjectExport(ctx context.Context, limit int) ([]export.GameRecord, error) {
	if limit <= 0 {
		limit = export.DefaultLimit
	}
	games, err := s.Store.ListExportGames(ctx, export.MillionPlusBuckets, limit)
	if err != nil {
		return nil, err
	}
	return export.Project(games), nil
}

func (s *CollectionService) writeRunError(ctx context.Context, scope string, err error) {
	if s.Logger != nil {
		s.Logger.Warn("collection scope failed", zap.String("scope", scope), zap.Error(err))
	}
	now := time.Now().UTC()
	_ = s.Store.SaveCollectionRun(ctx, &models.CollectionRun{
		Scope:         scope,
		LastAttemptAt: &now,
		LastError:     errPtr(err),
	})
}

func (s *CollectionService) writeRunSuccess(ctx context.Context, scope string, stats map[string]int) {
	now := time.Now().UTC()
	_ = s.Store.SaveCollectionRun(ctx, &models.CollectionRun{
		Scope:         scope,
		LastAttemptAt: &now,
		LastSuccessAt: &now,
		StatsJSON:     statsJSON(stats),
	})
}

func statsJSON(stats map[string]int) datatypes.JSON {
	if len(stats) == 0 {
		return datatypes.JSON([]byte("null"))
	}
	payload, err := json.Marshal(stats)
	if err != nil {
		return datatypes.JSON([]byte("null"))
	}
	return datatypes.JSON(payload)
}

func errPtr(err error) *string {
	if err == nil {
		return nil
	}
	msg := err.Error()
	return &msg
}
