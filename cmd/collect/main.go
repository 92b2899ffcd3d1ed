package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"gamedex/internal/client/steamspy"
	"gamedex/internal/client/steamstore"
	"gamedex/internal/collector"
	"gamedex/internal/config"
	"gamedex/internal/db"
	"gamedex/internal/export"
	"gamedex/internal/fetcher"
	"gamedex/internal/logger"
	"gamedex/internal/ratelimit"
	gormrepository "gamedex/internal/repository/gorm"
	"gamedex/internal/service"
)

// collect runs one pipeline pass and exits. With -direct it skips the
// database entirely: collector output accumulates in memory and the export
// artifact is projected straight from it.
func main() {
	var (
		cfgPath   = flag.String("config", "config/config.yaml", "config file path")
		scope     = flag.String("scope", "all", "collection scope (listing|details|export|all)")
		maxPages  = flag.Int("max-pages", -1, "listing page cap, overrides config (0 = until exhausted)")
		batchSize = flag.Int("batch-size", 0, "per-title batch size, overrides config")
		outPath   = flag.String("out", "", "export artifact path, overrides config")
		direct    = flag.Bool("direct", false, "run without a database, in memory")
		quiet     = flag.Bool("quiet", false, "suppress per-item progress output")
	)
	flag.Parse()

	envOnly := false
	if envOnlyRaw := os.Getenv("GD_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(*cfgPath, envOnly)
	if err != nil {
		panic(err)
	}
	// Direct runs never open the database, but they still fetch; batch and
	// rate-limit configuration must hold either way.
	if *direct {
		if err := cfg.ValidatePipeline(); err != nil {
			panic(err)
		}
	} else {
		if err := cfg.Validate(); err != nil {
			panic(err)
		}
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if *maxPages >= 0 {
		cfg.Collect.MaxPages = *maxPages
	}
	if *batchSize > 0 {
		cfg.Collect.BatchSize = *batchSize
	}
	if *outPath != "" {
		cfg.Collect.ExportPath = *outPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gate := ratelimit.NewGate(map[string]ratelimit.Limit{
		ratelimit.SteamWebAPI:   {MaxRequests: cfg.RateLimits.SteamWebAPI.MaxRequests, Window: cfg.RateLimits.SteamWebAPI.Window},
		ratelimit.SteamStoreAPI: {MaxRequests: cfg.RateLimits.SteamStoreAPI.MaxRequests, Window: cfg.RateLimits.SteamStoreAPI.Window},
		ratelimit.SteamSpyAPI:   {MaxRequests: cfg.RateLimits.SteamSpyAPI.MaxRequests, Window: cfg.RateLimits.SteamSpyAPI.Window},
		ratelimit.SteamSpyAll:   {MaxRequests: cfg.RateLimits.SteamSpyAll.MaxRequests, Window: cfg.RateLimits.SteamSpyAll.Window},
	})
	spyFetcher := fetcher.New(&http.Client{Timeout: cfg.SteamSpy.Timeout}, gate, cfg.Collect.MaxAttempts, log)
	storeFetcher := fetcher.New(&http.Client{Timeout: cfg.SteamStore.Timeout}, gate, cfg.Collect.MaxAttempts, log)
	spyClient := steamspy.NewClient(spyFetcher, cfg.SteamSpy.BaseURL)
	storeClient := steamstore.NewClient(storeFetcher, cfg.SteamStore.BaseURL)

	var progress collector.ProgressFunc
	var pageDone collector.PageProgressFunc
	if !*quiet {
		progress = func(p collector.Progress) {
			line := fmt.Sprintf("[%d/%d] %s: %s", p.Processed, p.Total, p.Name, p.Status)
			if len(p.TopTags) > 0 {
				line += " (" + strings.Join(p.TopTags, ", ") + ")"
			}
			fmt.Println(line)
		}
		pageDone = func(p collector.PageProgress) {
			fmt.Printf("page %d: %d games (%s)\n", p.Page, p.Games, p.Status)
		}
	}

	orchestrator := &collector.Orchestrator{
		Metadata: &collector.MetadataCollector{Client: spyClient, Logger: log},
		Logger:   log,
	}
	if cfg.Collect.Storefront {
		orchestrator.Storefront = &collector.StorefrontCollector{Client: storeClient, Logger: log}
	}

	if *direct {
		if err := runDirect(ctx, cfg, log, spyClient, orchestrator, progress, pageDone); err != nil {
			log.Fatal("direct collection failed", zap.Error(err))
		}
		return
	}

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)
	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		log.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		log.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)
	collectionService := &service.CollectionService{
		Store: store,
		Listing: &collector.ListingCollector{
			Client:     spyClient,
			Reconciler: &collector.Reconciler{Store: store, Logger: log},
			Logger:     log,
		},
		Orchestrator: orchestrator,
		Logger:       log,
	}

	result, err := collectionService.Run(ctx, service.RunOptions{
		Scope:       *scope,
		MaxPages:    cfg.Collect.MaxPages,
		BatchSize:   cfg.Collect.BatchSize,
		ExportPath:  cfg.Collect.ExportPath,
		ExportLimit: cfg.Discovery.MaxGames,
		Progress:    progress,
		PageDone:    pageDone,
	})
	if err != nil {
		log.Fatal("collection failed", zap.Error(err))
	}
	printSummary(result)
}

func runDirect(ctx context.Context, cfg config.Config, log *zap.Logger, spyClient *steamspy.Client, orchestrator *collector.Orchestrator, progress collector.ProgressFunc, pageDone collector.PageProgressFunc) error {
	sink := collector.NewMemorySink()

	listing := &collector.ListingCollector{
		Client:     spyClient,
		Reconciler: &collector.Reconciler{Store: sink, Logger: log},
		Logger:     log,
	}
	listingStats, err := listing.Collect(ctx, cfg.Collect.MaxPages, pageDone)
	if err != nil {
		return err
	}
	log.Info("listing collected",
		zap.Int("pages", listingStats.Pages),
		zap.Int("games", listingStats.Processed))

	games := sink.ActiveGames()
	results := orchestrator.Run(ctx, games, sink, cfg.Collect.BatchSize, progress)
	for _, batch := range results {
		if batch.Err != nil {
			return fmt.Errorf("batch %d: %w", batch.Index, batch.Err)
		}
	}

	allGames, metadata, storefronts := sink.Snapshot()
	records := export.FromSnapshot(allGames, metadata, storefronts, export.MillionPlusBuckets, cfg.Discovery.MaxGames)
	if err := export.WriteFile(cfg.Collect.ExportPath, records); err != nil {
		return err
	}
	log.Info("export written",
		zap.String("path", cfg.Collect.ExportPath),
		zap.Int("games", len(records)))
	return nil
}

func printSummary(result service.RunResult) {
	fmt.Printf("scope: %s (%s)\n", result.Scope, result.Duration)
	if result.Listing != nil {
		fmt.Printf("listing: %d pages, %d games (%d created, %d updated, %d deactivated)\n",
			result.Listing.Pages, result.Listing.Processed,
			result.Listing.Reconcile.Created, result.Listing.Reconcile.Updated, result.Listing.Reconcile.Deactivated)
	}
	if result.Metadata != nil {
		fmt.Printf("metadata: %d processed, %d success, %d failed, %d not found\n",
			result.Metadata.Processed, result.Metadata.Success, result.Metadata.Failed, result.Metadata.NotFound)
	}
	if result.Storefront != nil {
		fmt.Printf("storefront: %d processed, %d success, %d failed, %d not found\n",
			result.Storefront.Processed, result.Storefront.Success, result.Storefront.Failed, result.Storefront.NotFound)
	}
	if result.Exported > 0 || result.Scope == "export" || result.Scope == "all" {
		fmt.Printf("exported: %d games\n", result.Exported)
	}
}
