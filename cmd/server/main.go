package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"gamedex/internal/client/steamspy"
	"gamedex/internal/client/steamstore"
	"gamedex/internal/client/steamweb"
	"gamedex/internal/collector"
	"gamedex/internal/config"
	cronrunner "gamedex/internal/cron"
	"gamedex/internal/db"
	"gamedex/internal/fetcher"
	"gamedex/internal/handler"
	"gamedex/internal/logger"
	"gamedex/internal/ratelimit"
	gormrepository "gamedex/internal/repository/gorm"
	"gamedex/internal/service"

	_ "gamedex/docs"
)

func main() {
	cfgPath := os.Getenv("GD_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("GD_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	gate := ratelimit.NewGate(map[string]ratelimit.Limit{
		ratelimit.SteamWebAPI:   {MaxRequests: cfg.RateLimits.SteamWebAPI.MaxRequests, Window: cfg.RateLimits.SteamWebAPI.Window},
		ratelimit.SteamStoreAPI: {MaxRequests: cfg.RateLimits.SteamStoreAPI.MaxRequests, Window: cfg.RateLimits.SteamStoreAPI.Window},
		ratelimit.SteamSpyAPI:   {MaxRequests: cfg.RateLimits.SteamSpyAPI.MaxRequests, Window: cfg.RateLimits.SteamSpyAPI.Window},
		ratelimit.SteamSpyAll:   {MaxRequests: cfg.RateLimits.SteamSpyAll.MaxRequests, Window: cfg.RateLimits.SteamSpyAll.Window},
	})

	spyFetcher := fetcher.New(&http.Client{Timeout: cfg.SteamSpy.Timeout}, gate, cfg.Collect.MaxAttempts, logger)
	storeFetcher := fetcher.New(&http.Client{Timeout: cfg.SteamStore.Timeout}, gate, cfg.Collect.MaxAttempts, logger)
	spyClient := steamspy.NewClient(spyFetcher, cfg.SteamSpy.BaseURL)
	storeClient := steamstore.NewClient(storeFetcher, cfg.SteamStore.BaseURL)

	var steamwebClient *steamweb.Client
	if cfg.SteamWeb.APIKey != "" {
		webFetcher := fetcher.New(&http.Client{Timeout: cfg.SteamWeb.Timeout}, gate, cfg.Collect.MaxAttempts, logger)
		steamwebClient = steamweb.NewClient(webFetcher, cfg.SteamWeb.BaseURL, cfg.SteamWeb.APIKey)
	} else {
		logger.Info("steam web api key not set, player lookup disabled")
	}

	store := gormrepository.New(dbConn.Gorm)

	orchestrator := &collector.Orchestrator{
		Metadata: &collector.MetadataCollector{Client: spyClient, Logger: logger},
		Logger:   logger,
	}
	if cfg.Collect.Storefront {
		orchestrator.Storefront = &collector.StorefrontCollector{Client: storeClient, Logger: logger}
	}
	collectionService := &service.CollectionService{
		Store: store,
		Listing: &collector.ListingCollector{
			Client:     spyClient,
			Reconciler: &collector.Reconciler{Store: store, Logger: logger},
			Logger:     logger,
		},
		Orchestrator: orchestrator,
		Logger:       logger,
	}
	discoveryService := &service.DiscoveryService{
		Collection: collectionService,
		CacheTTL:   cfg.Discovery.CacheTTL,
		MaxGames:   cfg.Discovery.MaxGames,
		Logger:     logger,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn}
	healthHandler.Register(engine)
	catalogHandler := &handler.CatalogHandler{
		Service:   collectionService,
		Discovery: discoveryService,
		Logger:    logger,
	}
	catalogHandler.Register(engine)
	discoveryHandler := &handler.DiscoveryHandler{Service: discoveryService, Logger: logger}
	discoveryHandler.Register(engine)
	steamHandler := &handler.SteamHandler{Client: steamwebClient, Logger: logger}
	steamHandler.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		_, err = cronRunner.Add(cfg.Cron.Collect, func(ctx context.Context) {
			exportPath := ""
			if cfg.Collect.ExportOnCron {
				exportPath = cfg.Collect.ExportPath
			}
			result, err := collectionService.Run(ctx, service.RunOptions{
				Scope:       "all",
				MaxPages:    cfg.Collect.MaxPages,
				BatchSize:   cfg.Collect.BatchSize,
				ExportPath:  exportPath,
				ExportLimit: cfg.Discovery.MaxGames,
			})
			if err != nil {
				logger.Warn("cron collection failed", zap.Error(err))
				return
			}
			discoveryService.Invalidate()
			logger.Info("cron collection ok",
				zap.Int("exported", result.Exported),
				zap.String("duration", result.Duration))
		})
		if err != nil {
			logger.Warn("cron register collection failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
