package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	DB         DBConfig         `mapstructure:"db"`
	Cron       CronConfig       `mapstructure:"cron"`
	SteamSpy   SteamSpyConfig   `mapstructure:"steamspy"`
	SteamStore SteamStoreConfig `mapstructure:"steam_store"`
	SteamWeb   SteamWebConfig   `mapstructure:"steam_web"`
	RateLimits RateLimitsConfig `mapstructure:"rate_limits"`
	Collect    CollectConfig    `mapstructure:"collect"`
	Discovery  DiscoveryConfig  `mapstructure:"discovery"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Collect string `mapstructure:"collect"`
}

type SteamSpyConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SteamStoreConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SteamWebConfig covers the official Steam Web API. An empty APIKey leaves
// the player lookup proxy unconfigured; nothing else needs the key.
type SteamWebConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RateLimit is one (max requests, window) admission pair for an upstream
// endpoint.
type RateLimit struct {
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

type RateLimitsConfig struct {
	SteamWebAPI   RateLimit `mapstructure:"steam_web_api"`
	SteamStoreAPI RateLimit `mapstructure:"steam_store_api"`
	SteamSpyAPI   RateLimit `mapstructure:"steamspy_api"`
	SteamSpyAll   RateLimit `mapstructure:"steamspy_all_api"`
}

type CollectConfig struct {
	MaxPages     int    `mapstructure:"max_pages"`
	BatchSize    int    `mapstructure:"batch_size"`
	MaxAttempts  int    `mapstructure:"max_attempts"`
	Storefront   bool   `mapstructure:"storefront"`
	ExportPath   string `mapstructure:"export_path"`
	ExportOnCron bool   `mapstructure:"export_on_cron"`
}

type DiscoveryConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	MaxGames int           `mapstructure:"max_games"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.collect", "@every 24h")
	v.SetDefault("steamspy.base_url", "https://steamspy.com")
	v.SetDefault("steamspy.timeout", "30s")
	v.SetDefault("steam_store.base_url", "https://store.steampowered.com")
	v.SetDefault("steam_store.timeout", "30s")
	v.SetDefault("steam_web.base_url", "https://api.steampowered.com")
	v.SetDefault("steam_web.api_key", "")
	v.SetDefault("steam_web.timeout", "30s")
	v.SetDefault("rate_limits.steam_web_api.max_requests", 100000)
	v.SetDefault("rate_limits.steam_web_api.window", "24h")
	v.SetDefault("rate_limits.steam_store_api.max_requests", 200)
	v.SetDefault("rate_limits.steam_store_api.window", "5m")
	v.SetDefault("rate_limits.steamspy_api.max_requests", 60)
	v.SetDefault("rate_limits.steamspy_api.window", "1m")
	v.SetDefault("rate_limits.steamspy_all_api.max_requests", 1)
	v.SetDefault("rate_limits.steamspy_all_api.window", "1m")
	v.SetDefault("collect.max_pages", 0)
	v.SetDefault("collect.batch_size", 50)
	v.SetDefault("collect.max_attempts", 3)
	v.SetDefault("collect.storefront", true)
	v.SetDefault("collect.export_path", "master.json")
	v.SetDefault("collect.export_on_cron", true)
	v.SetDefault("discovery.cache_ttl", "5m")
	v.SetDefault("discovery.max_games", 1000)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate catches configuration errors up front, before any fetching begins.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DB.DSN) == "" {
		return fmt.Errorf("db.dsn is required")
	}
	return c.ValidatePipeline()
}

// ValidatePipeline checks everything the collection pipeline needs except
// the database. Runs that never touch the store still must not hit the
// upstreams with a broken batch size or an unenforceable rate limit.
func (c Config) ValidatePipeline() error {
	if c.Collect.BatchSize <= 0 {
		return fmt.Errorf("collect.batch_size must be positive")
	}
	for name, rl := range map[string]RateLimit{
		"steam_web_api":    c.RateLimits.SteamWebAPI,
		"steam_store_api":  c.RateLimits.SteamStoreAPI,
		"steamspy_api":     c.RateLimits.SteamSpyAPI,
		"steamspy_all_api": c.RateLimits.SteamSpyAll,
	} {
		if rl.MaxRequests <= 0 || rl.Window <= 0 {
			return fmt.Errorf("rate_limits.%s: max_requests and window must be positive", name)
		}
	}
	return nil
}
