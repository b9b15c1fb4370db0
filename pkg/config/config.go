package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "medikart"

	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	// apiPathPrefix is the path the server mounts the JSON API under.
	apiPathPrefix = "/api"

	// localDevBaseURL is where the API runs when nothing is configured.
	localDevBaseURL = "http://localhost:5000"
)

type Config struct {
	App     AppConfig
	API     APIConfig
	Cache   CacheConfig
	History HistoryConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.API.resolveBaseURL(cfg.App)
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MEDIKART_APP_ENV" default:"development"`
	LogLevel     string `envconfig:"MEDIKART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MEDIKART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type APIConfig struct {
	// URL is the preferred override: scheme+host only, no API path suffix.
	URL string `envconfig:"MEDIKART_API_URL"`
	// LegacyBaseURL is honored verbatim and already includes the API path.
	LegacyBaseURL string `envconfig:"MEDIKART_API_BASE_URL"`

	Timeout time.Duration `envconfig:"MEDIKART_API_TIMEOUT" default:"30s"`

	// PageOrigin is the origin asset URLs fall back to when the resolved
	// base URL is relative (same-origin deployments behind a proxy).
	PageOrigin string `envconfig:"MEDIKART_PAGE_ORIGIN"`

	baseURL string
}

// resolveBaseURL applies the override precedence exactly once, at Load time.
// Resolution never fails: the worst case is the local development default.
func (a *APIConfig) resolveBaseURL(app AppConfig) {
	switch {
	case a.LegacyBaseURL != "":
		a.baseURL = a.LegacyBaseURL
	case a.URL != "":
		a.baseURL = strings.TrimSuffix(a.URL, "/") + apiPathPrefix
	case app.IsProd():
		a.baseURL = apiPathPrefix
	default:
		a.baseURL = localDevBaseURL + apiPathPrefix
	}
}

// BaseURL returns the resolved API base URL, including the API path prefix.
func (a APIConfig) BaseURL() string {
	return a.baseURL
}

// ServerOrigin derives the origin serving uploaded assets: the base URL with
// a trailing API path prefix stripped. A relative base yields the configured
// page origin instead.
func (a APIConfig) ServerOrigin() string {
	return ServerOrigin(a.baseURL, a.PageOrigin)
}

// ServerOrigin strips a trailing API path prefix from baseURL, falling back
// to pageOrigin when nothing remains.
func ServerOrigin(baseURL, pageOrigin string) string {
	origin := strings.TrimSuffix(baseURL, "/")
	origin = strings.TrimSuffix(origin, apiPathPrefix)
	if origin == "" {
		return pageOrigin
	}
	return origin
}

type CacheConfig struct {
	// Freshness is the window within which a settled query is served from
	// cache without refetching.
	Freshness time.Duration `envconfig:"MEDIKART_CACHE_FRESHNESS" default:"60s"`
}

// HistoryConfig carries the tuning knobs of the history fallback pipeline.
// The defaults mirror the production frontend; none of them are load-bearing.
type HistoryConfig struct {
	RecentOrdersLimit       int `envconfig:"MEDIKART_RECENT_ORDERS_LIMIT" default:"5"`
	RecentItemsCap          int `envconfig:"MEDIKART_RECENT_ITEMS_CAP" default:"4"`
	RecommendationPoolLimit int `envconfig:"MEDIKART_RECOMMENDATION_POOL_LIMIT" default:"50"`
	RecommendationCap       int `envconfig:"MEDIKART_RECOMMENDATION_CAP" default:"8"`
}
