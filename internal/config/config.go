package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	CORSAllowedOrigins []string
	StatementCacheTTL  time.Duration
	RateLimitWindow    time.Duration
	RateLimitMax       int
	BodyLimitBytes     int64
	EnableHSTS         bool
	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool
	Currency          Currency
	Obs               Obs
}

// Currency configures the statement amount formatter.
type Currency struct {
	Locale  string
	Symbol  string
	Decimal string
}

// Obs groups logging, metrics and tracing settings.
type Obs struct {
	LogFormat         string
	LogLevel          string
	MetricsEnabled    bool
	MetricsNamespace  string
	MetricsBucketsMS  string
	TracingEnabled    bool
	TracingExporter   string
	OTLPEndpoint      string
	SamplingRatio     float64
	ReadyRedisTimeout time.Duration
}

var defaults = map[string]string{
	"APP_ENV":                       "development",
	"PORT":                          "8080",
	"STATEMENT_CACHE_TTL":           "10m",
	"RATE_LIMIT_WINDOW":             "1m",
	"RATE_LIMIT_MAX":                "120",
	"BODY_LIMIT_BYTES":              "1048576",
	"SECURITY_ENABLE_HSTS":          "false",
	"TRUST_PROXY_HEADERS":           "false",
	"CURRENCY_LOCALE":               "en-US",
	"CURRENCY_SYMBOL":               "$",
	"CURRENCY_DECIMAL":              ".",
	"OBS_LOG_FORMAT":                "json",
	"OBS_LOG_LEVEL":                 "info",
	"OBS_ENABLE_PROMETHEUS":         "true",
	"OBS_METRICS_NAMESPACE":         "theater",
	"OBS_ENABLE_TRACING":            "true",
	"OBS_TRACING_EXPORTER":          "otlp",
	"OBS_TRACING_SAMPLING_RATIO":    "1.0",
	"HEALTH_READY_REDIS_TIMEOUT_MS": "300",
}

// Load reads configuration from environment variables and optional .env files.
// Empty variables fall back to their defaults; malformed values are errors.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("set default %s: %w", key, err)
		}
	}
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil, koanf.WithMergeFunc(mergeNonEmpty)); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	p := &parser{k: k}
	cfg := &Config{
		AppEnv:             k.String("APP_ENV"),
		Port:               k.String("PORT"),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins: splitCSV(k.String("CORS_ALLOWED_ORIGINS")),
		StatementCacheTTL:  p.durationOf("STATEMENT_CACHE_TTL"),
		RateLimitWindow:    p.durationOf("RATE_LIMIT_WINDOW"),
		RateLimitMax:       p.intOf("RATE_LIMIT_MAX"),
		BodyLimitBytes:     int64(p.intOf("BODY_LIMIT_BYTES")),
		EnableHSTS:         p.boolOf("SECURITY_ENABLE_HSTS"),
		TrustProxyHeaders:  p.boolOf("TRUST_PROXY_HEADERS"),
		Currency: Currency{
			Locale:  k.String("CURRENCY_LOCALE"),
			Symbol:  k.String("CURRENCY_SYMBOL"),
			Decimal: k.String("CURRENCY_DECIMAL"),
		},
		Obs: Obs{
			LogFormat:         k.String("OBS_LOG_FORMAT"),
			LogLevel:          k.String("OBS_LOG_LEVEL"),
			MetricsEnabled:    p.boolOf("OBS_ENABLE_PROMETHEUS"),
			MetricsNamespace:  k.String("OBS_METRICS_NAMESPACE"),
			MetricsBucketsMS:  k.String("OBS_METRICS_BUCKETS_MS"),
			TracingEnabled:    p.boolOf("OBS_ENABLE_TRACING"),
			TracingExporter:   k.String("OBS_TRACING_EXPORTER"),
			OTLPEndpoint:      k.String("OBS_OTLP_ENDPOINT"),
			SamplingRatio:     p.floatOf("OBS_TRACING_SAMPLING_RATIO"),
			ReadyRedisTimeout: time.Duration(p.intOf("HEALTH_READY_REDIS_TIMEOUT_MS")) * time.Millisecond,
		},
	}
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parser reads typed values from koanf, recording malformed ones instead of
// letting them collapse to zero.
type parser struct {
	k    *koanf.Koanf
	errs []error
}

func (p *parser) raw(key string) string {
	return strings.TrimSpace(p.k.String(key))
}

func (p *parser) fail(key, kind, raw string) {
	p.errs = append(p.errs, fmt.Errorf("%s: invalid %s %q", key, kind, raw))
}

func (p *parser) durationOf(key string) time.Duration {
	raw := p.raw(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, "duration", raw)
	}
	return d
}

func (p *parser) intOf(key string) int {
	raw := p.raw(key)
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, "integer", raw)
	}
	return n
}

func (p *parser) floatOf(key string) float64 {
	raw := p.raw(key)
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(key, "number", raw)
	}
	return f
}

func (p *parser) boolOf(key string) bool {
	raw := p.raw(key)
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, "boolean", raw)
	}
	return b
}

func (c *Config) validate() error {
	var errs []error
	if c.StatementCacheTTL < 0 {
		errs = append(errs, errors.New("STATEMENT_CACHE_TTL must not be negative"))
	}
	if c.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be a positive duration"))
	}
	if c.RateLimitMax < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX must not be negative"))
	}
	if c.BodyLimitBytes < 0 {
		errs = append(errs, errors.New("BODY_LIMIT_BYTES must not be negative"))
	}
	return errors.Join(errs...)
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// CacheEnabled reports whether statements are cached in Redis.
func (c *Config) CacheEnabled() bool {
	return c.RedisURL != "" && c.StatementCacheTTL > 0
}

// mergeNonEmpty overlays src on dest, skipping blank environment values.
func mergeNonEmpty(src, dest map[string]any) error {
	for key, value := range src {
		if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		dest[key] = value
	}
	return nil
}

func splitCSV(value string) []string {
	var result []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// MustLoad behaves like Load but panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
