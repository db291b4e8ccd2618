package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"APP_ENV", "PORT", "REDIS_URL", "CORS_ALLOWED_ORIGINS", "STATEMENT_CACHE_TTL",
	"RATE_LIMIT_WINDOW", "RATE_LIMIT_MAX", "BODY_LIMIT_BYTES", "SECURITY_ENABLE_HSTS", "TRUST_PROXY_HEADERS",
	"CURRENCY_LOCALE", "CURRENCY_SYMBOL", "CURRENCY_DECIMAL",
	"OBS_LOG_FORMAT", "OBS_LOG_LEVEL", "OBS_ENABLE_PROMETHEUS", "OBS_METRICS_NAMESPACE",
	"OBS_METRICS_BUCKETS_MS", "OBS_ENABLE_TRACING", "OBS_TRACING_EXPORTER",
	"OBS_OTLP_ENDPOINT", "OBS_TRACING_SAMPLING_RATIO", "HEALTH_READY_REDIS_TIMEOUT_MS",
}

func setEnv(t *testing.T, values map[string]string) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, values[key])
	}
}

func TestLoadDefaults(t *testing.T) {
	setEnv(t, nil)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, 10*time.Minute, cfg.StatementCacheTTL)
	require.Equal(t, time.Minute, cfg.RateLimitWindow)
	require.Equal(t, 120, cfg.RateLimitMax)
	require.Equal(t, int64(1<<20), cfg.BodyLimitBytes)
	require.False(t, cfg.EnableHSTS)
	require.False(t, cfg.TrustProxyHeaders)
	require.False(t, cfg.CacheEnabled())
	require.Equal(t, Currency{Locale: "en-US", Symbol: "$", Decimal: "."}, cfg.Currency)
	require.Equal(t, "json", cfg.Obs.LogFormat)
	require.True(t, cfg.Obs.MetricsEnabled)
	require.Equal(t, "theater", cfg.Obs.MetricsNamespace)
	require.Equal(t, "otlp", cfg.Obs.TracingExporter)
	require.InDelta(t, 1.0, cfg.Obs.SamplingRatio, 1e-9)
	require.Equal(t, 300*time.Millisecond, cfg.Obs.ReadyRedisTimeout)
}

func TestLoadOverrides(t *testing.T) {
	setEnv(t, map[string]string{
		"PORT":                       ":9090",
		"REDIS_URL":                  "redis://localhost:6379/0",
		"CORS_ALLOWED_ORIGINS":       "https://a.example, ,https://b.example",
		"STATEMENT_CACHE_TTL":        "30s",
		"RATE_LIMIT_MAX":             "0",
		"BODY_LIMIT_BYTES":           "2048",
		"SECURITY_ENABLE_HSTS":       "true",
		"TRUST_PROXY_HEADERS":        "true",
		"CURRENCY_LOCALE":            "de-DE",
		"CURRENCY_SYMBOL":            "€",
		"CURRENCY_DECIMAL":           ",",
		"OBS_ENABLE_TRACING":         "false",
		"OBS_TRACING_SAMPLING_RATIO": "0.25",
		"OBS_METRICS_BUCKETS_MS":     "5,10,50",
	})

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.Equal(t, 30*time.Second, cfg.StatementCacheTTL)
	require.Zero(t, cfg.RateLimitMax)
	require.True(t, cfg.CacheEnabled())
	require.Equal(t, int64(2048), cfg.BodyLimitBytes)
	require.True(t, cfg.EnableHSTS)
	require.True(t, cfg.TrustProxyHeaders)
	require.Equal(t, Currency{Locale: "de-DE", Symbol: "€", Decimal: ","}, cfg.Currency)
	require.False(t, cfg.Obs.TracingEnabled)
	require.InDelta(t, 0.25, cfg.Obs.SamplingRatio, 1e-9)
	require.Equal(t, "5,10,50", cfg.Obs.MetricsBucketsMS)
}

func TestLoadZeroTTLDisablesCache(t *testing.T) {
	setEnv(t, map[string]string{
		"REDIS_URL":           "redis://localhost:6379/0",
		"STATEMENT_CACHE_TTL": "0s",
	})

	cfg, err := Load()
	require.NoError(t, err)
	require.False(t, cfg.CacheEnabled())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"negative max":   {"RATE_LIMIT_MAX": "-3"},
		"bad window":     {"RATE_LIMIT_WINDOW": "soon"},
		"negative ttl":   {"STATEMENT_CACHE_TTL": "-1m"},
		"negative limit": {"BODY_LIMIT_BYTES": "-1"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setEnv(t, env)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestHTTPAddrKeepsLeadingColon(t *testing.T) {
	require.Equal(t, ":3000", (&Config{Port: ":3000"}).HTTPAddr())
	require.Equal(t, ":3000", (&Config{Port: " 3000 "}).HTTPAddr())
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	cases := map[string]map[string]string{
		"cache ttl":      {"STATEMENT_CACHE_TTL": "10x"},
		"rate limit max": {"RATE_LIMIT_MAX": "lots"},
		"body limit":     {"BODY_LIMIT_BYTES": "1MB"},
		"hsts flag":      {"SECURITY_ENABLE_HSTS": "sometimes"},
		"sampling ratio": {"OBS_TRACING_SAMPLING_RATIO": "half"},
		"ready timeout":  {"HEALTH_READY_REDIS_TIMEOUT_MS": "300ms"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setEnv(t, env)
			cfg, err := Load()
			require.Error(t, err)
			require.Nil(t, cfg)
			for key := range env {
				require.ErrorContains(t, err, key)
			}
		})
	}
}

func TestLoadReportsEveryMalformedValue(t *testing.T) {
	setEnv(t, map[string]string{
		"STATEMENT_CACHE_TTL": "10x",
		"RATE_LIMIT_MAX":      "lots",
	})
	_, err := Load()
	require.ErrorContains(t, err, `STATEMENT_CACHE_TTL: invalid duration "10x"`)
	require.ErrorContains(t, err, `RATE_LIMIT_MAX: invalid integer "lots"`)
}
