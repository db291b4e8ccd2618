package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-theater/internal/config"
	"github.com/noah-isme/backend-theater/internal/currency"
	"github.com/noah-isme/backend-theater/internal/health"
	"github.com/noah-isme/backend-theater/internal/obs"
	"github.com/noah-isme/backend-theater/internal/ratelimit"
	"github.com/noah-isme/backend-theater/internal/security"
	"github.com/noah-isme/backend-theater/internal/statement"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("api exited")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	tracing := cfg.Obs.TracingEnabled
	if tracing {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   "theater-api",
			Environment:   cfg.AppEnv,
			Exporter:      cfg.Obs.TracingExporter,
			Endpoint:      cfg.Obs.OTLPEndpoint,
			SamplingRatio: cfg.Obs.SamplingRatio,
		})
		if err != nil {
			logger.Error().Err(err).Msg("tracing disabled")
			tracing = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	formatter, err := currency.New(cfg.Currency.Locale, cfg.Currency.Symbol, cfg.Currency.Decimal)
	if err != nil {
		return fmt.Errorf("configure currency: %w", err)
	}

	deps := routerDeps{
		cfg:     cfg,
		logger:  logger,
		tracing: tracing,
		limiter: ratelimit.NewMemoryLimiter(),
		probes:  map[string]health.Probe{},
	}
	if cfg.Obs.MetricsEnabled {
		deps.httpMetrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.MetricsBucketsMS), nil)
		deps.statementMetrics = obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)
	}

	var cache *statement.Cache
	if cfg.RedisURL != "" {
		client, err := openRedis(ctx, cfg, tracing)
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
		deps.limiter = ratelimit.RedisLimiter{Client: client, Prefix: "ratelimit:statements:"}
		deps.probes["redis"] = health.RedisProbe(client)
		if cfg.CacheEnabled() {
			cache = statement.NewCache(client, cfg.StatementCacheTTL)
		}
	} else {
		logger.Warn().Msg("REDIS_URL not set; statement cache disabled, rate limiting in-process")
	}

	deps.statements = &statement.Service{
		Cache:     cache,
		Formatter: formatter,
		Metrics:   deps.statementMetrics,
		Logger:    logger.With().Str("component", "statement").Logger(),
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func openRedis(ctx context.Context, cfg *config.Config, tracing bool) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if tracing {
		if err := redisotel.InstrumentTracing(client); err != nil {
			return nil, fmt.Errorf("instrument redis tracing: %w", err)
		}
	}
	if cfg.Obs.MetricsEnabled {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			return nil, fmt.Errorf("instrument redis metrics: %w", err)
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

type routerDeps struct {
	cfg              *config.Config
	logger           zerolog.Logger
	tracing          bool
	httpMetrics      *obs.HTTPMetrics
	statementMetrics *obs.StatementMetrics
	limiter          ratelimit.Allower
	probes           map[string]health.Probe
	statements       *statement.Service
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if d.cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	if d.tracing {
		r.Use(obs.TracingMiddleware)
	}
	r.Use(obs.HTTPObs{Metrics: d.httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: d.logger}.Middleware)
	r.Use(security.Headers{EnableHSTS: d.cfg.EnableHSTS}.Middleware)
	r.Use(cors.Handler(corsOptions(d.cfg.CORSAllowedOrigins)))

	if d.httpMetrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}

	hh := health.Handler{Probes: d.probes, Timeout: d.cfg.Obs.ReadyRedisTimeout}
	r.Get("/health/live", hh.Live)
	r.Get("/health/ready", hh.Ready)

	limit := ratelimit.Handler{
		Limiter: d.limiter,
		Rate:    ratelimit.Rate{Window: d.cfg.RateLimitWindow, Limit: d.cfg.RateLimitMax},
		Key:     ratelimit.ByClientIP,
		OnError: func(err error) {
			d.logger.Error().Err(err).Msg("rate limiter unavailable")
		},
	}
	statements := statement.NewHandler(d.statements)
	r.Route("/api/v1", func(v chi.Router) {
		v.With(limit.Middleware, security.BodyLimit{Max: d.cfg.BodyLimitBytes}.Middleware).
			Post("/statements", statements.Create)
	})
	return r
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id", "Traceparent"},
		ExposedHeaders: []string{"X-Cache", "X-Request-Id", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}
}
