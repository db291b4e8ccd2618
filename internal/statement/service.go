package statement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/backend-theater/internal/common"
	"github.com/noah-isme/backend-theater/internal/currency"
	"github.com/noah-isme/backend-theater/internal/obs"
	"github.com/noah-isme/backend-theater/internal/theater"
)

// Result is a generated statement plus its rendered text.
type Result struct {
	ID        string
	Statement Statement
	Text      string
	Cached    bool
}

// Service wraps the engine with caching, metrics, tracing and logging.
type Service struct {
	Cache     *Cache
	Formatter currency.Formatter
	Metrics   *obs.StatementMetrics
	Logger    zerolog.Logger
	Now       func() time.Time
}

// Generate prices the invoice and renders it. Engine errors are returned wrapped and
// never produce a partial result.
func (s *Service) Generate(ctx context.Context, invoice theater.Invoice, plays theater.Plays) (Result, error) {
	ctx, span := otel.Tracer("statement").Start(ctx, "statement.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("statement.customer", invoice.Customer),
		attribute.Int("statement.performances", len(invoice.Performances)),
	)
	start := s.now()

	key, err := s.cacheKey(invoice, plays)
	if err != nil {
		s.Logger.Error().Err(err).Msg("compute statement cache key")
	}

	if key != "" {
		cached, hit, err := s.Cache.get(ctx, key)
		if err != nil {
			s.Logger.Error().Err(err).Str("customer", invoice.Customer).Msg("read statement cache")
		}
		if hit {
			span.SetAttributes(attribute.Bool("statement.cached", true))
			s.Metrics.Observe(obs.StatementResultCached, s.now().Sub(start), 0)
			return Result{ID: uuid.NewString(), Statement: cached.Statement, Text: cached.Text, Cached: true}, nil
		}
	}

	engine := New(invoice, plays, s.Formatter)
	st, err := engine.Statement()
	if err != nil {
		kind := errorKind(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		s.Metrics.Observe(kind, s.now().Sub(start), 0)
		s.Logger.Warn().Err(err).Str("customer", invoice.Customer).Str("error_kind", kind).Msg("statement rejected")
		return Result{}, fmt.Errorf("generate statement for %q: %w", invoice.Customer, err)
	}
	text := st.Render(s.Formatter)

	if key != "" {
		if err := s.Cache.put(ctx, key, cachedStatement{Statement: st, Text: text}); err != nil {
			s.Logger.Error().Err(err).Str("customer", invoice.Customer).Msg("write statement cache")
		}
	}

	span.SetAttributes(
		attribute.Int64("statement.total_amount", st.TotalAmount),
		attribute.Int("statement.volume_credits", st.TotalVolumeCredits),
	)
	s.Metrics.Observe(obs.StatementResultOK, s.now().Sub(start), st.TotalAmount)
	return Result{ID: uuid.NewString(), Statement: st, Text: text}, nil
}

func (s *Service) cacheKey(invoice theater.Invoice, plays theater.Plays) (string, error) {
	if !s.Cache.enabled() {
		return "", nil
	}
	payload, err := json.Marshal(struct {
		Invoice   theater.Invoice `json:"invoice"`
		Plays     theater.Plays   `json:"plays"`
		Formatter string          `json:"formatter"`
	}{invoice, plays, s.Formatter.String()})
	if err != nil {
		return "", err
	}
	return common.Sha256Hex(string(payload)), nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrUnknownPlay):
		return obs.StatementResultUnknownPlay
	case errors.Is(err, ErrUnknownPlayType):
		return obs.StatementResultUnknownPlayType
	case errors.Is(err, ErrOverflow):
		return obs.StatementResultOverflow
	default:
		return obs.StatementResultError
	}
}
