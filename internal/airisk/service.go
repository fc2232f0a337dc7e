package airisk

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"veritag/internal/airisk/metrics"
	"veritag/internal/airisk/models"
	"veritag/internal/airisk/store"
	"veritag/pkg/platform/remote"
	"veritag/pkg/platform/sentinel"
)

// DefaultTTL bounds how long a computed assessment may be served. Risk inputs
// move slowly, so five minutes of staleness is acceptable.
const DefaultTTL = 5 * time.Minute

// Service resolves an assessment from cache or the remote risk service.
type Service struct {
	client  Client
	cache   store.CacheStore
	caller  *remote.Caller
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTTL overrides the cache TTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// WithClock overrides the clock. Test helper.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds the AI risk service. The caller owns the remote timeout
// and circuit breaker.
func NewService(client Client, cache store.CacheStore, caller *remote.Caller, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		client: client,
		cache:  cache,
		caller: caller,
		ttl:    DefaultTTL,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Relevant reports whether an assessment is worth running: with neither a
// presenting location nor distribution metadata there is nothing for the
// risk model to compare.
func Relevant(req AssessRequest) bool {
	hasLocation := req.CurrentLocation != nil && *req.CurrentLocation != ""
	return hasLocation || !req.Distribution.Empty()
}

// GetOrCompute returns the cached assessment for the tag, computing and
// caching a fresh one on miss. It never returns an error: remote failure
// degrades to a rule-only quick check, and a nil result means the assessment
// was skipped for lack of input.
func (s *Service) GetOrCompute(ctx context.Context, req AssessRequest) *models.Assessment {
	if !Relevant(req) {
		s.metrics.ObserveLookup("skipped")
		return nil
	}

	cached, err := s.cache.Get(ctx, req.TagCode)
	if err == nil {
		s.metrics.ObserveLookup("hit")
		cached.FromCache = true
		return cached
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		// A broken cache degrades to a recompute, not a failure.
		s.logger.WarnContext(ctx, "risk cache read failed",
			"tag_code", req.TagCode,
			"error", err,
		)
	}
	s.metrics.ObserveLookup("miss")

	start := s.now()
	assessment, err := remote.Call(ctx, s.caller, func(ctx context.Context) (*models.Assessment, error) {
		return s.client.Assess(ctx, req)
	})
	if err != nil {
		s.metrics.IncrementFallbacks()
		s.logger.WarnContext(ctx, "ai risk assessment degraded",
			"tag_code", req.TagCode,
			"subsystem", "ai-risk",
			"error", err,
		)
		return s.quickCheck(req)
	}
	s.metrics.ObserveAssessment(float64(time.Since(start).Microseconds()) / 1000.0)

	assessment.ExpiresAt = s.now().Add(s.ttl)
	if err := s.cache.Put(ctx, req.TagCode, assessment, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "risk cache write failed",
			"tag_code", req.TagCode,
			"error", err,
		)
	}
	return assessment
}

// quickCheck is the rule-only substitute used while the risk service is
// unreachable. It answers one question: does the presenting location appear
// anywhere in the declared distribution country and market tokens?
func (s *Service) quickCheck(req AssessRequest) *models.Assessment {
	if req.CurrentLocation == nil || *req.CurrentLocation == "" {
		return &models.Assessment{
			RiskLevel:      models.RiskLow,
			RiskScore:      10,
			Reasons:        []string{"Risk service unavailable and no presenting location to check"},
			Recommendation: "Retry verification later for a full risk assessment",
			Fallback:       true,
		}
	}

	location := strings.ToLower(*req.CurrentLocation)
	tokens := distributionTokens(req.Distribution.Country, req.Distribution.Market)

	matched := len(tokens) == 0
	for _, token := range tokens {
		if strings.Contains(location, token) {
			matched = true
			break
		}
	}

	if matched {
		return &models.Assessment{
			RiskLevel:      models.RiskLow,
			RiskScore:      10,
			Reasons:        []string{"Location consistent with declared distribution markets"},
			Recommendation: "No action needed",
			Details:        models.MatchDetails{LocationMatch: true, MarketMatch: true},
			Fallback:       true,
		}
	}
	return &models.Assessment{
		IsSuspicious:   true,
		RiskLevel:      models.RiskMedium,
		RiskScore:      50,
		Reasons:        []string{"Current location does not match declared distribution markets"},
		Recommendation: "Verify the purchase channel with the brand",
		Details:        models.MatchDetails{LocationMatch: false, MarketMatch: false},
		Fallback:       true,
	}
}

func distributionTokens(values ...string) []string {
	var tokens []string
	for _, value := range values {
		for _, token := range strings.FieldsFunc(strings.ToLower(value), func(r rune) bool {
			return r == ',' || r == '/' || r == ' '
		}) {
			if token != "" {
				tokens = append(tokens, token)
			}
		}
	}
	return tokens
}
