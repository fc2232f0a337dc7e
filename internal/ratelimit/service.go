// Package ratelimit gates the scan endpoint before any core logic runs.
// Admission is keyed on the (ip, fingerprint) pair with a sliding window.
package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"veritag/internal/ratelimit/metrics"
	"veritag/internal/ratelimit/models"
	"veritag/internal/ratelimit/store"
	"veritag/pkg/platform/privacy"
)

// Defaults: ten scans per minute per device per address. Legitimate
// verification is a handful of scans; anything past this is scripted.
const (
	DefaultLimit  = 10
	DefaultWindow = time.Minute
)

// Service is the scan admission gate.
type Service struct {
	buckets  store.BucketStore
	limit    int
	window   time.Duration
	disabled bool
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLimit overrides the per-window request budget.
func WithLimit(limit int, window time.Duration) Option {
	return func(s *Service) {
		s.limit = limit
		s.window = window
	}
}

// WithDisabled turns the limiter into a pass-through. Dev and test use.
func WithDisabled(disabled bool) Option {
	return func(s *Service) { s.disabled = disabled }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates the limiter over the given bucket store.
func New(buckets store.BucketStore, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		buckets: buckets,
		limit:   DefaultLimit,
		window:  DefaultWindow,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckScan admits or rejects one scan attempt. A bucket store failure fails
// open: verification availability outranks limiter precision, and the
// fail-open is logged and counted.
func (s *Service) CheckScan(ctx context.Context, ip, fingerprint string) *models.RateLimitResult {
	if s.disabled {
		s.metrics.ObserveDecision("disabled")
		return &models.RateLimitResult{Allowed: true, Limit: s.limit, Remaining: s.limit}
	}

	result, err := s.buckets.Allow(ctx, models.ScanKey(ip, fingerprint), s.limit, s.window)
	if err != nil {
		s.metrics.IncrementFailOpens()
		s.logger.WarnContext(ctx, "rate limit check failed open",
			"ip_prefix", privacy.AnonymizeIP(ip),
			"error", err,
		)
		return &models.RateLimitResult{Allowed: true, Limit: s.limit, Remaining: 0}
	}

	if result.Allowed {
		s.metrics.ObserveDecision("allowed")
	} else {
		s.metrics.ObserveDecision("rejected")
		s.logger.InfoContext(ctx, "scan rate limited",
			"ip_prefix", privacy.AnonymizeIP(ip),
			"fingerprint", privacy.FingerprintDigest(fingerprint),
			"retry_after", result.RetryAfter,
		)
	}
	return result
}
