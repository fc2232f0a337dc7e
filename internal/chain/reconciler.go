package chain

import (
	"context"
	"log/slog"
	"time"

	"veritag/internal/chain/metrics"
	tagmodels "veritag/internal/tag/models"
	tagstore "veritag/internal/tag/store"
	"veritag/pkg/platform/remote"
)

// ReconciledStatus is the outcome of reconciling a tag against the registry.
//
// Validated distinguishes "the registry confirmed this state" from "the
// registry was unreachable and the stored state is all we have". An
// unvalidated result carries Status == nil; it is not the same thing as a
// confirmed-invalid tag.
type ReconciledStatus struct {
	IsStampedInDB bool

	// Validated is true when the on-chain lookup succeeded this request.
	Validated bool

	// Status is the authoritative on-chain status when Validated, nil
	// otherwise.
	Status *tagmodels.ChainStatus

	// StoredStatus is the off-chain cached status as loaded, kept for
	// display when the lookup degrades.
	StoredStatus *tagmodels.ChainStatus

	IsValidOnChain bool
	IsRevoked      bool

	Record *OnChainTagRecord
}

// Invalidates reports whether the reconciled state forces the overall
// verification verdict to invalid, regardless of the stamped flag.
func (r ReconciledStatus) Invalidates() bool {
	return r.Status != nil && r.Status.InvalidatesTag()
}

// Reconciler mirrors the registry's authoritative status into the off-chain
// record. The on-chain value is the single source of truth; the off-chain
// column is a cache, so writeback is a plain overwrite, never a merge.
type Reconciler struct {
	client  Client
	tags    tagstore.TagStore
	caller  *remote.Caller
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reconciler) { r.metrics = m }
}

// NewReconciler builds a Reconciler. The caller owns the lookup timeout and
// circuit breaker for the registry node.
func NewReconciler(client Client, tags tagstore.TagStore, caller *remote.Caller, logger *slog.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		client: client,
		tags:   tags,
		caller: caller,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile resolves the tag's authoritative lifecycle state. It never fails
// the caller: registry unavailability degrades to the stored status marked
// unvalidated, because verification liveness must not depend on a remote
// chain node.
func (r *Reconciler) Reconcile(ctx context.Context, tag *tagmodels.Tag) ReconciledStatus {
	result := ReconciledStatus{
		IsStampedInDB: tag.IsStamped,
		StoredStatus:  tag.ChainStatus,
	}

	if !tag.IsStamped {
		r.metrics.ObserveReconciliation("unstamped", 0)
		return result
	}

	start := time.Now()
	record, err := remote.Call(ctx, r.caller, func(ctx context.Context) (*OnChainTagRecord, error) {
		return r.client.ValidateTag(ctx, tag.Code)
	})
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0

	if err != nil {
		// Degrade: stored status, explicitly unvalidated.
		r.metrics.ObserveReconciliation("degraded", durationMs)
		r.metrics.IncrementDegraded()
		r.logger.WarnContext(ctx, "chain validation degraded",
			"tag_code", tag.Code,
			"subsystem", "chain-registry",
			"error", err,
		)
		return result
	}

	result.Validated = true
	result.Record = record
	result.IsValidOnChain = record.Exists && record.IsValid && !record.Status.InvalidatesTag()
	result.IsRevoked = record.Status == tagmodels.StatusRevoked
	status := record.Status
	result.Status = &status

	if tag.ChainStatus == nil || *tag.ChainStatus != record.Status {
		if err := r.tags.UpdateChainStatus(ctx, tag.ID, record.Status); err != nil {
			// Cache refresh failure is not fatal to verification; the
			// authoritative value is already in hand.
			r.logger.ErrorContext(ctx, "chain status writeback failed",
				"tag_code", tag.Code,
				"error", err,
			)
		} else {
			r.metrics.IncrementWritebacks()
		}
	}

	r.metrics.ObserveReconciliation("validated", durationMs)
	return result
}
