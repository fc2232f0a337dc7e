package verification

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"veritag/internal/airisk"
	airiskmodels "veritag/internal/airisk/models"
	"veritag/internal/chain"
	"veritag/internal/fraud"
	"veritag/internal/scan"
	scanmodels "veritag/internal/scan/models"
	tagmodels "veritag/internal/tag/models"
	tagstore "veritag/internal/tag/store"
	"veritag/internal/verification/metrics"
	id "veritag/pkg/domain"
	dErrors "veritag/pkg/domain-errors"
	audit "veritag/pkg/platform/audit"
	"veritag/pkg/platform/audit/publisher"
	"veritag/pkg/platform/privacy"
	"veritag/pkg/platform/sentinel"
	strutil "veritag/pkg/platform/strings"
	"veritag/pkg/requestcontext"
)

// Service is the verification orchestrator.
type Service struct {
	tags       tagstore.TagStore
	ledger     *scan.Ledger
	reconciler *chain.Reconciler
	risk       *airisk.Service
	audit      *publisher.Publisher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAudit sets the audit publisher.
func WithAudit(p *publisher.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

// NewService wires the orchestrator.
func NewService(
	tags tagstore.TagStore,
	ledger *scan.Ledger,
	reconciler *chain.Reconciler,
	risk *airisk.Service,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		tags:       tags,
		ledger:     ledger,
		reconciler: reconciler,
		risk:       risk,
		logger:     logger,
		tracer:     otel.Tracer("veritag/verification"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify is the read-only operation: it composes the full verdict without
// touching the ledger.
func (s *Service) Verify(ctx context.Context, tagCode string, geo scanmodels.Geo) (*VerifyResult, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "verification.Verify",
		trace.WithAttributes(attribute.String("tag.code", tagCode)))
	defer span.End()

	tag, err := s.loadTag(ctx, tagCode)
	if err != nil {
		return nil, err
	}

	history, err := s.ledger.History(ctx, tag.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load scan history")
	}

	result := s.compose(ctx, tag, history, geo.LocationName)
	s.emitVerdictAudit(ctx, string(audit.EventVerified), &result, nil)
	s.metrics.ObserveRequest("verify", result.OverallRisk, result.OverallValid,
		float64(time.Since(start).Microseconds())/1000.0)

	return &VerifyResult{Result: result, History: history}, nil
}

// Scan is the mutating operation. The observation is recorded first so the
// statistics feeding the fraud verdict include the presenting scan; a ledger
// write failure is the one error that fails the whole call.
func (s *Service) Scan(ctx context.Context, tagCode string, obs scan.Observation) (*ScanResult, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "verification.Scan",
		trace.WithAttributes(attribute.String("tag.code", tagCode)))
	defer span.End()

	tag, err := s.loadTag(ctx, tagCode)
	if err != nil {
		return nil, err
	}

	outcome, err := s.ledger.RecordScan(ctx, tag, obs)
	if err != nil {
		s.logger.ErrorContext(ctx, "scan record failed",
			"tag_code", tag.Code,
			"subsystem", "scan-ledger",
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record scan")
	}

	history, err := s.ledger.History(ctx, tag.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load scan history")
	}

	result := s.compose(ctx, tag, history, obs.Geo.LocationName)
	s.emitScanAudit(ctx, &result, outcome, obs)
	s.metrics.ObserveRequest("scan", result.OverallRisk, result.OverallValid,
		float64(time.Since(start).Microseconds())/1000.0)

	return &ScanResult{Result: result, Outcome: outcome}, nil
}

// History returns a tag's recorded scans, newest first.
func (s *Service) History(ctx context.Context, tagCode string) (*tagmodels.Tag, []*scanmodels.ScanEvent, error) {
	tag, err := s.loadTag(ctx, tagCode)
	if err != nil {
		return nil, nil, err
	}
	history, err := s.ledger.History(ctx, tag.ID)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load scan history")
	}
	return tag, history, nil
}

// RecordAnswer stores an interview answer on a previously recorded scan.
func (s *Service) RecordAnswer(ctx context.Context, scanID id.ScanID, answer scanmodels.Answer) error {
	if err := s.ledger.RecordAnswer(ctx, scanID, answer); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "scan not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record answer")
	}
	s.emitAudit(ctx, audit.Event{
		Category:  audit.CategoryProvenance,
		Action:    string(audit.EventAnswerRecorded),
		ScanID:    scanID.String(),
		RequestID: requestcontext.RequestID(ctx),
	})
	return nil
}

func (s *Service) loadTag(ctx context.Context, tagCode string) (*tagmodels.Tag, error) {
	tag, err := s.tags.FindByCode(ctx, tagCode)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "tag not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load tag")
	}
	return tag, nil
}

// compose runs the reconciler and AI cache concurrently, then folds both
// into the heuristic assessment. Neither remote leg can fail the call.
func (s *Service) compose(ctx context.Context, tag *tagmodels.Tag, history []*scanmodels.ScanEvent, location *string) Result {
	stats := scan.ComputeStats(history)

	var (
		rec chain.ReconciledStatus
		ai  *airiskmodels.Assessment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, span := s.tracer.Start(gctx, "chain.reconcile")
		defer span.End()
		rec = s.reconciler.Reconcile(gctx, tag)
		return nil
	})
	g.Go(func() error {
		_, span := s.tracer.Start(gctx, "airisk.assess")
		defer span.End()
		ai = s.risk.GetOrCompute(gctx, airisk.AssessRequest{
			TagCode:         tag.Code,
			Distribution:    tag.Distribution(),
			CurrentLocation: location,
			TotalScans:      stats.TotalScans,
			UniqueScanners:  stats.UniqueScanners,
			RecentLocations: stats.RecentLocations,
		})
		return nil
	})
	// Both legs degrade internally rather than erroring.
	_ = g.Wait()

	assessment := fraud.Evaluate(fraud.Input{
		Tag:             tag,
		Chain:           rec,
		Scans:           history,
		CurrentLocation: location,
	})

	result := Result{
		Tag:          tag,
		Chain:        rec,
		Stats:        stats,
		Fraud:        assessment,
		AI:           ai,
		Flags:        assessment.Flags,
		RiskScore:    assessment.RiskScore,
		OverallRisk:  assessment.OverallRisk,
		OverallValid: overallValid(rec),
	}
	s.mergeAI(&result)
	s.emitDegradations(ctx, &result)
	return result
}

// mergeAI appends AI reasons not already present among the heuristic flag
// messages and lets the higher score carry the composite verdict.
func (s *Service) mergeAI(result *Result) {
	ai := result.AI
	if ai == nil {
		return
	}

	seen := make(map[string]bool, len(result.Flags))
	for _, f := range result.Flags {
		seen[strings.ToLower(f.Message)] = true
	}
	for _, message := range strutil.DedupeCaseInsensitive(ai.Reasons) {
		if seen[strings.ToLower(message)] {
			continue
		}
		result.Flags = append(result.Flags, fraud.Flag{
			Type:     "ai_risk",
			Severity: severityForLevel(ai.RiskLevel),
			Message:  message,
		})
	}

	if ai.RiskScore > result.RiskScore {
		result.RiskScore = ai.RiskScore
		result.OverallRisk = ai.RiskLevel
	}
}

func severityForLevel(level string) fraud.Severity {
	switch level {
	case airiskmodels.RiskHigh, airiskmodels.RiskCritical:
		return fraud.SeverityDanger
	case airiskmodels.RiskMedium:
		return fraud.SeverityWarning
	default:
		return fraud.SeverityInfo
	}
}

// overallValid holds the revocation-dominance rule: REVOKED or FLAGGED beats
// everything, including the stamped bit.
func overallValid(rec chain.ReconciledStatus) bool {
	if !rec.IsStampedInDB {
		return false
	}
	if rec.Invalidates() {
		return false
	}
	if !rec.Validated {
		return rec.StoredStatus == nil || !rec.StoredStatus.InvalidatesTag()
	}
	return rec.IsValidOnChain
}

func (s *Service) emitScanAudit(ctx context.Context, result *Result, outcome *scan.Outcome, obs scan.Observation) {
	s.emitAudit(ctx, audit.Event{
		Category:          audit.CategoryProvenance,
		Action:            string(audit.EventScanRecorded),
		TagCode:           result.Tag.Code,
		ScanID:            outcome.Scan.ID.String(),
		ScanNumber:        outcome.ScanNumber,
		FingerprintDigest: privacy.FingerprintDigest(obs.FingerprintID),
		IPPrefix:          privacy.AnonymizeIP(obs.IPAddress),
		RiskLevel:         result.OverallRisk,
		RequestID:         requestcontext.RequestID(ctx),
	})
	s.emitVerdictAudit(ctx, string(audit.EventScanRecorded), result, outcome)
}

// emitVerdictAudit raises the security-category events a verdict implies.
func (s *Service) emitVerdictAudit(ctx context.Context, action string, result *Result, outcome *scan.Outcome) {
	requestID := requestcontext.RequestID(ctx)

	if result.Chain.IsRevoked {
		s.emitAudit(ctx, audit.Event{
			Category:  audit.CategorySecurity,
			Action:    string(audit.EventRevokedPresented),
			TagCode:   result.Tag.Code,
			RiskLevel: result.OverallRisk,
			RequestID: requestID,
		})
	}
	if result.OverallRisk == "high" || result.OverallRisk == "critical" {
		s.emitAudit(ctx, audit.Event{
			Category:  audit.CategorySecurity,
			Action:    string(audit.EventHighRisk),
			TagCode:   result.Tag.Code,
			RiskLevel: result.OverallRisk,
			Reason:    action,
			RequestID: requestID,
		})
	}
}

func (s *Service) emitDegradations(ctx context.Context, result *Result) {
	requestID := requestcontext.RequestID(ctx)

	if result.Chain.IsStampedInDB && !result.Chain.Validated {
		s.emitAudit(ctx, audit.Event{
			Category:  audit.CategoryOperations,
			Action:    string(audit.EventChainDegraded),
			TagCode:   result.Tag.Code,
			Subsystem: "chain-registry",
			RequestID: requestID,
		})
	}
	if result.AI != nil && result.AI.Fallback {
		s.emitAudit(ctx, audit.Event{
			Category:  audit.CategoryOperations,
			Action:    string(audit.EventAIRiskDegraded),
			TagCode:   result.Tag.Code,
			Subsystem: "ai-risk",
			RequestID: requestID,
		})
	}
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Emit(ctx, event)
}
