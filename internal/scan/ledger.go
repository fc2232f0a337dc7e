// Package scan implements the scan ledger: the append-only record of tag
// observations, the per-tag scan-number sequence, and the ownership
// interview state machine.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mssola/useragent"

	"veritag/internal/scan/metrics"
	"veritag/internal/scan/models"
	"veritag/internal/scan/store"
	tagmodels "veritag/internal/tag/models"
	id "veritag/pkg/domain"
	"veritag/pkg/platform/privacy"
	"veritag/pkg/requestcontext"
)

// Observation is one presentation of a tag by a device.
type Observation struct {
	FingerprintID string
	IPAddress     string
	UserAgent     string
	Geo           models.Geo
}

// Outcome is the result of recording one scan.
type Outcome struct {
	Scan       *models.ScanEvent
	ScanNumber int
	TotalScans int

	IsNewFingerprint             bool
	PreviousScansFromFingerprint int
	UniqueScanners               int

	Question Question

	// History holds the prior scans for display, populated only when no
	// interview applies (returning device, or three observers already
	// interviewed).
	History []*models.ScanEvent
}

// Stats are the aggregates the fraud evaluator and AI risk service consume.
type Stats struct {
	TotalScans      int
	UniqueScanners  int
	RecentLocations []string
}

// Ledger records observations and drives the ownership interview.
type Ledger struct {
	scans   store.ScanStore
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// NewLedger constructs a Ledger over the given scan store.
func NewLedger(scans store.ScanStore, opts ...Option) *Ledger {
	l := &Ledger{
		scans:  scans,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// RecordScan appends an observation of the tag and determines the interview
// question. A storage failure here is fatal to the caller: the recorded
// observation is the scan operation's primary side effect, unlike chain
// validation or AI scoring which degrade.
//
// The scan number is assigned by the store inside its serialized append;
// the statistics computed here from prior scans are advisory and may lag by
// a concurrent scan, which is acceptable for interview selection.
func (l *Ledger) RecordScan(ctx context.Context, tag *tagmodels.Tag, obs Observation) (*Outcome, error) {
	start := time.Now()

	prior, err := l.scans.ListByTag(ctx, tag.ID)
	if err != nil {
		return nil, fmt.Errorf("load prior scans: %w", err)
	}

	uniqueBefore := countUniqueFingerprints(prior)
	previousFromFingerprint := countFromFingerprint(prior, obs.FingerprintID)
	isNewFingerprint := previousFromFingerprint == 0

	question := questionFor(isNewFingerprint, len(uniqueBefore))

	event := &models.ScanEvent{
		ID:            id.NewScanID(),
		TagID:         tag.ID,
		FingerprintID: obs.FingerprintID,
		IPAddress:     obs.IPAddress,
		UserAgent:     obs.UserAgent,
		Latitude:      obs.Geo.Latitude,
		Longitude:     obs.Geo.Longitude,
		LocationName:  obs.Geo.LocationName,
		CreatedAt:     requestcontext.Now(ctx),
	}
	parseUserAgent(event)

	stored, err := l.scans.Append(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("append scan: %w", err)
	}

	l.metrics.ObserveScanRecorded(question.Type(), stored.ScanNumber, float64(time.Since(start).Microseconds())/1000.0)
	l.logger.InfoContext(ctx, "scan recorded",
		"tag_code", tag.Code,
		"scan_number", stored.ScanNumber,
		"fingerprint", privacy.FingerprintDigest(obs.FingerprintID),
		"ip_prefix", privacy.AnonymizeIP(obs.IPAddress),
		"question", question.Type(),
	)

	uniqueAfter := len(uniqueBefore)
	if isNewFingerprint {
		uniqueAfter++
	}

	outcome := &Outcome{
		Scan:                         stored,
		ScanNumber:                   stored.ScanNumber,
		TotalScans:                   stored.ScanNumber,
		IsNewFingerprint:             isNewFingerprint,
		PreviousScansFromFingerprint: previousFromFingerprint,
		UniqueScanners:               uniqueAfter,
		Question:                     question,
	}
	if _, none := question.(NoQuestion); none {
		outcome.History = prior
	}
	return outcome, nil
}

// History returns all scans of a tag, newest first.
func (l *Ledger) History(ctx context.Context, tagID id.TagID) ([]*models.ScanEvent, error) {
	return l.scans.ListByTag(ctx, tagID)
}

// RecordAnswer stores the presenter's interview answer on a recorded scan.
func (l *Ledger) RecordAnswer(ctx context.Context, scanID id.ScanID, answer models.Answer) error {
	if err := l.scans.RecordAnswer(ctx, scanID, answer); err != nil {
		return fmt.Errorf("record answer: %w", err)
	}
	l.metrics.IncrementAnswers()
	return nil
}

// ComputeStats derives the fraud/AI aggregates from a scan history
// (newest-first ordering expected, as returned by ListByTag).
func ComputeStats(scans []*models.ScanEvent) Stats {
	stats := Stats{
		TotalScans:     len(scans),
		UniqueScanners: len(countUniqueFingerprints(scans)),
	}
	for _, s := range scans {
		if len(stats.RecentLocations) == 5 {
			break
		}
		if s.LocationName != nil && *s.LocationName != "" {
			stats.RecentLocations = append(stats.RecentLocations, *s.LocationName)
		}
	}
	return stats
}

func countUniqueFingerprints(scans []*models.ScanEvent) map[string]struct{} {
	unique := make(map[string]struct{}, len(scans))
	for _, s := range scans {
		unique[s.FingerprintID] = struct{}{}
	}
	return unique
}

func countFromFingerprint(scans []*models.ScanEvent, fingerprintID string) int {
	count := 0
	for _, s := range scans {
		if s.FingerprintID == fingerprintID {
			count++
		}
	}
	return count
}

func parseUserAgent(event *models.ScanEvent) {
	if strings.TrimSpace(event.UserAgent) == "" {
		return
	}
	ua := useragent.New(event.UserAgent)
	name, version := ua.Browser()
	if version != "" {
		event.Browser = name + " " + version
	} else {
		event.Browser = name
	}
	event.OS = ua.OS()
	event.IsBot = ua.Bot()
}
