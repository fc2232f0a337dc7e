// Package fraud scores a tag's scan history against deterministic
// heuristics. The evaluator is a pure function: same inputs, same
// assessment, no I/O.
package fraud

import (
	"fmt"
	"strings"
	"time"

	"veritag/internal/chain"
	scanmodels "veritag/internal/scan/models"
	tagmodels "veritag/internal/tag/models"
)

// Severity grades a flag.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Flag is one triggered heuristic.
type Flag struct {
	Type     string   `json:"type"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Assessment is the deterministic risk verdict for one verification call.
type Assessment struct {
	OverallRisk                  string `json:"overallRisk"`
	RiskScore                    int    `json:"riskScore"`
	Flags                        []Flag `json:"flags"`
	LocationMismatch             bool   `json:"locationMismatch"`
	SuspiciousScanPattern        bool   `json:"suspiciousScanPattern"`
	MultipleLocationsInShortTime bool   `json:"multipleLocationsInShortTime"`
}

// Input collects everything the rules read. Scans are newest first, as the
// ledger returns them.
type Input struct {
	Tag             *tagmodels.Tag
	Chain           chain.ReconciledStatus
	Scans           []*scanmodels.ScanEvent
	CurrentLocation *string
}

const (
	weightRevoked       = 50
	weightNotStamped    = 40
	weightLocation      = 20
	weightScanVolume    = 15
	weightMultiLocation = 25

	scanVolumeThreshold  = 10
	recentWindow         = 5
	multiLocationMinimum = 3
	multiLocationSpan    = 24 * time.Hour
)

// Evaluate runs every rule and composes the assessment. Rules fire
// independently; only the flag order is fixed, by declaration.
func Evaluate(in Input) Assessment {
	var a Assessment
	score := 0

	if revoked(in.Chain) {
		score += weightRevoked
		a.Flags = append(a.Flags, Flag{
			Type:     "revoked",
			Severity: SeverityDanger,
			Message:  "Tag has been revoked on the registry",
		})
	}

	if !in.Chain.IsStampedInDB {
		score += weightNotStamped
		a.Flags = append(a.Flags, Flag{
			Type:     "not_stamped",
			Severity: SeverityDanger,
			Message:  "Tag is not anchored on the registry",
		})
	}

	if country := in.Tag.Meta(tagmodels.MetaDistributionCountry); country != "" {
		if mismatched(country, in.Scans, in.CurrentLocation) {
			score += weightLocation
			a.LocationMismatch = true
			a.Flags = append(a.Flags, Flag{
				Type:     "location_mismatch",
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("Scan location outside declared distribution country %s", country),
			})
		}
	}

	if unique := uniqueObservers(in.Scans); unique > scanVolumeThreshold {
		score += weightScanVolume
		a.SuspiciousScanPattern = true
		a.Flags = append(a.Flags, Flag{
			Type:     "suspicious_scan_volume",
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("Tag scanned by %d distinct devices", unique),
		})
	}

	if rapidMultiLocation(in.Scans) {
		score += weightMultiLocation
		a.MultipleLocationsInShortTime = true
		a.Flags = append(a.Flags, Flag{
			Type:     "rapid_multi_location",
			Severity: SeverityDanger,
			Message:  "Tag scanned from multiple locations within 24 hours",
		})
	}

	if len(a.Flags) == 0 && in.Chain.IsStampedInDB && !revoked(in.Chain) {
		a.Flags = append(a.Flags, Flag{
			Type:     "verified",
			Severity: SeverityInfo,
			Message:  "No fraud indicators detected",
		})
	}

	if score > 100 {
		score = 100
	}
	a.RiskScore = score
	a.OverallRisk = RiskLevel(score)
	return a
}

// RiskLevel maps a 0-100 score onto the four-band scale.
func RiskLevel(score int) string {
	switch {
	case score >= 70:
		return "critical"
	case score >= 40:
		return "high"
	case score >= 20:
		return "medium"
	default:
		return "low"
	}
}

// revoked covers both the validated on-chain verdict and, in degraded mode,
// the last cached status.
func revoked(rec chain.ReconciledStatus) bool {
	if rec.IsRevoked {
		return true
	}
	return !rec.Validated && rec.StoredStatus != nil && *rec.StoredStatus == tagmodels.StatusRevoked
}

func mismatched(country string, scans []*scanmodels.ScanEvent, current *string) bool {
	token := strings.ToLower(country)
	for _, scan := range scans {
		if scan.LocationName == nil {
			continue
		}
		if !strings.Contains(strings.ToLower(*scan.LocationName), token) {
			return true
		}
	}
	if current != nil && *current != "" && !strings.Contains(strings.ToLower(*current), token) {
		return true
	}
	return false
}

func uniqueObservers(scans []*scanmodels.ScanEvent) int {
	seen := make(map[string]struct{}, len(scans))
	for _, scan := range scans {
		seen[scan.FingerprintID] = struct{}{}
	}
	return len(seen)
}

func rapidMultiLocation(scans []*scanmodels.ScanEvent) bool {
	window := scans
	if len(window) > recentWindow {
		window = window[:recentWindow]
	}
	if len(window) < multiLocationMinimum {
		return false
	}

	locations := make(map[string]struct{}, len(window))
	newest := window[0].CreatedAt
	oldest := window[0].CreatedAt
	for _, scan := range window {
		if scan.LocationName != nil {
			locations[strings.ToLower(*scan.LocationName)] = struct{}{}
		}
		if scan.CreatedAt.After(newest) {
			newest = scan.CreatedAt
		}
		if scan.CreatedAt.Before(oldest) {
			oldest = scan.CreatedAt
		}
	}
	return len(locations) >= multiLocationMinimum && newest.Sub(oldest) < multiLocationSpan
}
