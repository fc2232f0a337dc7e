// Package models defines the AI risk assessment as stored in the cache and
// surfaced in verification responses.
package models

import "time"

// Risk levels reported by the assessment service and the quick check.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// MatchDetails breaks the assessment down by distribution dimension.
type MatchDetails struct {
	LocationMatch bool `json:"locationMatch"`
	ChannelMatch  bool `json:"channelMatch"`
	MarketMatch   bool `json:"marketMatch"`
}

// Assessment is one AI risk verdict for a tag. The JSON shape doubles as the
// cache encoding and the API response block.
type Assessment struct {
	IsSuspicious   bool         `json:"isSuspicious"`
	RiskLevel      string       `json:"riskLevel"`
	RiskScore      int          `json:"riskScore"`
	Reasons        []string     `json:"reasons"`
	Recommendation string       `json:"recommendation"`
	Details        MatchDetails `json:"details"`
	ExpiresAt      time.Time    `json:"expiresAt"`

	// FromCache is set per read, never stored.
	FromCache bool `json:"-"`

	// Fallback marks a quick-check verdict produced while the remote
	// service was unreachable. Fallback entries are never cached.
	Fallback bool `json:"-"`
}

// ClampScore bounds a score to the 0-100 scale.
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
