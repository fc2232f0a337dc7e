// Package verification composes the reconciler, scan ledger, fraud
// heuristics, and AI risk cache into the two public operations: a read-only
// verify and a mutating scan.
package verification

import (
	airiskmodels "veritag/internal/airisk/models"
	"veritag/internal/chain"
	"veritag/internal/fraud"
	"veritag/internal/scan"
	scanmodels "veritag/internal/scan/models"
	tagmodels "veritag/internal/tag/models"
)

// Result is the composed verdict shared by both operations.
type Result struct {
	Tag   *tagmodels.Tag
	Chain chain.ReconciledStatus
	Stats scan.Stats
	Fraud fraud.Assessment

	// AI is nil when the assessment was skipped for lack of input.
	AI *airiskmodels.Assessment

	// Flags is the heuristic list with non-duplicate AI reasons appended.
	Flags []fraud.Flag

	// RiskScore and OverallRisk are the composite verdict: whichever of the
	// heuristic and AI scores is higher wins, and its level comes along.
	RiskScore   int
	OverallRisk string

	OverallValid bool
}

// VerifyResult adds the full scan history for the read-only endpoint.
type VerifyResult struct {
	Result
	History []*scanmodels.ScanEvent
}

// ScanResult adds the ledger outcome: assigned scan number, interview
// question, and conditional history.
type ScanResult struct {
	Result
	Outcome *scan.Outcome
}
