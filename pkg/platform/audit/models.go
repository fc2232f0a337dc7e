// Package audit defines the scan audit trail: a transport-agnostic event
// emitted from domain logic so sinks (Kafka, memory) can fan out.
package audit

import "time"

// EventCategory classifies audit events by their primary purpose, which
// drives retention and routing downstream.
type EventCategory string

const (
	// CategoryProvenance covers the scan trail itself: every recorded
	// observation and interview answer. Long retention; this is the
	// evidence chain brands rely on in disputes.
	CategoryProvenance EventCategory = "provenance"

	// CategorySecurity covers suspected-fraud signals: high risk verdicts,
	// revoked-tag presentations, rate-limit rejections.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers degradations and routine visibility:
	// registry or AI service outages observed while serving requests.
	CategoryOperations EventCategory = "operations"
)

// Event is one audit record. Fingerprints and IPs are pre-digested by the
// caller; raw identifiers never enter the trail.
type Event struct {
	Category          EventCategory
	Timestamp         time.Time
	Action            string
	TagCode           string
	ScanID            string
	ScanNumber        int
	FingerprintDigest string
	IPPrefix          string
	Subsystem         string
	Reason            string
	RiskLevel         string
	RequestID         string
}

type AuditEvent string

const (
	EventScanRecorded     AuditEvent = "scan_recorded"
	EventAnswerRecorded   AuditEvent = "answer_recorded"
	EventVerified         AuditEvent = "verification_served"
	EventRevokedPresented AuditEvent = "revoked_tag_presented"
	EventHighRisk         AuditEvent = "high_risk_assessment"
	EventChainDegraded    AuditEvent = "chain_validation_degraded"
	EventAIRiskDegraded   AuditEvent = "ai_risk_degraded"
	EventRateLimited      AuditEvent = "scan_rate_limited"
)
