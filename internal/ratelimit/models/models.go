// Package models defines the rate limit result and key scheme.
package models

import (
	"fmt"
	"strings"
	"time"
)

// RateLimitResult reports one admission decision.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int
}

// ScanKey builds the bucket key for the scan endpoint, scoped to the
// (ip, fingerprint) pair so one device cannot exhaust an office NAT's quota
// and one IP cannot spray fingerprints for free.
func ScanKey(ip, fingerprint string) string {
	return fmt.Sprintf("scan:%s:%s", ip, strings.ToLower(fingerprint))
}
