// Package models defines the scan event: one observation of a tag by a
// device. Events are append-only; the only later mutation is recording the
// presenter's interview answer.
package models

import (
	"time"

	id "veritag/pkg/domain"
)

// ScanEvent is one observation of a tag.
//
// ScanNumber is 1-based and strictly increasing per tag with no gaps. The
// store assigns it inside a serialized append so two concurrent scans of the
// same tag can never share a number.
type ScanEvent struct {
	ID            id.ScanID
	TagID         id.TagID
	FingerprintID string
	IPAddress     string
	UserAgent     string

	// Parsed from UserAgent at record time for dashboard display.
	Browser string
	OS      string
	IsBot   bool

	Latitude     *float64
	Longitude    *float64
	LocationName *string

	IsClaimed   bool
	IsFirstHand *bool // nil = not answered yet
	SourceInfo  *string

	ScanNumber int
	CreatedAt  time.Time
}

// Answer is the presenter's response to the ownership interview.
type Answer struct {
	IsFirstHand *bool
	SourceInfo  *string
	IsClaimed   bool
}

// Geo is the optional location attached to an observation.
type Geo struct {
	Latitude     *float64
	Longitude    *float64
	LocationName *string
}
