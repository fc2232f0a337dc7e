// Package domain defines the typed identifiers shared across features.
// Wrapping uuid.UUID prevents a tag ID from being passed where a scan ID is
// expected.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// TagID identifies a tag row, distinct from its human-readable code.
type TagID uuid.UUID

// ScanID identifies one recorded scan event.
type ScanID uuid.UUID

func (id TagID) String() string  { return uuid.UUID(id).String() }
func (id ScanID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the ID is the zero UUID.
func (id TagID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id ScanID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// NewTagID returns a fresh random TagID.
func NewTagID() TagID { return TagID(uuid.New()) }

// NewScanID returns a fresh random ScanID.
func NewScanID() ScanID { return ScanID(uuid.New()) }

// ParseTagID parses a TagID from its string form.
func ParseTagID(s string) (TagID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return TagID{}, fmt.Errorf("parse tag id: %w", err)
	}
	return TagID(u), nil
}

// ParseScanID parses a ScanID from its string form.
func ParseScanID(s string) (ScanID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ScanID{}, fmt.Errorf("parse scan id: %w", err)
	}
	return ScanID(u), nil
}
