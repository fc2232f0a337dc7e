// Package models defines the tag aggregate: the anti-counterfeiting identity
// attached to one physical product instance.
package models

import (
	"time"

	"github.com/lib/pq"

	id "veritag/pkg/domain"
)

// ChainStatus mirrors the on-chain lifecycle enum. Ordinal values are part of
// the registry wire contract and must not be renumbered.
type ChainStatus int

const (
	StatusCreated     ChainStatus = 0
	StatusDistributed ChainStatus = 1
	StatusClaimed     ChainStatus = 2
	StatusTransferred ChainStatus = 3
	StatusFlagged     ChainStatus = 4
	StatusRevoked     ChainStatus = 5
)

// String returns the lowercase wire name of the status.
func (s ChainStatus) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusDistributed:
		return "distributed"
	case StatusClaimed:
		return "claimed"
	case StatusTransferred:
		return "transferred"
	case StatusFlagged:
		return "flagged"
	case StatusRevoked:
		return "revoked"
	default:
		return "unknown"
	}
}

// Valid reports whether s is a known ordinal.
func (s ChainStatus) Valid() bool {
	return s >= StatusCreated && s <= StatusRevoked
}

// InvalidatesTag reports whether this status marks the tag invalid for
// verification regardless of the stamped flag.
func (s ChainStatus) InvalidatesTag() bool {
	return s == StatusRevoked || s == StatusFlagged
}

// Metadata keys populated by brand management at distribution time. The
// fraud evaluator and AI risk client read these; everything else in the map
// is free-form.
const (
	MetaDistributionRegion  = "distributionRegion"
	MetaDistributionCountry = "distributionCountry"
	MetaDistributionChannel = "distributionChannel"
	MetaIntendedMarket      = "intendedMarket"
	MetaBatchNumber         = "batchNumber"
	MetaManufactureDate     = "manufactureDate"
)

// Tag is the off-chain record for one marked product instance. Created by
// the stamping pipeline; this service mutates only ChainStatus (mirroring
// the registry) and treats everything else as read-only.
type Tag struct {
	ID            id.TagID
	Code          string
	ProductIDs    pq.StringArray
	IsStamped     bool
	HashTx        *string
	ChainStatus   *ChainStatus
	PublishStatus bool
	Metadata      map[string]string
	CreatedAt     time.Time
}

// Meta returns a metadata value, empty when absent.
func (t *Tag) Meta(key string) string {
	if t.Metadata == nil {
		return ""
	}
	return t.Metadata[key]
}

// DistributionInfo is the slice of tag metadata relevant to risk assessment.
type DistributionInfo struct {
	Region  string `json:"region,omitempty"`
	Country string `json:"country,omitempty"`
	Channel string `json:"channel,omitempty"`
	Market  string `json:"market,omitempty"`
}

// Distribution extracts the distribution metadata, if any was recorded.
func (t *Tag) Distribution() DistributionInfo {
	return DistributionInfo{
		Region:  t.Meta(MetaDistributionRegion),
		Country: t.Meta(MetaDistributionCountry),
		Channel: t.Meta(MetaDistributionChannel),
		Market:  t.Meta(MetaIntendedMarket),
	}
}

// Empty reports whether no distribution metadata is present.
func (d DistributionInfo) Empty() bool {
	return d.Region == "" && d.Country == "" && d.Channel == "" && d.Market == ""
}
