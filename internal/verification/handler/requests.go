package handler

import (
	"strings"

	scanmodels "veritag/internal/scan/models"
	dErrors "veritag/pkg/domain-errors"
)

// ScanRequest is the body of POST /api/v1/scan.
type ScanRequest struct {
	TagCode       string   `json:"tagCode"`
	FingerprintID string   `json:"fingerprintId"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	LocationName  *string  `json:"locationName,omitempty"`
}

func (r *ScanRequest) Validate() error {
	r.TagCode = strings.TrimSpace(r.TagCode)
	r.FingerprintID = strings.TrimSpace(r.FingerprintID)

	if r.TagCode == "" {
		return dErrors.New(dErrors.CodeValidation, "tagCode is required")
	}
	if r.FingerprintID == "" {
		return dErrors.New(dErrors.CodeValidation, "fingerprintId is required")
	}
	if r.Latitude != nil && (*r.Latitude < -90 || *r.Latitude > 90) {
		return dErrors.New(dErrors.CodeValidation, "latitude must be between -90 and 90")
	}
	if r.Longitude != nil && (*r.Longitude < -180 || *r.Longitude > 180) {
		return dErrors.New(dErrors.CodeValidation, "longitude must be between -180 and 180")
	}
	return nil
}

// Geo converts the optional location fields.
func (r *ScanRequest) Geo() scanmodels.Geo {
	geo := scanmodels.Geo{
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
	}
	if r.LocationName != nil {
		trimmed := strings.TrimSpace(*r.LocationName)
		if trimmed != "" {
			geo.LocationName = &trimmed
		}
	}
	return geo
}

// AnswerRequest is the body of POST /api/v1/scan/{id}/answer.
type AnswerRequest struct {
	IsFirstHand *bool   `json:"isFirstHand,omitempty"`
	SourceInfo  *string `json:"sourceInfo,omitempty"`
	Claim       bool    `json:"claim,omitempty"`
}

func (r *AnswerRequest) Validate() error {
	if r.IsFirstHand == nil && r.SourceInfo == nil && !r.Claim {
		return dErrors.New(dErrors.CodeValidation, "answer must carry at least one field")
	}
	if r.SourceInfo != nil {
		trimmed := strings.TrimSpace(*r.SourceInfo)
		if len(trimmed) > 500 {
			return dErrors.New(dErrors.CodeValidation, "sourceInfo must be 500 characters or fewer")
		}
		r.SourceInfo = &trimmed
	}
	return nil
}

// Answer converts to the ledger's answer model.
func (r *AnswerRequest) Answer() scanmodels.Answer {
	return scanmodels.Answer{
		IsFirstHand: r.IsFirstHand,
		SourceInfo:  r.SourceInfo,
		IsClaimed:   r.Claim,
	}
}
