// Package airisk wraps the external risk-assessment service behind a
// time-bounded cache. Entries are pure functions of their inputs within the
// TTL window, so a stale read is bounded and safe to serve.
package airisk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"veritag/internal/airisk/models"
	tagmodels "veritag/internal/tag/models"
)

// AssessRequest is the payload sent to the external risk service: where the
// brand says the product should be, where it is being scanned, and how often
// it has been seen.
type AssessRequest struct {
	TagCode         string                     `json:"tagCode"`
	Distribution    tagmodels.DistributionInfo `json:"distribution"`
	CurrentLocation *string                    `json:"currentLocation,omitempty"`
	TotalScans      int                        `json:"totalScans"`
	UniqueScanners  int                        `json:"uniqueScanners"`
	RecentLocations []string                   `json:"recentLocations,omitempty"`
}

// Client computes a risk assessment remotely.
type Client interface {
	Assess(ctx context.Context, req AssessRequest) (*models.Assessment, error)
}

// HTTPClient calls the risk service's REST endpoint. The caller owns the
// timeout via context.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient constructs a risk service client for the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{},
	}
}

type assessResponse struct {
	IsSuspicious   bool                `json:"isSuspicious"`
	RiskLevel      string              `json:"riskLevel"`
	RiskScore      int                 `json:"riskScore"`
	Reasons        []string            `json:"reasons"`
	Recommendation string              `json:"recommendation"`
	Details        models.MatchDetails `json:"details"`
}

func (c *HTTPClient) Assess(ctx context.Context, req AssessRequest) (*models.Assessment, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode risk request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/assess", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build risk request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("risk service call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("risk service call: status %d", resp.StatusCode)
	}

	var decoded assessResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode risk response: %w", err)
	}

	return &models.Assessment{
		IsSuspicious:   decoded.IsSuspicious,
		RiskLevel:      decoded.RiskLevel,
		RiskScore:      models.ClampScore(decoded.RiskScore),
		Reasons:        decoded.Reasons,
		Recommendation: decoded.Recommendation,
		Details:        decoded.Details,
	}, nil
}
