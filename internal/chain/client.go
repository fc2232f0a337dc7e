// Package chain reads the on-chain tag registry and reconciles its
// authoritative lifecycle status into the off-chain tag record. This service
// never writes to the chain; status transitions belong to the stamping
// pipeline.
package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"veritag/internal/tag/models"
)

// OnChainTagRecord is the read-only projection returned by the registry's
// validation endpoints.
type OnChainTagRecord struct {
	Hash        string
	Creator     string
	MetadataURI string
	Status      models.ChainStatus
	CreatedAt   time.Time
	Exists      bool
	IsValid     bool
}

// Client queries the on-chain registry node.
type Client interface {
	ValidateTag(ctx context.Context, code string) (*OnChainTagRecord, error)
	ValidateByHash(ctx context.Context, hash string) (*OnChainTagRecord, error)
	TagExistsByHash(ctx context.Context, hash string) (bool, error)
}

// HTTPClient talks to the registry node's REST gateway. Timeouts are owned
// by the caller (the reconciler wraps every call in a bounded-timeout
// context), so the embedded http.Client carries none of its own.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient constructs a registry client for the given node URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{},
	}
}

// validateResponse mirrors the registry gateway's wire format. Status uses
// the ChainStatus ordinals 0-5 exactly.
type validateResponse struct {
	IsValid     bool   `json:"isValid"`
	Hash        string `json:"hash"`
	Creator     string `json:"creator"`
	MetadataURI string `json:"metadataUri"`
	Status      int    `json:"status"`
	CreatedAt   int64  `json:"createdAt"`
	Exists      bool   `json:"exists"`
}

func (c *HTTPClient) ValidateTag(ctx context.Context, code string) (*OnChainTagRecord, error) {
	return c.validate(ctx, "/v1/tags/"+url.PathEscape(code)+"/validate")
}

func (c *HTTPClient) ValidateByHash(ctx context.Context, hash string) (*OnChainTagRecord, error) {
	return c.validate(ctx, "/v1/hashes/"+url.PathEscape(hash)+"/validate")
}

func (c *HTTPClient) TagExistsByHash(ctx context.Context, hash string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/hashes/"+url.PathEscape(hash)+"/exists", nil)
	if err != nil {
		return false, fmt.Errorf("build registry request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("registry exists call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("registry exists call: status %d", resp.StatusCode)
	}
	var body struct {
		Exists bool `json:"exists"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("decode registry response: %w", err)
	}
	return body.Exists, nil
}

func (c *HTTPClient) validate(ctx context.Context, path string) (*OnChainTagRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build registry request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry validate call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry validate call: status %d", resp.StatusCode)
	}
	var body validateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode registry response: %w", err)
	}

	status := models.ChainStatus(body.Status)
	if !status.Valid() {
		return nil, fmt.Errorf("registry returned unknown status ordinal %d", body.Status)
	}
	return &OnChainTagRecord{
		Hash:        body.Hash,
		Creator:     body.Creator,
		MetadataURI: body.MetadataURI,
		Status:      status,
		CreatedAt:   time.Unix(body.CreatedAt, 0).UTC(),
		Exists:      body.Exists,
		IsValid:     body.IsValid,
	}, nil
}
