package handler

import (
	"time"

	airiskmodels "veritag/internal/airisk/models"
	"veritag/internal/fraud"
	"veritag/internal/scan"
	scanmodels "veritag/internal/scan/models"
	"veritag/internal/verification"
	"veritag/pkg/platform/privacy"
)

type blockchainBlock struct {
	IsStamped      bool    `json:"isStamped"`
	Validated      bool    `json:"validated"`
	Status         *string `json:"status,omitempty"`
	StoredStatus   *string `json:"storedStatus,omitempty"`
	IsValidOnChain bool    `json:"isValidOnChain"`
	IsRevoked      bool    `json:"isRevoked"`
}

type statsBlock struct {
	TotalScans      int      `json:"totalScans"`
	UniqueScanners  int      `json:"uniqueScanners"`
	RecentLocations []string `json:"recentLocations,omitempty"`
}

type aiBlock struct {
	IsSuspicious   bool                      `json:"isSuspicious"`
	RiskLevel      string                    `json:"riskLevel"`
	RiskScore      int                       `json:"riskScore"`
	Reasons        []string                  `json:"reasons,omitempty"`
	Recommendation string                    `json:"recommendation,omitempty"`
	Details        airiskmodels.MatchDetails `json:"details"`
	FromCache      bool                      `json:"fromCache"`
	CacheExpiresAt *time.Time                `json:"cacheExpiresAt,omitempty"`
	Fallback       bool                      `json:"fallback,omitempty"`
}

type scanEventBlock struct {
	ID           string   `json:"id"`
	ScanNumber   int      `json:"scanNumber"`
	Fingerprint  string   `json:"fingerprint"`
	LocationName *string  `json:"locationName,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	Browser      string   `json:"browser,omitempty"`
	OS           string   `json:"os,omitempty"`
	IsBot        bool     `json:"isBot,omitempty"`
	IsClaimed    bool     `json:"isClaimed,omitempty"`
	IsFirstHand  *bool    `json:"isFirstHand,omitempty"`
	SourceInfo   *string  `json:"sourceInfo,omitempty"`
	CreatedAt    string   `json:"createdAt"`
}

type questionBlock struct {
	Type    string   `json:"type"`
	Prompt  string   `json:"prompt,omitempty"`
	Options []string `json:"options,omitempty"`
}

type verdictBlocks struct {
	Success       bool             `json:"success"`
	TagCode       string           `json:"tagCode"`
	ProductIDs    []string         `json:"productIds,omitempty"`
	OverallValid  bool             `json:"overallValid"`
	OverallRisk   string           `json:"overallRisk"`
	RiskScore     int              `json:"riskScore"`
	Flags         []fraud.Flag     `json:"flags"`
	Blockchain    blockchainBlock  `json:"blockchain"`
	Stats         statsBlock       `json:"scanStats"`
	FraudAnalysis fraud.Assessment `json:"fraudAnalysis"`
	AIAnalysis    *aiBlock         `json:"aiAnalysis,omitempty"`
}

type verifyResponse struct {
	verdictBlocks
	History []scanEventBlock `json:"history"`
}

type scanResponse struct {
	verdictBlocks
	ScanID                       string           `json:"scanId"`
	ScanNumber                   int              `json:"scanNumber"`
	IsNewFingerprint             bool             `json:"isNewFingerprint"`
	PreviousScansFromFingerprint int              `json:"previousScansFromFingerprint"`
	UniqueScannerCount           int              `json:"uniqueScannerCount"`
	Question                     questionBlock    `json:"question"`
	History                      []scanEventBlock `json:"history,omitempty"`
}

type historyResponse struct {
	TagCode string           `json:"tagCode"`
	Scans   []scanEventBlock `json:"scans"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"`
}

type answerResponse struct {
	Success bool `json:"success"`
}

func toVerdictBlocks(result *verification.Result) verdictBlocks {
	blocks := verdictBlocks{
		Success:       true,
		TagCode:       result.Tag.Code,
		ProductIDs:    []string(result.Tag.ProductIDs),
		OverallValid:  result.OverallValid,
		OverallRisk:   result.OverallRisk,
		RiskScore:     result.RiskScore,
		Flags:         result.Flags,
		Blockchain:    toBlockchainBlock(result),
		Stats:         statsBlock(result.Stats),
		FraudAnalysis: result.Fraud,
	}
	if result.AI != nil {
		blocks.AIAnalysis = toAIBlock(result.AI)
	}
	return blocks
}

func toBlockchainBlock(result *verification.Result) blockchainBlock {
	block := blockchainBlock{
		IsStamped:      result.Chain.IsStampedInDB,
		Validated:      result.Chain.Validated,
		IsValidOnChain: result.Chain.IsValidOnChain,
		IsRevoked:      result.Chain.IsRevoked,
	}
	if result.Chain.Status != nil {
		status := result.Chain.Status.String()
		block.Status = &status
	}
	if result.Chain.StoredStatus != nil {
		stored := result.Chain.StoredStatus.String()
		block.StoredStatus = &stored
	}
	return block
}

func toAIBlock(ai *airiskmodels.Assessment) *aiBlock {
	block := &aiBlock{
		IsSuspicious:   ai.IsSuspicious,
		RiskLevel:      ai.RiskLevel,
		RiskScore:      ai.RiskScore,
		Reasons:        ai.Reasons,
		Recommendation: ai.Recommendation,
		Details:        ai.Details,
		FromCache:      ai.FromCache,
		Fallback:       ai.Fallback,
	}
	if !ai.ExpiresAt.IsZero() {
		expires := ai.ExpiresAt
		block.CacheExpiresAt = &expires
	}
	return block
}

func toScanEventBlocks(events []*scanmodels.ScanEvent) []scanEventBlock {
	blocks := make([]scanEventBlock, 0, len(events))
	for _, event := range events {
		blocks = append(blocks, scanEventBlock{
			ID:           event.ID.String(),
			ScanNumber:   event.ScanNumber,
			Fingerprint:  privacy.FingerprintDigest(event.FingerprintID),
			LocationName: event.LocationName,
			Latitude:     event.Latitude,
			Longitude:    event.Longitude,
			Browser:      event.Browser,
			OS:           event.OS,
			IsBot:        event.IsBot,
			IsClaimed:    event.IsClaimed,
			IsFirstHand:  event.IsFirstHand,
			SourceInfo:   event.SourceInfo,
			CreatedAt:    event.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return blocks
}

func toQuestionBlock(question scan.Question) questionBlock {
	block := questionBlock{Type: question.Type()}
	switch q := question.(type) {
	case scan.FirstScanQuestion:
		block.Prompt, block.Options = q.Prompt()
	case scan.SecondScanQuestion:
		block.Prompt, block.Options = q.Prompt()
	case scan.ThirdScanQuestion:
		block.Prompt = q.Prompt()
	}
	return block
}
