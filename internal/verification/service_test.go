package verification

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veritag/internal/airisk"
	airiskmodels "veritag/internal/airisk/models"
	airiskstore "veritag/internal/airisk/store"
	"veritag/internal/chain"
	"veritag/internal/scan"
	scanmodels "veritag/internal/scan/models"
	scanstore "veritag/internal/scan/store"
	tagmodels "veritag/internal/tag/models"
	tagstore "veritag/internal/tag/store"
	id "veritag/pkg/domain"
	dErrors "veritag/pkg/domain-errors"
	audit "veritag/pkg/platform/audit"
	"veritag/pkg/platform/audit/publisher"
	auditmemory "veritag/pkg/platform/audit/sink/memory"
	"veritag/pkg/platform/remote"
)

type fakeChainClient struct {
	record *chain.OnChainTagRecord
	err    error
}

func (f *fakeChainClient) ValidateTag(ctx context.Context, code string) (*chain.OnChainTagRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	copied := *f.record
	return &copied, nil
}

func (f *fakeChainClient) ValidateByHash(ctx context.Context, hash string) (*chain.OnChainTagRecord, error) {
	return f.ValidateTag(ctx, hash)
}

func (f *fakeChainClient) TagExistsByHash(ctx context.Context, hash string) (bool, error) {
	return f.record != nil && f.record.Exists, f.err
}

type fakeRiskClient struct {
	assessment *airiskmodels.Assessment
	err        error
	calls      int
}

func (f *fakeRiskClient) Assess(ctx context.Context, req airisk.AssessRequest) (*airiskmodels.Assessment, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	copied := *f.assessment
	return &copied, nil
}

type fixture struct {
	service *Service
	tags    *tagstore.InMemoryTagStore
	sink    *auditmemory.Sink
	tag     *tagmodels.Tag
}

func lowRiskAssessment() *airiskmodels.Assessment {
	return &airiskmodels.Assessment{
		RiskLevel:      airiskmodels.RiskLow,
		RiskScore:      5,
		Reasons:        []string{"Distribution pattern consistent"},
		Recommendation: "No action needed",
		Details:        airiskmodels.MatchDetails{LocationMatch: true, ChannelMatch: true, MarketMatch: true},
	}
}

func newFixture(t *testing.T, chainClient chain.Client, riskClient airisk.Client) *fixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	tags := tagstore.NewInMemoryTagStore()
	status := tagmodels.StatusClaimed
	hashTx := "0xfeed01"
	tag := &tagmodels.Tag{
		ID:          id.NewTagID(),
		Code:        "VT-ORCH-001",
		ProductIDs:  []string{"prod-1"},
		IsStamped:   true,
		HashTx:      &hashTx,
		ChainStatus: &status,
		Metadata: map[string]string{
			tagmodels.MetaDistributionCountry: "Japan",
			tagmodels.MetaIntendedMarket:      "JP",
		},
	}
	tags.Seed(tag)

	ledger := scan.NewLedger(scanstore.NewInMemoryScanStore(), scan.WithLogger(logger))
	reconciler := chain.NewReconciler(chainClient, tags,
		remote.NewCaller("chain-registry", time.Second, logger), logger)
	risk := airisk.NewService(riskClient, airiskstore.NewInMemoryCacheStore(),
		remote.NewCaller("ai-risk", time.Second, logger), logger)

	sink := auditmemory.NewSink()
	pub := publisher.NewPublisher(sink, publisher.WithLogger(logger))
	t.Cleanup(func() { pub.Close() })

	service := NewService(tags, ledger, reconciler, risk, logger, WithAudit(pub))
	return &fixture{service: service, tags: tags, sink: sink, tag: tag}
}

func claimedChainClient() *fakeChainClient {
	return &fakeChainClient{record: &chain.OnChainTagRecord{
		Hash:    "0xfeed01",
		Status:  tagmodels.StatusClaimed,
		Exists:  true,
		IsValid: true,
	}}
}

func observation(fingerprint, location string) scan.Observation {
	obs := scan.Observation{
		FingerprintID: fingerprint,
		IPAddress:     "203.0.113.9",
		UserAgent:     "Mozilla/5.0 (X11; Linux x86_64) Firefox/133.0",
	}
	if location != "" {
		obs.Geo.LocationName = &location
	}
	return obs
}

func TestScan_InterviewProgression(t *testing.T) {
	f := newFixture(t, claimedChainClient(), &fakeRiskClient{assessment: lowRiskAssessment()})
	ctx := context.Background()

	first, err := f.service.Scan(ctx, "VT-ORCH-001", observation("F1", "Tokyo, Japan"))
	require.NoError(t, err)
	assert.Equal(t, 1, first.Outcome.ScanNumber)
	assert.Equal(t, "first_scan", first.Outcome.Question.Type())
	assert.Equal(t, "low", first.OverallRisk)
	assert.True(t, first.OverallValid)
	require.NotEmpty(t, first.Flags)
	assert.Equal(t, "verified", first.Flags[0].Type)

	second, err := f.service.Scan(ctx, "VT-ORCH-001", observation("F2", "Osaka, Japan"))
	require.NoError(t, err)
	assert.Equal(t, 2, second.Outcome.ScanNumber)
	assert.Equal(t, "second_scan", second.Outcome.Question.Type())

	third, err := f.service.Scan(ctx, "VT-ORCH-001", observation("F1", "Tokyo, Japan"))
	require.NoError(t, err)
	assert.Equal(t, 3, third.Outcome.ScanNumber)
	assert.Equal(t, "no_question", third.Outcome.Question.Type())
	assert.False(t, third.Outcome.IsNewFingerprint)
	assert.Equal(t, 1, third.Outcome.PreviousScansFromFingerprint)

	// The scan path counts the presenting scan in its statistics.
	assert.Equal(t, 3, third.Stats.TotalScans)
	assert.Equal(t, 2, third.Stats.UniqueScanners)
}

func TestVerify_ReadOnlyAndCacheIdempotent(t *testing.T) {
	riskClient := &fakeRiskClient{assessment: lowRiskAssessment()}
	f := newFixture(t, claimedChainClient(), riskClient)
	ctx := context.Background()

	location := "Tokyo, Japan"
	first, err := f.service.Verify(ctx, "VT-ORCH-001", scanmodels.Geo{LocationName: &location})
	require.NoError(t, err)
	require.NotNil(t, first.AI)
	assert.False(t, first.AI.FromCache)

	second, err := f.service.Verify(ctx, "VT-ORCH-001", scanmodels.Geo{LocationName: &location})
	require.NoError(t, err)
	require.NotNil(t, second.AI)
	assert.True(t, second.AI.FromCache)
	assert.Equal(t, 1, riskClient.calls)
	assert.Equal(t, first.AI.RiskScore, second.AI.RiskScore)
	assert.Equal(t, first.AI.Reasons, second.AI.Reasons)

	// Verifying twice did not grow the ledger.
	assert.Empty(t, second.History)
}

func TestVerify_ChainDegradationIsNotFatal(t *testing.T) {
	f := newFixture(t, &fakeChainClient{err: errors.New("node unreachable")},
		&fakeRiskClient{assessment: lowRiskAssessment()})

	location := "Tokyo, Japan"
	got, err := f.service.Verify(context.Background(), "VT-ORCH-001", scanmodels.Geo{LocationName: &location})
	require.NoError(t, err)

	assert.False(t, got.Chain.Validated)
	assert.Nil(t, got.Chain.Status)
	require.NotNil(t, got.Chain.StoredStatus)
	assert.Equal(t, tagmodels.StatusClaimed, *got.Chain.StoredStatus)

	// The deterministic verdict is still fully populated, and the stored
	// status keeps the tag valid.
	assert.True(t, got.OverallValid)
	assert.NotEmpty(t, got.Fraud.OverallRisk)

	var degraded bool
	for _, event := range f.sink.ByTag("VT-ORCH-001") {
		if event.Action == string(audit.EventChainDegraded) {
			degraded = true
		}
	}
	assert.True(t, degraded)
}

func TestVerify_AIFallbackMergedIntoFlags(t *testing.T) {
	f := newFixture(t, claimedChainClient(), &fakeRiskClient{err: errors.New("risk service down")})

	location := "Lagos, Nigeria"
	got, err := f.service.Verify(context.Background(), "VT-ORCH-001", scanmodels.Geo{LocationName: &location})
	require.NoError(t, err)

	require.NotNil(t, got.AI)
	assert.True(t, got.AI.Fallback)

	// Quick check says medium 50; heuristics say 20 (location mismatch).
	// The higher score wins and its reason joins the flag list.
	assert.Equal(t, 50, got.RiskScore)
	assert.Equal(t, "medium", got.OverallRisk)

	var aiFlag bool
	for _, flag := range got.Flags {
		if flag.Type == "ai_risk" {
			aiFlag = true
		}
	}
	assert.True(t, aiFlag)
}

func TestVerify_AIScoreWinsComposite(t *testing.T) {
	f := newFixture(t, claimedChainClient(), &fakeRiskClient{assessment: &airiskmodels.Assessment{
		IsSuspicious: true,
		RiskLevel:    airiskmodels.RiskHigh,
		RiskScore:    65,
		Reasons:      []string{"Resale cluster detected", "NO FRAUD INDICATORS DETECTED"},
	}})
	ctx := context.Background()

	_, err := f.service.Scan(ctx, "VT-ORCH-001", observation("F1", "Tokyo, Japan"))
	require.NoError(t, err)

	location := "Tokyo, Japan"
	got, err := f.service.Verify(ctx, "VT-ORCH-001", scanmodels.Geo{LocationName: &location})
	require.NoError(t, err)

	assert.Equal(t, 65, got.RiskScore)
	assert.Equal(t, "high", got.OverallRisk)

	// The second AI reason duplicates the heuristic "verified" message in a
	// different case and must not be re-added.
	var aiMessages []string
	for _, flag := range got.Flags {
		if flag.Type == "ai_risk" {
			aiMessages = append(aiMessages, flag.Message)
		}
	}
	assert.Equal(t, []string{"Resale cluster detected"}, aiMessages)
}

func TestVerify_AIRepeatedReasonsCollapse(t *testing.T) {
	f := newFixture(t, claimedChainClient(), &fakeRiskClient{assessment: &airiskmodels.Assessment{
		IsSuspicious: true,
		RiskLevel:    airiskmodels.RiskMedium,
		RiskScore:    45,
		Reasons: []string{
			"Resale cluster detected",
			"RESALE CLUSTER DETECTED",
			"Resale cluster detected",
			"Unusual scan velocity",
		},
	}})

	location := "Tokyo, Japan"
	got, err := f.service.Verify(context.Background(), "VT-ORCH-001", scanmodels.Geo{LocationName: &location})
	require.NoError(t, err)

	var aiMessages []string
	for _, flag := range got.Flags {
		if flag.Type == "ai_risk" {
			aiMessages = append(aiMessages, flag.Message)
		}
	}
	assert.Equal(t, []string{"Resale cluster detected", "Unusual scan velocity"}, aiMessages)
}

func TestScan_RevokedTagInvalid(t *testing.T) {
	client := &fakeChainClient{record: &chain.OnChainTagRecord{
		Hash:    "0xfeed01",
		Status:  tagmodels.StatusRevoked,
		Exists:  true,
		IsValid: true,
	}}
	f := newFixture(t, client, &fakeRiskClient{assessment: lowRiskAssessment()})

	got, err := f.service.Scan(context.Background(), "VT-ORCH-001", observation("F1", "Tokyo, Japan"))
	require.NoError(t, err)

	assert.False(t, got.OverallValid)
	assert.True(t, got.Chain.IsRevoked)
	assert.GreaterOrEqual(t, got.RiskScore, 50)

	var revokedEvent bool
	for _, event := range f.sink.ByTag("VT-ORCH-001") {
		if event.Action == string(audit.EventRevokedPresented) {
			revokedEvent = true
		}
	}
	assert.True(t, revokedEvent)
}

func TestVerify_UnknownTag(t *testing.T) {
	f := newFixture(t, claimedChainClient(), &fakeRiskClient{assessment: lowRiskAssessment()})

	_, err := f.service.Verify(context.Background(), "VT-NOPE", scanmodels.Geo{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestRecordAnswer_UnknownScan(t *testing.T) {
	f := newFixture(t, claimedChainClient(), &fakeRiskClient{assessment: lowRiskAssessment()})

	yes := true
	err := f.service.RecordAnswer(context.Background(), id.NewScanID(), scanmodels.Answer{IsFirstHand: &yes})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
