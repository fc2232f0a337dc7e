package scan

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veritag/internal/scan/store"
	tagmodels "veritag/internal/tag/models"
	id "veritag/pkg/domain"
)

func testLedger() (*Ledger, *tagmodels.Tag) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ledger := NewLedger(store.NewInMemoryScanStore(), WithLogger(logger))
	tag := &tagmodels.Tag{
		ID:        id.NewTagID(),
		Code:      "T1",
		IsStamped: true,
	}
	return ledger, tag
}

func obs(fingerprint string) Observation {
	return Observation{
		FingerprintID: fingerprint,
		IPAddress:     "203.0.113.10",
		UserAgent:     "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
	}
}

func TestRecordScan_FirstObserverGetsFirstScanQuestion(t *testing.T) {
	ledger, tag := testLedger()
	ctx := context.Background()

	outcome, err := ledger.RecordScan(ctx, tag, obs("F1"))
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.ScanNumber)
	assert.Equal(t, 1, outcome.TotalScans)
	assert.True(t, outcome.IsNewFingerprint)
	assert.Equal(t, 0, outcome.PreviousScansFromFingerprint)
	assert.Equal(t, "first_scan", outcome.Question.Type())
	assert.Empty(t, outcome.History)
}

func TestRecordScan_SecondObserverGetsSecondScanQuestion(t *testing.T) {
	ledger, tag := testLedger()
	ctx := context.Background()

	_, err := ledger.RecordScan(ctx, tag, obs("F1"))
	require.NoError(t, err)

	outcome, err := ledger.RecordScan(ctx, tag, obs("F2"))
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.ScanNumber)
	assert.True(t, outcome.IsNewFingerprint)
	assert.Equal(t, "second_scan", outcome.Question.Type())
	assert.Equal(t, 2, outcome.UniqueScanners)
}

func TestRecordScan_ThirdObserverGetsOpenQuestion(t *testing.T) {
	ledger, tag := testLedger()
	ctx := context.Background()

	for _, fp := range []string{"F1", "F2"} {
		_, err := ledger.RecordScan(ctx, tag, obs(fp))
		require.NoError(t, err)
	}

	outcome, err := ledger.RecordScan(ctx, tag, obs("F3"))
	require.NoError(t, err)
	assert.Equal(t, "third_scan", outcome.Question.Type())
}

func TestRecordScan_ReturningFingerprintNeverAsked(t *testing.T) {
	ledger, tag := testLedger()
	ctx := context.Background()

	_, err := ledger.RecordScan(ctx, tag, obs("F1"))
	require.NoError(t, err)
	_, err = ledger.RecordScan(ctx, tag, obs("F2"))
	require.NoError(t, err)

	// F1 again: known device, no interview, history included.
	outcome, err := ledger.RecordScan(ctx, tag, obs("F1"))
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.ScanNumber)
	assert.False(t, outcome.IsNewFingerprint)
	assert.Equal(t, 1, outcome.PreviousScansFromFingerprint)
	assert.Equal(t, "no_question", outcome.Question.Type())
	assert.Len(t, outcome.History, 2)
}

func TestRecordScan_FourthObserverGetsNoQuestionWithHistory(t *testing.T) {
	ledger, tag := testLedger()
	ctx := context.Background()

	for _, fp := range []string{"F1", "F2", "F3"} {
		_, err := ledger.RecordScan(ctx, tag, obs(fp))
		require.NoError(t, err)
	}

	outcome, err := ledger.RecordScan(ctx, tag, obs("F4"))
	require.NoError(t, err)

	assert.True(t, outcome.IsNewFingerprint)
	assert.Equal(t, "no_question", outcome.Question.Type())
	assert.Len(t, outcome.History, 3)
	assert.Equal(t, 4, outcome.UniqueScanners)
}

func TestRecordScan_ParsesUserAgent(t *testing.T) {
	ledger, tag := testLedger()

	outcome, err := ledger.RecordScan(context.Background(), tag, obs("F1"))
	require.NoError(t, err)

	assert.NotEmpty(t, outcome.Scan.Browser)
	assert.NotEmpty(t, outcome.Scan.OS)
	assert.False(t, outcome.Scan.IsBot)
}

func TestComputeStats(t *testing.T) {
	ledger, tag := testLedger()
	ctx := context.Background()

	locations := []string{"Paris, France", "Lyon, France", "Milan, Italy"}
	for i, fp := range []string{"F1", "F2", "F1"} {
		o := obs(fp)
		o.Geo.LocationName = &locations[i]
		_, err := ledger.RecordScan(ctx, tag, o)
		require.NoError(t, err)
	}

	scans, err := ledger.History(ctx, tag.ID)
	require.NoError(t, err)

	stats := ComputeStats(scans)
	assert.Equal(t, 3, stats.TotalScans)
	assert.Equal(t, 2, stats.UniqueScanners)
	// Newest first.
	assert.Equal(t, []string{"Milan, Italy", "Lyon, France", "Paris, France"}, stats.RecentLocations)
}

func TestQuestionFor_Exhaustive(t *testing.T) {
	cases := []struct {
		isNew  bool
		unique int
		want   string
	}{
		{true, 0, "first_scan"},
		{true, 1, "second_scan"},
		{true, 2, "third_scan"},
		{true, 3, "no_question"},
		{true, 10, "no_question"},
		{false, 0, "no_question"},
		{false, 2, "no_question"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, questionFor(tc.isNew, tc.unique).Type(),
			"isNew=%v unique=%d", tc.isNew, tc.unique)
	}
}
