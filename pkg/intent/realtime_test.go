package intent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propertyline/leadflow/pkg/models"
)

func newTestUpdater() *Updater {
	return NewUpdater(newTestDecoder())
}

// snapWithScore is a session snapshot with one prior user turn and a known
// score baseline.
func snapWithScore(frs, pcs float64) models.SessionSnapshot {
	return models.SessionSnapshot{
		LeadID:  "lead-1",
		History: []models.Message{userMsg("hi, following up on my place")},
		LastScore: &models.IntentProfile{
			FRS: models.FRSBreakdown{Total: frs},
			PCS: models.PCSBreakdown{Total: pcs},
		},
	}
}

func TestUpdate_FirstMessageRunsFullAnalysis(t *testing.T) {
	u := newTestUpdater()

	snap := models.SessionSnapshot{LeadID: "lead-1"}
	upd, profile, err := u.Update(snap, "Going through a divorce, need to sell my house fast, hoping to close in about 60 days. It's move-in ready but the roof needs work. Thinking around $450k.")
	require.NoError(t, err)

	require.NotNil(t, profile, "first message yields a full profile")
	assert.Equal(t, models.ClassificationHot, profile.Classification)
	assert.Zero(t, upd.FRSDelta)
	assert.Zero(t, upd.PCSDelta)
	assert.InDelta(t, 1.0, upd.Confidence, 0.001)
	assert.Equal(t, models.ActionImmediateCall, upd.RecommendedAction)
}

func TestUpdate_UrgencyAndCashDeltas(t *testing.T) {
	u := newTestUpdater()

	upd, profile, err := u.Update(snapWithScore(50, 50), "We're pre-approved and need to sell ASAP")
	require.NoError(t, err)

	assert.Nil(t, profile, "incremental updates skip the full analysis")
	// asap + need-to-sell at 5 each, pre-approved at 8
	assert.InDelta(t, 18, upd.FRSDelta, 0.01)
	assert.InDelta(t, 0.75, upd.Confidence, 0.001)
	assert.Contains(t, upd.SignalsDetected, models.SignalTimelineUrgency)
	assert.Contains(t, upd.SignalsDetected, models.SignalMotivationUp)
	// projected 68 is warm with a positive delta
	assert.Equal(t, models.ActionAccelerateSequence, upd.RecommendedAction)
}

func TestUpdate_HedgingAndShortReplyWarnOfDisengagement(t *testing.T) {
	u := newTestUpdater()

	upd, _, err := u.Update(snapWithScore(60, 50), "maybe")
	require.NoError(t, err)

	// weak commitment -5, under 5 words -2
	assert.InDelta(t, -7, upd.PCSDelta, 0.01)
	assert.Contains(t, upd.SignalsDetected, models.SignalMotivationDown)
	assert.Contains(t, upd.SignalsDetected, models.SignalDisengagementWarning)
	assert.Equal(t, models.ActionReEngagementRequired, upd.RecommendedAction)
}

func TestUpdate_HotWithHighConfidenceEscalatesToCall(t *testing.T) {
	u := newTestUpdater()

	upd, _, err := u.Update(snapWithScore(70, 60), "We're ready to sign ASAP, cash buyer, let's do it")
	require.NoError(t, err)

	assert.InDelta(t, 1.0, upd.Confidence, 0.001, "five markers cap confidence")
	assert.Greater(t, upd.FRSDelta, 0.0)
	assert.Greater(t, upd.PCSDelta, 0.0)
	assert.Equal(t, models.ActionImmediateCall, upd.RecommendedAction)
}

func TestUpdate_NeutralMessageRecommendsNurture(t *testing.T) {
	u := newTestUpdater()

	upd, _, err := u.Update(snapWithScore(40, 50), "the kitchen was remodeled about five years back")
	require.NoError(t, err)

	assert.Zero(t, upd.FRSDelta)
	assert.Zero(t, upd.Confidence)
	assert.Equal(t, models.ActionContinueNurture, upd.RecommendedAction)
}

func TestUpdate_PriceAndConditionSignals(t *testing.T) {
	u := newTestUpdater()

	upd, _, err := u.Update(snapWithScore(50, 50), "honestly the price feels high but we'd sell as-is")
	require.NoError(t, err)

	assert.Contains(t, upd.SignalsDetected, models.SignalPriceSensitivity)
	assert.Contains(t, upd.SignalsDetected, models.SignalConditionFlexibility)
}

func TestUpdate_TriggerIsTruncated(t *testing.T) {
	u := newTestUpdater()

	long := strings.Repeat("really long message ", 20)
	upd, _, err := u.Update(snapWithScore(50, 50), long)
	require.NoError(t, err)

	assert.Len(t, upd.Trigger, 100)
	assert.Equal(t, long[:100], upd.Trigger)
}

func TestUpdate_DeltasClampAtScoreBounds(t *testing.T) {
	u := newTestUpdater()

	// Near the ceiling the projected score clamps at 100 and still
	// classifies hot.
	upd, _, err := u.Update(snapWithScore(98, 90), "We're pre-approved, cash in hand, need to move ASAP")
	require.NoError(t, err)
	assert.Equal(t, models.ActionImmediateCall, upd.RecommendedAction)
}
