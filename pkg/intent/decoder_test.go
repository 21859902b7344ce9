package intent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propertyline/leadflow/pkg/config"
	"github.com/propertyline/leadflow/pkg/models"
)

func newTestDecoder() *Decoder {
	return NewDecoder(config.DefaultScoringConfig())
}

func userMsg(content string) models.Message {
	return models.Message{Role: models.RoleUser, Content: content}
}

func userMsgAt(content string, at time.Time) models.Message {
	return models.Message{Role: models.RoleUser, Content: content, Timestamp: at}
}

func TestAnalyze_EmptyHistory(t *testing.T) {
	d := newTestDecoder()

	profile, err := d.Analyze("lead-1", nil)
	require.NoError(t, err)

	assert.Equal(t, "lead-1", profile.LeadID)
	assert.Zero(t, profile.FRS.Total)
	assert.Zero(t, profile.PCS.Total)
	assert.Equal(t, models.ClassificationCold, profile.Classification)
	assert.Equal(t, string(models.ActionSoftFollowup), profile.NextBestAction)
}

func TestAnalyze_MalformedHistory(t *testing.T) {
	d := newTestDecoder()

	_, err := d.Analyze("lead-1", []models.Message{
		userMsg("hello"),
		{Role: models.RoleUser},
	})
	require.ErrorIs(t, err, ErrMalformedHistory)

	_, err = d.Analyze("lead-1", []models.Message{{Content: "no role"}})
	require.ErrorIs(t, err, ErrMalformedHistory)
}

func TestAnalyze_MotivatedSeller(t *testing.T) {
	d := newTestDecoder()

	history := []models.Message{
		userMsg("Going through a divorce, need to sell my house fast, hoping to close in about 60 days. It's move-in ready but the roof needs work. Thinking around $450k."),
	}

	profile, err := d.Analyze("lead-1", history)
	require.NoError(t, err)

	// divorce 30 + fast 20 + need-to-sell 20 + ready 15
	assert.InDelta(t, 85, profile.FRS.Motivation, 0.01)
	// 60 days sits in the 31-90 day bucket
	assert.InDelta(t, 80, profile.FRS.Timeline, 0.01)
	// two defects named plus realistic language
	assert.InDelta(t, 100, profile.FRS.Condition, 0.01)
	// explicit budget, no comps, no zestimate
	assert.InDelta(t, 75, profile.FRS.Price, 0.01)
	assert.InDelta(t, 85, profile.FRS.Total, 0.01)

	assert.Equal(t, models.ClassificationHot, profile.Classification)
	assert.Equal(t, string(models.ActionImmediateCall), profile.NextBestAction)

	// sell, my house, close → 3/(3+3)
	assert.InDelta(t, 0.5, profile.SellerConfidence, 0.001)
	assert.Zero(t, profile.BuyerConfidence)

	assert.Contains(t, profile.DetectedMarkers, "divorce")
	assert.Contains(t, profile.DetectedMarkers, "roof")
	assert.Contains(t, profile.DetectedMarkers, "budget-stated")
}

func TestAnalyze_CuriosityOnlyScoresCold(t *testing.T) {
	d := newTestDecoder()

	profile, err := d.Analyze("lead-1", []models.Message{
		userMsg("Just browsing, not really looking. No rush."),
	})
	require.NoError(t, err)

	assert.Zero(t, profile.FRS.Motivation, "curiosity markers clamp motivation at 0")
	assert.InDelta(t, 20, profile.FRS.Timeline, 0.01, "no stated timeline scores the floor")
	assert.Equal(t, models.ClassificationCold, profile.Classification)
	assert.Equal(t, string(models.ActionSoftFollowup), profile.NextBestAction)
}

func TestAnalyze_ZestimateFixationPenalizesPrice(t *testing.T) {
	d := newTestDecoder()

	profile, err := d.Analyze("lead-1", []models.Message{
		userMsg("The zestimate says my home is worth $500k and I won't take less."),
	})
	require.NoError(t, err)

	// budget +25 cancelled by the zestimate penalty -25
	assert.InDelta(t, 50, profile.FRS.Price, 0.01)
	assert.Contains(t, profile.DetectedMarkers, "zestimate")
}

func TestAnalyze_PerfectConditionClaimPenalized(t *testing.T) {
	d := newTestDecoder()

	profile, err := d.Analyze("lead-1", []models.Message{
		userMsg("I want to sell my house. It's in perfect condition, nothing to fix."),
	})
	require.NoError(t, err)

	assert.InDelta(t, 30, profile.FRS.Condition, 0.01)
}

func TestAnalyze_BuyerConversationScoresNeutralCondition(t *testing.T) {
	d := newTestDecoder()

	profile, err := d.Analyze("lead-1", []models.Message{
		userMsg("We want to buy our first home and we're pre-approved for a mortgage."),
	})
	require.NoError(t, err)

	assert.InDelta(t, 50, profile.FRS.Condition, 0.01,
		"condition only applies to seller conversations")
	assert.Greater(t, profile.BuyerConfidence, profile.SellerConfidence)
}

func TestAnalyze_TotalIsWeightedSum(t *testing.T) {
	d := newTestDecoder()
	w := config.DefaultScoringConfig().FRSWeights

	profile, err := d.Analyze("lead-1", []models.Message{
		userMsg("Need to sell my house asap, maybe 2 weeks. The kitchen is outdated."),
		userMsg("Budget-wise I'm hoping for $380k based on recent comps."),
	})
	require.NoError(t, err)

	want := w.Motivation*profile.FRS.Motivation +
		w.Timeline*profile.FRS.Timeline +
		w.Condition*profile.FRS.Condition +
		w.Price*profile.FRS.Price
	assert.InDelta(t, want, profile.FRS.Total, 0.001)
}

func TestAnalyze_Deterministic(t *testing.T) {
	d := newTestDecoder()
	history := []models.Message{
		userMsg("Thinking of selling my home, maybe in 6 months."),
		{Role: models.RoleAssistant, Content: "What's prompting the move?"},
		userMsg("New job, we're relocating."),
	}

	a, err := d.Analyze("lead-1", history)
	require.NoError(t, err)
	b, err := d.Analyze("lead-1", history)
	require.NoError(t, err)

	assert.Equal(t, a.FRS, b.FRS)
	assert.Equal(t, a.PCS, b.PCS)
	assert.Equal(t, a.Classification, b.Classification)
	assert.Equal(t, a.DetectedMarkers, b.DetectedMarkers)
}

func TestScoreTimeline_Buckets(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{name: "no timeline", text: "sometime whenever", want: 20},
		{name: "2 weeks", text: "in 2 weeks", want: 100},
		{name: "30 days", text: "within 30 days", want: 100},
		{name: "3 months", text: "about 3 months out", want: 80},
		{name: "6 months", text: "in 6 months", want: 60},
		{name: "1 year", text: "in 1 year", want: 40},
		{name: "2 years", text: "maybe 2 years", want: 20},
		{name: "shortest wins", text: "we said 1 year but really 3 weeks", want: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scoreTimeline(tt.text), 0.01)
		})
	}
}

func TestClassify_Boundaries(t *testing.T) {
	d := newTestDecoder()
	tests := []struct {
		frs  float64
		want models.Classification
	}{
		{100, models.ClassificationHot},
		{75, models.ClassificationHot},
		{74.99, models.ClassificationWarm},
		{50, models.ClassificationWarm},
		{49.99, models.ClassificationLukewarm},
		{25, models.ClassificationLukewarm},
		{24.99, models.ClassificationCold},
		{0, models.ClassificationCold},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, d.classify(tt.frs), "frs=%v", tt.frs)
	}
}

func TestPCS_VelocityBuckets(t *testing.T) {
	d := newTestDecoder()
	base := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	fast, err := d.Analyze("lead-1", []models.Message{
		userMsgAt("is the price negotiable?", base),
		userMsgAt("what about the school district?", base.Add(1*time.Minute)),
		userMsgAt("ok, when can we see it?", base.Add(2*time.Minute)),
	})
	require.NoError(t, err)
	assert.InDelta(t, 100, fast.PCS.ResponseVelocity, 0.01)

	slow, err := d.Analyze("lead-1", []models.Message{
		userMsgAt("is the price negotiable?", base),
		userMsgAt("what about the school district?", base.Add(2*time.Hour)),
		userMsgAt("ok, when can we see it?", base.Add(4*time.Hour)),
	})
	require.NoError(t, err)
	assert.InDelta(t, 40, slow.PCS.ResponseVelocity, 0.01)
}

func TestPCS_QuestionDepthNeedsDomainNouns(t *testing.T) {
	d := newTestDecoder()

	shallow, err := d.Analyze("lead-1", []models.Message{
		userMsg("how are you today?"),
	})
	require.NoError(t, err)
	assert.Zero(t, shallow.PCS.QuestionDepth, "small talk questions don't count")

	deep, err := d.Analyze("lead-1", []models.Message{
		userMsg("what price range fits this neighborhood?"),
	})
	require.NoError(t, err)
	assert.InDelta(t, 100, deep.PCS.QuestionDepth, 0.01)
}

func TestPCS_ObjectionOvercomeRaisesScore(t *testing.T) {
	d := newTestDecoder()

	unresolved, err := d.Analyze("lead-1", []models.Message{
		userMsg("that offer is too low for this market"),
	})
	require.NoError(t, err)
	assert.InDelta(t, 35, unresolved.PCS.ObjectionHandling, 0.01)

	resolved, err := d.Analyze("lead-1", []models.Message{
		userMsg("that offer is too low for this market"),
		userMsg("actually, you're right about the comps"),
	})
	require.NoError(t, err)
	assert.InDelta(t, 65, resolved.PCS.ObjectionHandling, 0.01)
}

func TestPCS_CallAcceptance(t *testing.T) {
	d := newTestDecoder()

	profile, err := d.Analyze("lead-1", []models.Message{
		userMsg("sure, give me a call tomorrow"),
	})
	require.NoError(t, err)
	assert.InDelta(t, 100, profile.PCS.CallAcceptance, 0.01)
}
