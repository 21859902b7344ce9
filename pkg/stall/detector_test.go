package stall

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/propertyline/leadflow/pkg/models"
)

func userMsg(content string) models.Message {
	return models.Message{Role: models.RoleUser, Content: content}
}

func TestDetect_Kinds(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    models.StallKind
		matched string
	}{
		{name: "thinking", content: "I need to think about it some more", want: models.StallThinking, matched: "need to think"},
		{name: "price objection", content: "Honestly that's too expensive for us", want: models.StallPriceObjection, matched: "too expensive"},
		{name: "zestimate fixation", content: "But the Zillow estimate is way higher", want: models.StallZestimateFixation, matched: "zillow estimate"},
		{name: "agent conflict", content: "We already have an agent we like", want: models.StallAgentConflict, matched: "already have an agent"},
		{name: "busy", content: "Sorry, it's been a crazy week", want: models.StallBusy, matched: "crazy week"},
		{name: "maybe later", content: "Let's circle back after the holidays", want: models.StallMaybeLater, matched: "circle back"},
		{name: "clean", content: "Yes, Saturday at 2pm works for the showing", want: models.StallNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Detect([]models.Message{userMsg(tt.content)})
			assert.Equal(t, tt.want, res.Kind)
			assert.Equal(t, tt.matched, res.Matched)
		})
	}
}

func TestDetect_FirstTableWinsOnTies(t *testing.T) {
	// Both a thinking phrase and a price objection are present; table
	// order makes the outcome deterministic.
	res := Detect([]models.Message{
		userMsg("Let me think about it, the price is too high anyway"),
	})
	assert.Equal(t, models.StallThinking, res.Kind)
}

func TestDetect_IgnoresAssistantMessages(t *testing.T) {
	res := Detect([]models.Message{
		{Role: models.RoleAssistant, Content: "Take your time, no need to think about it today."},
		userMsg("Sounds good, send over the paperwork"),
	})
	assert.Equal(t, models.StallNone, res.Kind)
}

func TestDetectWindow_OldStallAgesOut(t *testing.T) {
	history := []models.Message{userMsg("I need to sleep on it")}
	for i := 0; i < 6; i++ {
		history = append(history, userMsg(fmt.Sprintf("clean reply number %d", i)))
	}

	assert.Equal(t, models.StallThinking, DetectWindow(history, 7).Kind)
	assert.Equal(t, models.StallNone, Detect(history).Kind,
		"the default window only covers the last 6 user messages")
}

func TestDetectWindow_SingleMessageWindow(t *testing.T) {
	history := []models.Message{
		userMsg("maybe later, we're slammed"),
		userMsg("ok actually let's talk now"),
	}

	assert.Equal(t, models.StallMaybeLater, DetectWindow(history, 2).Kind)
	assert.Equal(t, models.StallNone, DetectWindow(history, 1).Kind,
		"a window of 1 sees only the newest reply")
}

func TestDetect_EmptyHistory(t *testing.T) {
	assert.Equal(t, models.StallNone, Detect(nil).Kind)
}
