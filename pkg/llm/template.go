package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/propertyline/leadflow/pkg/models"
)

// TemplateDrafter produces deterministic reply text without an LLM. It is
// the fallback path: used when no API key is configured and whenever the
// Anthropic call fails, so every inbound still gets a complete plan.
type TemplateDrafter struct{}

// NewTemplateDrafter creates the fallback drafter.
func NewTemplateDrafter() *TemplateDrafter {
	return &TemplateDrafter{}
}

// DraftResponse assembles the reply from the turn objective plus canned
// tone and stall fragments.
func (d *TemplateDrafter) DraftResponse(_ context.Context, req *DraftRequest) (*Draft, error) {
	var parts []string

	if frag := stallFragment(req.Stall); frag != "" {
		parts = append(parts, frag)
	}
	if req.Objective != "" {
		parts = append(parts, req.Objective)
	}
	if len(parts) == 0 {
		parts = append(parts, "Thanks for the message! What would be most helpful for you right now?")
	}

	text := strings.Join(parts, " ")
	if req.LeadName != "" && req.Tone == models.ToneWarm {
		text = fmt.Sprintf("Hi %s! %s", req.LeadName, text)
	}
	return &Draft{Text: text, Model: "template"}, nil
}

func stallFragment(kind models.StallKind) string {
	switch kind {
	case models.StallThinking:
		return "Totally understand wanting to think it over."
	case models.StallPriceObjection:
		return "I hear you on the numbers, let's make sure they actually work for you."
	case models.StallZestimateFixation:
		return "Online estimates are a starting point, but they miss a lot about your specific home."
	case models.StallAgentConflict:
		return "No pressure at all if you're already working with someone."
	case models.StallBusy:
		return "I know things are hectic, this will only take a minute."
	case models.StallMaybeLater:
		return "No rush on my end, just want to keep you in the loop."
	default:
		return ""
	}
}
