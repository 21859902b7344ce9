// Package llm drafts outbound conversation text. The production drafter is
// backed by the Anthropic Messages API; a deterministic template drafter
// serves as the fallback when no API key is configured or a call fails.
package llm

import (
	"context"

	"github.com/propertyline/leadflow/pkg/models"
)

// DraftRequest carries everything the drafter needs to phrase one reply.
type DraftRequest struct {
	LeadID         string
	LeadName       string
	Bot            models.BotKind
	Tone           models.Tone
	Classification models.Classification
	Stall          models.StallKind
	// Objective is the scripted goal of this turn, e.g. the next seller
	// qualification question or the nurture touch message.
	Objective string
	History   []models.Message
}

// Draft is one generated reply plus usage accounting.
type Draft struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Drafter turns a DraftRequest into reply text.
type Drafter interface {
	DraftResponse(ctx context.Context, req *DraftRequest) (*Draft, error)
}
