package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/propertyline/leadflow/pkg/models"
)

// defaultMaxTokens caps one drafted reply. SMS-sized output; long replies
// are a drafting defect, not a capability.
const defaultMaxTokens = 1024

// MessagesClient captures the subset of the Anthropic SDK used by the
// drafter. Satisfied by *sdk.MessageService; tests pass a mock.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// AnthropicDrafter implements Drafter on top of the Anthropic Messages API.
type AnthropicDrafter struct {
	msg       MessagesClient
	model     string
	maxTokens int64
}

// NewAnthropicDrafter builds a drafter from an existing Messages client.
func NewAnthropicDrafter(msg MessagesClient, model string) (*AnthropicDrafter, error) {
	if msg == nil {
		return nil, errors.New("anthropic messages client is required")
	}
	if model == "" {
		return nil, errors.New("model identifier is required")
	}
	return &AnthropicDrafter{msg: msg, model: model, maxTokens: defaultMaxTokens}, nil
}

// NewAnthropicDrafterFromAPIKey constructs a drafter with the default
// Anthropic HTTP client.
func NewAnthropicDrafterFromAPIKey(apiKey, model string) (*AnthropicDrafter, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	ac := sdk.NewClient(option.WithAPIKey(apiKey))
	return NewAnthropicDrafter(&ac.Messages, model)
}

// DraftResponse issues one Messages.New call and returns the first text
// block of the reply.
func (d *AnthropicDrafter) DraftResponse(ctx context.Context, req *DraftRequest) (*Draft, error) {
	msgs := encodeHistory(req.History)
	if len(msgs) == 0 {
		return nil, errors.New("conversation history is required")
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(d.model),
		MaxTokens: d.maxTokens,
		Messages:  msgs,
		System:    []sdk.TextBlockParam{{Text: systemPrompt(req)}},
	}

	msg, err := d.msg.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic messages.new: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return nil, errors.New("anthropic returned no text content")
	}

	return &Draft{
		Text:         strings.TrimSpace(text),
		Model:        d.model,
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}, nil
}

// encodeHistory maps conversation turns onto SDK messages. System turns are
// skipped: the drafter owns the system prompt.
func encodeHistory(history []models.Message) []sdk.MessageParam {
	out := make([]sdk.MessageParam, 0, len(history))
	for _, m := range history {
		if m.Content == "" {
			continue
		}
		switch m.Role {
		case models.RoleUser:
			out = append(out, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		case models.RoleAssistant:
			out = append(out, sdk.NewAssistantMessage(sdk.NewTextBlock(m.Content)))
		}
	}
	return out
}

// systemPrompt assembles the persona, tone, and turn objective.
func systemPrompt(req *DraftRequest) string {
	var b strings.Builder
	b.WriteString("You are a real estate assistant texting with a lead. ")
	b.WriteString("Reply in one short, natural SMS-length message. ")
	b.WriteString("Never mention scores, classifications, or internal processes.\n")

	if req.LeadName != "" {
		fmt.Fprintf(&b, "Lead name: %s.\n", req.LeadName)
	}
	fmt.Fprintf(&b, "Conversation temperature: %s.\n", req.Classification)

	switch req.Tone {
	case models.ToneWarm:
		b.WriteString("Tone: warm and encouraging.\n")
	case models.ToneDirect:
		b.WriteString("Tone: direct and efficient, no filler.\n")
	case models.ToneConfrontational:
		b.WriteString("Tone: politely challenge the hesitation, name the pattern you see.\n")
	case models.ToneTakeAway:
		b.WriteString("Tone: take-away. Give them an easy out and step back.\n")
	}

	if req.Stall != "" && req.Stall != models.StallNone {
		fmt.Fprintf(&b, "The lead appears to be stalling (%s). Address it before moving on.\n", req.Stall)
	}
	if req.Objective != "" {
		fmt.Fprintf(&b, "Goal of this message: %s\n", req.Objective)
	}
	return b.String()
}
