package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propertyline/leadflow/pkg/models"
)

type stubMessagesClient struct {
	lastParams sdk.MessageNewParams
	resp       *sdk.Message
	err        error
}

func (s *stubMessagesClient) New(_ context.Context, body sdk.MessageNewParams, _ ...option.RequestOption) (*sdk.Message, error) {
	s.lastParams = body
	return s.resp, s.err
}

func draftReq() *DraftRequest {
	return &DraftRequest{
		LeadID:         "lead-1",
		LeadName:       "Sarah",
		Bot:            models.BotSellerQualify,
		Tone:           models.ToneWarm,
		Classification: models.ClassificationWarm,
		Objective:      "Ask about their selling timeline.",
		History: []models.Message{
			{Role: models.RoleUser, Content: "thinking about selling my house", Timestamp: time.Now()},
		},
	}
}

func TestAnthropicDrafter_DraftResponse(t *testing.T) {
	stub := &stubMessagesClient{
		resp: &sdk.Message{
			Content: []sdk.ContentBlockUnion{
				{Type: "text", Text: "  When were you hoping to have it sold by?  "},
			},
			Usage: sdk.Usage{InputTokens: 42, OutputTokens: 12},
		},
	}
	d, err := NewAnthropicDrafter(stub, "claude-sonnet-4-5")
	require.NoError(t, err)

	draft, err := d.DraftResponse(context.Background(), draftReq())
	require.NoError(t, err)
	assert.Equal(t, "When were you hoping to have it sold by?", draft.Text)
	assert.Equal(t, "claude-sonnet-4-5", draft.Model)
	assert.Equal(t, 42, draft.InputTokens)
	assert.Equal(t, 12, draft.OutputTokens)

	assert.Equal(t, sdk.Model("claude-sonnet-4-5"), stub.lastParams.Model)
	require.Len(t, stub.lastParams.Messages, 1)
	require.Len(t, stub.lastParams.System, 1)
	assert.Contains(t, stub.lastParams.System[0].Text, "Ask about their selling timeline.")
	assert.Contains(t, stub.lastParams.System[0].Text, "Sarah")
}

func TestAnthropicDrafter_StallInPrompt(t *testing.T) {
	stub := &stubMessagesClient{
		resp: &sdk.Message{
			Content: []sdk.ContentBlockUnion{{Type: "text", Text: "reply"}},
		},
	}
	d, err := NewAnthropicDrafter(stub, "claude-sonnet-4-5")
	require.NoError(t, err)

	req := draftReq()
	req.Stall = models.StallZestimateFixation

	_, err = d.DraftResponse(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, stub.lastParams.System[0].Text, string(models.StallZestimateFixation))
}

func TestAnthropicDrafter_APIError(t *testing.T) {
	stub := &stubMessagesClient{err: errors.New("rate limited")}
	d, err := NewAnthropicDrafter(stub, "claude-sonnet-4-5")
	require.NoError(t, err)

	_, err = d.DraftResponse(context.Background(), draftReq())
	assert.ErrorContains(t, err, "rate limited")
}

func TestAnthropicDrafter_NoTextContent(t *testing.T) {
	stub := &stubMessagesClient{resp: &sdk.Message{}}
	d, err := NewAnthropicDrafter(stub, "claude-sonnet-4-5")
	require.NoError(t, err)

	_, err = d.DraftResponse(context.Background(), draftReq())
	assert.ErrorContains(t, err, "no text content")
}

func TestTemplateDrafter(t *testing.T) {
	d := NewTemplateDrafter()

	t.Run("objective with warm greeting", func(t *testing.T) {
		draft, err := d.DraftResponse(context.Background(), draftReq())
		require.NoError(t, err)
		assert.Contains(t, draft.Text, "Hi Sarah!")
		assert.Contains(t, draft.Text, "Ask about their selling timeline.")
		assert.Equal(t, "template", draft.Model)
	})

	t.Run("stall fragment leads", func(t *testing.T) {
		req := draftReq()
		req.Tone = models.ToneDirect
		req.Stall = models.StallPriceObjection
		draft, err := d.DraftResponse(context.Background(), req)
		require.NoError(t, err)
		assert.Contains(t, draft.Text, "numbers")
	})

	t.Run("empty request still drafts", func(t *testing.T) {
		draft, err := d.DraftResponse(context.Background(), &DraftRequest{})
		require.NoError(t, err)
		assert.NotEmpty(t, draft.Text)
	})
}
