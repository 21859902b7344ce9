package events

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propertyline/leadflow/pkg/models"
)

func TestEmitAndRecent_OrderedOldestFirst(t *testing.T) {
	b := NewBus()

	b.Emit(KindInboundReceived, "lead-1", map[string]any{"channel": "sms"})
	b.Emit(KindScoreUpdated, "lead-1", ScorePayload(72, 55, models.ClassificationWarm))
	b.Emit(KindOutboundSent, "lead-2", nil)

	got := b.Recent("lead-1")
	require.Len(t, got, 2)
	assert.Equal(t, KindInboundReceived, got[0].Kind)
	assert.Equal(t, KindScoreUpdated, got[1].Kind)
	assert.NotEmpty(t, got[0].ID)
	assert.NotEqual(t, got[0].ID, got[1].ID)
	assert.Equal(t, "lead-1", got[0].LeadID)
	assert.Equal(t, 72.0, got[1].Payload["frs"])

	require.Len(t, b.Recent("lead-2"), 1)
	assert.Empty(t, b.Recent("unknown"))
}

func TestEmit_RingDropsOldest(t *testing.T) {
	b := NewBus()

	for i := 0; i < recentPerLead+20; i++ {
		b.Emit(KindInboundReceived, "lead-1", map[string]any{"seq": i})
	}

	got := b.Recent("lead-1")
	require.Len(t, got, recentPerLead)
	assert.Equal(t, 20, got[0].Payload["seq"], "the oldest 20 events fell off the ring")
	assert.Equal(t, recentPerLead+19, got[len(got)-1].Payload["seq"])
}

func TestEmit_UnknownKindDropped(t *testing.T) {
	b := NewBus()

	b.Emit(Kind("made-up"), "lead-1", nil)

	assert.Empty(t, b.Recent("lead-1"))
}

func TestSubscribe_ReceivesEmittedEvents(t *testing.T) {
	b := NewBus()
	ch := b.Subscribe()

	b.Emit(KindHandoffTriggered, "lead-1",
		HandoffPayload(models.BotSellerQualify, models.BotBuyerQualify, "buyer-intent-detected"))

	ev := <-ch
	assert.Equal(t, KindHandoffTriggered, ev.Kind)
	assert.Equal(t, models.BotSellerQualify, ev.Payload["from"])
	assert.Equal(t, models.BotBuyerQualify, ev.Payload["to"])
}

func TestEmit_SlowSubscriberNeverBlocks(t *testing.T) {
	b := NewBus()
	ch := b.Subscribe()

	// Nobody drains the channel; once the buffer fills, further emits
	// must drop for this subscriber instead of blocking.
	for i := 0; i < 300; i++ {
		b.Emit(KindInboundReceived, fmt.Sprintf("lead-%d", i), nil)
	}

	assert.Equal(t, cap(ch), len(ch))
	assert.Len(t, b.Recent("lead-299"), 1, "the ring still records dropped fan-outs")
}

func TestDropLead(t *testing.T) {
	b := NewBus()
	b.Emit(KindInboundReceived, "lead-1", nil)
	b.Emit(KindInboundReceived, "lead-2", nil)

	b.DropLead("lead-1")

	assert.Empty(t, b.Recent("lead-1"))
	assert.Len(t, b.Recent("lead-2"), 1)
}

func TestClose_StopsDeliveryAndClosesSubscribers(t *testing.T) {
	b := NewBus()
	ch := b.Subscribe()

	b.Close()
	b.Close() // idempotent

	_, open := <-ch
	assert.False(t, open)

	b.Emit(KindInboundReceived, "lead-1", nil)
	assert.Empty(t, b.Recent("lead-1"), "emit after close is a no-op")
}
