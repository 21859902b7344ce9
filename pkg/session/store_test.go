package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propertyline/leadflow/pkg/config"
	"github.com/propertyline/leadflow/pkg/events"
	"github.com/propertyline/leadflow/pkg/models"
)

type storeFixture struct {
	store *Store
	bus   *events.Bus
	now   time.Time
}

func newStoreFixture(t *testing.T) *storeFixture {
	t.Helper()
	f := &storeFixture{
		bus: events.NewBus(),
		now: time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
	}
	f.store = NewStore(config.DefaultSessionConfig(), f.bus,
		WithClock(func() time.Time { return f.now }))
	return f
}

func (f *storeFixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func TestStore_CreateOnFirstUpdate(t *testing.T) {
	f := newStoreFixture(t)

	snap := f.store.Update("lead-1", func(s *Session) {
		s.Phone = "+15551234567"
		s.AppendMessage(models.RoleUser, "hi, thinking about selling", f.now)
	})

	assert.Equal(t, "lead-1", snap.LeadID)
	assert.Empty(t, snap.CurrentBot, "bot selection is the orchestrator's call")
	require.Len(t, snap.History, 1)
	assert.Equal(t, models.RoleUser, snap.History[0].Role)
	assert.Equal(t, f.now, snap.LastInboundAt)
	assert.Equal(t, 1, f.store.Count())
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	f := newStoreFixture(t)

	f.store.Update("lead-1", func(s *Session) {
		s.AppendMessage(models.RoleUser, "original", f.now)
		s.Workflow.Seller = &models.SellerState{QuestionIndex: 1}
	})

	snap, ok := f.store.Snapshot("lead-1")
	require.True(t, ok)
	snap.History[0].Content = "mutated"
	snap.Workflow.Seller.QuestionIndex = 99

	fresh, ok := f.store.Snapshot("lead-1")
	require.True(t, ok)
	assert.Equal(t, "original", fresh.History[0].Content)
	assert.Equal(t, 1, fresh.Workflow.Seller.QuestionIndex)
}

func TestStore_SnapshotMissing(t *testing.T) {
	f := newStoreFixture(t)

	_, ok := f.store.Snapshot("nobody")
	assert.False(t, ok)
}

func TestStore_TTLEvictionOnAccess(t *testing.T) {
	f := newStoreFixture(t)
	sub := f.bus.Subscribe()

	f.store.Update("lead-1", func(s *Session) {
		s.AppendMessage(models.RoleUser, "hello", f.now)
	})

	f.advance(25 * time.Hour)

	_, ok := f.store.Snapshot("lead-1")
	assert.False(t, ok, "expired session is evicted on read")

	ev := <-sub
	assert.Equal(t, events.KindSessionEvicted, ev.Kind)
	assert.Equal(t, "lead-1", ev.LeadID)
}

func TestStore_UpdateAfterExpiryStartsFresh(t *testing.T) {
	f := newStoreFixture(t)

	f.store.Update("lead-1", func(s *Session) {
		s.AppendMessage(models.RoleUser, "old conversation", f.now)
		s.CurrentBot = models.BotSellerQualify
	})

	f.advance(25 * time.Hour)

	snap := f.store.Update("lead-1", func(s *Session) {
		s.AppendMessage(models.RoleUser, "new conversation", f.now)
	})
	assert.Len(t, snap.History, 1, "expired state does not leak into the new session")
	assert.Empty(t, snap.CurrentBot)
}

func TestStore_Sweep(t *testing.T) {
	f := newStoreFixture(t)

	f.store.Update("stale", func(s *Session) {})
	f.advance(12 * time.Hour)
	f.store.Update("fresh", func(s *Session) {})
	f.advance(13 * time.Hour)

	evicted := f.store.Sweep()
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, f.store.Count())
	_, ok := f.store.Snapshot("fresh")
	assert.True(t, ok)
}

func TestStore_ActivityRefreshesTTL(t *testing.T) {
	f := newStoreFixture(t)

	f.store.Update("lead-1", func(s *Session) {})
	f.advance(20 * time.Hour)
	f.store.Update("lead-1", func(s *Session) {})
	f.advance(20 * time.Hour)

	_, ok := f.store.Snapshot("lead-1")
	assert.True(t, ok, "each update restarts the idle clock")
}

func TestSession_ScoreHistoryRing(t *testing.T) {
	f := newStoreFixture(t)

	for i := 0; i < 25; i++ {
		frs := float64(i)
		f.store.Update("lead-1", func(s *Session) {
			s.RecordScore(&models.IntentProfile{
				LeadID:         "lead-1",
				FRS:            models.FRSBreakdown{Total: frs},
				Classification: models.ClassificationCold,
			}, f.now)
		})
	}

	snap, ok := f.store.Snapshot("lead-1")
	require.True(t, ok)
	assert.Len(t, snap.ScoreHistory, scoreHistoryMax)
	assert.Equal(t, float64(5), snap.ScoreHistory[0].FRS, "oldest entries fall off")
	assert.Equal(t, float64(24), snap.ScoreHistory[len(snap.ScoreHistory)-1].FRS)
}

func TestSession_EmotionalTransitions(t *testing.T) {
	f := newStoreFixture(t)

	classes := []models.Classification{
		models.ClassificationCold,
		models.ClassificationWarm,
		models.ClassificationWarm, // no transition
		models.ClassificationHot,
	}
	for _, c := range classes {
		cls := c
		f.store.Update("lead-1", func(s *Session) {
			s.RecordScore(&models.IntentProfile{LeadID: "lead-1", Classification: cls}, f.now)
		})
	}

	snap, ok := f.store.Snapshot("lead-1")
	require.True(t, ok)
	require.Len(t, snap.EmotionalTransitions, 2)
	assert.Equal(t, models.ClassificationCold, snap.EmotionalTransitions[0].From)
	assert.Equal(t, models.ClassificationWarm, snap.EmotionalTransitions[0].To)
	assert.Equal(t, models.ClassificationWarm, snap.EmotionalTransitions[1].From)
	assert.Equal(t, models.ClassificationHot, snap.EmotionalTransitions[1].To)
}

func TestSession_HistoryIsAppendOnly(t *testing.T) {
	f := newStoreFixture(t)

	for i := 0; i < 3; i++ {
		f.store.Update("lead-1", func(s *Session) {
			s.AppendMessage(models.RoleUser, "msg", f.now)
			s.AppendMessage(models.RoleAssistant, "reply", f.now)
		})
	}

	snap, ok := f.store.Snapshot("lead-1")
	require.True(t, ok)
	assert.Len(t, snap.History, 6)
}
