package prospecting

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propertyline/leadflow/pkg/config"
	"github.com/propertyline/leadflow/pkg/crm"
	"github.com/propertyline/leadflow/pkg/events"
	"github.com/propertyline/leadflow/pkg/models"
	"github.com/propertyline/leadflow/pkg/session"
)

var feederNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newFeederFixture(t *testing.T, cfg *config.ProspectingConfig) (*Feeder, *crm.Fake, *session.Store) {
	t.Helper()
	bus := events.NewBus()
	store := session.NewStore(config.DefaultSessionConfig(), bus,
		session.WithClock(func() time.Time { return feederNow }))
	fakeCRM := crm.NewFake()
	f := NewFeeder(cfg, fakeCRM, store, bus,
		WithClock(func() time.Time { return feederNow }))
	return f, fakeCRM, store
}

func TestRunOnce_EnrollsStaleAndInactiveContacts(t *testing.T) {
	cfg := config.DefaultProspectingConfig()
	cfg.PipelineStage = "cold-leads"
	f, fakeCRM, store := newFeederFixture(t, cfg)

	fakeCRM.Seed(
		crm.Contact{ID: "stale-1", Name: "Dana", Phone: "+15550000001", PipelineStage: "cold-leads"},
		crm.Contact{ID: "inactive-1", Name: "Lee", Phone: "+15550000002",
			LastActivityAt: feederNow.Add(-45 * 24 * time.Hour)},
		crm.Contact{ID: "active-1", Name: "Kim", Phone: "+15550000003",
			LastActivityAt: feederNow.Add(-2 * 24 * time.Hour)},
	)

	n, err := f.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	snap, ok := store.Snapshot("stale-1")
	require.True(t, ok)
	assert.Equal(t, models.BotOutboundProspecting, snap.CurrentBot)
	require.NotNil(t, snap.Workflow.Prospect)
	assert.True(t, snap.Workflow.Prospect.Enrolled)
	assert.Equal(t, "cold-leads", snap.Workflow.Prospect.SourceStage)

	_, ok = store.Snapshot("inactive-1")
	assert.True(t, ok)
	_, ok = store.Snapshot("active-1")
	assert.False(t, ok, "recently active contacts are not prospecting candidates")

	contact, _ := fakeCRM.Contact("stale-1")
	assert.Contains(t, contact.Tags, "prospecting-enrolled")
}

func TestRunOnce_SkipsLiveSessionsAndUnreachables(t *testing.T) {
	cfg := config.DefaultProspectingConfig()
	cfg.PipelineStage = "cold-leads"
	f, fakeCRM, store := newFeederFixture(t, cfg)

	store.Update("busy-1", func(s *session.Session) {
		s.CurrentBot = models.BotSellerQualify
	})

	fakeCRM.Seed(
		crm.Contact{ID: "busy-1", Name: "Ana", Phone: "+15550000001", PipelineStage: "cold-leads"},
		crm.Contact{ID: "no-contact", Name: "Ghost", PipelineStage: "cold-leads"},
	)

	n, err := f.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	snap, ok := store.Snapshot("busy-1")
	require.True(t, ok)
	assert.Equal(t, models.BotSellerQualify, snap.CurrentBot,
		"an active conversation is never re-enrolled")
}

func TestRunOnce_HonorsBatchLimit(t *testing.T) {
	cfg := config.DefaultProspectingConfig()
	cfg.BatchLimit = 2
	f, fakeCRM, store := newFeederFixture(t, cfg)

	for i, id := range []string{"a", "b", "c", "d"} {
		fakeCRM.Seed(crm.Contact{ID: id, Phone: fmt.Sprintf("+1555000010%d", i),
			LastActivityAt: feederNow.Add(-60 * 24 * time.Hour)})
	}

	n, err := f.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, store.Count())
}

func TestStart_DisabledIsNoOp(t *testing.T) {
	cfg := config.DefaultProspectingConfig()
	cfg.Enabled = false
	f, _, _ := newFeederFixture(t, cfg)

	require.NoError(t, f.Start(context.Background()))
	f.Stop()
}

func TestStart_RejectsBadCronSpec(t *testing.T) {
	cfg := config.DefaultProspectingConfig()
	cfg.Enabled = true
	cfg.CronSpec = "not a cron spec"
	f, _, _ := newFeederFixture(t, cfg)

	assert.Error(t, f.Start(context.Background()))
}
