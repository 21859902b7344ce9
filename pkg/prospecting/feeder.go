// Package prospecting feeds cold pipeline contacts into the
// outbound-prospecting workflow on a cron schedule. The feeder only enrols;
// conversation handling stays with the orchestrator once a contact replies.
package prospecting

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/propertyline/leadflow/pkg/config"
	"github.com/propertyline/leadflow/pkg/crm"
	"github.com/propertyline/leadflow/pkg/events"
	"github.com/propertyline/leadflow/pkg/session"
	"github.com/propertyline/leadflow/pkg/workflow"
)

// Feeder pulls prospecting candidates from the CRM and enrols them.
type Feeder struct {
	cfg   *config.ProspectingConfig
	crm   crm.Client
	store *session.Store
	bus   *events.Bus
	now   func() time.Time

	cron *cron.Cron
}

// Option customizes Feeder construction.
type Option func(*Feeder)

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(f *Feeder) { f.now = now }
}

// NewFeeder creates the prospecting feeder.
func NewFeeder(cfg *config.ProspectingConfig, crmClient crm.Client, store *session.Store, bus *events.Bus, opts ...Option) *Feeder {
	f := &Feeder{
		cfg:   cfg,
		crm:   crmClient,
		store: store,
		bus:   bus,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Start schedules the recurring pull. No-op when prospecting is disabled.
func (f *Feeder) Start(ctx context.Context) error {
	if !f.cfg.Enabled {
		slog.Info("Prospecting feeder disabled")
		return nil
	}

	f.cron = cron.New()
	_, err := f.cron.AddFunc(f.cfg.CronSpec, func() {
		if n, err := f.RunOnce(ctx); err != nil {
			slog.Error("Prospecting run failed", "error", err)
		} else {
			slog.Info("Prospecting run completed", "enrolled", n)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid prospecting cron spec %q: %w", f.cfg.CronSpec, err)
	}

	f.cron.Start()
	slog.Info("Prospecting feeder started",
		"cron", f.cfg.CronSpec,
		"pipeline_stage", f.cfg.PipelineStage,
		"inactive_days", f.cfg.InactiveDays)
	return nil
}

// Stop halts the schedule and waits for a running pull to finish.
func (f *Feeder) Stop() {
	if f.cron == nil {
		return
	}
	<-f.cron.Stop().Done()
	slog.Info("Prospecting feeder stopped")
}

// RunOnce executes one pull-and-enrol pass. Returns the number of contacts
// enrolled.
func (f *Feeder) RunOnce(ctx context.Context) (int, error) {
	candidates, err := f.pull(ctx)
	if err != nil {
		return 0, err
	}

	enrolled := 0
	for _, contact := range candidates {
		if f.enroll(ctx, contact) {
			enrolled++
		}
	}
	return enrolled, nil
}

// pull gathers stale-stage and inactive contacts, deduplicated by ID.
func (f *Feeder) pull(ctx context.Context) ([]crm.Contact, error) {
	seen := make(map[string]bool)
	var out []crm.Contact

	if f.cfg.PipelineStage != "" {
		stale, err := f.crm.GetContactsByPipelineStage(ctx, f.cfg.PipelineStage, f.cfg.BatchLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to pull stale pipeline contacts: %w", err)
		}
		for _, c := range stale {
			if !seen[c.ID] {
				seen[c.ID] = true
				out = append(out, c)
			}
		}
	}

	cutoff := f.now().Add(-time.Duration(f.cfg.InactiveDays) * 24 * time.Hour)
	inactive, err := f.crm.GetContactsInactiveSince(ctx, cutoff, f.cfg.BatchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to pull inactive contacts: %w", err)
	}
	for _, c := range inactive {
		if !seen[c.ID] && len(out) < f.cfg.BatchLimit {
			seen[c.ID] = true
			out = append(out, c)
		}
	}
	return out, nil
}

// enroll creates a prospecting session for the contact. Contacts that are
// unreachable or already in an active conversation are skipped.
func (f *Feeder) enroll(ctx context.Context, contact crm.Contact) bool {
	if contact.Phone == "" && contact.Email == "" {
		return false
	}
	if _, live := f.store.Snapshot(contact.ID); live {
		return false
	}

	now := f.now()
	f.store.Update(contact.ID, func(sess *session.Session) {
		sess.LeadName = contact.Name
		sess.Phone = contact.Phone
		sess.Email = contact.Email
		workflow.Enroll(sess, contact.PipelineStage, now)
	})

	if err := f.crm.AddTags(ctx, contact.ID, []string{"prospecting-enrolled"}); err != nil {
		slog.Warn("Failed to tag enrolled prospect", "lead_id", contact.ID, "error", err)
	}
	f.bus.Emit(events.KindQualificationProgress, contact.ID, map[string]any{
		"bot":          "outbound-prospecting",
		"enrolled":     true,
		"source_stage": contact.PipelineStage,
	})
	return true
}
