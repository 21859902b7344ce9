// Package workflow implements the per-bot conversation state machines.
// Each workflow runs from the session's persisted state and produces an
// OutboundPlan; collaborator failures degrade the plan instead of failing
// the run.
package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/propertyline/leadflow/pkg/cma"
	"github.com/propertyline/leadflow/pkg/config"
	"github.com/propertyline/leadflow/pkg/events"
	"github.com/propertyline/leadflow/pkg/llm"
	"github.com/propertyline/leadflow/pkg/models"
	"github.com/propertyline/leadflow/pkg/session"
	"github.com/propertyline/leadflow/pkg/stall"
)

// Input is the pre-computed context for one workflow run. The orchestrator
// scores and stall-checks the conversation before dispatching, so workflow
// nodes stay pure over this input plus the session state.
type Input struct {
	// Profile is the current intent profile, full or projected.
	Profile *models.IntentProfile
	// Update is the real-time delta for the inbound that triggered this run.
	Update *models.IncrementalUpdate
	// Stall is the detector result over the trailing message window.
	Stall stall.Result
	// FreshStall is the detector result over the latest user message only.
	// Consecutive-stall rules key off this, not the window.
	FreshStall stall.Result
	// Inbound is the content of the triggering message. Empty for runs
	// triggered by a schedule rather than a reply.
	Inbound string
	Now     time.Time
}

// Workflow is one bot state machine.
type Workflow interface {
	Kind() models.BotKind
	// Run advances the state machine and produces the outbound plan.
	// Mutations go directly to sess; the orchestrator holds the session
	// lock for the duration of the run.
	Run(ctx context.Context, sess *session.Session, in *Input) (*models.OutboundPlan, error)
}

// Deps bundles the collaborators shared by all workflows.
type Deps struct {
	Drafter  llm.Drafter
	Fallback llm.Drafter
	CMA      cma.Generator
	Bus      *events.Bus
	Scoring  *config.ScoringConfig
}

// draft produces reply text, falling back to the template drafter when the
// primary fails. The second return reports degradation.
func (d *Deps) draft(ctx context.Context, req *llm.DraftRequest) (string, bool) {
	if d.Drafter != nil {
		draft, err := d.Drafter.DraftResponse(ctx, req)
		if err == nil {
			return draft.Text, false
		}
		slog.Warn("LLM draft failed, falling back to template",
			"lead_id", req.LeadID, "bot", req.Bot, "error", err)
		d.Bus.Emit(events.KindExternalDegraded, req.LeadID, map[string]any{
			"collaborator": "llm",
			"error":        err.Error(),
		})
	}
	draft, err := d.Fallback.DraftResponse(ctx, req)
	if err != nil {
		// Template drafter is total; treat this as a hard bug but still
		// return something rather than fail the inbound.
		slog.Error("Fallback drafter failed", "lead_id", req.LeadID, "error", err)
		return "Thanks for reaching out! I'll follow up shortly.", true
	}
	return draft.Text, d.Drafter != nil
}

// newPlan creates an empty plan shell for a workflow run.
func newPlan(leadID string, bot models.BotKind, tone models.Tone, now time.Time) *models.OutboundPlan {
	return &models.OutboundPlan{
		PlanID:    uuid.New().String(),
		LeadID:    leadID,
		Bot:       bot,
		Tone:      tone,
		CreatedAt: now,
	}
}

// sendAction builds the outbound delivery action for the session's reachable
// channel: SMS when a phone is known, email otherwise.
func sendAction(sess *session.Session, text string) models.PlanAction {
	if sess.Phone != "" {
		return models.PlanAction{
			Kind:    models.PlanSendSMS,
			Channel: models.ChannelSMS,
			Phone:   sess.Phone,
			Content: text,
			Status:  models.ActionPending,
		}
	}
	return models.PlanAction{
		Kind:    models.PlanSendEmail,
		Channel: models.ChannelEmail,
		Email:   sess.Email,
		Content: text,
		Status:  models.ActionPending,
	}
}

// Registry maps bot kinds to their workflow.
type Registry map[models.BotKind]Workflow

// NewRegistry wires the four workflows over a shared dependency set.
func NewRegistry(deps *Deps) Registry {
	nurture := NewNurture(deps)
	return Registry{
		models.BotSellerQualify:       NewSeller(deps),
		models.BotBuyerQualify:        NewBuyer(deps),
		models.BotNurtureSequence:     nurture,
		models.BotOutboundProspecting: NewProspect(deps, nurture),
	}
}

// handoffTarget picks which qualification bot a lead should hand off to,
// based on which intent confidence dominates.
func handoffTarget(profile *models.IntentProfile) models.BotKind {
	if profile.BuyerConfidence > profile.SellerConfidence {
		return models.BotBuyerQualify
	}
	return models.BotSellerQualify
}
