package workflow

import (
	"context"
	"time"

	"github.com/propertyline/leadflow/pkg/events"
	"github.com/propertyline/leadflow/pkg/llm"
	"github.com/propertyline/leadflow/pkg/models"
	"github.com/propertyline/leadflow/pkg/session"
)

// maxConfidence is the dominant intent-kind confidence.
func maxConfidence(p *models.IntentProfile) float64 {
	if p.BuyerConfidence > p.SellerConfidence {
		return p.BuyerConfidence
	}
	return p.SellerConfidence
}

// Prospect handles leads sourced by outbound prospecting. Replies pass a
// qualification gate; qualified leads escalate to a human-facing
// qualification bot, everyone else keeps nurturing.
type Prospect struct {
	deps    *Deps
	nurture *Nurture
}

// NewProspect creates the outbound-prospecting workflow. Unqualified
// replies are delegated to the nurture workflow so the cadence logic lives
// in one place.
func NewProspect(deps *Deps, nurture *Nurture) *Prospect {
	return &Prospect{deps: deps, nurture: nurture}
}

// Kind returns the bot identity.
func (w *Prospect) Kind() models.BotKind { return models.BotOutboundProspecting }

// Enroll initializes prospecting state for a lead pulled from an external
// source. Called by the prospecting feeder, not by inbound handling.
func Enroll(sess *session.Session, sourceStage string, now time.Time) {
	sess.CurrentBot = models.BotOutboundProspecting
	sess.Workflow.Prospect = &models.ProspectState{
		Enrolled:    true,
		SourceStage: sourceStage,
		FirstTouch:  now,
	}
}

// Run applies the qualification gate to the reply: FRS and the dominant
// intent confidence must both clear their thresholds (inclusive). Qualified
// leads hand off; the rest continue through nurture.
func (w *Prospect) Run(ctx context.Context, sess *session.Session, in *Input) (*models.OutboundPlan, error) {
	state := sess.Workflow.Prospect
	if state == nil {
		state = &models.ProspectState{Enrolled: true, FirstTouch: in.Now}
		sess.Workflow.Prospect = state
	}

	if in.Profile.FRS.Total >= w.deps.Scoring.HandoffFRSMin && maxConfidence(in.Profile) >= w.deps.Scoring.HandoffConfidenceMin {
		return w.escalate(ctx, sess, state, in), nil
	}

	plan, err := w.nurture.Run(ctx, sess, in)
	if err != nil {
		return nil, err
	}
	plan.Bot = w.Kind()
	return plan, nil
}

func (w *Prospect) escalate(ctx context.Context, sess *session.Session, state *models.ProspectState, in *Input) *models.OutboundPlan {
	state.Escalated = true
	target := handoffTarget(in.Profile)

	w.deps.Bus.Emit(events.KindQualificationProgress, sess.LeadID, map[string]any{
		"bot":          w.Kind(),
		"gate":         "passed",
		"frs":          in.Profile.FRS.Total,
		"confidence":   maxConfidence(in.Profile),
		"handoff_to":   target,
		"source_stage": state.SourceStage,
	})

	text, degraded := w.deps.draft(ctx, &llm.DraftRequest{
		LeadID:         sess.LeadID,
		LeadName:       sess.LeadName,
		Bot:            w.Kind(),
		Tone:           models.ToneDirect,
		Classification: in.Profile.Classification,
		Objective:      "Tell them one of the team's specialists will reach out shortly, and confirm the best time to call.",
		History:        sess.History,
	})

	plan := newPlan(sess.LeadID, w.Kind(), models.ToneDirect, in.Now)
	plan.Text = text
	plan.Degraded = degraded
	plan.Actions = append(plan.Actions,
		sendAction(sess, text),
		models.PlanAction{
			Kind:   models.PlanTagContact,
			Tags:   []string{"prospect-qualified"},
			Status: models.ActionPending,
		},
		models.PlanAction{
			Kind:        models.PlanTriggerHandoff,
			HandoffFrom: w.Kind(),
			HandoffTo:   target,
			Reason:      "prospect-gate-passed",
			Status:      models.ActionPending,
		},
	)
	return plan
}
