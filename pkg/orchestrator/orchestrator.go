// Package orchestrator is the single inbound entry point. It threads every
// message through compliance, scoring, stall detection, workflow execution,
// and action dispatch, and always returns a complete plan, possibly a
// degraded one.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/propertyline/leadflow/pkg/compliance"
	"github.com/propertyline/leadflow/pkg/config"
	"github.com/propertyline/leadflow/pkg/crm"
	"github.com/propertyline/leadflow/pkg/events"
	"github.com/propertyline/leadflow/pkg/intent"
	"github.com/propertyline/leadflow/pkg/models"
	"github.com/propertyline/leadflow/pkg/session"
	"github.com/propertyline/leadflow/pkg/stall"
	"github.com/propertyline/leadflow/pkg/workflow"
)

// ErrMalformedInput rejects an inbound missing its lead ID or, for an
// unknown lead, its content. No session is created.
var ErrMalformedInput = errors.New("malformed inbound")

// InboundRequest is one inbound message from a lead.
type InboundRequest struct {
	LeadID       string          `json:"lead_id"`
	LeadName     string          `json:"lead_name,omitempty"`
	Channel      models.Channel  `json:"channel"`
	Content      string          `json:"content"`
	Phone        string          `json:"phone,omitempty"`
	Email        string          `json:"email,omitempty"`
	LeadKindHint models.LeadKind `json:"lead_kind_hint,omitempty"`
}

// InboundResult is the complete outcome of handling one inbound.
type InboundResult struct {
	Plan    *models.OutboundPlan    `json:"outbound_plan"`
	Session *models.SessionSnapshot `json:"session_snapshot"`
	Events  []events.Event          `json:"events"`
}

// Orchestrator wires the pipeline together. Safe for concurrent entry on
// distinct leads; same-lead inbounds serialize on the session lock.
type Orchestrator struct {
	store     *session.Store
	decoder   *intent.Decoder
	updater   *intent.Updater
	gate      *compliance.Gate
	workflows workflow.Registry
	crm       crm.Client
	bus       *events.Bus
	scoring   *config.ScoringConfig
	now       func() time.Time
}

// Option customizes Orchestrator construction.
type Option func(*Orchestrator)

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates the orchestrator.
func New(
	store *session.Store,
	decoder *intent.Decoder,
	updater *intent.Updater,
	gate *compliance.Gate,
	workflows workflow.Registry,
	crmClient crm.Client,
	bus *events.Bus,
	scoring *config.ScoringConfig,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		store:     store,
		decoder:   decoder,
		updater:   updater,
		gate:      gate,
		workflows: workflows,
		crm:       crmClient,
		bus:       bus,
		scoring:   scoring,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// HandleInbound processes one inbound message end to end.
func (o *Orchestrator) HandleInbound(ctx context.Context, req *InboundRequest) (*InboundResult, error) {
	if req.LeadID == "" {
		return nil, fmt.Errorf("%w: lead ID is required", ErrMalformedInput)
	}
	if req.Channel != "" && !req.Channel.IsValid() {
		return nil, fmt.Errorf("%w: unknown channel %q", ErrMalformedInput, req.Channel)
	}
	now := o.now()

	// Empty content: a no-op for a known lead, a rejection otherwise.
	if req.Content == "" {
		snap, ok := o.store.Snapshot(req.LeadID)
		if !ok {
			return nil, fmt.Errorf("%w: content is required", ErrMalformedInput)
		}
		plan := &models.OutboundPlan{LeadID: req.LeadID, Bot: snap.CurrentBot, CreatedAt: now}
		return &InboundResult{Plan: plan, Session: snap, Events: o.bus.Recent(req.LeadID)}, nil
	}

	// STOP keywords short-circuit before any session or workflow logic.
	if req.Channel == models.ChannelSMS && req.Phone != "" {
		res, err := o.gate.ProcessInbound(ctx, req.Phone, req.Content)
		if err != nil {
			return nil, err
		}
		if res.Action == compliance.InboundOptOutProcessed {
			return o.handleOptOutInbound(req, now), nil
		}
	}

	var plan *models.OutboundPlan
	var runErr error
	snap := o.store.Update(req.LeadID, func(sess *session.Session) {
		o.seedSession(sess, req)

		// Real-time delta is computed against the pre-append state.
		prior := models.SessionSnapshot{
			LeadID:    sess.LeadID,
			History:   sess.History,
			LastScore: sess.LastScore,
		}
		upd, _, err := o.updater.Update(prior, req.Content)
		if err != nil {
			runErr = err
			return
		}

		sess.AppendMessage(models.RoleUser, req.Content, now)
		o.bus.Emit(events.KindInboundReceived, sess.LeadID, map[string]any{
			"channel": req.Channel,
			"length":  len(req.Content),
		})

		// Full decode is the authoritative score; the updater contributes
		// signals and the recommendation.
		profile, err := o.decoder.Analyze(sess.LeadID, sess.History)
		if err != nil {
			runErr = err
			return
		}
		sess.RecordScore(profile, now)
		o.bus.Emit(events.KindScoreUpdated, sess.LeadID,
			events.ScorePayload(profile.FRS.Total, profile.PCS.Total, profile.Classification))

		windowStall := stall.Detect(sess.History)
		freshStall := stall.DetectWindow(sess.History, 1)
		if freshStall.Kind != models.StallNone {
			o.bus.Emit(events.KindStallDetected, sess.LeadID,
				events.StallPayload(freshStall.Kind, freshStall.Matched))
			sess.StallCount++
		}

		bot := o.selectBot(sess, req.LeadKindHint, profile)
		if bot != sess.CurrentBot {
			if sess.CurrentBot != "" {
				o.bus.Emit(events.KindBotSwitched, sess.LeadID, map[string]any{
					"from": sess.CurrentBot, "to": bot,
				})
			}
			sess.CurrentBot = bot
		}

		wf, ok := o.workflows[bot]
		if !ok {
			runErr = fmt.Errorf("no workflow registered for bot %q", bot)
			return
		}
		plan, runErr = wf.Run(ctx, sess, &workflow.Input{
			Profile:    profile,
			Update:     upd,
			Stall:      windowStall,
			FreshStall: freshStall,
			Inbound:    req.Content,
			Now:        now,
		})
		if runErr != nil {
			return
		}

		o.dispatch(ctx, sess, plan, now)
	})
	if runErr != nil {
		return nil, runErr
	}

	return &InboundResult{Plan: plan, Session: snap, Events: o.bus.Recent(req.LeadID)}, nil
}

// handleOptOutInbound records the opt-out on the session and returns an
// empty plan. The message never reaches a workflow.
func (o *Orchestrator) handleOptOutInbound(req *InboundRequest, now time.Time) *InboundResult {
	snap := o.store.Update(req.LeadID, func(sess *session.Session) {
		o.seedSession(sess, req)
		sess.AppendMessage(models.RoleUser, req.Content, now)
		sess.OptedOut = true
	})
	o.bus.Emit(events.KindSMSOptOut, req.LeadID, map[string]any{
		"phone":  req.Phone,
		"reason": models.OptOutStopKeyword,
	})
	slog.Info("Inbound STOP processed", "lead_id", req.LeadID)

	plan := &models.OutboundPlan{
		LeadID:    req.LeadID,
		Bot:       snap.CurrentBot,
		CreatedAt: now,
	}
	return &InboundResult{Plan: plan, Session: snap, Events: o.bus.Recent(req.LeadID)}
}

// seedSession fills contact fields from the request without overwriting
// anything already known.
func (o *Orchestrator) seedSession(sess *session.Session, req *InboundRequest) {
	if sess.LeadName == "" {
		sess.LeadName = req.LeadName
	}
	if sess.Phone == "" {
		sess.Phone = req.Phone
	}
	if sess.Email == "" {
		sess.Email = req.Email
	}
	if req.LeadKindHint != "" && req.LeadKindHint.IsValid() {
		sess.LeadKind = req.LeadKindHint
	}
}

// selectBot applies the selection rules: explicit hint, then the session's
// current bot, then intent confidences with a nurture fallback.
func (o *Orchestrator) selectBot(sess *session.Session, hint models.LeadKind, profile *models.IntentProfile) models.BotKind {
	switch hint {
	case models.LeadKindSeller:
		return models.BotSellerQualify
	case models.LeadKindBuyer:
		return models.BotBuyerQualify
	}
	if sess.CurrentBot.IsValid() {
		return sess.CurrentBot
	}
	switch {
	case profile.BuyerConfidence >= o.scoring.HandoffConfidenceMin &&
		profile.BuyerConfidence > profile.SellerConfidence:
		return models.BotBuyerQualify
	case profile.SellerConfidence >= o.scoring.HandoffConfidenceMin &&
		profile.SellerConfidence > profile.BuyerConfidence:
		return models.BotSellerQualify
	default:
		return models.BotNurtureSequence
	}
}

// dispatch executes the plan's side effects, filling per-action status.
// SMS passes through the compliance gate; everything else goes straight to
// the CRM. Failures degrade, they never abort the plan.
func (o *Orchestrator) dispatch(ctx context.Context, sess *session.Session, plan *models.OutboundPlan, now time.Time) {
	delivered := false
	for i := range plan.Actions {
		action := &plan.Actions[i]
		switch action.Kind {
		case models.PlanSendSMS:
			if o.dispatchSMS(ctx, sess, action) {
				delivered = true
			}
		case models.PlanSendEmail:
			if o.dispatchEmail(ctx, sess, action) {
				delivered = true
			}
		case models.PlanTagContact:
			o.dispatchTags(ctx, sess, action)
		case models.PlanTriggerHandoff:
			o.dispatchHandoff(ctx, sess, action)
		case models.PlanScheduleFollowup:
			// No scheduler integration yet; the plan itself is the record.
			action.Status = models.ActionDispatched
			slog.Info("Followup scheduled",
				"lead_id", sess.LeadID,
				"channel", action.Channel,
				"at", action.FollowupAt)
		}
	}
	if delivered {
		sess.AppendMessage(models.RoleAssistant, plan.Text, now)
		o.mirrorToCRM(ctx, sess)
	}
}

func (o *Orchestrator) dispatchSMS(ctx context.Context, sess *session.Session, action *models.PlanAction) bool {
	res, err := o.gate.ValidateSend(ctx, action.Phone, action.Content)
	if err != nil {
		action.Status = models.ActionFailed
		action.StatusReason = err.Error()
		return false
	}
	if !res.Allowed {
		action.Status = models.ActionBlocked
		action.StatusReason = string(res.Reason)
		o.bus.Emit(events.KindSMSBlocked, sess.LeadID, map[string]any{
			"phone":  action.Phone,
			"reason": res.Reason,
		})
		return false
	}

	sendErr := o.crm.SendMessage(ctx, crm.OutboundMessage{
		ContactID: sess.LeadID,
		Channel:   models.ChannelSMS,
		Body:      action.Content,
	})
	if recErr := o.gate.RecordSend(ctx, action.Phone, action.Content, sendErr == nil); recErr != nil {
		slog.Error("Failed to record send", "lead_id", sess.LeadID, "error", recErr)
	}
	if sendErr != nil {
		action.Status = models.ActionFailed
		action.StatusReason = sendErr.Error()
		o.bus.Emit(events.KindExternalDegraded, sess.LeadID, map[string]any{
			"collaborator": "crm",
			"error":        sendErr.Error(),
		})
		return false
	}

	action.Status = models.ActionDispatched
	if res.Note != "" {
		action.StatusReason = res.Note
	}
	o.bus.Emit(events.KindOutboundSent, sess.LeadID,
		events.OutboundPayload(models.ChannelSMS, models.ActionDispatched, res.Note))
	return true
}

func (o *Orchestrator) dispatchEmail(ctx context.Context, sess *session.Session, action *models.PlanAction) bool {
	err := o.crm.SendMessage(ctx, crm.OutboundMessage{
		ContactID: sess.LeadID,
		Channel:   models.ChannelEmail,
		Body:      action.Content,
	})
	if err != nil {
		action.Status = models.ActionFailed
		action.StatusReason = err.Error()
		o.bus.Emit(events.KindExternalDegraded, sess.LeadID, map[string]any{
			"collaborator": "crm",
			"error":        err.Error(),
		})
		return false
	}
	action.Status = models.ActionDispatched
	o.bus.Emit(events.KindOutboundSent, sess.LeadID,
		events.OutboundPayload(models.ChannelEmail, models.ActionDispatched, ""))
	return true
}

func (o *Orchestrator) dispatchTags(ctx context.Context, sess *session.Session, action *models.PlanAction) {
	if err := o.crm.AddTags(ctx, sess.LeadID, action.Tags); err != nil {
		action.Status = models.ActionFailed
		action.StatusReason = err.Error()
		slog.Warn("Failed to tag contact", "lead_id", sess.LeadID, "error", err)
		return
	}
	action.Status = models.ActionDispatched
}

// dispatchHandoff switches the current bot and resets the target
// workflow's state to its initial node.
func (o *Orchestrator) dispatchHandoff(ctx context.Context, sess *session.Session, action *models.PlanAction) {
	if !action.HandoffTo.IsValid() {
		action.Status = models.ActionSkipped
		action.StatusReason = "unknown handoff target"
		return
	}

	sess.CurrentBot = action.HandoffTo
	resetWorkflowState(sess, action.HandoffTo)

	if err := o.crm.AddTags(ctx, sess.LeadID, []string{"handoff-" + string(action.HandoffTo)}); err != nil {
		slog.Warn("Failed to tag handoff", "lead_id", sess.LeadID, "error", err)
	}

	o.bus.Emit(events.KindHandoffTriggered, sess.LeadID,
		events.HandoffPayload(action.HandoffFrom, action.HandoffTo, action.Reason))
	action.Status = models.ActionDispatched
	slog.Info("Bot handoff",
		"lead_id", sess.LeadID,
		"from", action.HandoffFrom,
		"to", action.HandoffTo,
		"reason", action.Reason)
}

// resetWorkflowState clears the target bot's sub-state so its next run
// starts from the initial node.
func resetWorkflowState(sess *session.Session, bot models.BotKind) {
	switch bot {
	case models.BotSellerQualify:
		sess.Workflow.Seller = nil
	case models.BotBuyerQualify:
		sess.Workflow.Buyer = nil
	case models.BotNurtureSequence:
		sess.Workflow.Nurture = nil
	case models.BotOutboundProspecting:
		sess.Workflow.Prospect = nil
	}
}

// mirrorToCRM snapshots durable session facts into contact custom fields.
// Best effort: the in-memory session remains the source of truth.
func (o *Orchestrator) mirrorToCRM(ctx context.Context, sess *session.Session) {
	fields := map[string]string{
		"current_bot": string(sess.CurrentBot),
	}
	if sess.LastScore != nil {
		fields["last_classification"] = string(sess.LastScore.Classification)
		fields["last_frs"] = fmt.Sprintf("%.1f", sess.LastScore.FRS.Total)
		fields["last_pcs"] = fmt.Sprintf("%.1f", sess.LastScore.PCS.Total)
	}
	err := o.crm.UpdateContact(ctx, crm.Contact{
		ID:           sess.LeadID,
		Name:         sess.LeadName,
		Phone:        sess.Phone,
		Email:        sess.Email,
		CustomFields: fields,
	})
	if err != nil {
		slog.Warn("Failed to mirror session to CRM", "lead_id", sess.LeadID, "error", err)
	}
}
