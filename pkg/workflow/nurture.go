package workflow

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/propertyline/leadflow/pkg/cma"
	"github.com/propertyline/leadflow/pkg/events"
	"github.com/propertyline/leadflow/pkg/llm"
	"github.com/propertyline/leadflow/pkg/models"
	"github.com/propertyline/leadflow/pkg/session"
)

// Touch offsets from enrolment.
var touchOffsets = map[models.NurtureTouch]time.Duration{
	models.NurtureDay3:  3 * 24 * time.Hour,
	models.NurtureDay7:  7 * 24 * time.Hour,
	models.NurtureDay14: 14 * 24 * time.Hour,
	models.NurtureDay30: 30 * 24 * time.Hour,
}

// Day-30 outcome thresholds on the predictor output.
const (
	conversionHandoffMin = 0.55
	dropOffDisengageMin  = 0.75
)

// fastResponderLatency splits leads into the immediate-SMS bucket versus
// the email bucket of the channel optimization table.
const fastResponderLatency = 4 * time.Hour

// Prediction is the day-30 conversion/drop-off estimate.
type Prediction struct {
	Conversion float64
	DropOff    float64
}

// Predictor estimates day-30 outcomes. The default is a score-derived
// heuristic; a learned model can be injected without touching the workflow.
type Predictor interface {
	Predict(sess *session.Session, profile *models.IntentProfile) Prediction
}

// heuristicPredictor derives the estimate from current scores plus the
// score-history trend.
type heuristicPredictor struct{}

func (heuristicPredictor) Predict(sess *session.Session, profile *models.IntentProfile) Prediction {
	p := Prediction{
		Conversion: 0.6*profile.FRS.Total/100 + 0.4*profile.PCS.Total/100,
		DropOff:    1 - profile.PCS.Total/100,
	}
	if scoresDeclining(sess.ScoreHistory, 3) {
		p.DropOff += 0.2
	}
	if p.DropOff > 1 {
		p.DropOff = 1
	}
	return p
}

// behaviourProfile summarizes how this lead engages.
type behaviourProfile struct {
	MedianLatency    time.Duration
	PreferredChannel models.Channel
}

// Nurture runs the 3/7/14/30-day cadence between qualification attempts.
type Nurture struct {
	deps      *Deps
	predictor Predictor
}

// NewNurture creates the nurture-sequence workflow with the heuristic
// predictor.
func NewNurture(deps *Deps) *Nurture {
	return &Nurture{deps: deps, predictor: heuristicPredictor{}}
}

// WithPredictor swaps the day-30 predictor.
func (w *Nurture) WithPredictor(p Predictor) *Nurture {
	w.predictor = p
	return w
}

// Kind returns the bot identity.
func (w *Nurture) Kind() models.BotKind { return models.BotNurtureSequence }

// Run handles both inbound replies and due touchpoints. A due touch takes
// priority; otherwise the run is a conversational reply that keeps the
// cadence ticking.
func (w *Nurture) Run(ctx context.Context, sess *session.Session, in *Input) (*models.OutboundPlan, error) {
	state := sess.Workflow.Nurture
	if state == nil {
		state = &models.NurtureState{
			Touch:       models.NurtureDay3,
			EnrolledAt:  in.Now,
			NextTouchAt: in.Now.Add(touchOffsets[models.NurtureDay3]),
		}
		sess.Workflow.Nurture = state
	}

	if state.Outcome == models.NurtureGracefulDisengage {
		return w.reEnrollPlan(ctx, sess, state, in), nil
	}

	profile := w.profileBehaviour(sess)

	// Early warning: three monotonically declining snapshots on a lead that
	// is still warm or better means we are losing someone worth keeping.
	if scoresDeclining(sess.ScoreHistory, 3) && atLeastWarm(in.Profile.Classification) {
		return w.escalatePlan(ctx, sess, state, in), nil
	}

	if state.Touch != models.NurtureDone && !in.Now.Before(state.NextTouchAt) {
		return w.touchPlan(ctx, sess, state, profile, in), nil
	}

	return w.replyPlan(ctx, sess, state, profile, in), nil
}

// touchPlan executes the due touchpoint and schedules the next one.
func (w *Nurture) touchPlan(ctx context.Context, sess *session.Session, state *models.NurtureState, profile behaviourProfile, in *Input) *models.OutboundPlan {
	touch := state.Touch
	plan := newPlan(sess.LeadID, w.Kind(), models.ToneWarm, in.Now)

	var objective string
	switch touch {
	case models.NurtureDay3:
		objective = "Light check-in: ask how their home search or sale thinking is going, no pressure."
		state.Touch = models.NurtureDay7
		state.NextTouchAt = state.EnrolledAt.Add(touchOffsets[models.NurtureDay7])

	case models.NurtureDay7:
		objective = "Tell them you'd love to catch up properly and that you'll try giving them a quick call."
		plan.Actions = append(plan.Actions, models.PlanAction{
			Kind:       models.PlanScheduleFollowup,
			Channel:    models.ChannelVoice,
			Phone:      sess.Phone,
			Reason:     "day-7 voice touch",
			FollowupAt: in.Now,
			Status:     models.ActionPending,
		})
		state.Touch = models.NurtureDay14
		state.NextTouchAt = state.EnrolledAt.Add(touchOffsets[models.NurtureDay14])

	case models.NurtureDay14:
		objective = "Share one useful market insight for their area and invite a question back."
		state.Touch = models.NurtureDay30
		state.NextTouchAt = state.EnrolledAt.Add(touchOffsets[models.NurtureDay30])

	case models.NurtureDay30:
		return w.day30Plan(ctx, sess, state, in)
	}

	text, degraded := w.deps.draft(ctx, &llm.DraftRequest{
		LeadID:         sess.LeadID,
		LeadName:       sess.LeadName,
		Bot:            w.Kind(),
		Tone:           models.ToneWarm,
		Classification: in.Profile.Classification,
		Objective:      objective,
		History:        sess.History,
	})
	plan.Text = text
	plan.Degraded = degraded
	plan.Actions = append([]models.PlanAction{channelAction(sess, profile, text)}, plan.Actions...)

	w.deps.Bus.Emit(events.KindQualificationProgress, sess.LeadID, map[string]any{
		"bot":   w.Kind(),
		"touch": int(touch),
	})
	return plan
}

// day30Plan generates the CMA asset, predicts the outcome, and terminates
// or restarts the cadence.
func (w *Nurture) day30Plan(ctx context.Context, sess *session.Session, state *models.NurtureState, in *Input) *models.OutboundPlan {
	plan := newPlan(sess.LeadID, w.Kind(), models.ToneWarm, in.Now)

	objective := "Share that you've put together a market analysis for their home and ask if they'd like to walk through it."
	report, err := w.deps.CMA.Generate(ctx, cma.Request{LeadID: sess.LeadID})
	if err != nil {
		plan.Degraded = true
		objective = "Offer to put together a free market analysis for their home."
		w.deps.Bus.Emit(events.KindExternalDegraded, sess.LeadID, map[string]any{
			"collaborator": "cma",
			"error":        err.Error(),
		})
	} else {
		plan.Actions = append(plan.Actions, models.PlanAction{
			Kind:    models.PlanGenerateCMA,
			Content: report.URL,
			Status:  models.ActionDispatched,
		})
	}

	pred := w.predictor.Predict(sess, in.Profile)
	var outcome models.NurtureOutcome
	switch {
	case pred.Conversion >= conversionHandoffMin:
		outcome = models.NurtureQualifyHandoff
	case pred.DropOff >= dropOffDisengageMin:
		outcome = models.NurtureGracefulDisengage
	default:
		outcome = models.NurtureContinue
	}

	switch outcome {
	case models.NurtureQualifyHandoff:
		state.Touch = models.NurtureDone
		state.Outcome = outcome
		plan.Actions = append(plan.Actions, models.PlanAction{
			Kind:        models.PlanTriggerHandoff,
			HandoffFrom: w.Kind(),
			HandoffTo:   handoffTarget(in.Profile),
			Reason:      fmt.Sprintf("nurture-conversion-%.2f", pred.Conversion),
			Status:      models.ActionPending,
		})
	case models.NurtureGracefulDisengage:
		state.Touch = models.NurtureDone
		state.Outcome = outcome
		objective = "Thank them for their time, say you'll stop checking in, and leave a warm open door."
		plan.Actions = append(plan.Actions, models.PlanAction{
			Kind:   models.PlanTagContact,
			Tags:   []string{"nurture-disengaged"},
			Status: models.ActionPending,
		})
	case models.NurtureContinue:
		// Restart the cadence from day 3.
		state.Touch = models.NurtureDay3
		state.EnrolledAt = in.Now
		state.NextTouchAt = in.Now.Add(touchOffsets[models.NurtureDay3])
	}

	text, degraded := w.deps.draft(ctx, &llm.DraftRequest{
		LeadID:         sess.LeadID,
		LeadName:       sess.LeadName,
		Bot:            w.Kind(),
		Tone:           models.ToneWarm,
		Classification: in.Profile.Classification,
		Objective:      objective,
		History:        sess.History,
	})
	plan.Text = text
	plan.Degraded = plan.Degraded || degraded
	plan.Actions = append([]models.PlanAction{sendAction(sess, text)}, plan.Actions...)

	w.deps.Bus.Emit(events.KindQualificationProgress, sess.LeadID, map[string]any{
		"bot":        w.Kind(),
		"touch":      int(models.NurtureDay30),
		"outcome":    outcome,
		"conversion": pred.Conversion,
		"drop_off":   pred.DropOff,
	})
	return plan
}

// escalatePlan is the early-warning path: pull the next touch to tomorrow
// and switch to voice.
func (w *Nurture) escalatePlan(ctx context.Context, sess *session.Session, state *models.NurtureState, in *Input) *models.OutboundPlan {
	state.NextTouchAt = in.Now.Add(24 * time.Hour)

	text, degraded := w.deps.draft(ctx, &llm.DraftRequest{
		LeadID:         sess.LeadID,
		LeadName:       sess.LeadName,
		Bot:            w.Kind(),
		Tone:           models.ToneDirect,
		Classification: in.Profile.Classification,
		Objective:      "Re-engage directly: say you don't want them to miss the window and ask for a quick call.",
		History:        sess.History,
	})

	plan := newPlan(sess.LeadID, w.Kind(), models.ToneDirect, in.Now)
	plan.Text = text
	plan.Degraded = degraded
	plan.Actions = append(plan.Actions,
		sendAction(sess, text),
		models.PlanAction{
			Kind:       models.PlanScheduleFollowup,
			Channel:    models.ChannelVoice,
			Phone:      sess.Phone,
			Reason:     "re-engagement escalation",
			FollowupAt: in.Now.Add(24 * time.Hour),
			Status:     models.ActionPending,
		},
	)
	return plan
}

// replyPlan answers an inbound between touches.
func (w *Nurture) replyPlan(ctx context.Context, sess *session.Session, state *models.NurtureState, profile behaviourProfile, in *Input) *models.OutboundPlan {
	text, degraded := w.deps.draft(ctx, &llm.DraftRequest{
		LeadID:         sess.LeadID,
		LeadName:       sess.LeadName,
		Bot:            w.Kind(),
		Tone:           models.ToneWarm,
		Classification: in.Profile.Classification,
		Stall:          in.FreshStall.Kind,
		Objective:      "Answer helpfully and keep the relationship warm. No hard ask.",
		History:        sess.History,
	})

	plan := newPlan(sess.LeadID, w.Kind(), models.ToneWarm, in.Now)
	plan.Text = text
	plan.Degraded = degraded
	plan.Actions = append(plan.Actions, channelAction(sess, profile, text))
	return plan
}

// reEnrollPlan handles a lead coming back after a graceful disengage: the
// cadence restarts from scratch.
func (w *Nurture) reEnrollPlan(ctx context.Context, sess *session.Session, state *models.NurtureState, in *Input) *models.OutboundPlan {
	state.Outcome = ""
	state.Touch = models.NurtureDay3
	state.EnrolledAt = in.Now
	state.NextTouchAt = in.Now.Add(touchOffsets[models.NurtureDay3])

	text, degraded := w.deps.draft(ctx, &llm.DraftRequest{
		LeadID:         sess.LeadID,
		LeadName:       sess.LeadName,
		Bot:            w.Kind(),
		Tone:           models.ToneWarm,
		Classification: in.Profile.Classification,
		Objective:      "Welcome them back warmly and ask what's changed since you last spoke.",
		History:        sess.History,
	})

	plan := newPlan(sess.LeadID, w.Kind(), models.ToneWarm, in.Now)
	plan.Text = text
	plan.Degraded = degraded
	plan.Actions = append(plan.Actions, sendAction(sess, text))
	return plan
}

// profileBehaviour derives the behavioural profile from the session
// history: median inbound response latency and the channel to prefer.
func (w *Nurture) profileBehaviour(sess *session.Session) behaviourProfile {
	p := behaviourProfile{PreferredChannel: models.ChannelSMS}
	if sess.Phone == "" && sess.Email != "" {
		p.PreferredChannel = models.ChannelEmail
	}

	var gaps []time.Duration
	var lastOutbound time.Time
	for _, m := range sess.History {
		switch m.Role {
		case models.RoleAssistant:
			lastOutbound = m.Timestamp
		case models.RoleUser:
			if !lastOutbound.IsZero() {
				gaps = append(gaps, m.Timestamp.Sub(lastOutbound))
				lastOutbound = time.Time{}
			}
		}
	}
	if len(gaps) > 0 {
		sort.Slice(gaps, func(i, j int) bool { return gaps[i] < gaps[j] })
		p.MedianLatency = gaps[len(gaps)/2]
	}
	// Slow responders on a known email get moved off SMS.
	if p.MedianLatency > fastResponderLatency && sess.Email != "" {
		p.PreferredChannel = models.ChannelEmail
	}
	return p
}

// channelAction builds the delivery action on the profile's preferred
// channel.
func channelAction(sess *session.Session, profile behaviourProfile, text string) models.PlanAction {
	if profile.PreferredChannel == models.ChannelEmail && sess.Email != "" {
		return models.PlanAction{
			Kind:    models.PlanSendEmail,
			Channel: models.ChannelEmail,
			Email:   sess.Email,
			Content: text,
			Status:  models.ActionPending,
		}
	}
	return sendAction(sess, text)
}

// scoresDeclining reports whether the last n snapshots are strictly
// monotonically declining on FRS.
func scoresDeclining(history []models.ScoreSnapshot, n int) bool {
	if len(history) < n {
		return false
	}
	tail := history[len(history)-n:]
	for i := 1; i < len(tail); i++ {
		if tail[i].FRS >= tail[i-1].FRS {
			return false
		}
	}
	return true
}

func atLeastWarm(c models.Classification) bool {
	return c == models.ClassificationWarm || c == models.ClassificationHot
}
