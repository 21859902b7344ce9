package workflow

import (
	"context"
	"time"

	"github.com/propertyline/leadflow/pkg/events"
	"github.com/propertyline/leadflow/pkg/llm"
	"github.com/propertyline/leadflow/pkg/models"
	"github.com/propertyline/leadflow/pkg/session"
)

// takeAwayPCS is the commitment floor below which the seller workflow
// switches to the take-away tone.
const takeAwayPCS = 20

// sellerQuestions is the fixed 4-question qualification script, asked in
// order: motivation, timeline, condition, price.
var sellerQuestions = [models.SellerQuestionCount]string{
	models.SellerAskMotivation: "Ask what has them thinking about selling right now.",
	models.SellerAskTimeline:   "Ask when they would ideally like to have the sale wrapped up.",
	models.SellerAskCondition:  "Ask how they would describe the current condition of the home.",
	models.SellerAskPrice:      "Ask if they have a number in mind that would make selling worth it.",
}

// stallBreakers maps each stall kind to its scripted breaker prompt.
var stallBreakers = map[models.StallKind]string{
	models.StallThinking:          "Acknowledge the hesitation, then ask directly: what specifically would you need to know to feel good about a decision?",
	models.StallPriceObjection:    "Name the price concern head-on and ask what number would change the conversation.",
	models.StallZestimateFixation: "Explain that online estimates ignore condition and recent local sales, and offer a real comparative analysis.",
	models.StallAgentConflict:     "Respect the existing relationship, then ask if they have a signed agreement or are still comparing options.",
	models.StallBusy:              "Offer a single 10-minute window this week and ask them to pick morning or evening.",
	models.StallMaybeLater:        "Ask what changes between now and later, since waiting usually has a real cost in this market.",
}

// Seller runs the 4-question seller qualification script with tone
// management and stall breaking.
type Seller struct {
	deps *Deps
}

// NewSeller creates the seller-qualify workflow.
func NewSeller(deps *Deps) *Seller {
	return &Seller{deps: deps}
}

// Kind returns the bot identity.
func (w *Seller) Kind() models.BotKind { return models.BotSellerQualify }

// Run advances the script one turn. Rule order after recording the answer:
// disengaged short-circuit, hot-and-complete handoff, take-away on low
// commitment, stall handling, then the next unanswered question.
func (w *Seller) Run(ctx context.Context, sess *session.Session, in *Input) (*models.OutboundPlan, error) {
	state := sess.Workflow.Seller
	if state == nil {
		state = &models.SellerState{Tone: models.ToneWarm, WaitingFor: models.SellerAskMotivation}
		sess.Workflow.Seller = state
	}

	if state.Disengaged {
		return w.closedPlan(sess, state, in.Now), nil
	}

	// The inbound answers whatever question is currently on the table. The
	// first message of a conversation answers motivation unprompted.
	if in.Inbound != "" && !state.Answered[state.WaitingFor] {
		state.Answered[state.WaitingFor] = true
		w.deps.Bus.Emit(events.KindQualificationProgress, sess.LeadID, map[string]any{
			"bot":      w.Kind(),
			"answered": answeredCount(state),
			"of":       models.SellerQuestionCount,
		})
	}

	if in.Profile.Classification == models.ClassificationHot && answeredCount(state) == models.SellerQuestionCount {
		return w.qualifiedPlan(ctx, sess, state, in), nil
	}

	if in.Profile.PCS.Total < takeAwayPCS {
		return w.takeAwayPlan(ctx, sess, state, in), nil
	}

	if in.FreshStall.Kind != models.StallNone {
		if state.StallStreak >= 1 {
			return w.disengagePlan(ctx, sess, state, in), nil
		}
		return w.stallBreakPlan(ctx, sess, state, in), nil
	}
	state.StallStreak = 0

	return w.nextQuestionPlan(ctx, sess, state, in), nil
}

// qualifiedPlan marks the script complete and hands the lead off. A
// qualified seller is also a likely buyer of a replacement home, so the
// default target is buyer-qualify.
func (w *Seller) qualifiedPlan(ctx context.Context, sess *session.Session, state *models.SellerState, in *Input) *models.OutboundPlan {
	state.Qualified = true
	state.Tone = models.ToneDirect

	reason := "seller-qualified"
	if in.Profile.BuyerConfidence > 0 {
		reason = "buyer-intent-detected"
	}

	text, degraded := w.deps.draft(ctx, &llm.DraftRequest{
		LeadID:         sess.LeadID,
		LeadName:       sess.LeadName,
		Bot:            w.Kind(),
		Tone:           state.Tone,
		Classification: in.Profile.Classification,
		Objective:      "Tell them they are in a strong position and that a call is the right next step. Propose a specific time today or tomorrow.",
		History:        sess.History,
	})

	plan := newPlan(sess.LeadID, w.Kind(), state.Tone, in.Now)
	plan.Text = text
	plan.Degraded = degraded
	plan.Actions = append(plan.Actions,
		sendAction(sess, text),
		models.PlanAction{
			Kind:   models.PlanTagContact,
			Tags:   []string{"seller-qualified", "hot-lead"},
			Status: models.ActionPending,
		},
		models.PlanAction{
			Kind:        models.PlanTriggerHandoff,
			HandoffFrom: w.Kind(),
			HandoffTo:   models.BotBuyerQualify,
			Reason:      reason,
			Status:      models.ActionPending,
		},
	)
	return plan
}

func (w *Seller) takeAwayPlan(ctx context.Context, sess *session.Session, state *models.SellerState, in *Input) *models.OutboundPlan {
	state.Tone = models.ToneTakeAway

	text, degraded := w.deps.draft(ctx, &llm.DraftRequest{
		LeadID:         sess.LeadID,
		LeadName:       sess.LeadName,
		Bot:            w.Kind(),
		Tone:           state.Tone,
		Classification: in.Profile.Classification,
		Objective:      "Suggest that this may not be the right time for them, and leave the door open without asking for anything.",
		History:        sess.History,
	})

	plan := newPlan(sess.LeadID, w.Kind(), state.Tone, in.Now)
	plan.Text = text
	plan.Degraded = degraded
	plan.Actions = append(plan.Actions, sendAction(sess, text))
	return plan
}

func (w *Seller) stallBreakPlan(ctx context.Context, sess *session.Session, state *models.SellerState, in *Input) *models.OutboundPlan {
	state.Tone = models.ToneConfrontational
	state.StallStreak++
	state.StallBreakerAttempted = true

	text, degraded := w.deps.draft(ctx, &llm.DraftRequest{
		LeadID:         sess.LeadID,
		LeadName:       sess.LeadName,
		Bot:            w.Kind(),
		Tone:           state.Tone,
		Classification: in.Profile.Classification,
		Stall:          in.FreshStall.Kind,
		Objective:      stallBreakers[in.FreshStall.Kind],
		History:        sess.History,
	})

	plan := newPlan(sess.LeadID, w.Kind(), state.Tone, in.Now)
	plan.Text = text
	plan.Degraded = degraded
	plan.Actions = append(plan.Actions, sendAction(sess, text))
	return plan
}

// disengagePlan closes politely after a second consecutive stall.
func (w *Seller) disengagePlan(ctx context.Context, sess *session.Session, state *models.SellerState, in *Input) *models.OutboundPlan {
	state.Disengaged = true
	state.Tone = models.ToneTakeAway

	text, degraded := w.deps.draft(ctx, &llm.DraftRequest{
		LeadID:         sess.LeadID,
		LeadName:       sess.LeadName,
		Bot:            w.Kind(),
		Tone:           state.Tone,
		Classification: in.Profile.Classification,
		Stall:          in.FreshStall.Kind,
		Objective:      "Close the conversation politely. Tell them you'll step back and they can reach out whenever the timing is right.",
		History:        sess.History,
	})

	plan := newPlan(sess.LeadID, w.Kind(), state.Tone, in.Now)
	plan.Text = text
	plan.Degraded = degraded
	plan.Actions = append(plan.Actions,
		sendAction(sess, text),
		models.PlanAction{
			Kind:   models.PlanTagContact,
			Tags:   []string{"seller-disengaged"},
			Status: models.ActionPending,
		},
	)
	return plan
}

func (w *Seller) nextQuestionPlan(ctx context.Context, sess *session.Session, state *models.SellerState, in *Input) *models.OutboundPlan {
	next := nextUnanswered(state)
	state.WaitingFor = next
	state.QuestionIndex = int(next)
	state.Tone = toneForClassification(in.Profile.Classification)

	text, degraded := w.deps.draft(ctx, &llm.DraftRequest{
		LeadID:         sess.LeadID,
		LeadName:       sess.LeadName,
		Bot:            w.Kind(),
		Tone:           state.Tone,
		Classification: in.Profile.Classification,
		Objective:      sellerQuestions[next],
		History:        sess.History,
	})

	plan := newPlan(sess.LeadID, w.Kind(), state.Tone, in.Now)
	plan.Text = text
	plan.Degraded = degraded
	plan.Actions = append(plan.Actions, sendAction(sess, text))
	return plan
}

// closedPlan is the response after disengagement: acknowledge without
// restarting the script.
func (w *Seller) closedPlan(sess *session.Session, state *models.SellerState, now time.Time) *models.OutboundPlan {
	plan := newPlan(sess.LeadID, w.Kind(), state.Tone, now)
	plan.Text = "Good to hear from you! Whenever you're ready to pick this back up, just say the word."
	plan.Actions = append(plan.Actions, sendAction(sess, plan.Text))
	return plan
}

func answeredCount(state *models.SellerState) int {
	n := 0
	for _, a := range state.Answered {
		if a {
			n++
		}
	}
	return n
}

func nextUnanswered(state *models.SellerState) models.SellerQuestion {
	for q := models.SellerAskMotivation; int(q) < models.SellerQuestionCount; q++ {
		if !state.Answered[q] {
			return q
		}
	}
	return models.SellerAskPrice
}

func toneForClassification(c models.Classification) models.Tone {
	switch c {
	case models.ClassificationHot:
		return models.ToneDirect
	default:
		return models.ToneWarm
	}
}
