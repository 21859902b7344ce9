package workflow

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/propertyline/leadflow/pkg/events"
	"github.com/propertyline/leadflow/pkg/llm"
	"github.com/propertyline/leadflow/pkg/models"
	"github.com/propertyline/leadflow/pkg/session"
)

// Buyer temperature thresholds over (frs + motivation) / 2.
const (
	buyerHotTemp  = 75
	buyerWarmTemp = 50
)

// closingTimelineDays is the urgency bound for the closing transition.
const closingTimelineDays = 30

var (
	preApprovalMarkers = []string{"pre-approved", "preapproved", "pre approved", "approved for", "cash buyer", "paying cash", "all cash"}
	budgetRe           = regexp.MustCompile(`\$\s*([\d,]+(?:\.\d+)?)\s*([km])?`)
	timelineDaysRe     = regexp.MustCompile(`(\d+)\s*(day|week|month)s?`)
)

// buyerObjectives is the per-node drafting goal.
var buyerObjectives = map[models.BuyerNode]string{
	models.BuyerDiscovery:          "Learn what kind of home they're looking for and why now.",
	models.BuyerFinancialReadiness: "Ask whether they're pre-approved or paying cash, and what budget they're working with.",
	models.BuyerPreferences:        "Ask about must-haves: area, bedrooms, style, dealbreakers.",
	models.BuyerPropertyMatch:      "Tell them you have a few listings matching what they described and offer to send them over.",
	models.BuyerNextAction:         "Propose a concrete next step: a showing this week or a quick call to narrow things down.",
	models.BuyerClosing:            "Lock in the showing. Confirm day and time, and set expectations for what happens next.",
}

// buyerNodeOrder is the forward progression; closing is entered only via
// the hot-and-ready rule.
var buyerNodeOrder = []models.BuyerNode{
	models.BuyerDiscovery,
	models.BuyerFinancialReadiness,
	models.BuyerPreferences,
	models.BuyerPropertyMatch,
	models.BuyerNextAction,
}

// Buyer walks a lead from discovery to a committed next action.
type Buyer struct {
	deps *Deps
}

// NewBuyer creates the buyer-qualify workflow.
func NewBuyer(deps *Deps) *Buyer {
	return &Buyer{deps: deps}
}

// Kind returns the bot identity.
func (w *Buyer) Kind() models.BotKind { return models.BotBuyerQualify }

// Run ingests buying signals from the inbound, then either jumps to the
// closing terminal (hot, pre-approved, urgent timeline) or advances one
// node.
func (w *Buyer) Run(ctx context.Context, sess *session.Session, in *Input) (*models.OutboundPlan, error) {
	state := sess.Workflow.Buyer
	if state == nil {
		state = &models.BuyerState{Node: models.BuyerDiscovery}
		sess.Workflow.Buyer = state
	}

	w.ingestSignals(state, in.Inbound)

	temp := (in.Profile.FRS.Total + in.Profile.FRS.Motivation) / 2
	hot := temp >= buyerHotTemp

	if state.Node != models.BuyerClosing {
		if hot && state.PreApproved && state.TimelineDay > 0 && state.TimelineDay <= closingTimelineDays {
			state.Node = models.BuyerClosing
		} else {
			state.Node = w.advance(state.Node)
		}
		w.deps.Bus.Emit(events.KindQualificationProgress, sess.LeadID, map[string]any{
			"bot":          w.Kind(),
			"node":         state.Node,
			"temperature":  temperatureBucket(temp),
			"pre_approved": state.PreApproved,
		})
	}

	tone := models.ToneWarm
	if hot {
		tone = models.ToneDirect
	}

	text, degraded := w.deps.draft(ctx, &llm.DraftRequest{
		LeadID:         sess.LeadID,
		LeadName:       sess.LeadName,
		Bot:            w.Kind(),
		Tone:           tone,
		Classification: in.Profile.Classification,
		Stall:          in.FreshStall.Kind,
		Objective:      buyerObjectives[state.Node],
		History:        sess.History,
	})

	plan := newPlan(sess.LeadID, w.Kind(), tone, in.Now)
	plan.Text = text
	plan.Degraded = degraded
	plan.Actions = append(plan.Actions, sendAction(sess, text))

	if state.Node == models.BuyerClosing {
		plan.Actions = append(plan.Actions, models.PlanAction{
			Kind:   models.PlanTagContact,
			Tags:   []string{"buyer-closing", "hot-lead"},
			Status: models.ActionPending,
		})
	}
	return plan, nil
}

// advance moves to the next node in the forward progression; next-action
// is sticky until the closing rule fires.
func (w *Buyer) advance(node models.BuyerNode) models.BuyerNode {
	for i, n := range buyerNodeOrder {
		if n == node && i+1 < len(buyerNodeOrder) {
			return buyerNodeOrder[i+1]
		}
	}
	return models.BuyerNextAction
}

// ingestSignals extracts pre-approval, budget, and timeline facts from the
// inbound text. Facts only accumulate; a later message never un-approves.
func (w *Buyer) ingestSignals(state *models.BuyerState, inbound string) {
	if inbound == "" {
		return
	}
	lower := strings.ToLower(inbound)

	for _, marker := range preApprovalMarkers {
		if strings.Contains(lower, marker) {
			state.PreApproved = true
			break
		}
	}

	if m := budgetRe.FindStringSubmatch(lower); m != nil {
		raw := strings.ReplaceAll(m[1], ",", "")
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			switch m[2] {
			case "k":
				v *= 1_000
			case "m":
				v *= 1_000_000
			}
			state.Budget = v
		}
	}

	if m := timelineDaysRe.FindStringSubmatch(lower); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			switch m[2] {
			case "week":
				v *= 7
			case "month":
				v *= 30
			}
			if state.TimelineDay == 0 || v < state.TimelineDay {
				state.TimelineDay = v
			}
		}
	}
}

func temperatureBucket(temp float64) string {
	switch {
	case temp >= buyerHotTemp:
		return "hot"
	case temp >= buyerWarmTemp:
		return "warm"
	default:
		return "cold"
	}
}
