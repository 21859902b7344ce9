package models

import "time"

// SellerQuestion indexes the fixed 4-question seller qualification script.
type SellerQuestion int

const (
	SellerAskMotivation SellerQuestion = iota
	SellerAskTimeline
	SellerAskCondition
	SellerAskPrice
	sellerQuestionCount
)

// SellerQuestionCount is the length of the seller script.
const SellerQuestionCount = int(sellerQuestionCount)

// SellerState is the seller-qualify workflow position.
type SellerState struct {
	QuestionIndex         int            `json:"question_index"`
	Answered              [4]bool        `json:"answered"`
	Tone                  Tone           `json:"tone"`
	StallStreak           int            `json:"stall_streak"`
	StallBreakerAttempted bool           `json:"stall_breaker_attempted"`
	Qualified             bool           `json:"qualified"`
	Disengaged            bool           `json:"disengaged"`
	WaitingFor            SellerQuestion `json:"waiting_for"`
}

// BuyerNode enumerates the buyer-qualify workflow nodes.
type BuyerNode string

const (
	BuyerDiscovery          BuyerNode = "discovery"
	BuyerFinancialReadiness BuyerNode = "financial-readiness"
	BuyerPreferences        BuyerNode = "preferences"
	BuyerPropertyMatch      BuyerNode = "property-match"
	BuyerNextAction         BuyerNode = "next-action"
	BuyerClosing            BuyerNode = "closing"
)

// BuyerState is the buyer-qualify workflow position.
type BuyerState struct {
	Node        BuyerNode `json:"node"`
	PreApproved bool      `json:"pre_approved"`
	TimelineDay int       `json:"timeline_days"`
	Budget      float64   `json:"budget,omitempty"`
}

// NurtureTouch enumerates the scheduled nurture cadence touchpoints.
type NurtureTouch int

const (
	NurtureDay3 NurtureTouch = iota
	NurtureDay7
	NurtureDay14
	NurtureDay30
	NurtureDone
)

// NurtureOutcome is the terminal decision at the day-30 touch.
type NurtureOutcome string

const (
	NurtureQualifyHandoff    NurtureOutcome = "qualify-handoff"
	NurtureContinue          NurtureOutcome = "continue-nurture"
	NurtureGracefulDisengage NurtureOutcome = "graceful-disengage"
)

// NurtureState is the nurture-sequence workflow position.
type NurtureState struct {
	Touch       NurtureTouch   `json:"touch"`
	NextTouchAt time.Time      `json:"next_touch_at,omitzero"`
	EnrolledAt  time.Time      `json:"enrolled_at,omitzero"`
	Outcome     NurtureOutcome `json:"outcome,omitempty"`
}

// ProspectState is the outbound-prospecting workflow position.
type ProspectState struct {
	Enrolled    bool      `json:"enrolled"`
	SourceStage string    `json:"source_stage,omitempty"`
	FirstTouch  time.Time `json:"first_touch,omitzero"`
	Escalated   bool      `json:"escalated"`
}

// WorkflowState carries the bot-specific state-machine positions. Only the
// sub-state for the current bot is populated; a handoff resets the target
// bot's sub-state to its initial node.
type WorkflowState struct {
	Seller   *SellerState   `json:"seller,omitempty"`
	Buyer    *BuyerState    `json:"buyer,omitempty"`
	Nurture  *NurtureState  `json:"nurture,omitempty"`
	Prospect *ProspectState `json:"prospect,omitempty"`
}

// SessionSnapshot is an immutable read-only view of a lead session.
type SessionSnapshot struct {
	LeadID               string                `json:"lead_id"`
	LeadName             string                `json:"lead_name,omitempty"`
	LeadKind             LeadKind              `json:"lead_kind"`
	Phone                string                `json:"phone,omitempty"`
	Email                string                `json:"email,omitempty"`
	CurrentBot           BotKind               `json:"current_bot"`
	History              []Message             `json:"history"`
	Workflow             WorkflowState         `json:"workflow"`
	LastScore            *IntentProfile        `json:"last_score,omitempty"`
	ScoreHistory         []ScoreSnapshot       `json:"score_history,omitempty"`
	EmotionalTransitions []EmotionalTransition `json:"emotional_transitions,omitempty"`
	StallCount           int                   `json:"stall_count"`
	OptedOut             bool                  `json:"opted_out"`
	LastInboundAt        time.Time             `json:"last_inbound_at,omitzero"`
	LastOutboundAt       time.Time             `json:"last_outbound_at,omitzero"`
	CreatedAt            time.Time             `json:"created_at"`
}
