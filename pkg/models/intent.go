package models

import "time"

// FRSBreakdown holds the Financial Readiness Score and its four sub-scores.
// Each sub-score is clamped to [0,100]. Total is the weighted sum
// (motivation 0.35, timeline 0.30, condition 0.20, price 0.15 by default).
type FRSBreakdown struct {
	Motivation float64 `json:"motivation"`
	Timeline   float64 `json:"timeline"`
	Condition  float64 `json:"condition"`
	Price      float64 `json:"price"`
	Total      float64 `json:"total"`
}

// PCSBreakdown holds the Psychological Commitment Score and its five
// sub-scores. Total is their unweighted average.
type PCSBreakdown struct {
	ResponseVelocity  float64 `json:"response_velocity"`
	MessageLength     float64 `json:"message_length"`
	QuestionDepth     float64 `json:"question_depth"`
	ObjectionHandling float64 `json:"objection_handling"`
	CallAcceptance    float64 `json:"call_acceptance"`
	Total             float64 `json:"total"`
}

// IntentProfile is an immutable snapshot of scored lead intent, computed
// by the intent decoder from the full conversation history.
type IntentProfile struct {
	LeadID           string         `json:"lead_id"`
	FRS              FRSBreakdown   `json:"frs"`
	PCS              PCSBreakdown   `json:"pcs"`
	Classification   Classification `json:"classification"`
	BuyerConfidence  float64        `json:"buyer_confidence"`
	SellerConfidence float64        `json:"seller_confidence"`
	NextBestAction   string         `json:"next_best_action"`
	DetectedMarkers  []string       `json:"detected_markers,omitempty"`
	AnalyzedAt       time.Time      `json:"analyzed_at"`
}

// ScoreSnapshot is one entry of a session's bounded score history.
type ScoreSnapshot struct {
	FRS            float64        `json:"frs"`
	PCS            float64        `json:"pcs"`
	Classification Classification `json:"classification"`
	At             time.Time      `json:"at"`
}

// EmotionalTransition records a shift in conversational temperature,
// kept in a bounded ring on the session.
type EmotionalTransition struct {
	From Classification `json:"from"`
	To   Classification `json:"to"`
	At   time.Time      `json:"at"`
}

// IncrementalUpdate is the real-time updater's per-message delta. Produced
// once per inbound message and never mutated.
type IncrementalUpdate struct {
	FRSDelta          float64           `json:"frs_delta"`
	PCSDelta          float64           `json:"pcs_delta"`
	Confidence        float64           `json:"confidence"`
	SignalsDetected   []Signal          `json:"signals_detected,omitempty"`
	RecommendedAction RecommendedAction `json:"recommended_action"`
	Trigger           string            `json:"trigger"`
}
