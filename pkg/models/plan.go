package models

import "time"

// PlanActionKind enumerates the side effects a workflow may request.
type PlanActionKind string

const (
	PlanSendSMS          PlanActionKind = "send-sms"
	PlanSendEmail        PlanActionKind = "send-email"
	PlanScheduleFollowup PlanActionKind = "schedule-followup"
	PlanTriggerHandoff   PlanActionKind = "trigger-handoff"
	PlanTagContact       PlanActionKind = "tag-contact"
	PlanGenerateCMA      PlanActionKind = "generate-cma"
)

// ActionStatus is the orchestrator's per-action dispatch outcome,
// surfaced to the caller in the returned plan.
type ActionStatus string

const (
	ActionPending    ActionStatus = "pending"
	ActionDispatched ActionStatus = "dispatched"
	ActionBlocked    ActionStatus = "blocked"
	ActionFailed     ActionStatus = "failed"
	ActionSkipped    ActionStatus = "skipped"
)

// PlanAction is a single side effect within an outbound plan. The
// orchestrator fills Status and StatusReason as it dispatches.
type PlanAction struct {
	Kind         PlanActionKind `json:"kind"`
	Channel      Channel        `json:"channel,omitempty"`
	Phone        string         `json:"phone,omitempty"`
	Email        string         `json:"email,omitempty"`
	Content      string         `json:"content,omitempty"`
	Tags         []string       `json:"tags,omitempty"`
	HandoffTo    BotKind        `json:"handoff_to,omitempty"`
	HandoffFrom  BotKind        `json:"handoff_from,omitempty"`
	Reason       string         `json:"reason,omitempty"`
	FollowupAt   time.Time      `json:"followup_at,omitzero"`
	Status       ActionStatus   `json:"status"`
	StatusReason string         `json:"status_reason,omitempty"`
}

// OutboundPlan is the complete result of handling one inbound message:
// the drafted response text plus zero or more side-effect actions.
// An inbound always produces a plan, possibly a degraded one.
type OutboundPlan struct {
	PlanID    string       `json:"plan_id"`
	LeadID    string       `json:"lead_id"`
	Bot       BotKind      `json:"bot"`
	Text      string       `json:"text"`
	Tone      Tone         `json:"tone,omitempty"`
	Actions   []PlanAction `json:"actions"`
	Degraded  bool         `json:"degraded"`
	CreatedAt time.Time    `json:"created_at"`
}
