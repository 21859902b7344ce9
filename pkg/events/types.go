// Package events provides the in-process orchestration event bus.
//
// Events for a given lead are emitted in the order they occur (total order
// per lead); cross-lead ordering is not guaranteed. Publishing is
// best-effort fire-and-forget: a slow or absent subscriber never fails the
// inbound that produced the event.
package events

import (
	"time"

	"github.com/propertyline/leadflow/pkg/models"
)

// Kind identifies an orchestration event. The set is closed.
type Kind string

const (
	KindInboundReceived       Kind = "inbound-received"
	KindOutboundSent          Kind = "outbound-sent"
	KindBotSwitched           Kind = "bot-switched"
	KindHandoffTriggered      Kind = "handoff-triggered"
	KindSMSOptOut             Kind = "sms-opt-out"
	KindSMSBlocked            Kind = "sms-blocked"
	KindScoreUpdated          Kind = "score-updated"
	KindStallDetected         Kind = "stall-detected"
	KindSessionEvicted        Kind = "session-evicted"
	KindExternalDegraded      Kind = "external-degraded"
	KindQualificationProgress Kind = "qualification-progress"
)

// IsValid checks if the event kind is valid.
func (k Kind) IsValid() bool {
	switch k {
	case KindInboundReceived, KindOutboundSent, KindBotSwitched,
		KindHandoffTriggered, KindSMSOptOut, KindSMSBlocked,
		KindScoreUpdated, KindStallDetected, KindSessionEvicted,
		KindExternalDegraded, KindQualificationProgress:
		return true
	default:
		return false
	}
}

// Event is one append-only orchestration event.
type Event struct {
	ID        string         `json:"id"`
	Kind      Kind           `json:"kind"`
	LeadID    string         `json:"lead_id"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// --- Typed payload builders ---

// HandoffPayload describes a bot handoff.
func HandoffPayload(from, to models.BotKind, reason string) map[string]any {
	return map[string]any{"from": from, "to": to, "reason": reason}
}

// OutboundPayload describes one outbound dispatch attempt.
func OutboundPayload(channel models.Channel, status models.ActionStatus, reason string) map[string]any {
	p := map[string]any{"channel": channel, "status": status}
	if reason != "" {
		p["reason"] = reason
	}
	return p
}

// StallPayload describes a detected stall.
func StallPayload(kind models.StallKind, matched string) map[string]any {
	return map[string]any{"stall_kind": kind, "matched": matched}
}

// ScorePayload describes a score update.
func ScorePayload(frs, pcs float64, classification models.Classification) map[string]any {
	return map[string]any{"frs": frs, "pcs": pcs, "classification": classification}
}
