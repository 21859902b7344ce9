// Package compliance is the authority over outbound SMS. Every outbound
// SMS passes through the Gate; there is no back door. It owns the per-phone
// compliance records and appends to an immutable audit trail.
package compliance

import (
	"time"

	"github.com/propertyline/leadflow/pkg/models"
)

// OptOutRetention is how long an opt-out is honored at minimum. The value
// is policy, not statute: TCPA imposes no specific horizon.
const OptOutRetention = 2 * 365 * 24 * time.Hour

// Record is the per-phone compliance state. Counters carry their period
// start so stale periods can be lazily reset at operation time.
type Record struct {
	Phone        string              `json:"phone"`
	OptedOut     bool                `json:"opted_out"`
	OptOutReason models.OptOutReason `json:"opt_out_reason,omitempty"`
	OptOutAt     time.Time           `json:"opt_out_at,omitzero"`
	DailyCount   int                 `json:"daily_count"`
	DailyDate    string              `json:"daily_date,omitempty"` // YYYY-MM-DD local
	MonthlyCount int                 `json:"monthly_count"`
	MonthlyMonth string              `json:"monthly_month,omitempty"` // YYYY-MM local
	LastSentAt   time.Time           `json:"last_sent_at,omitzero"`
}

// DenyReason explains a validateSend denial.
type DenyReason string

const (
	DenyOptedOut     DenyReason = "opted-out"
	DenyDailyLimit   DenyReason = "daily-limit"
	DenyMonthlyLimit DenyReason = "monthly-limit"
)

// NoteBusinessHours is the advisory note attached to sends attempted
// outside the configured business-hour window. Advisory only: the send
// is still allowed.
const NoteBusinessHours = "business-hours-warning"

// ValidationResult is the outcome of ValidateSend.
type ValidationResult struct {
	Allowed      bool       `json:"allowed"`
	Reason       DenyReason `json:"reason,omitempty"`
	Note         string     `json:"note,omitempty"`
	DailyCount   int        `json:"daily_count"`
	MonthlyCount int        `json:"monthly_count"`
}

// InboundAction is the outcome kind of ProcessInbound.
type InboundAction string

const (
	InboundOptOutProcessed  InboundAction = "opt-out-processed"
	InboundMessageProcessed InboundAction = "message-processed"
)

// InboundResult is the outcome of ProcessInbound.
type InboundResult struct {
	Action  InboundAction `json:"action"`
	Details string        `json:"details,omitempty"`
}

// Status is a read-only snapshot of a phone's compliance state.
type Status struct {
	Phone        string              `json:"phone"`
	OptedOut     bool                `json:"opted_out"`
	OptOutReason models.OptOutReason `json:"opt_out_reason,omitempty"`
	OptOutAt     time.Time           `json:"opt_out_at,omitzero"`
	DailyCount   int                 `json:"daily_count"`
	MonthlyCount int                 `json:"monthly_count"`
	LastSentAt   time.Time           `json:"last_sent_at,omitzero"`
}

// AuditEntry is one immutable row of the compliance audit trail.
type AuditEntry struct {
	ID        string    `json:"id"`
	Phone     string    `json:"phone"`
	Action    string    `json:"action"` // validate-deny, send-recorded, send-failed, opt-out
	Content   string    `json:"content,omitempty"`
	Allowed   bool      `json:"allowed"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
