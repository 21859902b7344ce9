package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/propertyline/leadflow/pkg/config"
	"github.com/propertyline/leadflow/pkg/models"
)

// Audit action names.
const (
	auditActionValidateDeny = "validate-deny"
	auditActionSendRecorded = "send-recorded"
	auditActionSendFailed   = "send-failed"
	auditActionOptOut       = "opt-out"
)

// auditContentMax bounds the message excerpt stored in the audit trail.
const auditContentMax = 160

// Gate is the authoritative decision point for outbound SMS.
//
// Operations on the same phone are serialized through a per-phone mutex;
// distinct phones proceed in parallel. STOP processing takes the same
// lock, so a validate that races an opt-out either sees the opt-out or
// strictly precedes it.
type Gate struct {
	cfg      *config.ComplianceConfig
	store    Store
	audit    AuditStore
	stopSet  map[string]bool
	location *time.Location
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// GateOption customizes Gate construction.
type GateOption func(*Gate)

// WithClock injects the time source. Tests use it to cross period
// boundaries without sleeping.
func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) { g.now = now }
}

// WithLocation sets the local timezone used for business hours and
// period boundaries.
func WithLocation(loc *time.Location) GateOption {
	return func(g *Gate) { g.location = loc }
}

// NewGate creates the compliance gate.
func NewGate(cfg *config.ComplianceConfig, store Store, audit AuditStore, opts ...GateOption) *Gate {
	stopSet := make(map[string]bool, len(cfg.StopKeywords))
	for _, kw := range cfg.StopKeywords {
		stopSet[strings.ToUpper(kw)] = true
	}
	g := &Gate{
		cfg:      cfg,
		store:    store,
		audit:    audit,
		stopSet:  stopSet,
		location: time.Local,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// phoneLock returns the mutex for a phone, creating it on first use.
func (g *Gate) phoneLock(phone string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.locks[phone]
	if !ok {
		l = &sync.Mutex{}
		g.locks[phone] = l
	}
	return l
}

// ValidateSend decides whether an SMS to phone may be sent right now.
// Denial is not an error; errors are reserved for store failures and
// invalid phone numbers.
func (g *Gate) ValidateSend(ctx context.Context, phone, content string) (*ValidationResult, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	l := g.phoneLock(normalized)
	l.Lock()
	defer l.Unlock()

	rec, err := g.loadRolled(ctx, normalized)
	if err != nil {
		return nil, err
	}

	res := &ValidationResult{
		DailyCount:   rec.DailyCount,
		MonthlyCount: rec.MonthlyCount,
	}
	switch {
	case rec.OptedOut:
		res.Reason = DenyOptedOut
	case rec.DailyCount >= g.cfg.DailySMSLimit:
		res.Reason = DenyDailyLimit
	case rec.MonthlyCount >= g.cfg.MonthlySMSLimit:
		res.Reason = DenyMonthlyLimit
	default:
		res.Allowed = true
		if h := g.now().In(g.location).Hour(); h < g.cfg.BusinessHourMin || h >= g.cfg.BusinessHourMax {
			res.Note = NoteBusinessHours
		}
	}

	if !res.Allowed {
		g.appendAudit(ctx, AuditEntry{
			Phone:   normalized,
			Action:  auditActionValidateDeny,
			Content: truncateContent(content),
			Reason:  string(res.Reason),
		})
	}
	return res, nil
}

// RecordSend records the outcome of an attempted send. Counters move only
// on success; failures still leave an audit entry.
func (g *Gate) RecordSend(ctx context.Context, phone, content string, success bool) error {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return err
	}
	l := g.phoneLock(normalized)
	l.Lock()
	defer l.Unlock()

	rec, err := g.loadRolled(ctx, normalized)
	if err != nil {
		return err
	}

	if success {
		rec.DailyCount++
		rec.MonthlyCount++
		rec.LastSentAt = g.now()
		if err := g.store.Put(ctx, rec); err != nil {
			return fmt.Errorf("failed to persist send counters: %w", err)
		}
		g.appendAudit(ctx, AuditEntry{
			Phone:   normalized,
			Action:  auditActionSendRecorded,
			Content: truncateContent(content),
			Allowed: true,
		})
		return nil
	}

	g.appendAudit(ctx, AuditEntry{
		Phone:   normalized,
		Action:  auditActionSendFailed,
		Content: truncateContent(content),
	})
	return nil
}

// ProcessInbound inspects an inbound SMS for STOP keywords before anything
// else sees the message. Matching is whole-token: "STOPWATCH" is not an
// opt-out.
func (g *Gate) ProcessInbound(ctx context.Context, phone, content string) (*InboundResult, error) {
	upper := strings.ToUpper(strings.TrimSpace(content))
	for _, token := range strings.FieldsFunc(upper, isTokenSeparator) {
		if g.stopSet[token] {
			if err := g.ProcessOptOut(ctx, phone, models.OptOutStopKeyword); err != nil {
				return nil, err
			}
			return &InboundResult{Action: InboundOptOutProcessed, Details: token}, nil
		}
	}
	return &InboundResult{Action: InboundMessageProcessed}, nil
}

// isTokenSeparator splits on whitespace and sentence punctuation but keeps
// '-' so "OPT-OUT" stays one token.
func isTokenSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '.', ',', '!', '?', ';', ':', '"', '\'', '(', ')':
		return true
	default:
		return false
	}
}

// ProcessOptOut marks a phone opted out. Idempotent: a repeated opt-out
// preserves the original timestamp and reason.
func (g *Gate) ProcessOptOut(ctx context.Context, phone string, reason models.OptOutReason) error {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return err
	}
	l := g.phoneLock(normalized)
	l.Lock()
	defer l.Unlock()

	rec, err := g.loadRolled(ctx, normalized)
	if err != nil {
		return err
	}
	if rec.OptedOut {
		return nil
	}

	rec.OptedOut = true
	rec.OptOutReason = reason
	rec.OptOutAt = g.now()
	if err := g.store.Put(ctx, rec); err != nil {
		return fmt.Errorf("failed to persist opt-out: %w", err)
	}

	g.appendAudit(ctx, AuditEntry{
		Phone:  normalized,
		Action: auditActionOptOut,
		Reason: string(reason),
	})
	slog.Info("SMS opt-out recorded", "phone", normalized, "reason", reason)
	return nil
}

// Status returns a read-only snapshot with period rollover applied.
func (g *Gate) Status(ctx context.Context, phone string) (*Status, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	l := g.phoneLock(normalized)
	l.Lock()
	defer l.Unlock()

	rec, err := g.loadRolled(ctx, normalized)
	if err != nil {
		return nil, err
	}
	return &Status{
		Phone:        rec.Phone,
		OptedOut:     rec.OptedOut,
		OptOutReason: rec.OptOutReason,
		OptOutAt:     rec.OptOutAt,
		DailyCount:   rec.DailyCount,
		MonthlyCount: rec.MonthlyCount,
		LastSentAt:   rec.LastSentAt,
	}, nil
}

// loadRolled loads a record and lazily resets counters whose stored
// period-start is stale. Daily resets at local midnight, monthly at the
// first of the month. Caller holds the phone lock.
func (g *Gate) loadRolled(ctx context.Context, phone string) (*Record, error) {
	rec, err := g.store.Get(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to load compliance record: %w", err)
	}

	now := g.now().In(g.location)
	day := now.Format("2006-01-02")
	month := now.Format("2006-01")

	if rec.DailyDate != day {
		rec.DailyCount = 0
		rec.DailyDate = day
	}
	if rec.MonthlyMonth != month {
		rec.MonthlyCount = 0
		rec.MonthlyMonth = month
	}
	return rec, nil
}

func (g *Gate) appendAudit(ctx context.Context, entry AuditEntry) {
	entry.CreatedAt = g.now()
	if err := g.audit.Append(ctx, entry); err != nil {
		slog.Error("Failed to append compliance audit entry",
			"phone", entry.Phone, "action", entry.Action, "error", err)
	}
}

func truncateContent(s string) string {
	if len(s) <= auditContentMax {
		return s
	}
	return s[:auditContentMax]
}
