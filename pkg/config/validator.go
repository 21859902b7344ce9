package config

import (
	"errors"
	"fmt"
	"math"
)

// Validator performs comprehensive validation on loaded configuration.
// Any failure here is fatal at startup (exit code 1): an orchestrator
// running with broken scoring weights would mis-route every lead.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll validates every configuration section.
func (v *Validator) ValidateAll() error {
	validators := []func() error{
		v.validateScoring,
		v.validateSession,
		v.validateCompliance,
		v.validateCollaborators,
		v.validateProspecting,
	}
	for _, fn := range validators {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) validateScoring() error {
	s := v.cfg.Scoring
	sum := s.FRSWeights.Motivation + s.FRSWeights.Timeline + s.FRSWeights.Condition + s.FRSWeights.Price
	if math.Abs(sum-1.0) > 1e-6 {
		return NewValidationError("scoring", "frs_weights",
			fmt.Errorf("weights must sum to 1.0, got %.4f", sum))
	}
	for name, w := range map[string]float64{
		"motivation": s.FRSWeights.Motivation,
		"timeline":   s.FRSWeights.Timeline,
		"condition":  s.FRSWeights.Condition,
		"price":      s.FRSWeights.Price,
	} {
		if w < 0 {
			return NewValidationError("scoring", "frs_weights."+name, errors.New("weight must be non-negative"))
		}
	}
	t := s.Thresholds
	if !(t.Hot > t.Warm && t.Warm > t.Lukewarm && t.Lukewarm > 0) {
		return NewValidationError("scoring", "classification_thresholds",
			fmt.Errorf("thresholds must be strictly ordered hot > warm > lukewarm > 0, got %.0f/%.0f/%.0f",
				t.Hot, t.Warm, t.Lukewarm))
	}
	if s.HandoffFRSMin < 0 || s.HandoffFRSMin > 100 {
		return NewValidationError("scoring", "handoff_frs_min", errors.New("must be within [0,100]"))
	}
	if s.HandoffConfidenceMin < 0 || s.HandoffConfidenceMin > 1 {
		return NewValidationError("scoring", "handoff_confidence_min", errors.New("must be within [0,1]"))
	}
	return nil
}

func (v *Validator) validateSession() error {
	s := v.cfg.Session
	if s.TTL <= 0 {
		return NewValidationError("session", "ttl", errors.New("must be positive"))
	}
	if s.SweepInterval <= 0 {
		return NewValidationError("session", "sweep_interval", errors.New("must be positive"))
	}
	return nil
}

func (v *Validator) validateCompliance() error {
	c := v.cfg.Compliance
	if c.DailySMSLimit <= 0 {
		return NewValidationError("compliance", "daily_sms_limit", errors.New("must be positive"))
	}
	if c.MonthlySMSLimit < c.DailySMSLimit {
		return NewValidationError("compliance", "monthly_sms_limit",
			errors.New("must be at least the daily limit"))
	}
	if c.BusinessHourMin < 0 || c.BusinessHourMax > 24 || c.BusinessHourMin >= c.BusinessHourMax {
		return NewValidationError("compliance", "business_hours",
			fmt.Errorf("invalid hour range %d-%d", c.BusinessHourMin, c.BusinessHourMax))
	}
	if len(c.StopKeywords) == 0 {
		return NewValidationError("compliance", "stop_keywords", errors.New("must not be empty"))
	}
	return nil
}

func (v *Validator) validateCollaborators() error {
	c := v.cfg.Collaborators
	if c.CRMDeadline <= 0 || c.LLMDeadline <= 0 || c.CMADeadline <= 0 {
		return NewValidationError("collaborators", "deadlines", errors.New("all deadlines must be positive"))
	}
	return nil
}

func (v *Validator) validateProspecting() error {
	p := v.cfg.Prospecting
	if !p.Enabled {
		return nil
	}
	if p.CronSpec == "" {
		return NewValidationError("prospecting", "cron_spec", errors.New("required when prospecting is enabled"))
	}
	if p.BatchLimit <= 0 {
		return NewValidationError("prospecting", "batch_limit", errors.New("must be positive"))
	}
	return nil
}
