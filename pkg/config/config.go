// Package config loads and validates LeadFlow configuration from YAML.
package config

import "time"

// Config is the umbrella configuration object returned by Initialize()
// and passed explicitly to every component at startup.
type Config struct {
	configDir string // Configuration directory path (for reference)

	// Scoring knobs
	Scoring *ScoringConfig

	// Session store behavior
	Session *SessionConfig

	// SMS compliance policy
	Compliance *ComplianceConfig

	// External collaborator endpoints and deadlines
	Collaborators *CollaboratorsConfig

	// Outbound prospecting feeder
	Prospecting *ProspectingConfig

	// HTTP server settings
	HTTP *HTTPConfig
}

// ScoringConfig holds intent scoring weights and thresholds.
type ScoringConfig struct {
	// FRS sub-score weights; must sum to 1.0 at startup.
	FRSWeights FRSWeights `yaml:"frs_weights"`

	// Classification bucket lower bounds (hot/warm/lukewarm).
	Thresholds ClassificationThresholds `yaml:"classification_thresholds"`

	// Handoff qualification gate.
	HandoffFRSMin        float64 `yaml:"handoff_frs_min"`
	HandoffConfidenceMin float64 `yaml:"handoff_confidence_min"`
}

// FRSWeights are the weights applied to FRS sub-scores.
type FRSWeights struct {
	Motivation float64 `yaml:"motivation"`
	Timeline   float64 `yaml:"timeline"`
	Condition  float64 `yaml:"condition"`
	Price      float64 `yaml:"price"`
}

// ClassificationThresholds are the inclusive lower bounds for each
// temperature bucket. Anything below Lukewarm is Cold.
type ClassificationThresholds struct {
	Hot      float64 `yaml:"hot"`
	Warm     float64 `yaml:"warm"`
	Lukewarm float64 `yaml:"lukewarm"`
}

// SessionConfig controls the in-memory session store.
type SessionConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// ComplianceConfig holds the TCPA compliance policy.
type ComplianceConfig struct {
	DailySMSLimit   int      `yaml:"daily_sms_limit"`
	MonthlySMSLimit int      `yaml:"monthly_sms_limit"`
	BusinessHourMin int      `yaml:"business_hour_min"` // inclusive, local hour
	BusinessHourMax int      `yaml:"business_hour_max"` // exclusive, local hour
	StopKeywords    []string `yaml:"stop_keywords"`

	// Redis mirror for opt-out durability. Empty disables the mirror
	// (in-memory only; acceptable for tests and dev).
	RedisAddr string `yaml:"redis_addr"`

	// Postgres DSN for the append-only audit trail. Empty disables it.
	AuditDSN string `yaml:"audit_dsn"`
}

// CollaboratorsConfig holds external collaborator settings.
type CollaboratorsConfig struct {
	CRMBaseURL     string        `yaml:"crm_base_url"`
	CRMAPIKeyEnv   string        `yaml:"crm_api_key_env"`
	CRMLocationID  string        `yaml:"crm_location_id"`
	CRMDeadline    time.Duration `yaml:"crm_deadline"`
	LLMModel       string        `yaml:"llm_model"`
	LLMAPIKeyEnv   string        `yaml:"llm_api_key_env"`
	LLMDeadline    time.Duration `yaml:"llm_deadline"`
	CMABaseURL     string        `yaml:"cma_base_url"`
	CMADeadline    time.Duration `yaml:"cma_deadline"`
	RequireOnBoot  bool          `yaml:"require_on_boot"` // fail startup if CRM is unreachable
}

// ProspectingConfig controls the cron-driven outbound prospecting feeder.
type ProspectingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	CronSpec      string `yaml:"cron_spec"`
	PipelineStage string `yaml:"pipeline_stage"`
	InactiveDays  int    `yaml:"inactive_days"`
	BatchLimit    int    `yaml:"batch_limit"`
}

// HTTPConfig holds the API server settings.
type HTTPConfig struct {
	Port string `yaml:"port"`
}

// ConfigDir returns the configuration directory path.
func (c *Config) ConfigDir() string {
	return c.configDir
}
