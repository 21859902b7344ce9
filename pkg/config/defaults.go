package config

import "time"

// Built-in defaults. YAML values are merged on top; unset fields keep these.

// DefaultScoringConfig returns the built-in scoring configuration.
func DefaultScoringConfig() *ScoringConfig {
	return &ScoringConfig{
		FRSWeights: FRSWeights{
			Motivation: 0.35,
			Timeline:   0.30,
			Condition:  0.20,
			Price:      0.15,
		},
		Thresholds: ClassificationThresholds{
			Hot:      75,
			Warm:     50,
			Lukewarm: 25,
		},
		HandoffFRSMin:        60,
		HandoffConfidenceMin: 0.70,
	}
}

// DefaultSessionConfig returns the built-in session store configuration.
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		TTL:           24 * time.Hour,
		SweepInterval: 5 * time.Minute,
	}
}

// DefaultStopKeywords is the TCPA STOP keyword set. Matching is whole-token
// against the uppercased inbound text.
var DefaultStopKeywords = []string{
	"STOP", "UNSUBSCRIBE", "QUIT", "CANCEL", "END", "REMOVE", "HALT", "OPT-OUT", "OPTOUT",
}

// DefaultComplianceConfig returns the built-in compliance policy.
func DefaultComplianceConfig() *ComplianceConfig {
	return &ComplianceConfig{
		DailySMSLimit:   3,
		MonthlySMSLimit: 20,
		BusinessHourMin: 8,
		BusinessHourMax: 21,
		StopKeywords:    append([]string(nil), DefaultStopKeywords...),
	}
}

// DefaultCollaboratorsConfig returns the built-in collaborator settings.
func DefaultCollaboratorsConfig() *CollaboratorsConfig {
	return &CollaboratorsConfig{
		CRMAPIKeyEnv: "CRM_API_KEY",
		CRMDeadline:  5 * time.Second,
		LLMModel:     "claude-sonnet-4-5",
		LLMAPIKeyEnv: "ANTHROPIC_API_KEY",
		LLMDeadline:  10 * time.Second,
		CMADeadline:  30 * time.Second,
	}
}

// DefaultProspectingConfig returns the built-in prospecting feeder settings.
func DefaultProspectingConfig() *ProspectingConfig {
	return &ProspectingConfig{
		Enabled:      false,
		CronSpec:     "0 9 * * *", // daily 09:00 local
		InactiveDays: 30,
		BatchLimit:   50,
	}
}

// DefaultHTTPConfig returns the built-in HTTP server settings.
func DefaultHTTPConfig() *HTTPConfig {
	return &HTTPConfig{Port: "8080"}
}
