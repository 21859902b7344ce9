package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// leadflowYAML mirrors the leadflow.yaml file structure.
type leadflowYAML struct {
	Scoring       *ScoringConfig       `yaml:"scoring"`
	Session       *SessionConfig       `yaml:"session"`
	Compliance    *ComplianceConfig    `yaml:"compliance"`
	Collaborators *CollaboratorsConfig `yaml:"collaborators"`
	Prospecting   *ProspectingConfig   `yaml:"prospecting"`
	HTTP          *HTTPConfig          `yaml:"http"`
}

// Initialize loads, merges, validates, and returns ready-to-use configuration.
//
// Steps performed:
//  1. Load leadflow.yaml from configDir (missing file → pure defaults)
//  2. Expand environment variables ({{.VAR}} template syntax)
//  3. Merge user YAML on top of built-in defaults
//  4. Validate everything (FRS weights summing to 1.0 is fatal here)
func Initialize(_ context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	log.Info("Configuration initialized successfully",
		"session_ttl", cfg.Session.TTL,
		"daily_sms_limit", cfg.Compliance.DailySMSLimit,
		"monthly_sms_limit", cfg.Compliance.MonthlySMSLimit,
		"prospecting_enabled", cfg.Prospecting.Enabled)

	return cfg, nil
}

func load(configDir string) (*Config, error) {
	var userCfg leadflowYAML
	if err := loadYAML(configDir, "leadflow.yaml", &userCfg); err != nil {
		return nil, NewLoadError("leadflow.yaml", err)
	}

	cfg := &Config{
		configDir:     configDir,
		Scoring:       DefaultScoringConfig(),
		Session:       DefaultSessionConfig(),
		Compliance:    DefaultComplianceConfig(),
		Collaborators: DefaultCollaboratorsConfig(),
		Prospecting:   DefaultProspectingConfig(),
		HTTP:          DefaultHTTPConfig(),
	}

	// Merge user config into defaults; non-zero user values override.
	merges := []struct {
		dst, src any
	}{
		{cfg.Scoring, userCfg.Scoring},
		{cfg.Session, userCfg.Session},
		{cfg.Compliance, userCfg.Compliance},
		{cfg.Collaborators, userCfg.Collaborators},
		{cfg.Prospecting, userCfg.Prospecting},
		{cfg.HTTP, userCfg.HTTP},
	}
	for _, m := range merges {
		if m.src == nil || isNilPtr(m.src) {
			continue
		}
		if err := mergo.Merge(m.dst, m.src, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge configuration: %w", err)
		}
	}

	return cfg, nil
}

func isNilPtr(v any) bool {
	switch p := v.(type) {
	case *ScoringConfig:
		return p == nil
	case *SessionConfig:
		return p == nil
	case *ComplianceConfig:
		return p == nil
	case *CollaboratorsConfig:
		return p == nil
	case *ProspectingConfig:
		return p == nil
	case *HTTPConfig:
		return p == nil
	default:
		return false
	}
}

// loadYAML reads, env-expands, and parses one YAML file. A missing file is
// not an error: the caller falls back to built-in defaults.
func loadYAML(configDir, filename string, target any) error {
	path := filepath.Join(configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("Configuration file not found, using built-in defaults", "path", path)
			return nil
		}
		return err
	}

	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return nil
}

func validate(cfg *Config) error {
	v := NewValidator(cfg)
	return v.ValidateAll()
}
