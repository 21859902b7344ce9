// LeadFlow conversation server: scores inbound lead messages, runs the
// bot workflows, and exposes the HTTP API and prospecting feeder.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/propertyline/leadflow/pkg/api"
	"github.com/propertyline/leadflow/pkg/cma"
	"github.com/propertyline/leadflow/pkg/compliance"
	"github.com/propertyline/leadflow/pkg/config"
	"github.com/propertyline/leadflow/pkg/crm"
	"github.com/propertyline/leadflow/pkg/events"
	"github.com/propertyline/leadflow/pkg/intent"
	"github.com/propertyline/leadflow/pkg/llm"
	"github.com/propertyline/leadflow/pkg/orchestrator"
	"github.com/propertyline/leadflow/pkg/prospecting"
	"github.com/propertyline/leadflow/pkg/session"
	"github.com/propertyline/leadflow/pkg/version"
	"github.com/propertyline/leadflow/pkg/workflow"
)

// Exit codes: 0 clean shutdown, 1 configuration error, 2 external
// collaborator unreachable at startup.
const (
	exitConfigError       = 1
	exitCollaboratorError = 2
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	// Parse command-line flags
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	// Load .env file from config directory
	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"path", envPath, "error", err)
	} else {
		slog.Info("Loaded environment", "path", envPath)
	}

	slog.Info("Starting LeadFlow",
		"version", version.Full(),
		"config_dir", *configDir)

	ctx := context.Background()

	// 1. Initialize configuration
	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(exitConfigError)
	}

	// 2. Compliance persistence: Redis opt-out mirror and Postgres audit
	// trail when configured, in-memory otherwise.
	var optOutStore compliance.Store = compliance.NewMemoryStore()
	if cfg.Compliance.RedisAddr != "" {
		redisStore, err := compliance.NewRedisStore(ctx, cfg.Compliance.RedisAddr)
		if err != nil {
			slog.Error("Failed to connect to opt-out Redis", "addr", cfg.Compliance.RedisAddr, "error", err)
			os.Exit(exitCollaboratorError)
		}
		defer func() {
			if err := redisStore.Close(); err != nil {
				slog.Error("Error closing Redis store", "error", err)
			}
		}()
		optOutStore = redisStore
		slog.Info("Opt-out Redis mirror connected", "addr", cfg.Compliance.RedisAddr)
	} else {
		slog.Warn("No Redis configured; opt-out records are in-memory only")
	}

	var audit compliance.AuditStore = compliance.NewMemoryAudit()
	if cfg.Compliance.AuditDSN != "" {
		pgAudit, err := compliance.NewPostgresAudit(ctx, cfg.Compliance.AuditDSN)
		if err != nil {
			slog.Error("Failed to connect to compliance audit database", "error", err)
			os.Exit(exitCollaboratorError)
		}
		defer pgAudit.Close()
		audit = pgAudit
		slog.Info("Compliance audit trail connected to PostgreSQL")
	}

	gate := compliance.NewGate(cfg.Compliance, optOutStore, audit)

	// 3. Event bus and session store
	bus := events.NewBus()
	defer bus.Close()

	store := session.NewStore(cfg.Session, bus)
	store.Start(ctx)
	defer store.Stop()
	slog.Info("Session store started",
		"ttl", cfg.Session.TTL,
		"sweep_interval", cfg.Session.SweepInterval)

	// 4. CRM client. Without a base URL the in-memory fake serves local dev.
	var crmClient crm.Client
	if cfg.Collaborators.CRMBaseURL != "" {
		apiKey := os.Getenv(cfg.Collaborators.CRMAPIKeyEnv)
		httpCRM, err := crm.NewHTTPClient(
			cfg.Collaborators.CRMBaseURL,
			apiKey,
			cfg.Collaborators.CRMLocationID,
			cfg.Collaborators.CRMDeadline,
		)
		if err != nil {
			slog.Error("Failed to configure CRM client", "error", err)
			os.Exit(exitConfigError)
		}
		if cfg.Collaborators.RequireOnBoot {
			pingCtx, cancel := context.WithTimeout(ctx, cfg.Collaborators.CRMDeadline)
			err := httpCRM.Ping(pingCtx)
			cancel()
			if err != nil {
				slog.Error("CRM unreachable at startup", "error", err)
				os.Exit(exitCollaboratorError)
			}
			slog.Info("CRM reachable")
		}
		crmClient = httpCRM
		slog.Info("CRM client configured", "base_url", cfg.Collaborators.CRMBaseURL)
	} else {
		crmClient = crm.NewFake()
		slog.Warn("No CRM configured; using in-memory fake (development only)")
	}

	// 5. Drafters. The Anthropic drafter is optional; the template drafter
	// always backs it so an LLM outage degrades rather than fails.
	var drafter llm.Drafter
	if apiKey := os.Getenv(cfg.Collaborators.LLMAPIKeyEnv); apiKey != "" {
		anthropicDrafter, err := llm.NewAnthropicDrafterFromAPIKey(apiKey, cfg.Collaborators.LLMModel)
		if err != nil {
			slog.Error("Failed to configure Anthropic drafter", "error", err)
			os.Exit(exitConfigError)
		}
		drafter = anthropicDrafter
		slog.Info("Anthropic drafter configured", "model", cfg.Collaborators.LLMModel)
	} else {
		slog.Warn("No LLM API key; drafting from templates only",
			"key_env", cfg.Collaborators.LLMAPIKeyEnv)
	}

	var cmaGen cma.Generator = cma.Disabled{}
	if cfg.Collaborators.CMABaseURL != "" {
		httpCMA, err := cma.NewHTTPGenerator(cfg.Collaborators.CMABaseURL, cfg.Collaborators.CMADeadline)
		if err != nil {
			slog.Error("Failed to configure CMA client", "error", err)
			os.Exit(exitConfigError)
		}
		cmaGen = httpCMA
		slog.Info("CMA client configured", "base_url", cfg.Collaborators.CMABaseURL)
	}

	// 6. Scoring, workflows, orchestrator
	decoder := intent.NewDecoder(cfg.Scoring)
	updater := intent.NewUpdater(decoder)
	registry := workflow.NewRegistry(&workflow.Deps{
		Drafter:  drafter,
		Fallback: llm.NewTemplateDrafter(),
		CMA:      cmaGen,
		Bus:      bus,
		Scoring:  cfg.Scoring,
	})
	orch := orchestrator.New(store, decoder, updater, gate, registry, crmClient, bus, cfg.Scoring)
	slog.Info("Orchestrator initialized")

	// 7. Prospecting feeder
	feeder := prospecting.NewFeeder(cfg.Prospecting, crmClient, store, bus)
	if err := feeder.Start(ctx); err != nil {
		slog.Error("Failed to start prospecting feeder", "error", err)
		os.Exit(exitConfigError)
	}
	defer feeder.Stop()

	// 8. Start HTTP server (non-blocking)
	httpServer := api.NewServer(orch, gate, store, bus)
	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", cfg.HTTP.Port)
		if err := httpServer.Start(cfg.HTTP.Port); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	slog.Info("LeadFlow started successfully", "version", version.Full())

	// 9. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 10. Graceful shutdown. Stop accepting HTTP first, then let the
	// deferred stops drain the feeder, store sweeper, and bus.
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
