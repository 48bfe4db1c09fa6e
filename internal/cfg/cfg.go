// Package cfg holds application-specific configuration, registered and
// validated alongside the common go-core config packages.
package cfg

import (
	"errors"
	"flag"
	"fmt"
)

// Config holds the OpsInbox application settings.
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	ClaudeAPIKey          string
	ClaudeModel           string
	LLMEnabled            bool
	LLMTimeoutMillis      int
	LLMMaxConcurrent      int
	DatabaseURL           string
	SlackWebhookURL       string
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.ClaudeAPIKey, "claude-api-key", "", "API key for the Claude generation provider (empty = template-only)")
	fs.StringVar(&c.ClaudeModel, "claude-model", "claude-sonnet-4-20250514", "Claude model used for response generation")
	fs.BoolVar(&c.LLMEnabled, "llm-enabled", true, "enable the external generation provider (false = template-only)")
	fs.IntVar(&c.LLMTimeoutMillis, "llm-timeout-ms", 3500, "timeout for a single generation call in milliseconds (1..120000)")
	fs.IntVar(&c.LLMMaxConcurrent, "llm-max-concurrent", 4, "maximum in-flight generation calls per batch (1..64)")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL for audit events (empty = in-memory store)")
	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for escalation notifications")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	// Model is required whenever the external provider can be used
	if c.LLMEnabled && c.ClaudeAPIKey != "" && c.ClaudeModel == "" {
		errs = append(errs, errors.New("CLAUDE_MODEL is required when the provider is enabled"))
	}

	if c.LLMTimeoutMillis <= 0 || c.LLMTimeoutMillis > 120000 {
		errs = append(errs, fmt.Errorf("invalid LLM_TIMEOUT_MS %d (must be 1..120000)", c.LLMTimeoutMillis))
	}
	if c.LLMMaxConcurrent <= 0 || c.LLMMaxConcurrent > 64 {
		errs = append(errs, fmt.Errorf("invalid LLM_MAX_CONCURRENT %d (must be 1..64)", c.LLMMaxConcurrent))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ProviderConfigured reports whether the external generation provider
// should be constructed: it needs both a credential and the enable switch.
func (c *Config) ProviderConfigured() bool {
	return c.LLMEnabled && c.ClaudeAPIKey != ""
}
