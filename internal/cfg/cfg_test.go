package cfg

import (
	"flag"
	"strings"
	"testing"
)

// validBase returns a Config with all required fields set to valid values.
func validBase() Config {
	return Config{
		DrainSeconds:          60,
		ShutdownBudgetSeconds: 90,
		APIPort:               8080,
		ClaudeAPIKey:          "sk-test-key",
		ClaudeModel:           "claude-sonnet-4-20250514",
		LLMEnabled:            true,
		LLMTimeoutMillis:      3500,
		LLMMaxConcurrent:      4,
	}
}

func TestRegisterFlags_Defaults(t *testing.T) {
	t.Parallel()

	var c Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse empty args: %v", err)
	}

	if c.DrainSeconds != 60 {
		t.Errorf("DrainSeconds = %d, want 60", c.DrainSeconds)
	}
	if c.ShutdownBudgetSeconds != 90 {
		t.Errorf("ShutdownBudgetSeconds = %d, want 90", c.ShutdownBudgetSeconds)
	}
	if c.APIPort != 8080 {
		t.Errorf("APIPort = %d, want 8080", c.APIPort)
	}
	if c.ClaudeModel != "claude-sonnet-4-20250514" {
		t.Errorf("ClaudeModel = %q, want %q", c.ClaudeModel, "claude-sonnet-4-20250514")
	}
	if !c.LLMEnabled {
		t.Error("LLMEnabled = false, want true")
	}
	if c.LLMTimeoutMillis != 3500 {
		t.Errorf("LLMTimeoutMillis = %d, want 3500", c.LLMTimeoutMillis)
	}
	if c.LLMMaxConcurrent != 4 {
		t.Errorf("LLMMaxConcurrent = %d, want 4", c.LLMMaxConcurrent)
	}
	if c.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", c.DatabaseURL)
	}
	if c.SlackWebhookURL != "" {
		t.Errorf("SlackWebhookURL = %q, want empty", c.SlackWebhookURL)
	}
}

func TestRegisterFlags_Override(t *testing.T) {
	t.Parallel()

	var c Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	args := []string{
		"-drain-seconds", "30",
		"-shutdown-budget-seconds", "120",
		"-http-port", "9090",
		"-claude-api-key", "sk-override",
		"-claude-model", "claude-opus-4-20250514",
		"-llm-enabled=false",
		"-llm-timeout-ms", "5000",
		"-llm-max-concurrent", "8",
		"-database-url", "postgres://u:p@localhost/opsinbox",
		"-slack-webhook-url", "https://hooks.slack.com/services/T/B/X",
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse args: %v", err)
	}

	if c.DrainSeconds != 30 {
		t.Errorf("DrainSeconds = %d, want 30", c.DrainSeconds)
	}
	if c.ShutdownBudgetSeconds != 120 {
		t.Errorf("ShutdownBudgetSeconds = %d, want 120", c.ShutdownBudgetSeconds)
	}
	if c.APIPort != 9090 {
		t.Errorf("APIPort = %d, want 9090", c.APIPort)
	}
	if c.ClaudeAPIKey != "sk-override" {
		t.Errorf("ClaudeAPIKey = %q, want %q", c.ClaudeAPIKey, "sk-override")
	}
	if c.ClaudeModel != "claude-opus-4-20250514" {
		t.Errorf("ClaudeModel = %q, want %q", c.ClaudeModel, "claude-opus-4-20250514")
	}
	if c.LLMEnabled {
		t.Error("LLMEnabled = true, want false")
	}
	if c.LLMTimeoutMillis != 5000 {
		t.Errorf("LLMTimeoutMillis = %d, want 5000", c.LLMTimeoutMillis)
	}
	if c.LLMMaxConcurrent != 8 {
		t.Errorf("LLMMaxConcurrent = %d, want 8", c.LLMMaxConcurrent)
	}
	if c.DatabaseURL != "postgres://u:p@localhost/opsinbox" {
		t.Errorf("DatabaseURL = %q", c.DatabaseURL)
	}
	if c.SlackWebhookURL != "https://hooks.slack.com/services/T/B/X" {
		t.Errorf("SlackWebhookURL = %q", c.SlackWebhookURL)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	withChange := func(f func(*Config)) Config {
		c := validBase()
		f(&c)
		return c
	}

	tests := []struct {
		name      string
		cfg       Config
		wantErr   bool
		errSubstr []string // substrings that must appear in error message
	}{
		{
			name:    "defaults are valid",
			cfg:     validBase(),
			wantErr: false,
		},
		{
			name: "template-only without api key is valid",
			cfg: withChange(func(c *Config) {
				c.ClaudeAPIKey = ""
				c.ClaudeModel = ""
			}),
			wantErr: false,
		},
		{
			name: "minimum valid values",
			cfg: Config{
				DrainSeconds: 1, ShutdownBudgetSeconds: 2, APIPort: 1,
				LLMTimeoutMillis: 1, LLMMaxConcurrent: 1,
			},
			wantErr: false,
		},
		{
			name: "maximum valid values",
			cfg: Config{
				DrainSeconds: 299, ShutdownBudgetSeconds: 300, APIPort: 65535,
				LLMTimeoutMillis: 120000, LLMMaxConcurrent: 64,
			},
			wantErr: false,
		},
		{
			name:      "drain zero",
			cfg:       withChange(func(c *Config) { c.DrainSeconds = 0 }),
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS"},
		},
		{
			name:      "drain above max",
			cfg:       withChange(func(c *Config) { c.DrainSeconds = 301; c.ShutdownBudgetSeconds = 300 }),
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS"},
		},
		{
			name:      "budget zero",
			cfg:       withChange(func(c *Config) { c.ShutdownBudgetSeconds = 0 }),
			wantErr:   true,
			errSubstr: []string{"SHUTDOWN_BUDGET_SECONDS"},
		},
		{
			name:      "budget equals drain",
			cfg:       withChange(func(c *Config) { c.ShutdownBudgetSeconds = c.DrainSeconds }),
			wantErr:   true,
			errSubstr: []string{"must be greater than"},
		},
		{
			name:      "port zero",
			cfg:       withChange(func(c *Config) { c.APIPort = 0 }),
			wantErr:   true,
			errSubstr: []string{"HTTP_PORT"},
		},
		{
			name:      "port above max",
			cfg:       withChange(func(c *Config) { c.APIPort = 65536 }),
			wantErr:   true,
			errSubstr: []string{"HTTP_PORT"},
		},
		{
			name:      "model required with provider enabled",
			cfg:       withChange(func(c *Config) { c.ClaudeModel = "" }),
			wantErr:   true,
			errSubstr: []string{"CLAUDE_MODEL"},
		},
		{
			name:      "llm timeout zero",
			cfg:       withChange(func(c *Config) { c.LLMTimeoutMillis = 0 }),
			wantErr:   true,
			errSubstr: []string{"LLM_TIMEOUT_MS"},
		},
		{
			name:      "llm timeout above max",
			cfg:       withChange(func(c *Config) { c.LLMTimeoutMillis = 120001 }),
			wantErr:   true,
			errSubstr: []string{"LLM_TIMEOUT_MS"},
		},
		{
			name:      "llm concurrency zero",
			cfg:       withChange(func(c *Config) { c.LLMMaxConcurrent = 0 }),
			wantErr:   true,
			errSubstr: []string{"LLM_MAX_CONCURRENT"},
		},
		{
			name:      "llm concurrency above max",
			cfg:       withChange(func(c *Config) { c.LLMMaxConcurrent = 65 }),
			wantErr:   true,
			errSubstr: []string{"LLM_MAX_CONCURRENT"},
		},
		{
			name: "multiple errors joined",
			cfg: withChange(func(c *Config) {
				c.DrainSeconds = 0
				c.APIPort = 0
				c.LLMTimeoutMillis = 0
			}),
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS", "HTTP_PORT", "LLM_TIMEOUT_MS"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
			for _, sub := range tt.errSubstr {
				if !strings.Contains(err.Error(), sub) {
					t.Errorf("error %q missing substring %q", err.Error(), sub)
				}
			}
		})
	}
}

func TestProviderConfigured(t *testing.T) {
	t.Parallel()

	c := validBase()
	if !c.ProviderConfigured() {
		t.Error("ProviderConfigured = false with key and enable switch")
	}

	c.ClaudeAPIKey = ""
	if c.ProviderConfigured() {
		t.Error("ProviderConfigured = true without api key")
	}

	c = validBase()
	c.LLMEnabled = false
	if c.ProviderConfigured() {
		t.Error("ProviderConfigured = true with provider disabled")
	}
}
