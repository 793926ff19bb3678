package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid. Credentials
// are only required where the command that runs needs them, so token
// presence is checked by the commands, not here.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Slack.BotToken != "" && !strings.HasPrefix(cfg.Slack.BotToken, "xoxb-") {
		issues = append(issues, ValidationIssue{
			Path:    "slack.botToken",
			Message: "must be a bot token (xoxb-...)",
		})
	}
	if cfg.Slack.AppToken != "" && !strings.HasPrefix(cfg.Slack.AppToken, "xapp-") {
		issues = append(issues, ValidationIssue{
			Path:    "slack.appToken",
			Message: "must be an app-level token (xapp-...)",
		})
	}

	if cfg.Anthropic.MaxTokens < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "anthropic.maxTokens",
			Message: fmt.Sprintf("must be positive, got %d", cfg.Anthropic.MaxTokens),
		})
	}

	if cfg.Agent.MaxRounds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "agent.maxRounds",
			Message: fmt.Sprintf("must be positive, got %d", cfg.Agent.MaxRounds),
		})
	}
	if cfg.Agent.Temperature != nil && (*cfg.Agent.Temperature < 0 || *cfg.Agent.Temperature > 1) {
		issues = append(issues, ValidationIssue{
			Path:    "agent.temperature",
			Message: fmt.Sprintf("must be between 0 and 1, got %v", *cfg.Agent.Temperature),
		})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	return issues
}
