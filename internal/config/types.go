package config

// Config is the root configuration for memobot.
type Config struct {
	Slack     SlackConfig     `yaml:"slack,omitempty"`
	Anthropic AnthropicConfig `yaml:"anthropic,omitempty"`
	Agent     AgentConfig     `yaml:"agent,omitempty"`
	Memory    MemoryConfig    `yaml:"memory,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
}

// SlackConfig holds the Slack credentials.
type SlackConfig struct {
	BotToken string `yaml:"botToken,omitempty"` // xoxb-... token for the Web API
	AppToken string `yaml:"appToken,omitempty"` // xapp-... token for Socket Mode
}

// AnthropicConfig holds the model provider settings.
type AnthropicConfig struct {
	APIKey    string `yaml:"apiKey,omitempty"`
	Model     string `yaml:"model,omitempty"`
	MaxTokens int    `yaml:"maxTokens,omitempty"`
}

// AgentConfig controls the conversation loop.
type AgentConfig struct {
	MaxRounds   int      `yaml:"maxRounds,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
	ExtraPrompt string   `yaml:"extraPrompt,omitempty"`
}

// MemoryConfig configures conversation persistence.
type MemoryConfig struct {
	Path string `yaml:"path,omitempty"` // sqlite database file; defaults under the base dir
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
}
