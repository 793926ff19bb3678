package agent

import (
	"fmt"
	"strings"
)

// PromptConfig controls system prompt generation.
type PromptConfig struct {
	Now         string
	ExtraPrompt string
}

// BuildSystemPrompt constructs the system prompt for the model.
func BuildSystemPrompt(cfg PromptConfig) string {
	var b strings.Builder

	b.WriteString("You are a helpful assistant with access to a persistent conversation memory.\n\n")

	b.WriteString("Guidelines:\n")
	b.WriteString("- Use the retrieve_conversations tool when the user refers to something discussed before.\n")
	b.WriteString("- Use the store_conversation tool to save important facts worth remembering.\n")
	b.WriteString("- Use the get_stats tool when asked about the state of your memory.\n")
	b.WriteString("- Answer directly when no memory lookup is needed.\n")

	if cfg.Now != "" {
		fmt.Fprintf(&b, "\nCurrent time: %s\n", cfg.Now)
	}

	if cfg.ExtraPrompt != "" {
		b.WriteString("\n")
		b.WriteString(cfg.ExtraPrompt)
		b.WriteString("\n")
	}

	return b.String()
}
