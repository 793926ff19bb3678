// Package agent implements the tool-augmented conversation loop. One call
// to Run handles one user turn: the model is queried repeatedly, requested
// tools are executed between rounds, and the turn is persisted at the end.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nanairo/memobot/internal/llm"
	"github.com/nanairo/memobot/internal/logging"
	"github.com/nanairo/memobot/internal/tools"
)

// defaultMaxRounds limits how many model rounds a single turn can take.
const defaultMaxRounds = 10

// fallbackResponse is returned when the model produced no text at all.
const fallbackResponse = "I apologize, but I was unable to generate a response."

// Config configures the agent loop.
type Config struct {
	Model       string
	MaxTokens   int
	MaxRounds   int
	Temperature *float64
	ExtraPrompt string
}

// Loop drives the multi-round exchange between the model and the tool
// dispatcher for a single user turn at a time.
type Loop struct {
	cfg        Config
	client     llm.Client
	dispatcher *tools.Dispatcher
	log        *logging.Logger

	// now is swapped out in tests.
	now func() time.Time
}

// NewLoop creates an agent loop.
func NewLoop(cfg Config, client llm.Client, dispatcher *tools.Dispatcher, log *logging.Logger) *Loop {
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = defaultMaxRounds
	}
	return &Loop{
		cfg:        cfg,
		client:     client,
		dispatcher: dispatcher,
		log:        log.Sub("agent"),
		now:        time.Now,
	}
}

// Run processes one user message and returns the agent's final response.
// Tool failures are reported back to the model and never abort the turn;
// only a model completion failure is returned as an error. The user message
// and the final response are persisted best-effort before returning.
func (l *Loop) Run(ctx context.Context, userMessage string) (string, error) {
	start := l.now()
	turnID := uuid.NewString()
	turnTimestamp := start.UTC().Format(time.RFC3339)

	log := l.log.WithStr("turnId", turnID)
	log.Info().Int("messageLen", len(userMessage)).Msg("processing turn")

	system := BuildSystemPrompt(PromptConfig{
		Now:         turnTimestamp,
		ExtraPrompt: l.cfg.ExtraPrompt,
	})

	messages := []llm.Message{{Role: "user", Content: userMessage}}
	defs := l.dispatcher.Definitions()

	var texts []string
	for round := 0; round < l.cfg.MaxRounds; round++ {
		resp, err := l.client.Complete(ctx, llm.CompletionRequest{
			Model:       l.cfg.Model,
			System:      system,
			Messages:    messages,
			Tools:       defs,
			MaxTokens:   l.cfg.MaxTokens,
			Temperature: l.cfg.Temperature,
		})
		if err != nil {
			return "", fmt.Errorf("model completion: %w", err)
		}

		if resp.Content != "" {
			texts = append(texts, resp.Content)
		}

		if len(resp.ToolCalls) == 0 {
			break
		}

		log.Info().Int("round", round+1).Int("toolCalls", len(resp.ToolCalls)).Msg("executing tool calls")

		messages = append(messages, llm.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		results := make([]llm.ToolResult, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			res := l.dispatcher.Dispatch(ctx, call.Name, call.Input)
			results = append(results, llm.ToolResult{
				ToolUseID: call.ID,
				Content:   res.Content,
				IsError:   !res.Success,
			})
		}

		messages = append(messages, llm.Message{
			Role:        "user",
			ToolResults: results,
		})
	}

	final := strings.TrimSpace(strings.Join(texts, "\n\n"))
	if final == "" {
		log.Warn().Msg("model produced no text, using fallback response")
		final = fallbackResponse
	}

	l.persistTurn(ctx, log, userMessage, final, turnTimestamp)

	log.Info().
		Dur("duration", l.now().Sub(start)).
		Int("responseLen", len(final)).
		Msg("turn complete")

	return final, nil
}

// persistTurn stores the user message and the final response with a shared
// timestamp. Persistence failures are logged, not returned; a turn that
// produced a response is still a successful turn.
func (l *Loop) persistTurn(ctx context.Context, log *logging.Logger, userMessage, response, timestamp string) {
	for _, row := range []struct {
		role    string
		content string
	}{
		{"user", userMessage},
		{"assistant", response},
	} {
		args, err := json.Marshal(map[string]string{
			"role":      row.role,
			"content":   row.content,
			"timestamp": timestamp,
		})
		if err != nil {
			log.Warn().Err(err).Str("role", row.role).Msg("encoding turn for persistence failed")
			continue
		}
		if res := l.dispatcher.Dispatch(ctx, "store_conversation", args); !res.Success {
			log.Warn().Str("role", row.role).Str("result", res.Content).Msg("persisting turn failed")
		}
	}
}
