// Package tools provides the tool catalog advertised to the model and the
// dispatcher that executes tool invocations against the conversation store.
package tools

import (
	"context"
	"encoding/json"

	"github.com/nanairo/memobot/internal/llm"
	"github.com/nanairo/memobot/internal/store"
)

// Tool is a capability the agent can invoke during a conversation. The
// input schema advertised by a tool and the validation its execute method
// enforces are defined side by side so they cannot drift apart.
type Tool interface {
	// Name returns the tool's identifier.
	Name() string

	// Description returns a human-readable description for the model.
	Description() string

	// InputSchema returns the JSON Schema for the tool's input.
	InputSchema() string

	// execute runs the tool and returns its success payload.
	execute(ctx context.Context, input json.RawMessage) (any, error)
}

// Registry holds the static catalog of tools backed by the conversation
// store. Listing is cheap and side-effect free; the order is fixed.
type Registry struct {
	tools  []Tool
	byName map[string]Tool
}

// NewRegistry creates the registry of memory tools over the given store.
func NewRegistry(conversations *store.ConversationStore) *Registry {
	r := &Registry{byName: make(map[string]Tool)}
	r.add(&storeConversationTool{conversations: conversations})
	r.add(&retrieveConversationsTool{conversations: conversations})
	r.add(&getStatsTool{conversations: conversations})
	return r
}

func (r *Registry) add(t Tool) {
	r.tools = append(r.tools, t)
	r.byName[t.Name()] = t
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Definitions returns model-ready tool definitions in registration order.
func (r *Registry) Definitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, llm.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
		})
	}
	return defs
}
