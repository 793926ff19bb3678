package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nanairo/memobot/internal/llm"
	"github.com/nanairo/memobot/internal/logging"
)

// Result is the uniform outcome of one dispatch. Content is the JSON
// envelope fed back to the model; it always carries a "success" field and,
// on failure, an "error" message.
type Result struct {
	Success bool
	Content string
}

// failureEnvelope is the wire shape for failed dispatches.
type failureEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Dispatcher validates and executes named tool invocations. Dispatch is
// total over its inputs: unknown tools, bad arguments, and store errors all
// become a failure Result, never a raised error.
type Dispatcher struct {
	registry *Registry
	log      *logging.Logger
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry *Registry, log *logging.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		log:      log.Sub("tools"),
	}
}

// Definitions returns the registry's tool definitions.
func (d *Dispatcher) Definitions() []llm.ToolDefinition {
	return d.registry.Definitions()
}

// Dispatch executes the named tool with the given JSON arguments.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args json.RawMessage) Result {
	tool, ok := d.registry.Get(name)
	if !ok {
		d.log.Warn().Str("tool", name).Msg("unknown tool requested")
		return failure(fmt.Sprintf("Unknown tool: %s", name))
	}

	d.log.Debug().Str("tool", name).Msg("executing tool")

	payload, err := tool.execute(ctx, args)
	if err != nil {
		d.log.Warn().Err(err).Str("tool", name).Msg("tool execution failed")
		return failure(err.Error())
	}

	content, err := json.Marshal(payload)
	if err != nil {
		d.log.Error().Err(err).Str("tool", name).Msg("marshaling tool payload failed")
		return failure("internal error: " + err.Error())
	}

	return Result{Success: true, Content: string(content)}
}

func failure(msg string) Result {
	content, _ := json.Marshal(failureEnvelope{Success: false, Error: msg})
	return Result{Success: false, Content: string(content)}
}
