package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nanairo/memobot/internal/domain"
	"github.com/nanairo/memobot/internal/store"
)

// parseTimestamp checks that a timestamp argument is a real date-time.
func parseTimestamp(s string) error {
	if !domain.ValidTimestamp(s) {
		return fmt.Errorf("invalid timestamp %q: must be an ISO 8601 date-time", s)
	}
	return nil
}

// argumentError reports invalid tool arguments from the model.
type argumentError struct {
	msg string
}

func (e *argumentError) Error() string { return e.msg }

// --- store_conversation ---

type storeConversationTool struct {
	conversations *store.ConversationStore
}

type storeConversationArgs struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type storeConversationPayload struct {
	Success bool   `json:"success"`
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

func (t *storeConversationTool) Name() string { return "store_conversation" }

func (t *storeConversationTool) Description() string {
	return "Store a conversation message (user or assistant) with timestamp"
}

func (t *storeConversationTool) InputSchema() string {
	return `{
		"type": "object",
		"properties": {
			"role": {
				"type": "string",
				"enum": ["user", "assistant"],
				"description": "The role of the message sender"
			},
			"content": {
				"type": "string",
				"description": "The content of the message"
			},
			"timestamp": {
				"type": "string",
				"description": "ISO 8601 timestamp of when the message was created"
			}
		},
		"required": ["role", "content", "timestamp"]
	}`
}

func (t *storeConversationTool) execute(ctx context.Context, input json.RawMessage) (any, error) {
	var args storeConversationArgs
	if err := unmarshalArgs(input, &args); err != nil {
		return nil, err
	}

	var missing []string
	if args.Role == "" {
		missing = append(missing, "role")
	}
	if args.Content == "" {
		missing = append(missing, "content")
	}
	if args.Timestamp == "" {
		missing = append(missing, "timestamp")
	}
	if len(missing) > 0 {
		return nil, &argumentError{msg: "missing required fields: " + strings.Join(missing, ", ")}
	}

	role := domain.Role(args.Role)
	if !role.Valid() {
		return nil, &argumentError{msg: `invalid role: must be either "user" or "assistant"`}
	}
	if err := parseTimestamp(args.Timestamp); err != nil {
		return nil, &argumentError{msg: err.Error()}
	}

	id, err := t.conversations.Store(role, args.Content, args.Timestamp)
	if err != nil {
		return nil, err
	}

	return storeConversationPayload{
		Success: true,
		ID:      id,
		Message: "Conversation stored successfully",
	}, nil
}

// --- retrieve_conversations ---

type retrieveConversationsTool struct {
	conversations *store.ConversationStore
}

type retrieveConversationsArgs struct {
	Keyword   string `json:"keyword"`
	Role      string `json:"role"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Limit     int    `json:"limit"`
}

type retrieveConversationsPayload struct {
	Success       bool             `json:"success"`
	Count         int              `json:"count"`
	Conversations []domain.Message `json:"conversations"`
}

func (t *retrieveConversationsTool) Name() string { return "retrieve_conversations" }

func (t *retrieveConversationsTool) Description() string {
	return "Retrieve past conversations based on search criteria. All parameters are optional."
}

func (t *retrieveConversationsTool) InputSchema() string {
	return `{
		"type": "object",
		"properties": {
			"keyword": {
				"type": "string",
				"description": "Search for messages containing this keyword"
			},
			"role": {
				"type": "string",
				"enum": ["user", "assistant"],
				"description": "Filter by message role"
			},
			"start_time": {
				"type": "string",
				"description": "ISO 8601 timestamp - only return messages after this time"
			},
			"end_time": {
				"type": "string",
				"description": "ISO 8601 timestamp - only return messages before this time"
			},
			"limit": {
				"type": "number",
				"description": "Maximum number of messages to return (default: no limit)",
				"minimum": 1
			}
		}
	}`
}

func (t *retrieveConversationsTool) execute(ctx context.Context, input json.RawMessage) (any, error) {
	var args retrieveConversationsArgs
	if err := unmarshalArgs(input, &args); err != nil {
		return nil, err
	}

	if args.Role != "" && !domain.Role(args.Role).Valid() {
		return nil, &argumentError{msg: `invalid role: must be either "user" or "assistant"`}
	}
	if args.StartTime != "" {
		if err := parseTimestamp(args.StartTime); err != nil {
			return nil, &argumentError{msg: "invalid start_time: " + err.Error()}
		}
	}
	if args.EndTime != "" {
		if err := parseTimestamp(args.EndTime); err != nil {
			return nil, &argumentError{msg: "invalid end_time: " + err.Error()}
		}
	}

	msgs, err := t.conversations.Query(domain.ConversationQuery{
		Keyword:   args.Keyword,
		Role:      domain.Role(args.Role),
		StartTime: args.StartTime,
		EndTime:   args.EndTime,
		Limit:     args.Limit,
	})
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}

	return retrieveConversationsPayload{
		Success:       true,
		Count:         len(msgs),
		Conversations: msgs,
	}, nil
}

// --- get_stats ---

type getStatsTool struct {
	conversations *store.ConversationStore
}

type getStatsPayload struct {
	Success bool         `json:"success"`
	Stats   domain.Stats `json:"stats"`
}

func (t *getStatsTool) Name() string { return "get_stats" }

func (t *getStatsTool) Description() string {
	return "Get statistics about stored conversations"
}

func (t *getStatsTool) InputSchema() string {
	return `{"type": "object", "properties": {}}`
}

func (t *getStatsTool) execute(ctx context.Context, input json.RawMessage) (any, error) {
	stats, err := t.conversations.Stats()
	if err != nil {
		return nil, err
	}
	return getStatsPayload{Success: true, Stats: stats}, nil
}

// unmarshalArgs decodes tool arguments, treating absent input as empty.
func unmarshalArgs(input json.RawMessage, v any) error {
	if len(input) == 0 {
		input = json.RawMessage("{}")
	}
	if err := json.Unmarshal(input, v); err != nil {
		return &argumentError{msg: "invalid arguments: " + err.Error()}
	}
	return nil
}
