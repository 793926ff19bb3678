// Package domain defines the core types shared across memobot.
package domain

// Role identifies the author of a stored message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether the role is one of the two storable values.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is a single stored conversation unit. Messages are append-only:
// once persisted they are never updated or deleted.
type Message struct {
	ID        int64  `json:"id"`
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`  // caller-supplied, ISO 8601
	CreatedAt string `json:"created_at"` // store-assigned insertion time
}

// ConversationQuery filters stored messages. All predicates compose with
// logical AND; the zero value matches every message.
type ConversationQuery struct {
	Keyword   string // unanchored substring match against content
	Role      Role   // exact match when non-empty
	StartTime string // inclusive lower bound on timestamp
	EndTime   string // inclusive upper bound on timestamp
	Limit     int    // max rows after ordering; <= 0 means unbounded
}

// Stats is a derived aggregate over the message log.
// Oldest/Newest are nil when the log is empty.
type Stats struct {
	Total             int     `json:"total"`
	UserMessages      int     `json:"userMessages"`
	AssistantMessages int     `json:"assistantMessages"`
	OldestTimestamp   *string `json:"oldestTimestamp"`
	NewestTimestamp   *string `json:"newestTimestamp"`
}
