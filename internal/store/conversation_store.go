package store

import (
	"strings"
	"time"

	"github.com/nanairo/memobot/internal/domain"
)

// ConversationStore is the append-only log of conversation messages.
// It is safe for concurrent use; each read and each single-row write is
// internally consistent, and no operation spans a multi-statement transaction.
type ConversationStore struct {
	db *DB
}

// NewConversationStore creates a conversation store using the given database.
func NewConversationStore(db *DB) *ConversationStore {
	return &ConversationStore{db: db}
}

// Store appends one message and returns its assigned id. Every call inserts
// a new row; rows are never merged or deduplicated. Validation failures are
// reported before any write.
func (s *ConversationStore) Store(role domain.Role, content, timestamp string) (int64, error) {
	if !role.Valid() {
		return 0, &ValidationError{Field: "role", Message: `must be either "user" or "assistant"`}
	}
	if content == "" {
		return 0, &ValidationError{Field: "content", Message: "must not be empty"}
	}
	if timestamp == "" {
		return 0, &ValidationError{Field: "timestamp", Message: "must not be empty"}
	}
	if !domain.ValidTimestamp(timestamp) {
		return 0, &ValidationError{Field: "timestamp", Message: "must be a parseable date-time"}
	}

	createdAt := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.sql.Exec(
		`INSERT INTO conversations (role, content, timestamp, created_at)
		 VALUES (?, ?, ?, ?)`,
		string(role), content, timestamp, createdAt,
	)
	if err != nil {
		return 0, &PersistenceError{Op: "insert", Err: err}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, &PersistenceError{Op: "insert", Err: err}
	}
	return id, nil
}

// Query returns messages matching the filter, most recent timestamp first.
// Keyword matching is an unanchored substring test, case-insensitive for
// ASCII (SQLite LIKE semantics). Messages sharing a timestamp are ordered
// by id descending so results are deterministic. A positive limit caps the
// row count after ordering.
func (s *ConversationStore) Query(q domain.ConversationQuery) ([]domain.Message, error) {
	var b strings.Builder
	b.WriteString(`SELECT id, role, content, timestamp, created_at FROM conversations WHERE 1=1`)
	var args []any

	if q.Keyword != "" {
		b.WriteString(` AND content LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(q.Keyword)+"%")
	}
	if q.Role != "" {
		b.WriteString(` AND role = ?`)
		args = append(args, string(q.Role))
	}
	if q.StartTime != "" {
		b.WriteString(` AND timestamp >= ?`)
		args = append(args, q.StartTime)
	}
	if q.EndTime != "" {
		b.WriteString(` AND timestamp <= ?`)
		args = append(args, q.EndTime)
	}

	b.WriteString(` ORDER BY timestamp DESC, id DESC`)

	if q.Limit > 0 {
		b.WriteString(` LIMIT ?`)
		args = append(args, q.Limit)
	}

	rows, err := s.db.sql.Query(b.String(), args...)
	if err != nil {
		return nil, &PersistenceError{Op: "query", Err: err}
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.Timestamp, &m.CreatedAt); err != nil {
			return nil, &PersistenceError{Op: "scan", Err: err}
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "query", Err: err}
	}
	return msgs, nil
}

// Stats computes aggregate counts and the timestamp range over the full log.
// On an empty log the counts are zero and both timestamps are nil.
func (s *ConversationStore) Stats() (domain.Stats, error) {
	var stats domain.Stats
	var oldest, newest *string

	err := s.db.sql.QueryRow(`
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE role = 'user'),
		       COUNT(*) FILTER (WHERE role = 'assistant'),
		       MIN(timestamp),
		       MAX(timestamp)
		FROM conversations`,
	).Scan(&stats.Total, &stats.UserMessages, &stats.AssistantMessages, &oldest, &newest)
	if err != nil {
		return domain.Stats{}, &PersistenceError{Op: "stats", Err: err}
	}

	stats.OldestTimestamp = oldest
	stats.NewestTimestamp = newest
	return stats, nil
}

// escapeLike escapes LIKE metacharacters so keywords match literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
