package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanairo/memobot/internal/domain"
	"github.com/nanairo/memobot/internal/logging"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	log := logging.New(nil, "silent")
	db, err := Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testStore(t *testing.T) *ConversationStore {
	t.Helper()
	return NewConversationStore(testDB(t))
}

func mustStore(t *testing.T, s *ConversationStore, role domain.Role, content, timestamp string) int64 {
	t.Helper()
	id, err := s.Store(role, content, timestamp)
	require.NoError(t, err)
	return id
}

// --- DB/Migration tests ---

func TestOpen_InMemory(t *testing.T) {
	db := testDB(t)
	assert.NotNil(t, db)
	assert.NotNil(t, db.SQL())
}

func TestMigrations_Applied(t *testing.T) {
	db := testDB(t)

	var count int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestMigrations_Idempotent(t *testing.T) {
	db := testDB(t)

	// Running migrate again should be a no-op
	err := db.migrate()
	require.NoError(t, err)

	var count int
	err = db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestSchema_ConversationsTableExists(t *testing.T) {
	db := testDB(t)

	var name string
	err := db.sql.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='conversations'",
	).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "conversations", name)
}

// --- Store tests ---

func TestStore_AssignsIncreasingIDs(t *testing.T) {
	s := testStore(t)

	id1 := mustStore(t, s, domain.RoleUser, "first", "2026-01-01T10:00:00Z")
	id2 := mustStore(t, s, domain.RoleAssistant, "second", "2026-01-01T10:00:01Z")

	assert.Greater(t, id2, id1)
}

func TestStore_AppendOnly(t *testing.T) {
	s := testStore(t)

	// Identical payloads still create distinct rows.
	mustStore(t, s, domain.RoleUser, "same", "2026-01-01T10:00:00Z")
	mustStore(t, s, domain.RoleUser, "same", "2026-01-01T10:00:00Z")

	msgs, err := s.Query(domain.ConversationQuery{})
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestStore_RejectsInvalidRole(t *testing.T) {
	s := testStore(t)

	_, err := s.Store("system", "hello", "2026-01-01T10:00:00Z")
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "role", verr.Field)

	// A rejected write leaves no row behind.
	msgs, err := s.Query(domain.ConversationQuery{})
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestStore_RejectsEmptyContent(t *testing.T) {
	s := testStore(t)

	_, err := s.Store(domain.RoleUser, "", "2026-01-01T10:00:00Z")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "content", verr.Field)
}

func TestStore_RejectsEmptyTimestamp(t *testing.T) {
	s := testStore(t)

	_, err := s.Store(domain.RoleUser, "hello", "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "timestamp", verr.Field)
}

func TestStore_RejectsUnparsableTimestamp(t *testing.T) {
	s := testStore(t)

	_, err := s.Store(domain.RoleUser, "hello", "last tuesday")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "timestamp", verr.Field)

	msgs, qerr := s.Query(domain.ConversationQuery{})
	require.NoError(t, qerr)
	assert.Empty(t, msgs)
}

func TestStore_SetsCreatedAt(t *testing.T) {
	s := testStore(t)

	mustStore(t, s, domain.RoleUser, "hello", "2026-01-01T10:00:00Z")

	msgs, err := s.Query(domain.ConversationQuery{})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.NotEmpty(t, msgs[0].CreatedAt)
}

// --- Query tests ---

func seedConversations(t *testing.T, s *ConversationStore) {
	t.Helper()
	mustStore(t, s, domain.RoleUser, "I love pizza", "2026-01-01T10:00:00Z")
	mustStore(t, s, domain.RoleAssistant, "Pizza is great", "2026-01-01T10:00:05Z")
	mustStore(t, s, domain.RoleUser, "What about sushi?", "2026-01-02T12:00:00Z")
	mustStore(t, s, domain.RoleAssistant, "Sushi is also good", "2026-01-02T12:00:05Z")
	mustStore(t, s, domain.RoleUser, "Remind me about pizza night", "2026-01-03T09:00:00Z")
}

func TestQuery_NoFilters_ReturnsAllNewestFirst(t *testing.T) {
	s := testStore(t)
	seedConversations(t, s)

	msgs, err := s.Query(domain.ConversationQuery{})
	require.NoError(t, err)
	require.Len(t, msgs, 5)
	assert.Equal(t, "Remind me about pizza night", msgs[0].Content)
	assert.Equal(t, "I love pizza", msgs[4].Content)
}

func TestQuery_KeywordSubstring(t *testing.T) {
	s := testStore(t)
	seedConversations(t, s)

	msgs, err := s.Query(domain.ConversationQuery{Keyword: "pizza"})
	require.NoError(t, err)
	// Matches are unanchored and case-insensitive for ASCII.
	assert.Len(t, msgs, 3)
}

func TestQuery_KeywordNoMatch(t *testing.T) {
	s := testStore(t)
	seedConversations(t, s)

	msgs, err := s.Query(domain.ConversationQuery{Keyword: "tacos"})
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestQuery_KeywordLiteralMetacharacters(t *testing.T) {
	s := testStore(t)
	mustStore(t, s, domain.RoleUser, "discount is 50% off", "2026-01-01T10:00:00Z")
	mustStore(t, s, domain.RoleUser, "discount is 50x off", "2026-01-01T10:00:01Z")

	msgs, err := s.Query(domain.ConversationQuery{Keyword: "50%"})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "discount is 50% off", msgs[0].Content)
}

func TestQuery_RoleFilter(t *testing.T) {
	s := testStore(t)
	seedConversations(t, s)

	msgs, err := s.Query(domain.ConversationQuery{Role: domain.RoleAssistant})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	for _, m := range msgs {
		assert.Equal(t, domain.RoleAssistant, m.Role)
	}
}

func TestQuery_TimeRangeInclusive(t *testing.T) {
	s := testStore(t)
	seedConversations(t, s)

	msgs, err := s.Query(domain.ConversationQuery{
		StartTime: "2026-01-01T10:00:05Z",
		EndTime:   "2026-01-02T12:00:00Z",
	})
	require.NoError(t, err)
	// Both boundary rows are included.
	require.Len(t, msgs, 2)
	assert.Equal(t, "What about sushi?", msgs[0].Content)
	assert.Equal(t, "Pizza is great", msgs[1].Content)
}

func TestQuery_FiltersCompose(t *testing.T) {
	s := testStore(t)
	seedConversations(t, s)

	msgs, err := s.Query(domain.ConversationQuery{
		Keyword: "pizza",
		Role:    domain.RoleUser,
	})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	for _, m := range msgs {
		assert.Equal(t, domain.RoleUser, m.Role)
	}
}

func TestQuery_LimitAfterOrdering(t *testing.T) {
	s := testStore(t)
	seedConversations(t, s)

	msgs, err := s.Query(domain.ConversationQuery{Limit: 1})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Remind me about pizza night", msgs[0].Content)
}

func TestQuery_EqualTimestampsOrderedByIDDesc(t *testing.T) {
	s := testStore(t)
	ts := "2026-01-01T10:00:00Z"
	mustStore(t, s, domain.RoleUser, "earlier insert", ts)
	mustStore(t, s, domain.RoleAssistant, "later insert", ts)

	msgs, err := s.Query(domain.ConversationQuery{})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "later insert", msgs[0].Content)
	assert.Equal(t, "earlier insert", msgs[1].Content)
}

// --- Stats tests ---

func TestStats_Empty(t *testing.T) {
	s := testStore(t)

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 0, stats.UserMessages)
	assert.Equal(t, 0, stats.AssistantMessages)
	assert.Nil(t, stats.OldestTimestamp)
	assert.Nil(t, stats.NewestTimestamp)
}

func TestStats_Counts(t *testing.T) {
	s := testStore(t)
	seedConversations(t, s)

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 3, stats.UserMessages)
	assert.Equal(t, 2, stats.AssistantMessages)
	require.NotNil(t, stats.OldestTimestamp)
	require.NotNil(t, stats.NewestTimestamp)
	assert.Equal(t, "2026-01-01T10:00:00Z", *stats.OldestTimestamp)
	assert.Equal(t, "2026-01-03T09:00:00Z", *stats.NewestTimestamp)
}

func TestStats_ReflectsStores(t *testing.T) {
	s := testStore(t)

	mustStore(t, s, domain.RoleUser, "one", "2026-01-01T10:00:00Z")
	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)

	mustStore(t, s, domain.RoleAssistant, "two", "2026-01-01T10:00:01Z")
	stats, err = s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.UserMessages)
	assert.Equal(t, 1, stats.AssistantMessages)
}
