package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create conversations",
		SQL: `
			CREATE TABLE conversations (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				role        TEXT NOT NULL CHECK(role IN ('user', 'assistant')),
				content     TEXT NOT NULL,
				timestamp   TEXT NOT NULL,
				created_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_conversations_timestamp ON conversations (timestamp);
			CREATE INDEX idx_conversations_role ON conversations (role);
			CREATE INDEX idx_conversations_created_at ON conversations (created_at);
		`,
	},
}
