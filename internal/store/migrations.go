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
		Name:    "create assignments, sessions and messages",
		SQL: `
			CREATE TABLE assignments (
				id          TEXT PRIMARY KEY,
				join_key    TEXT NOT NULL,
				topic       TEXT NOT NULL,
				vocab       TEXT NOT NULL,
				level       TEXT NOT NULL DEFAULT '',
				created_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE UNIQUE INDEX idx_assignments_join_key ON assignments (join_key);

			CREATE TABLE sessions (
				id             TEXT PRIMARY KEY,
				assignment_id  TEXT NOT NULL REFERENCES assignments(id),
				join_key       TEXT NOT NULL,
				topic          TEXT NOT NULL,
				vocab          TEXT NOT NULL,
				level          TEXT NOT NULL DEFAULT '',
				next_seq       INTEGER NOT NULL DEFAULT 1,
				created_at     TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_sessions_assignment ON sessions (assignment_id);

			CREATE TABLE messages (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				session_id  TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
				seq         INTEGER NOT NULL,
				role        TEXT NOT NULL,
				content     TEXT NOT NULL,
				created_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE UNIQUE INDEX idx_messages_session_seq ON messages (session_id, seq);
		`,
	},
	{
		Version: 2,
		Name:    "create idempotency ledger",
		SQL: `
			CREATE TABLE idempotency (
				session_id  TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
				idem_key    TEXT NOT NULL,
				response    TEXT NOT NULL,
				created_at  TEXT NOT NULL DEFAULT (datetime('now')),
				PRIMARY KEY (session_id, idem_key)
			);

			CREATE INDEX idx_idempotency_created ON idempotency (created_at);
		`,
	},
}
