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
		Name:    "create bookings",
		SQL: `
			CREATE TABLE bookings (
				id              TEXT PRIMARY KEY,
				session_id      TEXT NOT NULL,
				caller_address  TEXT NOT NULL DEFAULT '',
				language        TEXT NOT NULL,
				name            TEXT NOT NULL,
				service_id      TEXT NOT NULL,
				service_name    TEXT NOT NULL DEFAULT '',
				date            TEXT NOT NULL,
				time            TEXT NOT NULL DEFAULT '',
				contact_number  TEXT NOT NULL,
				status          TEXT NOT NULL DEFAULT 'confirmed',
				completed_at    TEXT NOT NULL,
				updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_bookings_session ON bookings (session_id);
			CREATE INDEX idx_bookings_completed ON bookings (completed_at);
		`,
	},
	{
		Version: 2,
		Name:    "create call log",
		SQL: `
			CREATE TABLE calls (
				session_id      TEXT PRIMARY KEY,
				caller_address  TEXT NOT NULL DEFAULT '',
				mode            TEXT NOT NULL,
				language        TEXT NOT NULL,
				started_at      TEXT NOT NULL,
				ended_at        TEXT,
				end_reason      TEXT NOT NULL DEFAULT '',
				final_state     TEXT NOT NULL DEFAULT '',
				bookings        INTEGER NOT NULL DEFAULT 0
			);

			CREATE INDEX idx_calls_started ON calls (started_at);
		`,
	},
}
