package store

// migrations are applied in order; index i is schema version i+1.
var migrations = []string{
	`CREATE TABLE messages (
		seq         INTEGER PRIMARY KEY AUTOINCREMENT,
		id          TEXT NOT NULL UNIQUE,
		device      TEXT NOT NULL,
		body        TEXT NOT NULL,
		distance_cm INTEGER,
		zone        TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL
	);
	CREATE INDEX idx_messages_created_at ON messages(created_at);`,

	`CREATE INDEX idx_messages_device_zone ON messages(device, zone);`,
}
