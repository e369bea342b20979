package db

// schemaStatements run in order at startup. Timestamps are TIMESTAMPTZ on
// Postgres and unix milliseconds on SQLite.
func schemaStatements(createdAtType string) []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS mood_votes (
			id TEXT PRIMARY KEY,
			voter_id TEXT NOT NULL DEFAULT '',
			created_at ` + createdAtType + ` NOT NULL,
			gender TEXT NOT NULL CHECK (gender IN ('male', 'female')),
			mood TEXT NOT NULL CHECK (mood IN ('good', 'bad')),
			region_lv0 TEXT NOT NULL DEFAULT 'Unknown',
			region_lv1 TEXT NOT NULL DEFAULT 'Unknown',
			region_lv2 TEXT NOT NULL DEFAULT 'Unknown',
			region_lv0_std TEXT NOT NULL DEFAULT 'Unknown',
			region_lv1_std TEXT NOT NULL DEFAULT 'Unknown',
			region_lv2_std TEXT NOT NULL DEFAULT 'Unknown',
			lat DOUBLE PRECISION,
			lng DOUBLE PRECISION,
			analysis TEXT,
			ip_hash TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mood_votes_created_at ON mood_votes (created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_mood_votes_lv0_std ON mood_votes (region_lv0_std, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_mood_votes_lv1_std ON mood_votes (region_lv1_std, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_mood_votes_lv2_std ON mood_votes (region_lv2_std, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_mood_votes_voter ON mood_votes (voter_id, created_at)`,
	}
}
