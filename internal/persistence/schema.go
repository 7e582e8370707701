package persistence

import (
	"context"
)

// initSchema creates all required tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		target_id TEXT NOT NULL,
		priority INTEGER NOT NULL,
		state TEXT NOT NULL,
		parent_id TEXT,
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL,
		assigned_creep TEXT
	);

	CREATE TABLE IF NOT EXISTS task_dependencies (
		task_id TEXT NOT NULL,
		depends_on_id TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (task_id, depends_on_id),
		FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE CASCADE,
		FOREIGN KEY (depends_on_id) REFERENCES tasks(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_task_dependencies_task_id ON task_dependencies(task_id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}
