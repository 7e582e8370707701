package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/aristath/colonyq/internal/queue"
)

// SaveQueue replaces the stored snapshot with the queue's current state in a
// single transaction. Tick N+1 resumes exactly where tick N left off, so the
// snapshot is all-or-nothing: a failed save leaves the previous one intact.
func (s *SQLiteStore) SaveQueue(ctx context.Context, q *queue.Queue) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Edges first, then tasks: foreign keys point at tasks.
	if _, err := tx.ExecContext(ctx, `DELETE FROM task_dependencies`); err != nil {
		return fmt.Errorf("failed to clear dependencies: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("failed to clear tasks: %w", err)
	}

	tasks := q.Snapshot()
	for _, task := range tasks {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (id, type, target_id, priority, state, parent_id, created_at, expires_at, assigned_creep)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, task.ID, task.Type, task.TargetID, int(task.Priority), string(task.State), task.ParentID, task.CreatedAt, task.ExpiresAt, task.AssignedCreep)
		if err != nil {
			return fmt.Errorf("failed to insert task %s: %w", task.ID, err)
		}
	}
	for _, task := range tasks {
		for pos, depID := range task.Dependencies {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO task_dependencies (task_id, depends_on_id, position)
				VALUES (?, ?, ?)
			`, task.ID, depID, pos)
			if err != nil {
				return fmt.Errorf("failed to insert dependency %s -> %s: %w", task.ID, depID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LoadQueue rebuilds a queue from the stored snapshot. Dependent sets are
// reconstructed from the dependency edges rather than stored separately, so
// the edge mirror invariant holds by construction. Callers restoring state
// they do not trust should follow up with Validate.
func (s *SQLiteStore) LoadQueue(ctx context.Context) (*queue.Queue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, target_id, priority, state, parent_id, created_at, expires_at, assigned_creep
		FROM tasks
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*queue.Task)
	var tasks []*queue.Task
	for rows.Next() {
		task := &queue.Task{
			Dependencies: []string{},
			Dependents:   []string{},
		}
		var priority int
		var state string
		if err := rows.Scan(&task.ID, &task.Type, &task.TargetID, &priority, &state, &task.ParentID, &task.CreatedAt, &task.ExpiresAt, &task.AssignedCreep); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		task.Priority = queue.Priority(priority)
		task.State = queue.State(state)
		byID[task.ID] = task
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	depRows, err := s.db.QueryContext(ctx, `
		SELECT task_id, depends_on_id
		FROM task_dependencies
		ORDER BY task_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query dependencies: %w", err)
	}
	defer depRows.Close()

	for depRows.Next() {
		var taskID, depID string
		if err := depRows.Scan(&taskID, &depID); err != nil {
			return nil, fmt.Errorf("failed to scan dependency: %w", err)
		}
		if task, ok := byID[taskID]; ok {
			task.Dependencies = append(task.Dependencies, depID)
		}
	}
	if err := depRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dependencies: %w", err)
	}

	// Rebuild the reverse edges in creation order.
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt != tasks[j].CreatedAt {
			return tasks[i].CreatedAt < tasks[j].CreatedAt
		}
		return tasks[i].ID < tasks[j].ID
	})
	for _, task := range tasks {
		for _, depID := range task.Dependencies {
			if dep, ok := byID[depID]; ok {
				dep.AddDependent(task.ID)
			}
		}
	}

	q := queue.New()
	q.Restore(tasks)
	return q, nil
}
