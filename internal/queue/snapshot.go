package queue

import (
	"encoding/json"
	"sort"
)

// Snapshot returns a copy of every task, sorted by creation tick then id.
// This flat list of records is the queue's entire persisted state.
func (q *Queue) Snapshot() []*Task {
	q.mu.RLock()
	defer q.mu.RUnlock()

	tasks := make([]*Task, 0, len(q.tasks))
	for _, task := range q.tasks {
		tasks = append(tasks, task.Clone())
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt != tasks[j].CreatedAt {
			return tasks[i].CreatedAt < tasks[j].CreatedAt
		}
		return tasks[i].ID < tasks[j].ID
	})
	return tasks
}

// Restore rebuilds a queue from a snapshot, replacing any current contents.
// The records are installed as-is, including edge sets, states, and
// assignments, so a Snapshot/Restore round trip reproduces identical state.
// Restore trusts its input; callers restoring from external storage should
// follow up with Validate to detect corruption.
func (q *Queue) Restore(tasks []*Task) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.tasks = make(map[string]*Task, len(tasks))
	for _, task := range tasks {
		q.tasks[task.ID] = task.Clone()
	}
}

// MarshalJSON serializes the queue as its snapshot record list.
func (q *Queue) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Snapshot())
}

// UnmarshalJSON restores the queue from a snapshot record list.
func (q *Queue) UnmarshalJSON(data []byte) error {
	var tasks []*Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return err
	}
	if q.tasks == nil {
		q.tasks = make(map[string]*Task)
	}
	q.Restore(tasks)
	return nil
}
