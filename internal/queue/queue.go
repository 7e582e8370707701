package queue

import (
	"sync"

	"github.com/emirpasic/gods/trees/redblacktree"
)

// Queue owns the full task set for one scheduling domain and is the sole
// mutator of cross-task edges. All time-sensitive operations take the current
// tick explicitly; the queue never reads a clock itself.
//
// Expected failures (duplicate id, missing dependency, unknown id, ownership
// mismatch, no work available) are signalled through bool/nil returns, never
// through errors: they are routine control flow for the driver.
type Queue struct {
	mu    sync.RWMutex
	tasks map[string]*Task // All tasks indexed by ID
}

// Stats is a coarse operational snapshot of the queue. Pending lumps together
// everything that is neither assigned nor completed (READY-unassigned,
// PENDING, BLOCKED, FAILED), so the three counters do not partition the
// five-state machine.
type Stats struct {
	Total     int
	Assigned  int
	Completed int
	Pending   int
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{
		tasks: make(map[string]*Task),
	}
}

// Add inserts a task into the queue. Returns false without mutation when the
// id is already present or any listed dependency is absent. Requiring
// dependencies to pre-exist makes insertion order a topological order, so the
// public API cannot construct a cycle.
//
// On success the task's id is appended to each dependency's dependent set.
func (q *Queue) Add(task *Task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.tasks[task.ID]; exists {
		return false
	}
	for _, depID := range task.Dependencies {
		if _, exists := q.tasks[depID]; !exists {
			return false
		}
	}

	if task.State == "" {
		task.State = StatePending
	}

	q.tasks[task.ID] = task

	// Mirror the forward edges onto each dependency.
	for _, depID := range task.Dependencies {
		q.tasks[depID].AddDependent(task.ID)
	}

	return true
}

// Remove deletes a task and repairs both edge directions on its neighbors:
// dependencies forget it as a dependent, and dependents drop it as a
// dependency so they are not permanently gated by a vanished prerequisite.
// Returns false if the id is unknown.
func (q *Queue) Remove(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(id)
}

func (q *Queue) removeLocked(id string) bool {
	task, exists := q.tasks[id]
	if !exists {
		return false
	}

	for _, depID := range task.Dependencies {
		if dep, ok := q.tasks[depID]; ok {
			dep.RemoveDependent(id)
		}
	}
	for _, depID := range task.Dependents {
		if dependent, ok := q.tasks[depID]; ok {
			dependent.RemoveDependency(id)
		}
	}

	delete(q.tasks, id)
	return true
}

// ReadyTasks recomputes readiness for every non-terminal, unexpired task and
// returns the ready, unassigned, unexpired ones ordered by priority
// descending, then creation tick ascending, then id.
//
// Blocking after an upstream failure propagates one edge level per call:
// direct dependents of a FAILED task turn BLOCKED here, their own dependents
// on the next call, converging within as many calls as the longest dependency
// chain. Callers that need the authoritative picture at once use ResolveAll.
func (q *Queue) ReadyTasks(now int64) []*Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.readyTasksLocked(now)
}

func (q *Queue) readyTasksLocked(now int64) []*Task {
	// Ordered by (priority desc, createdAt asc, id asc) so assignment is
	// deterministic and equal-priority tasks are served oldest first.
	ordered := redblacktree.NewWith(readyOrder)

	for _, task := range q.tasks {
		if task.IsTerminal() || task.IsBlocked() || task.IsExpired(now) {
			continue
		}

		blocked := false
		ready := true
		for _, depID := range task.Dependencies {
			dep, exists := q.tasks[depID]
			if !exists {
				// Edge repair in Remove makes this unreachable; treat a
				// ghost reference as an unmet dependency.
				ready = false
				continue
			}
			// A BLOCKED dependency poisons its dependents too; that is
			// what carries a failure down the chain one level per pass.
			if dep.IsFailed() || dep.IsBlocked() {
				blocked = true
				break
			}
			if !dep.IsCompleted() {
				ready = false
			}
		}

		switch {
		case blocked:
			task.MarkBlocked()
		case ready:
			task.MarkReady()
			if !task.IsAssigned() {
				ordered.Put(readyKey{task.Priority, task.CreatedAt, task.ID}, task)
			}
		default:
			task.State = StatePending
		}
	}

	out := make([]*Task, 0, ordered.Size())
	for _, v := range ordered.Values() {
		out = append(out, v.(*Task).Clone())
	}
	return out
}

// Assign hands the highest-priority ready task to the given creep and returns
// a copy of it. Returns nil when no work is ready, when the head of the ready
// list is somehow already assigned, or when the creep already holds a task
// (one task per creep at a time).
func (q *Queue) Assign(creepID string, now int64) *Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.creepTaskLocked(creepID) != nil {
		return nil
	}

	ready := q.readyTasksLocked(now)
	if len(ready) == 0 {
		return nil
	}

	head := q.tasks[ready[0].ID]
	if head == nil || head.IsAssigned() {
		return nil
	}

	head.AssignCreep(creepID)
	return head.Clone()
}

// Complete marks a task COMPLETED and clears its assignment. Dependents are
// not recomputed here; the next ReadyTasks pass picks them up, keeping this
// O(1). Returns false if the id is unknown.
func (q *Queue) Complete(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, exists := q.tasks[id]
	if !exists {
		return false
	}
	task.MarkCompleted()
	task.UnassignCreep()
	return true
}

// Fail marks a task FAILED and clears its assignment. Dependents turn BLOCKED
// lazily on subsequent ReadyTasks passes. Returns false if the id is unknown.
func (q *Queue) Fail(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, exists := q.tasks[id]
	if !exists {
		return false
	}
	task.MarkFailed()
	task.UnassignCreep()
	return true
}

// Release clears the assignment only when the task is currently held by
// exactly creepID, so a creep cannot release another creep's work. Returns
// false without mutation otherwise.
func (q *Queue) Release(id, creepID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, exists := q.tasks[id]
	if !exists {
		return false
	}
	if task.AssignedCreep != creepID || creepID == "" {
		return false
	}
	task.UnassignCreep()
	return true
}

// CreepTask returns a copy of the task currently assigned to the given creep,
// or nil. At most one such task exists.
func (q *Queue) CreepTask(creepID string) *Task {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.creepTaskLocked(creepID).Clone()
}

func (q *Queue) creepTaskLocked(creepID string) *Task {
	if creepID == "" {
		return nil
	}
	for _, task := range q.tasks {
		if task.AssignedCreep == creepID {
			return task
		}
	}
	return nil
}

// CleanupExpired removes every expired, unassigned task and returns the
// count. Assigned-but-expired tasks are left alone: an in-flight creep is not
// interrupted by a deadline, expiry only prunes unclaimed work.
func (q *Queue) CleanupExpired(now int64) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	var expired []string
	for id, task := range q.tasks {
		if task.IsExpired(now) && !task.IsAssigned() {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		q.removeLocked(id)
	}
	return len(expired)
}

// CleanupDeadCreeps clears the assignment of every task held by a creep that
// is not in the alive roster, returning the number reclaimed. The task itself
// survives and re-enters the ready pool on the next assignment pass: the
// creep died, the work did not become invalid.
func (q *Queue) CleanupDeadCreeps(alive map[string]struct{}) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	cleaned := 0
	for _, task := range q.tasks {
		if !task.IsAssigned() {
			continue
		}
		if _, ok := alive[task.AssignedCreep]; !ok {
			task.UnassignCreep()
			cleaned++
		}
	}
	return cleaned
}

// Get returns a copy of the task with the given id.
func (q *Queue) Get(id string) (*Task, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	task, exists := q.tasks[id]
	if !exists {
		return nil, false
	}
	return task.Clone(), true
}

// Stats returns the coarse operational snapshot described on the Stats type.
func (q *Queue) Stats() Stats {
	q.mu.RLock()
	defer q.mu.RUnlock()

	s := Stats{Total: len(q.tasks)}
	for _, task := range q.tasks {
		if task.IsAssigned() {
			s.Assigned++
		}
		if task.IsCompleted() {
			s.Completed++
		}
	}
	s.Pending = s.Total - s.Assigned - s.Completed
	return s
}

// Size returns the number of tasks in the queue.
func (q *Queue) Size() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.tasks)
}

// Clear drops every task. Tick-boundary housekeeping for tests and resets.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = make(map[string]*Task)
}

// readyKey orders the ready list: priority descending, then creation tick
// ascending, then id for full determinism.
type readyKey struct {
	priority  Priority
	createdAt int64
	id        string
}

func readyOrder(a, b interface{}) int {
	ka, kb := a.(readyKey), b.(readyKey)
	switch {
	case ka.priority > kb.priority:
		return -1
	case ka.priority < kb.priority:
		return 1
	case ka.createdAt < kb.createdAt:
		return -1
	case ka.createdAt > kb.createdAt:
		return 1
	case ka.id < kb.id:
		return -1
	case ka.id > kb.id:
		return 1
	default:
		return 0
	}
}
