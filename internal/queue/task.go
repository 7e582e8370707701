package queue

// Priority determines assignment order among ready tasks.
// Higher values win; ties are broken by creation tick (oldest first).
type Priority int

const (
	PriorityLow      Priority = 0
	PriorityNormal   Priority = 1
	PriorityHigh     Priority = 2
	PriorityCritical Priority = 3
)

// State represents the lifecycle state of a task.
// COMPLETED and FAILED are terminal; BLOCKED is sticky once set.
type State string

const (
	StatePending   State = "PENDING"
	StateReady     State = "READY"
	StateBlocked   State = "BLOCKED"
	StateCompleted State = "COMPLETED"
	StateFailed    State = "FAILED"
)

// Task is a single node in the dependency graph: identity, opaque payload,
// lifecycle state, edges, and assignment. The queue interprets none of the
// payload fields (Type, TargetID, ParentID); they are carried for the planner.
//
// Dependencies is written by the planner at creation time; Dependents is the
// reverse edge set and is maintained exclusively by the queue.
type Task struct {
	ID            string   `json:"id"`
	Type          string   `json:"type"`
	TargetID      string   `json:"targetId"`
	Priority      Priority `json:"priority"`
	State         State    `json:"state"`
	ParentID      string   `json:"parentId,omitempty"`
	Dependencies  []string `json:"dependencies"`
	Dependents    []string `json:"dependents"`
	CreatedAt     int64    `json:"createdAt"`
	ExpiresAt     int64    `json:"expiresAt"`
	AssignedCreep string   `json:"assignedCreep,omitempty"`
}

// NewTask creates a PENDING task with normal priority and no edges.
func NewTask(id, taskType, targetID string, createdAt, expiresAt int64) *Task {
	return &Task{
		ID:           id,
		Type:         taskType,
		TargetID:     targetID,
		Priority:     PriorityNormal,
		State:        StatePending,
		Dependencies: []string{},
		Dependents:   []string{},
		CreatedAt:    createdAt,
		ExpiresAt:    expiresAt,
	}
}

// AddDependency appends id to the dependency set. No-op on duplicates.
func (t *Task) AddDependency(id string) {
	if !containsID(t.Dependencies, id) {
		t.Dependencies = append(t.Dependencies, id)
	}
}

// RemoveDependency strips id from the dependency set. No-op if absent.
func (t *Task) RemoveDependency(id string) {
	t.Dependencies = removeID(t.Dependencies, id)
}

// AddDependent appends id to the dependent set. No-op on duplicates.
func (t *Task) AddDependent(id string) {
	if !containsID(t.Dependents, id) {
		t.Dependents = append(t.Dependents, id)
	}
}

// RemoveDependent strips id from the dependent set. No-op if absent.
func (t *Task) RemoveDependent(id string) {
	t.Dependents = removeID(t.Dependents, id)
}

// MarkReady, MarkBlocked, MarkCompleted, and MarkFailed set the state
// unconditionally. The queue is responsible for only invoking them when the
// transition is legal; tasks never validate transitions themselves.
func (t *Task) MarkReady()     { t.State = StateReady }
func (t *Task) MarkBlocked()   { t.State = StateBlocked }
func (t *Task) MarkCompleted() { t.State = StateCompleted }
func (t *Task) MarkFailed()    { t.State = StateFailed }

// AssignCreep records the creep holding this task. Does not touch State.
func (t *Task) AssignCreep(creepID string) { t.AssignedCreep = creepID }

// UnassignCreep clears the assignment. Does not touch State.
func (t *Task) UnassignCreep() { t.AssignedCreep = "" }

func (t *Task) IsPending() bool   { return t.State == StatePending }
func (t *Task) IsReady() bool     { return t.State == StateReady }
func (t *Task) IsBlocked() bool   { return t.State == StateBlocked }
func (t *Task) IsCompleted() bool { return t.State == StateCompleted }
func (t *Task) IsFailed() bool    { return t.State == StateFailed }

// IsTerminal reports whether no further mutation is permitted.
func (t *Task) IsTerminal() bool {
	return t.State == StateCompleted || t.State == StateFailed
}

// IsAssigned reports whether a creep currently holds this task.
func (t *Task) IsAssigned() bool { return t.AssignedCreep != "" }

// IsExpired reports whether the task's deadline has passed at the given tick.
// The boundary is strict: a task expiring at tick T is still valid at T.
func (t *Task) IsExpired(now int64) bool { return now > t.ExpiresAt }

// HasDependencies reports whether the task waits on any upstream tasks.
func (t *Task) HasDependencies() bool { return len(t.Dependencies) > 0 }

// HasDependents reports whether any downstream tasks wait on this one.
func (t *Task) HasDependents() bool { return len(t.Dependents) > 0 }

// Clone returns a deep copy of the task, including both edge sets.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	cp := *t
	if t.Dependencies != nil {
		cp.Dependencies = append([]string(nil), t.Dependencies...)
	}
	if t.Dependents != nil {
		cp.Dependents = append([]string(nil), t.Dependents...)
	}
	return &cp
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
