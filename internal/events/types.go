package events

// Event is the base interface for all events.
type Event interface {
	EventType() string
	TaskID() string
}

// Topic constants
const (
	TopicTask  = "task"
	TopicQueue = "queue"
)

// Event type constants
const (
	EventTypeTaskAssigned   = "task.assigned"
	EventTypeTaskCompleted  = "task.completed"
	EventTypeTaskFailed     = "task.failed"
	EventTypeTaskReleased   = "task.released"
	EventTypeTaskExpired    = "task.expired"
	EventTypeCreepReclaimed = "creep.reclaimed"
	EventTypeQueueProgress  = "queue.progress"
)

// TaskAssignedEvent is published when a creep picks up a task.
type TaskAssignedEvent struct {
	ID      string
	Type    string
	CreepID string
	Tick    int64
}

func (e TaskAssignedEvent) EventType() string { return EventTypeTaskAssigned }
func (e TaskAssignedEvent) TaskID() string    { return e.ID }

// TaskCompletedEvent is published when a creep reports success.
type TaskCompletedEvent struct {
	ID      string
	CreepID string
	Tick    int64
}

func (e TaskCompletedEvent) EventType() string { return EventTypeTaskCompleted }
func (e TaskCompletedEvent) TaskID() string    { return e.ID }

// TaskFailedEvent is published when a creep reports failure.
type TaskFailedEvent struct {
	ID      string
	CreepID string
	Err     error
	Tick    int64
}

func (e TaskFailedEvent) EventType() string { return EventTypeTaskFailed }
func (e TaskFailedEvent) TaskID() string    { return e.ID }

// TaskReleasedEvent is published when a creep hands a task back unfinished.
type TaskReleasedEvent struct {
	ID      string
	CreepID string
	Tick    int64
}

func (e TaskReleasedEvent) EventType() string { return EventTypeTaskReleased }
func (e TaskReleasedEvent) TaskID() string    { return e.ID }

// TaskExpiredEvent is published once per expiry sweep that removed tasks.
type TaskExpiredEvent struct {
	Removed int
	Tick    int64
}

func (e TaskExpiredEvent) EventType() string { return EventTypeTaskExpired }
func (e TaskExpiredEvent) TaskID() string    { return "" }

// CreepReclaimedEvent is published once per dead-creep sweep that reclaimed
// assignments.
type CreepReclaimedEvent struct {
	Reclaimed int
	Tick      int64
}

func (e CreepReclaimedEvent) EventType() string { return EventTypeCreepReclaimed }
func (e CreepReclaimedEvent) TaskID() string    { return "" }

// QueueProgressEvent is a per-tick snapshot of the queue counters.
type QueueProgressEvent struct {
	Total     int
	Assigned  int
	Completed int
	Pending   int
	Tick      int64
}

func (e QueueProgressEvent) EventType() string { return EventTypeQueueProgress }
func (e QueueProgressEvent) TaskID() string    { return "" }
