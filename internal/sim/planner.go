package sim

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/aristath/colonyq/internal/queue"
)

// ColonyPlanner is a demo task source: for every energy source it maintains a
// harvest -> build -> upgrade chain, plus one critical spawn-refill task, and
// reseeds whenever the previous generation has drained. It exists so the demo
// binary exercises the whole queue API; real planners live outside this
// module and only need the queue's Add/Remove surface.
type ColonyPlanner struct {
	Sources int   // energy sources per generation
	TTL     int64 // ticks each seeded task lives
}

// Plan seeds a fresh generation of tasks when no live work remains.
func (p *ColonyPlanner) Plan(q *queue.Queue, now int64) {
	if p.hasLiveWork(q, now) {
		return
	}

	refill := queue.NewTask(p.taskID("refill"), "refill", "spawn-1", now, now+p.TTL)
	refill.Priority = queue.PriorityCritical
	q.Add(refill)

	for i := 0; i < p.Sources; i++ {
		source := fmt.Sprintf("source-%d", i+1)

		harvest := queue.NewTask(p.taskID("harvest"), "harvest", source, now, now+p.TTL)
		harvest.Priority = queue.PriorityHigh
		q.Add(harvest)

		build := queue.NewTask(p.taskID("build"), "build", "site-"+source, now, now+p.TTL)
		build.ParentID = harvest.ID
		build.AddDependency(harvest.ID)
		q.Add(build)

		upgrade := queue.NewTask(p.taskID("upgrade"), "upgrade", "controller-1", now, now+p.TTL)
		upgrade.ParentID = harvest.ID
		upgrade.Priority = queue.PriorityLow
		upgrade.AddDependency(build.ID)
		upgrade.AddDependency(refill.ID)
		q.Add(upgrade)
	}
}

// hasLiveWork reports whether any task could still be assigned now or later.
// Terminal, blocked, and expired-unassigned tasks do not count.
func (p *ColonyPlanner) hasLiveWork(q *queue.Queue, now int64) bool {
	for _, task := range q.Snapshot() {
		if task.IsTerminal() || task.IsBlocked() {
			continue
		}
		if task.IsExpired(now) && !task.IsAssigned() {
			continue
		}
		return true
	}
	return false
}

func (p *ColonyPlanner) taskID(taskType string) string {
	return taskType + "-" + uuid.NewString()[:8]
}
