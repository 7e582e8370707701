package sim

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aristath/colonyq/internal/config"
	"github.com/aristath/colonyq/internal/events"
	"github.com/aristath/colonyq/internal/persistence"
	"github.com/aristath/colonyq/internal/queue"
)

// Planner decides what work should exist. Called once at the top of every
// tick; it may add or remove tasks but must not hold references across calls.
type Planner interface {
	Plan(q *queue.Queue, now int64)
}

// RunnerConfig configures the tick runner.
type RunnerConfig struct {
	Config  config.Config
	Roster  *Roster           // live creep population (required)
	Action  Action            // performs assigned work (required)
	Planner Planner           // optional task source
	Store   persistence.Store // optional snapshot persistence
	Bus     *events.EventBus  // optional event publishing
}

// Runner drives the queue through ticks: planning, death and expiry sweeps,
// one-task-per-idle-creep assignment, concurrent wave execution, and outcome
// reporting. The queue is only ever touched between waves, from the runner's
// goroutine, preserving the queue's single-threaded access model; only the
// opaque creep actions run concurrently.
type Runner struct {
	cfg      RunnerConfig
	q        *queue.Queue
	clock    *TickClock
	locks    *TargetLockManager
	breakers *BreakerRegistry
}

// NewRunner creates a runner over the given queue.
func NewRunner(cfg RunnerConfig, q *queue.Queue) *Runner {
	return &Runner{
		cfg:      cfg,
		q:        q,
		clock:    NewTickClock(1),
		locks:    NewTargetLockManager(),
		breakers: NewBreakerRegistry(),
	}
}

// Run ticks until the context is cancelled, then takes a final snapshot so
// the next process picks up exactly where this one stopped.
func (r *Runner) Run(ctx context.Context) error {
	r.clock.Start(time.Duration(r.cfg.Config.TickMS) * time.Millisecond)
	defer r.clock.Stop()

	for {
		select {
		case <-ctx.Done():
			r.finalSnapshot()
			return ctx.Err()
		case <-r.clock.C():
		}
		r.step(ctx, r.clock.Now())
	}
}

// step runs one full tick.
func (r *Runner) step(ctx context.Context, now int64) {
	if r.cfg.Planner != nil {
		r.cfg.Planner.Plan(r.q, now)
	}

	// Creep churn first, then reclaim whatever the dead were holding so the
	// work re-enters this very tick's assignment pass.
	if died := r.cfg.Roster.Cull(r.cfg.Config.DeathChance); len(died) > 0 {
		log.Printf("tick %d: %d creep(s) died: %v", now, len(died), died)
	}
	if reclaimed := r.q.CleanupDeadCreeps(r.cfg.Roster.Alive()); reclaimed > 0 {
		r.publish(events.TopicQueue, events.CreepReclaimedEvent{Reclaimed: reclaimed, Tick: now})
	}

	if now%r.cfg.Config.CleanupEvery == 0 {
		if removed := r.q.CleanupExpired(now); removed > 0 {
			r.publish(events.TopicQueue, events.TaskExpiredEvent{Removed: removed, Tick: now})
		}
	}

	wave := r.buildWave(now)
	outcomes := r.executeWave(ctx, wave)
	r.report(now, wave, outcomes)

	s := r.q.Stats()
	r.publish(events.TopicQueue, events.QueueProgressEvent{
		Total:     s.Total,
		Assigned:  s.Assigned,
		Completed: s.Completed,
		Pending:   s.Pending,
		Tick:      now,
	})

	if r.cfg.Store != nil && now%r.cfg.Config.SnapshotEvery == 0 {
		if err := r.cfg.Store.SaveQueue(ctx, r.q); err != nil {
			log.Printf("WARNING: tick %d: snapshot failed: %v", now, err)
		}
	}
}

// assignment pairs a creep with the task it will perform this tick.
type assignment struct {
	creepID string
	task    *queue.Task
}

// buildWave gives every idle creep at most one task and keeps creeps that
// are mid-task on the one they already hold.
func (r *Runner) buildWave(now int64) []assignment {
	var wave []assignment
	for _, creepID := range r.cfg.Roster.IDs() {
		if held := r.q.CreepTask(creepID); held != nil {
			wave = append(wave, assignment{creepID, held})
			continue
		}
		task := r.q.Assign(creepID, now)
		if task == nil {
			continue
		}
		r.publish(events.TopicTask, events.TaskAssignedEvent{
			ID:      task.ID,
			Type:    task.Type,
			CreepID: creepID,
			Tick:    now,
		})
		wave = append(wave, assignment{creepID, task})
	}
	return wave
}

// executeWave runs the wave's actions with bounded concurrency. Each goroutine
// writes only its own outcome slot, so no extra locking is needed.
func (r *Runner) executeWave(ctx context.Context, wave []assignment) []error {
	outcomes := make([]error, len(wave))
	if len(wave) == 0 {
		return outcomes
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Config.Concurrency)

	for i, as := range wave {
		g.Go(func() error {
			r.locks.Lock(as.task.TargetID)
			defer r.locks.Unlock(as.task.TargetID)

			cb := r.breakers.Get(as.task.Type)
			outcomes[i] = performWithRetry(gctx, r.cfg.Action, as.creepID, as.task, cb, r.cfg.Config.Retry)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// report feeds the wave's outcomes back into the queue, serially.
func (r *Runner) report(now int64, wave []assignment, outcomes []error) {
	for i, as := range wave {
		err := outcomes[i]
		switch {
		case err == nil:
			r.q.Complete(as.task.ID)
			r.publish(events.TopicTask, events.TaskCompletedEvent{ID: as.task.ID, CreepID: as.creepID, Tick: now})
		case errors.Is(err, ErrStillWorking):
			// Keep the assignment; the creep continues next tick.
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			// Shutdown, not failure: hand the task back so the next run
			// reassigns it.
			r.q.Release(as.task.ID, as.creepID)
			r.publish(events.TopicTask, events.TaskReleasedEvent{ID: as.task.ID, CreepID: as.creepID, Tick: now})
		default:
			r.q.Fail(as.task.ID)
			r.publish(events.TopicTask, events.TaskFailedEvent{ID: as.task.ID, CreepID: as.creepID, Err: err, Tick: now})
			log.Printf("tick %d: task %s failed on %s: %v", now, as.task.ID, as.creepID, err)
		}
	}
}

func (r *Runner) finalSnapshot() {
	if r.cfg.Store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.cfg.Store.SaveQueue(ctx, r.q); err != nil {
		log.Printf("ERROR: final snapshot failed: %v", err)
	}
}

func (r *Runner) publish(topic string, event events.Event) {
	if r.cfg.Bus != nil {
		r.cfg.Bus.Publish(topic, event)
	}
}
