package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aristath/colonyq/internal/config"
	"github.com/aristath/colonyq/internal/events"
	"github.com/aristath/colonyq/internal/persistence"
	"github.com/aristath/colonyq/internal/queue"
	"github.com/aristath/colonyq/internal/sim"
)

func main() {
	// Create signal-aware context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := "colonyq.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	// Resume from the previous run's snapshot; an empty store yields an
	// empty queue and the planner seeds from scratch.
	q, err := store.LoadQueue(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error restoring queue: %v\n", err)
		os.Exit(1)
	}
	if q.Size() > 0 {
		log.Printf("Restored %d tasks from snapshot", q.Size())
		if _, err := q.Validate(); err != nil {
			log.Printf("WARNING: restored task graph is corrupt: %v", err)
			if res := q.ResolveAll(); res.HasCircularDependency {
				log.Printf("WARNING: circular dependency detected; %d of %d tasks resolvable",
					len(res.ExecutionOrder), q.Size())
			}
		}
	}

	bus := events.NewEventBus()
	defer bus.Close()
	go logEvents(bus.SubscribeAll(0))

	runner := sim.NewRunner(sim.RunnerConfig{
		Config:  cfg,
		Roster:  sim.NewRoster(cfg.Creeps, 0),
		Action:  newDemoAction(),
		Planner: &sim.ColonyPlanner{Sources: 2, TTL: cfg.DefaultTTL},
		Store:   store,
		Bus:     bus,
	}, q)

	log.Printf("colonyq running: %d creeps, tick %dms", cfg.Creeps, cfg.TickMS)
	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Runner exited: %v", err)
	}

	s := q.Stats()
	log.Printf("Shutdown complete: %d tasks total, %d completed, %d pending", s.Total, s.Completed, s.Pending)
}

func openStore(ctx context.Context, cfg config.Config) (*persistence.SQLiteStore, error) {
	if cfg.DBPath == "" {
		return persistence.NewMemoryStore(ctx)
	}
	return persistence.NewSQLiteStore(ctx, cfg.DBPath)
}

// logEvents prints the task-level event stream; per-tick progress events are
// too chatty to log.
func logEvents(ch <-chan events.Event) {
	for ev := range ch {
		if ev.EventType() == events.EventTypeQueueProgress {
			continue
		}
		if ev.TaskID() != "" {
			log.Printf("[%s] %s", ev.EventType(), ev.TaskID())
		} else {
			log.Printf("[%s] %+v", ev.EventType(), ev)
		}
	}
}

// demoAction stands in for real creep behavior: harvest tasks take several
// ticks, everything else finishes in one.
type demoAction struct {
	mu       sync.Mutex
	progress map[string]int
}

func newDemoAction() *demoAction {
	return &demoAction{progress: make(map[string]int)}
}

func (a *demoAction) Perform(ctx context.Context, creepID string, task *queue.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if task.Type != "harvest" {
		return nil
	}

	a.mu.Lock()
	a.progress[task.ID]++
	done := a.progress[task.ID] >= 3
	if done {
		delete(a.progress, task.ID)
	}
	a.mu.Unlock()

	if !done {
		return sim.ErrStillWorking
	}
	return nil
}
