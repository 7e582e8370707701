package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/aristath/colonyq/internal/queue"
)

// ErrStillWorking is returned by an Action whose task needs more ticks. The
// runner keeps the assignment and performs the task again next tick.
var ErrStillWorking = errors.New("task still in progress")

// Action performs the game-specific work for an assigned task. The scheduler
// never interprets a task's payload; everything the work means lives behind
// this interface.
type Action interface {
	Perform(ctx context.Context, creepID string, task *queue.Task) error
}

// ActionFunc adapts a function to the Action interface.
type ActionFunc func(ctx context.Context, creepID string, task *queue.Task) error

func (f ActionFunc) Perform(ctx context.Context, creepID string, task *queue.Task) error {
	return f(ctx, creepID, task)
}

// Roster tracks the live creep population. Creeps are ephemeral: a cull can
// remove any of them without notice, and replacements spawn under fresh ids,
// which is exactly the churn the queue's dead-creep sweep exists for.
type Roster struct {
	mu    sync.Mutex
	alive map[string]struct{}
	rng   *rand.Rand
}

// NewRoster spawns n creeps. The seed makes death rolls reproducible in tests.
func NewRoster(n int, seed int64) *Roster {
	r := &Roster{
		alive: make(map[string]struct{}, n),
		rng:   rand.New(rand.NewSource(seed)),
	}
	for i := 0; i < n; i++ {
		r.alive[fmt.Sprintf("creep-%d", i+1)] = struct{}{}
	}
	return r
}

// Alive returns the current roster as the set-like lookup the queue's
// dead-creep sweep consumes.
func (r *Roster) Alive() map[string]struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]struct{}, len(r.alive))
	for id := range r.alive {
		out[id] = struct{}{}
	}
	return out
}

// IDs returns the live creep ids in sorted order, for deterministic
// assignment sweeps.
func (r *Roster) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.alive))
	for id := range r.alive {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Kill removes a creep from the roster.
func (r *Roster) Kill(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.alive, id)
}

// Cull rolls each creep against the death chance, removes the unlucky ones,
// and spawns a replacement under a fresh id for each death so the population
// stays constant. Returns the ids that died.
func (r *Roster) Cull(chance float64) []string {
	if chance <= 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var died []string
	for id := range r.alive {
		if r.rng.Float64() < chance {
			died = append(died, id)
		}
	}
	for _, id := range died {
		delete(r.alive, id)
		r.alive["creep-"+uuid.NewString()[:8]] = struct{}{}
	}
	return died
}

// Size returns the live creep count.
func (r *Roster) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alive)
}
