package sim

import (
	"testing"

	"github.com/aristath/colonyq/internal/queue"
)

func TestColonyPlannerSeedsOnce(t *testing.T) {
	q := queue.New()
	p := &ColonyPlanner{Sources: 2, TTL: 100}

	p.Plan(q, 1)
	want := 2*3 + 1 // harvest/build/upgrade per source, plus the refill
	if q.Size() != want {
		t.Fatalf("Size after seed = %d, want %d", q.Size(), want)
	}

	// Live work remains, so planning again is a no-op.
	p.Plan(q, 2)
	if q.Size() != want {
		t.Errorf("Size after second Plan = %d, want unchanged %d", q.Size(), want)
	}

	// The seeded graph is well formed and fully resolvable.
	if _, err := q.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if res := q.ResolveAll(); res.HasCircularDependency {
		t.Error("seeded graph reports a cycle")
	}
}

func TestColonyPlannerReseedsWhenDrained(t *testing.T) {
	q := queue.New()
	p := &ColonyPlanner{Sources: 1, TTL: 100}

	p.Plan(q, 1)
	first := q.Size()
	for _, task := range q.Snapshot() {
		q.Complete(task.ID)
	}

	p.Plan(q, 2)
	if q.Size() != 2*first {
		t.Errorf("Size after reseed = %d, want %d", q.Size(), 2*first)
	}
}
