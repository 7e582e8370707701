package queue

import (
	"encoding/json"
	"reflect"
	"testing"
)

func populated(t *testing.T) *Queue {
	t.Helper()
	q := New()

	a := NewTask("A", "harvest", "source-1", 1, 100)
	a.Priority = PriorityHigh
	b := NewTask("B", "build", "site-1", 2, 200)
	b.ParentID = "plan-1"
	b.AddDependency("A")
	c := NewTask("C", "upgrade", "controller-1", 3, 300)
	c.AddDependency("B")

	for _, task := range []*Task{a, b, c} {
		if !q.Add(task) {
			t.Fatalf("Add(%q) failed", task.ID)
		}
	}

	q.Complete("A")
	if q.Assign("creep-1", 10) == nil {
		t.Fatal("Assign failed while populating")
	}
	return q
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	q := populated(t)

	restored := New()
	restored.Restore(q.Snapshot())

	if !reflect.DeepEqual(restored.Snapshot(), q.Snapshot()) {
		t.Errorf("restored snapshot differs:\n got %+v\nwant %+v", restored.Snapshot(), q.Snapshot())
	}

	// The restored queue behaves identically: creep-1 still holds B, C is
	// still gated on it.
	if got := restored.CreepTask("creep-1"); got == nil || got.ID != "B" {
		t.Errorf("CreepTask after restore = %v, want B", got)
	}
	if restored.Assign("creep-2", 10) != nil {
		t.Error("C must stay gated after restore")
	}
	restored.Complete("B")
	if got := restored.Assign("creep-2", 10); got == nil || got.ID != "C" {
		t.Errorf("Assign after completing B = %v, want C", got)
	}
}

func TestQueueJSONRoundTrip(t *testing.T) {
	q := populated(t)

	data, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	restored := New()
	if err := json.Unmarshal(data, restored); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if !reflect.DeepEqual(restored.Snapshot(), q.Snapshot()) {
		t.Errorf("JSON round trip mismatch:\n got %+v\nwant %+v", restored.Snapshot(), q.Snapshot())
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	q := populated(t)

	snap := q.Snapshot()
	snap[0].MarkFailed()
	snap[0].Dependencies = append(snap[0].Dependencies, "ghost")

	fresh := q.Snapshot()
	if fresh[0].IsFailed() || containsID(fresh[0].Dependencies, "ghost") {
		t.Error("mutating a snapshot must not reach queue state")
	}
}
