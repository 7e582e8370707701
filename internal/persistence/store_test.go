package persistence

import (
	"context"
	"reflect"
	"testing"

	"github.com/aristath/colonyq/internal/queue"
)

// testStore creates an in-memory store for testing and registers cleanup.
func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewMemoryStore(context.Background())
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func buildQueue(t *testing.T) *queue.Queue {
	t.Helper()
	q := queue.New()

	a := queue.NewTask("harvest-1", "harvest", "source-1", 1, 100)
	a.Priority = queue.PriorityHigh
	b := queue.NewTask("build-1", "build", "site-1", 2, 200)
	b.ParentID = "plan-1"
	b.AddDependency("harvest-1")
	c := queue.NewTask("upgrade-1", "upgrade", "controller-1", 3, 300)
	c.AddDependency("build-1")
	c.AddDependency("harvest-1")

	for _, task := range []*queue.Task{a, b, c} {
		if !q.Add(task) {
			t.Fatalf("Add(%q) failed", task.ID)
		}
	}

	q.Complete("harvest-1")
	if q.Assign("creep-1", 10) == nil {
		t.Fatal("Assign failed while building fixture")
	}
	return q
}

func TestSaveAndLoadQueue(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	q := buildQueue(t)
	if err := store.SaveQueue(ctx, q); err != nil {
		t.Fatalf("SaveQueue() error = %v", err)
	}

	loaded, err := store.LoadQueue(ctx)
	if err != nil {
		t.Fatalf("LoadQueue() error = %v", err)
	}

	if !reflect.DeepEqual(loaded.Snapshot(), q.Snapshot()) {
		t.Errorf("loaded snapshot differs:\n got %+v\nwant %+v", loaded.Snapshot(), q.Snapshot())
	}

	// The restored graph is structurally sound.
	if _, err := loaded.Validate(); err != nil {
		t.Errorf("Validate() after load error = %v", err)
	}

	// And behaviorally identical: the in-flight assignment survived.
	if got := loaded.CreepTask("creep-1"); got == nil || got.ID != "build-1" {
		t.Errorf("CreepTask after load = %v, want build-1", got)
	}
}

func TestSaveQueueReplacesPrevious(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	q := buildQueue(t)
	if err := store.SaveQueue(ctx, q); err != nil {
		t.Fatalf("first SaveQueue() error = %v", err)
	}

	// Mutate and save again; the old snapshot must be fully replaced.
	q.Remove("upgrade-1")
	q.Complete("build-1")
	if err := store.SaveQueue(ctx, q); err != nil {
		t.Fatalf("second SaveQueue() error = %v", err)
	}

	loaded, err := store.LoadQueue(ctx)
	if err != nil {
		t.Fatalf("LoadQueue() error = %v", err)
	}
	if loaded.Size() != 2 {
		t.Errorf("loaded Size = %d, want 2", loaded.Size())
	}
	if _, ok := loaded.Get("upgrade-1"); ok {
		t.Error("removed task survived the snapshot replace")
	}
}

func TestLoadEmptyStore(t *testing.T) {
	store := testStore(t)

	loaded, err := store.LoadQueue(context.Background())
	if err != nil {
		t.Fatalf("LoadQueue() on empty store error = %v", err)
	}
	if loaded.Size() != 0 {
		t.Errorf("loaded Size = %d, want 0", loaded.Size())
	}
}
