package queue

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestTaskEdgeSets(t *testing.T) {
	task := NewTask("A", "harvest", "source-1", 10, 100)

	task.AddDependency("B")
	task.AddDependency("C")
	task.AddDependency("B") // duplicate, no-op
	if !reflect.DeepEqual(task.Dependencies, []string{"B", "C"}) {
		t.Errorf("Dependencies = %v, want [B C]", task.Dependencies)
	}

	task.RemoveDependency("B")
	task.RemoveDependency("missing") // absent, no-op
	if !reflect.DeepEqual(task.Dependencies, []string{"C"}) {
		t.Errorf("Dependencies = %v, want [C]", task.Dependencies)
	}

	task.AddDependent("D")
	task.AddDependent("D")
	if !reflect.DeepEqual(task.Dependents, []string{"D"}) {
		t.Errorf("Dependents = %v, want [D]", task.Dependents)
	}

	if !task.HasDependencies() || !task.HasDependents() {
		t.Error("HasDependencies/HasDependents should both be true")
	}
}

func TestTaskStateTransitions(t *testing.T) {
	task := NewTask("A", "build", "site-1", 0, 50)

	if !task.IsPending() {
		t.Errorf("new task state = %s, want PENDING", task.State)
	}

	task.MarkReady()
	if !task.IsReady() || task.IsTerminal() {
		t.Errorf("after MarkReady state = %s", task.State)
	}

	task.AssignCreep("creep-1")
	if !task.IsAssigned() || !task.IsReady() {
		t.Error("AssignCreep should not touch state")
	}

	task.UnassignCreep()
	if task.IsAssigned() {
		t.Error("UnassignCreep should clear the assignment")
	}

	task.MarkCompleted()
	if !task.IsCompleted() || !task.IsTerminal() {
		t.Errorf("after MarkCompleted state = %s", task.State)
	}

	task.MarkFailed()
	if !task.IsFailed() || !task.IsTerminal() {
		t.Errorf("after MarkFailed state = %s", task.State)
	}

	task.MarkBlocked()
	if !task.IsBlocked() {
		t.Errorf("after MarkBlocked state = %s", task.State)
	}
}

func TestTaskExpiryBoundary(t *testing.T) {
	task := NewTask("A", "repair", "wall-1", 100, 150)

	tests := []struct {
		now  int64
		want bool
	}{
		{now: 100, want: false},
		{now: 149, want: false},
		{now: 150, want: false}, // equality is not expired
		{now: 151, want: true},
	}
	for _, tt := range tests {
		if got := task.IsExpired(tt.now); got != tt.want {
			t.Errorf("IsExpired(%d) = %v, want %v", tt.now, got, tt.want)
		}
	}
}

func TestTaskJSONRoundTrip(t *testing.T) {
	task := NewTask("A", "upgrade", "controller-1", 5, 500)
	task.Priority = PriorityCritical
	task.ParentID = "group-1"
	task.AddDependency("B")
	task.AddDependent("C")
	task.MarkReady()
	task.AssignCreep("creep-7")

	data, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded Task
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if !reflect.DeepEqual(&decoded, task) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", &decoded, task)
	}
}

func TestTaskJSONOmitsUnassigned(t *testing.T) {
	task := NewTask("A", "harvest", "source-1", 0, 10)

	data, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	// An unassigned task serializes with the assignment field absent, not null.
	if strings.Contains(string(data), "assignedCreep") {
		t.Errorf("serialized task should omit assignedCreep: %s", data)
	}
	if strings.Contains(string(data), "parentId") {
		t.Errorf("serialized task should omit empty parentId: %s", data)
	}

	task.AssignCreep("creep-1")
	data, err = json.Marshal(task)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"assignedCreep":"creep-1"`) {
		t.Errorf("serialized task should carry assignedCreep: %s", data)
	}
}

func TestTaskClone(t *testing.T) {
	task := NewTask("A", "harvest", "source-1", 0, 10)
	task.AddDependency("B")

	cp := task.Clone()
	cp.AddDependency("C")
	cp.MarkFailed()

	if len(task.Dependencies) != 1 {
		t.Errorf("mutating clone leaked into original: %v", task.Dependencies)
	}
	if !task.IsPending() {
		t.Errorf("mutating clone state leaked into original: %s", task.State)
	}
}
