package queue

import (
	"reflect"
	"strings"
	"testing"
)

func TestResolveAllOrder(t *testing.T) {
	tests := []struct {
		name  string
		setup func(q *Queue)
		want  []string
	}{
		{
			name: "linear chain",
			setup: func(q *Queue) {
				q.Add(NewTask("A", "w", "t", 1, 100))
				b := NewTask("B", "w", "t", 2, 100)
				b.AddDependency("A")
				q.Add(b)
				c := NewTask("C", "w", "t", 3, 100)
				c.AddDependency("B")
				q.Add(c)
			},
			want: []string{"A", "B", "C"},
		},
		{
			name: "diamond with createdAt tie-break",
			setup: func(q *Queue) {
				q.Add(NewTask("A", "w", "t", 1, 100))
				// C is older than B, so it linearizes first.
				c := NewTask("C", "w", "t", 2, 100)
				c.AddDependency("A")
				q.Add(c)
				b := NewTask("B", "w", "t", 3, 100)
				b.AddDependency("A")
				q.Add(b)
				d := NewTask("D", "w", "t", 4, 100)
				d.AddDependency("B")
				d.AddDependency("C")
				q.Add(d)
			},
			want: []string{"A", "C", "B", "D"},
		},
		{
			name: "disconnected components ordered by creation",
			setup: func(q *Queue) {
				q.Add(NewTask("X", "w", "t", 5, 100))
				q.Add(NewTask("Y", "w", "t", 2, 100))
			},
			want: []string{"Y", "X"},
		},
		{
			name:  "empty graph",
			setup: func(q *Queue) {},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := New()
			tt.setup(q)
			res := q.ResolveAll()
			if res.HasCircularDependency {
				t.Fatal("HasCircularDependency = true for acyclic graph")
			}
			if !reflect.DeepEqual(res.ExecutionOrder, tt.want) {
				t.Errorf("ExecutionOrder = %v, want %v", res.ExecutionOrder, tt.want)
			}
		})
	}
}

func TestResolveAllIndependentOfState(t *testing.T) {
	q := New()
	addTask(t, q, "A", PriorityNormal)
	addTask(t, q, "B", PriorityNormal, "A")
	q.Fail("A")
	q.ReadyTasks(0) // B becomes BLOCKED

	res := q.ResolveAll()
	if res.HasCircularDependency {
		t.Fatal("HasCircularDependency = true, want false")
	}
	if len(res.ExecutionOrder) != 2 {
		t.Errorf("ExecutionOrder = %v, want both tasks regardless of state", res.ExecutionOrder)
	}
}

func TestResolveAllDetectsCycle(t *testing.T) {
	q := New()
	addTask(t, q, "A", PriorityNormal)
	addTask(t, q, "B", PriorityNormal, "A")
	addTask(t, q, "C", PriorityNormal)

	// The public API cannot build a cycle; corrupt the graph directly the
	// way a bad restore would.
	q.tasks["A"].AddDependency("B")
	q.tasks["B"].AddDependent("A")

	res := q.ResolveAll()
	if !res.HasCircularDependency {
		t.Fatal("HasCircularDependency = false for corrupted graph")
	}
	// The acyclic remainder still linearizes.
	if !reflect.DeepEqual(res.ExecutionOrder, []string{"C"}) {
		t.Errorf("partial ExecutionOrder = %v, want [C]", res.ExecutionOrder)
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid graph", func(t *testing.T) {
		q := New()
		addTask(t, q, "A", PriorityNormal)
		addTask(t, q, "B", PriorityNormal, "A")

		order, err := q.Validate()
		if err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if len(order) != 2 || order[0] != "A" {
			t.Errorf("Validate() order = %v", order)
		}
	})

	t.Run("dangling dependency", func(t *testing.T) {
		q := New()
		addTask(t, q, "A", PriorityNormal)
		q.tasks["A"].AddDependency("ghost")

		_, err := q.Validate()
		if err == nil || !strings.Contains(err.Error(), "ghost") {
			t.Errorf("Validate() error = %v, want dangling reference", err)
		}
	})

	t.Run("cycle", func(t *testing.T) {
		q := New()
		addTask(t, q, "A", PriorityNormal)
		addTask(t, q, "B", PriorityNormal, "A")
		q.tasks["A"].AddDependency("B")

		_, err := q.Validate()
		if err == nil || !strings.Contains(err.Error(), "cycle") {
			t.Errorf("Validate() error = %v, want cycle", err)
		}
	})
}
