package jobs

import (
	"errors"
	"testing"
)

func TestTableNumbering(t *testing.T) {
	table := NewTable()

	a := table.Add(100, 100, "sleep 1", RunningBackground)
	b := table.Add(200, 200, "sleep 2", RunningBackground)

	if a.Number != 1 || b.Number != 2 {
		t.Fatalf("numbers = %d, %d; want 1, 2", a.Number, b.Number)
	}

	if !table.Remove(1) {
		t.Fatal("Remove(1) = false")
	}

	c := table.Add(300, 300, "sleep 3", RunningBackground)
	if c.Number != 3 {
		t.Errorf("number after removal = %d, want 3 (numbers are stable)", c.Number)
	}

	got, err := table.Get(2)
	if err != nil || got.Pid != 200 {
		t.Errorf("Get(2) = %+v, %v", got, err)
	}

	table.Remove(2)
	table.Remove(3)

	if d := table.Add(400, 400, "sleep 4", RunningBackground); d.Number != 1 {
		t.Errorf("number after table emptied = %d, want 1", d.Number)
	}
}

func TestTableDefaultTarget(t *testing.T) {
	table := NewTable()

	if _, err := table.Get(0); !errors.Is(err, ErrNoSuchJob) {
		t.Fatalf("Get(0) on empty table error = %v, want ErrNoSuchJob", err)
	}

	table.Add(1, 1, "first", RunningBackground)
	table.Add(2, 2, "second", RunningBackground)
	table.Remove(1)

	got, err := table.Get(0)
	if err != nil {
		t.Fatalf("Get(0) error = %v", err)
	}

	if got.Command != "second" {
		t.Errorf("Get(0) = %q, want the first remaining job", got.Command)
	}
}

func TestTableUnknownJob(t *testing.T) {
	table := NewTable()
	table.Add(1, 1, "x", RunningBackground)

	for _, n := range []int{-1, 2, 99} {
		if _, err := table.Get(n); !errors.Is(err, ErrNoSuchJob) {
			t.Errorf("Get(%d) error = %v, want ErrNoSuchJob", n, err)
		}

		if _, err := table.SetState(n, Stopped); !errors.Is(err, ErrNoSuchJob) {
			t.Errorf("SetState(%d) error = %v, want ErrNoSuchJob", n, err)
		}

		if table.Remove(n) {
			t.Errorf("Remove(%d) = true", n)
		}
	}
}

func TestTableSnapshotIsCopy(t *testing.T) {
	table := NewTable()
	table.Add(1, 1, "x", RunningBackground)

	snap := table.Snapshot()
	snap[0].State = Stopped

	got, _ := table.Get(1)
	if got.State != RunningBackground {
		t.Errorf("mutating a snapshot changed the table: %v", got.State)
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		RunningForeground: "Running",
		RunningBackground: "Running",
		Stopped:           "Stopped",
		State(42):         "Unknown",
	}

	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}

func TestStatusPredicates(t *testing.T) {
	tests := []struct {
		name    string
		status  Status
		done    bool
		success bool
	}{
		{name: "exit zero", status: Status{Exited: true}, done: true, success: true},
		{name: "exit nonzero", status: Status{Exited: true, Code: 2}, done: true},
		{name: "signaled", status: Status{Signaled: true, Signal: 9}, done: true},
		{name: "stopped", status: Status{Stopped: true, Signal: 19}},
		{name: "running", status: Status{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Done(); got != tt.done {
				t.Errorf("Done() = %v, want %v", got, tt.done)
			}

			if got := tt.status.Success(); got != tt.success {
				t.Errorf("Success() = %v, want %v", got, tt.success)
			}
		})
	}
}
