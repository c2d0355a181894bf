package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeNotifier struct {
	mu         sync.Mutex
	errors     []error
	recoveries []int
}

func (f *fakeNotifier) SendError(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, err)
	return nil
}

func (f *fakeNotifier) SendRecovery(failures int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recoveries = append(f.recoveries, failures)
	return nil
}

type fakeRecorder struct {
	mu     sync.Mutex
	cycles map[string]int
	failed map[string]int
}

func (f *fakeRecorder) ObserveCycle(task string, _ time.Duration, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cycles[task]++
	if err != nil {
		f.failed[task]++
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNew_Validation(t *testing.T) {
	run := func(context.Context) error { return nil }
	tests := []struct {
		name  string
		tasks []Task
	}{
		{name: "missing name", tasks: []Task{{Interval: time.Second, Run: run}}},
		{name: "zero interval", tasks: []Task{{Name: "a", Run: run}}},
		{name: "nil run", tasks: []Task{{Name: "a", Interval: time.Second}}},
		{name: "duplicate", tasks: []Task{
			{Name: "a", Interval: time.Second, Run: run},
			{Name: "a", Interval: time.Second, Run: run},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.tasks); err == nil {
				t.Error("New() succeeded, want error")
			}
		})
	}
}

func TestScheduler_FailureAndRecovery(t *testing.T) {
	var calls atomic.Int32
	task := Task{
		Name:     "rates",
		Interval: 5 * time.Millisecond,
		Run: func(context.Context) error {
			if calls.Add(1) <= 2 {
				return errors.New("upstream down")
			}
			return nil
		},
	}

	notifier := &fakeNotifier{}
	recorder := &fakeRecorder{cycles: map[string]int{}, failed: map[string]int{}}
	s, err := New([]Task{task}, WithNotifier(notifier), WithRecorder(recorder))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, func() bool { return calls.Load() >= 4 })
	s.Stop()

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.errors) != 1 {
		t.Errorf("error notifications = %d, want 1 (first failure only)", len(notifier.errors))
	}
	if len(notifier.recoveries) != 1 || notifier.recoveries[0] != 2 {
		t.Errorf("recoveries = %v, want [2]", notifier.recoveries)
	}

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if recorder.failed["rates"] != 2 {
		t.Errorf("failed cycles = %d, want 2", recorder.failed["rates"])
	}
	if recorder.cycles["rates"] < 4 {
		t.Errorf("cycles = %d, want at least 4", recorder.cycles["rates"])
	}
}

func TestScheduler_StopHaltsTasks(t *testing.T) {
	var calls atomic.Int32
	s, err := New([]Task{{
		Name:     "tick",
		Interval: time.Millisecond,
		Run:      func(context.Context) error { calls.Add(1); return nil },
	}})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(context.Background()); err == nil {
		t.Error("second Start succeeded, want error")
	}
	waitFor(t, func() bool { return calls.Load() >= 2 })
	s.Stop()

	after := calls.Load()
	time.Sleep(10 * time.Millisecond)
	if calls.Load() != after {
		t.Errorf("task ran after Stop: %d -> %d", after, calls.Load())
	}
}

func TestScheduler_RunsImmediately(t *testing.T) {
	ran := make(chan struct{}, 1)
	s, err := New([]Task{{
		Name:     "slow",
		Interval: time.Hour,
		Run: func(context.Context) error {
			select {
			case ran <- struct{}{}:
			default:
			}
			return nil
		},
	}})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run before its first tick")
	}
	cancel()
	s.Stop()
}
