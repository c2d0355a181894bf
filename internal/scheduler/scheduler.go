// Package scheduler runs periodic fetch/compute/render tasks.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kerim47/quantdesk/internal/logger"
)

// Task is a named unit of periodic work.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Notifier receives the first failure of a streak and the recovery after it.
type Notifier interface {
	SendError(err error) error
	SendRecovery(failures int) error
}

// Recorder observes every cycle.
type Recorder interface {
	ObserveCycle(task string, duration time.Duration, err error)
}

// Scheduler runs each task immediately and then on its own ticker. A failed
// cycle is logged and skipped; the task keeps its schedule.
type Scheduler struct {
	tasks    []Task
	notifier Notifier
	recorder Recorder

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithNotifier sets the failure and recovery sink.
func WithNotifier(n Notifier) Option {
	return func(s *Scheduler) { s.notifier = n }
}

// WithRecorder sets the cycle observer.
func WithRecorder(r Recorder) Option {
	return func(s *Scheduler) { s.recorder = r }
}

// New validates tasks and returns a stopped scheduler.
func New(tasks []Task, opts ...Option) (*Scheduler, error) {
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if t.Name == "" {
			return nil, errors.New("task name is required")
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("duplicate task %q", t.Name)
		}
		seen[t.Name] = true
		if t.Interval <= 0 {
			return nil, fmt.Errorf("task %q: interval must be positive", t.Name)
		}
		if t.Run == nil {
			return nil, fmt.Errorf("task %q: run function is required", t.Name)
		}
	}

	s := &Scheduler{tasks: tasks}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start launches one goroutine per task. It returns immediately; the tasks
// stop when ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return errors.New("scheduler already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	for _, t := range s.tasks {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.loop(ctx, t)
		}()
	}
	return nil
}

// Stop cancels every task and waits for in-flight cycles to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, t Task) {
	logger.Info("Starting task %s (interval: %v)", t.Name, t.Interval)

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	consecutiveFailures := 0
	cycle := func() {
		start := time.Now()
		err := t.Run(ctx)
		if s.recorder != nil {
			s.recorder.ObserveCycle(t.Name, time.Since(start), err)
		}
		consecutiveFailures = s.handleCycleResult(t.Name, err, consecutiveFailures)
	}

	cycle()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Task %s stopped", t.Name)
			return
		case <-ticker.C:
			logger.Debug("Starting scheduled %s cycle", t.Name)
			cycle()
		}
	}
}

// handleCycleResult returns the updated consecutive failure count.
func (s *Scheduler) handleCycleResult(name string, err error, failures int) int {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return failures
		}
		failures++
		logger.Error("Task %s cycle failed (%d in a row): %v", name, failures, err)
		if failures == 1 && s.notifier != nil {
			if sendErr := s.notifier.SendError(fmt.Errorf("%s: %w", name, err)); sendErr != nil {
				logger.Warn("Failed to send error notification: %v", sendErr)
			}
		}
		return failures
	}

	if failures > 0 {
		logger.Info("Task %s recovered after %d failures", name, failures)
		if s.notifier != nil {
			if sendErr := s.notifier.SendRecovery(failures); sendErr != nil {
				logger.Warn("Failed to send recovery notification: %v", sendErr)
			}
		}
	}
	return 0
}
