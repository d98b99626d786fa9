package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
)

// Task is one unit of periodic maintenance.
type Task func(ctx context.Context) error

type entry struct {
	name     string
	interval time.Duration
	timeout  time.Duration
	task     Task
}

// Scheduler runs named maintenance tasks on fixed intervals. A task never
// overlaps with its own previous run.
type Scheduler struct {
	cron *gocron.Scheduler
	log  *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry
	running bool
}

func New(log *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	if log == nil {
		log = slog.Default()
	}

	return &Scheduler{
		cron:    s,
		log:     log.With("component", "scheduler"),
		entries: make(map[string]*entry),
	}
}

// Every registers task under name. Each run gets its own context bounded by timeout.
func (s *Scheduler) Every(name string, interval, timeout time.Duration, task Task) error {
	if interval <= 0 {
		return fmt.Errorf("scheduler: interval for %s must be positive", name)
	}
	if timeout <= 0 {
		timeout = interval
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("scheduler: task %s already registered", name)
	}

	e := &entry{name: name, interval: interval, timeout: timeout, task: task}

	if _, err := s.cron.Every(interval).Tag(name).Do(func() {
		s.run(context.Background(), e)
	}); err != nil {
		return fmt.Errorf("scheduler: add %s: %w", name, err)
	}

	s.entries[name] = e
	return nil
}

// RunNow executes a registered task synchronously, outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	e, ok := s.entries[name]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("scheduler: task %s not found", name)
	}

	return s.run(ctx, e)
}

func (s *Scheduler) run(parent context.Context, e *entry) error {
	ctx, cancel := context.WithTimeout(parent, e.timeout)
	defer cancel()

	start := time.Now()
	err := e.task(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "scheduled task failed", "task", e.name, "err", err, "duration_ms", time.Since(start).Milliseconds())
		return err
	}

	s.log.DebugContext(ctx, "scheduled task done", "task", e.name, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	s.cron.StartAsync()
	s.running = true
	s.log.Info("scheduler started", "tasks", len(s.entries))
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cron.Stop()
	s.running = false
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
