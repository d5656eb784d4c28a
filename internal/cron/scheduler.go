package cron

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/0xPuncker/cron-console/internal/metrics"
	"github.com/0xPuncker/cron-console/pkg/types"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// TaskFunc is a maintenance routine run by the Scheduler.
type TaskFunc func() error

type entry struct {
	id   cron.EntryID
	task types.Task
}

// Scheduler runs the console's own maintenance tasks. It never runs gateway jobs.
type Scheduler struct {
	cron    *cron.Cron
	logger  *logrus.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	entries map[string]entry
	tasks   map[string]TaskFunc
	started bool

	maxConcurrent int
	activeLock    sync.Mutex
	active        int
}

func NewScheduler(logger *logrus.Logger, config types.TaskConfig, m *metrics.Metrics) *Scheduler {
	maxConcurrent := config.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Scheduler{
		cron:          cron.New(cron.WithSeconds()),
		logger:        logger,
		metrics:       m,
		maxConcurrent: maxConcurrent,
		entries:       make(map[string]entry),
		tasks:         make(map[string]TaskFunc),
	}
}

func (s *Scheduler) RegisterTask(name string, fn TaskFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[name] = fn
}

// LoadPredefinedTasks replaces every scheduled entry with the enabled tasks of the list.
func (s *Scheduler) LoadPredefinedTasks(tasks []types.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, e := range s.entries {
		s.cron.Remove(e.id)
		delete(s.entries, name)
	}

	for _, task := range tasks {
		if !task.Enabled {
			s.logger.Infof("Skipping disabled task: %s", task.Name)
			continue
		}

		fn, exists := s.tasks[task.TaskName]
		if !exists {
			return fmt.Errorf("task %s not registered", task.TaskName)
		}

		id, err := s.cron.AddFunc(task.Schedule, s.wrap(task, fn))
		if err != nil {
			return fmt.Errorf("failed to schedule task %s: %w", task.Name, err)
		}
		s.entries[task.Name] = entry{id: id, task: task}

		s.logger.WithFields(logrus.Fields{
			"task_name":   task.Name,
			"schedule":    task.Schedule,
			"task":        task.TaskName,
			"description": task.Description,
		}).Info("Task scheduled successfully")
	}

	return nil
}

func (s *Scheduler) wrap(task types.Task, fn TaskFunc) func() {
	return func() {
		s.activeLock.Lock()
		if s.active >= s.maxConcurrent {
			s.activeLock.Unlock()
			s.logger.Warnf("Max concurrent tasks reached, skipping task: %s", task.Name)
			return
		}
		s.active++
		s.activeLock.Unlock()

		defer func() {
			s.activeLock.Lock()
			s.active--
			s.activeLock.Unlock()
		}()

		s.execute(task.Name, fn)
	}
}

func (s *Scheduler) execute(name string, fn TaskFunc) error {
	start := time.Now()
	err := fn()
	s.metrics.ObserveTask(name, err)

	fields := logrus.Fields{
		"task_name": name,
		"duration":  formatDuration(time.Since(start)),
	}
	if err != nil {
		fields["error"] = err.Error()
		s.logger.WithFields(fields).Error("Task execution failed")
		return err
	}
	s.logger.WithFields(fields).Debug("Task execution completed")
	return nil
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.2fµs", float64(d.Microseconds()))
	} else if d < time.Second {
		return fmt.Sprintf("%.2fms", float64(d.Milliseconds()))
	} else if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}

// RunNow executes a registered task immediately, outside its schedule.
func (s *Scheduler) RunNow(taskName string) error {
	s.mu.RLock()
	fn, ok := s.tasks[taskName]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("task %s not registered", taskName)
	}
	return s.execute(taskName, fn)
}

func (s *Scheduler) GetTaskStatus(name string) (bool, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[name]
	if !exists {
		return false, "", fmt.Errorf("task %s not found", name)
	}

	return e.task.Enabled, e.task.Description, nil
}

// ListTasks returns the scheduled tasks sorted by name.
func (s *Scheduler) ListTasks() []types.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]types.Task, 0, len(s.entries))
	for _, e := range s.entries {
		tasks = append(tasks, e.task)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Name < tasks[j].Name })

	return tasks
}

func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}

	s.cron.Start()
	s.started = true
	s.logger.Info("Scheduler started...")

	return nil
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.started = false
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
