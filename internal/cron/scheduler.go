package cron

import (
	"fmt"
	"sync"
	"time"

	"github.com/quantumchain-labs/quantumchain/pkg/types"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler runs the background maintenance tasks: provider health
// refresh, finished-job pruning, chain advancement.
type Scheduler struct {
	cron   *cron.Cron
	logger *logrus.Logger
	tasks  map[string]func() error
	jobs   map[string]struct {
		id          cron.EntryID
		schedule    string
		taskName    string
		enabled     bool
		description string
	}
	mu             sync.RWMutex
	started        bool
	maxConcurrent  int
	activeJobs     int
	activeJobsLock sync.Mutex
}

func NewScheduler(logger *logrus.Logger, config types.TaskConfig) *Scheduler {
	return &Scheduler{
		cron:          cron.New(cron.WithSeconds()),
		logger:        logger,
		maxConcurrent: config.MaxConcurrent,
		jobs: make(map[string]struct {
			id          cron.EntryID
			schedule    string
			taskName    string
			enabled     bool
			description string
		}),
		tasks: make(map[string]func() error),
	}
}

func (s *Scheduler) RegisterTask(name string, task func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[name] = task
}

func (s *Scheduler) LoadPredefinedTasks(tasks []types.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Clear existing entries
	for name, job := range s.jobs {
		s.cron.Remove(job.id)
		delete(s.jobs, name)
	}

	for _, entry := range tasks {
		if !entry.Enabled {
			s.logger.Infof("Skipping disabled task: %s", entry.Name)
			continue
		}

		task, exists := s.tasks[entry.TaskName]
		if !exists {
			return fmt.Errorf("task %s not registered", entry.TaskName)
		}

		entry := entry
		wrapper := func() {
			s.activeJobsLock.Lock()
			if s.activeJobs >= s.maxConcurrent {
				s.activeJobsLock.Unlock()
				s.logger.Warnf("Max concurrent tasks reached, skipping: %s", entry.Name)
				return
			}
			s.activeJobs++
			s.activeJobsLock.Unlock()

			start := time.Now()

			if err := task(); err != nil {
				s.logger.WithFields(logrus.Fields{
					"task":     entry.Name,
					"error":    err.Error(),
					"duration": time.Since(start).String(),
				}).Error("Task execution failed")
			} else {
				s.logger.WithFields(logrus.Fields{
					"task":     entry.Name,
					"duration": time.Since(start).String(),
				}).Debug("Task execution completed")
			}

			s.activeJobsLock.Lock()
			s.activeJobs--
			s.activeJobsLock.Unlock()
		}

		id, err := s.cron.AddFunc(entry.Schedule, wrapper)
		if err != nil {
			return fmt.Errorf("failed to schedule task %s: %w", entry.Name, err)
		}

		s.jobs[entry.Name] = struct {
			id          cron.EntryID
			schedule    string
			taskName    string
			enabled     bool
			description string
		}{
			id:          id,
			schedule:    entry.Schedule,
			taskName:    entry.TaskName,
			enabled:     entry.Enabled,
			description: entry.Description,
		}

		s.logger.WithFields(logrus.Fields{
			"task":     entry.Name,
			"schedule": entry.Schedule,
		}).Info("Task scheduled")
	}

	return nil
}

func (s *Scheduler) GetTaskStatus(name string) (bool, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[name]
	if !exists {
		return false, "", fmt.Errorf("task %s not found", name)
	}

	return job.enabled, job.description, nil
}

func (s *Scheduler) ListTasks() []types.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]types.Task, 0, len(s.jobs))
	for name, job := range s.jobs {
		tasks = append(tasks, types.Task{
			Name:        name,
			Schedule:    job.schedule,
			TaskName:    job.taskName,
			Enabled:     job.enabled,
			Description: job.description,
		})
	}

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

// DefaultTasks is the schedule set the server installs when the config
// does not override it.
func DefaultTasks() []types.Task {
	return []types.Task{
		{Name: "refresh-health", Schedule: "0 */5 * * * *", TaskName: "refresh-health", Enabled: true, Description: "Re-roll provider device health metrics"},
		{Name: "prune-jobs", Schedule: "0 */10 * * * *", TaskName: "prune-jobs", Enabled: true, Description: "Drop finished jobs past the retention window"},
		{Name: "advance-chain", Schedule: "*/12 * * * * *", TaskName: "advance-chain", Enabled: true, Description: "Advance the simulated chain height"},
	}
}
