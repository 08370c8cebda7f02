package jobs

import (
	"sync"
	"time"

	"github.com/quantumchain-labs/quantumchain/pkg/types"
	"github.com/sirupsen/logrus"
)

// simulator drives one job from queued to a terminal state: wait for a
// concurrency slot, then advance progress on a ticker until done, failed or
// stopped.
type simulator struct {
	store    *Store
	jobID    string
	step     int
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func newSimulator(s *Store, jobID string, priority types.Priority) *simulator {
	step := 7
	switch priority {
	case types.PriorityLow:
		step = 4
	case types.PriorityHigh:
		step = 12
	}

	return &simulator{
		store:  s,
		jobID:  jobID,
		step:   step,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (sim *simulator) stop() {
	sim.stopOnce.Do(func() { close(sim.stopCh) })
}

func (sim *simulator) wait() {
	<-sim.done
}

func (sim *simulator) run() {
	s := sim.store
	defer s.wg.Done()
	defer close(sim.done)

	// Hold a slot; queued jobs park here
	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-sim.stopCh:
		s.finish(sim.jobID, types.StatusCancelled, "cancelled while queued")
		return
	}

	if !s.markRunning(sim.jobID) {
		return
	}

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if done := s.advance(sim.jobID, sim.step); done {
				s.complete(sim.jobID)
				return
			}
		case <-sim.stopCh:
			s.finish(sim.jobID, types.StatusCancelled, "cancelled by user")
			return
		}
	}
}

// markRunning flips a queued job to running. Returns false if the job
// vanished (pruned) meanwhile.
func (s *Store) markRunning(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status != types.StatusQueued {
		return false
	}

	now := time.Now()
	job.Status = types.StatusRunning
	job.StartedAt = &now

	s.logger.WithFields(logrus.Fields{
		"job_id": id,
		"type":   job.Type,
	}).Info("Job started")
	return true
}

// advance bumps progress and reports whether the job reached 100.
func (s *Store) advance(id string, step int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status != types.StatusRunning {
		return false
	}

	job.Progress += step
	if job.Progress >= 100 {
		job.Progress = 100
		return true
	}
	return false
}

// complete attaches a generated result, or injects a failure.
func (s *Store) complete(id string) {
	if s.randFloat() < s.failRate {
		s.finish(id, types.StatusFailed, "decoherence limit exceeded during execution")
		return
	}

	job := s.snapshot(id)
	if job == nil {
		return
	}
	result := s.generateResult(job)

	s.mu.Lock()
	if stored, ok := s.jobs[id]; ok && !stored.Status.Terminal() {
		now := time.Now()
		stored.Status = types.StatusCompleted
		stored.Progress = 100
		stored.FinishedAt = &now
		stored.Result = result
	}
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"job_id":   id,
		"fidelity": result.Fidelity,
	}).Info("Job completed")

	s.afterFinish(id)
}

// finish moves a job to a terminal state without a result.
func (s *Store) finish(id string, status types.JobStatus, reason string) {
	s.mu.Lock()
	job, ok := s.jobs[id]
	if !ok || job.Status.Terminal() {
		s.mu.Unlock()
		return
	}
	now := time.Now()
	job.Status = status
	job.FinishedAt = &now
	job.Error = reason
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"job_id": id,
		"status": status,
		"reason": reason,
	}).Info("Job finished")

	s.afterFinish(id)
}

func (s *Store) afterFinish(id string) {
	job := s.snapshot(id)
	if job == nil {
		return
	}

	if s.recorder != nil {
		if err := s.recorder.Record(job); err != nil {
			s.logger.Warnf("Failed to record job %s: %v", id, err)
		}
	}
	if s.notifier != nil && job.Status != types.StatusCancelled {
		if err := s.notifier.NotifyJobFinished(job); err != nil {
			s.logger.Warnf("Failed to notify for job %s: %v", id, err)
		}
	}
}
