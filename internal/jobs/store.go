package jobs

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quantumchain-labs/quantumchain/internal/qasm"
	"github.com/quantumchain-labs/quantumchain/pkg/types"
	"github.com/sirupsen/logrus"
)

var jobTypes = map[string]bool{
	"bell-state":    true,
	"grover":        true,
	"qft":           true,
	"vqe":           true,
	"teleportation": true,
	"custom":        true,
}

// Recorder persists finished jobs. Implemented by the history store.
type Recorder interface {
	Record(job *types.Job) error
}

// Notifier announces terminal jobs. Implemented by the Slack service.
type Notifier interface {
	NotifyJobFinished(job *types.Job) error
}

// Store owns every submitted job and the simulators driving them. All
// shared state is guarded; simulators signal back through the store's
// transition methods.
type Store struct {
	logger   *logrus.Logger
	recorder Recorder
	notifier Notifier

	mu   sync.RWMutex
	jobs map[string]*types.Job
	sims map[string]*simulator

	// sem bounds how many simulators run at once; queued jobs hold a
	// goroutine waiting on it.
	sem chan struct{}
	wg  sync.WaitGroup

	rng   *rand.Rand
	rngMu sync.Mutex

	defaultShots int
	maxShots     int
	tick         time.Duration
	failRate     float64
}

type Option func(*Store)

// WithTick overrides the simulator tick interval (tests).
func WithTick(d time.Duration) Option {
	return func(s *Store) { s.tick = d }
}

// WithFailRate overrides the injected failure probability (tests).
func WithFailRate(rate float64) Option {
	return func(s *Store) { s.failRate = rate }
}

// WithSeed makes result generation and failure injection deterministic.
func WithSeed(seed int64) Option {
	return func(s *Store) { s.rng = rand.New(rand.NewSource(seed)) }
}

func WithRecorder(r Recorder) Option {
	return func(s *Store) { s.recorder = r }
}

func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

func NewStore(logger *logrus.Logger, maxConcurrent, defaultShots, maxShots int, opts ...Option) *Store {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	s := &Store{
		logger:       logger,
		jobs:         make(map[string]*types.Job),
		sims:         make(map[string]*simulator),
		sem:          make(chan struct{}, maxConcurrent),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		defaultShots: defaultShots,
		maxShots:     maxShots,
		tick:         150 * time.Millisecond,
		failRate:     0.05,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates the request, stores the job as queued and starts its
// simulator.
func (s *Store) Submit(req types.SubmitRequest) (*types.Job, error) {
	if err := s.validate(&req); err != nil {
		return nil, err
	}

	job := &types.Job{
		ID:          uuid.NewString(),
		Type:        req.Type,
		Description: req.Description,
		Provider:    req.Provider,
		Priority:    req.Priority,
		Shots:       req.Shots,
		Source:      req.Source,
		Status:      types.StatusQueued,
		SubmittedAt: time.Now(),
	}

	sim := newSimulator(s, job.ID, job.Priority)

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.sims[job.ID] = sim
	s.mu.Unlock()

	s.wg.Add(1)
	go sim.run()

	s.logger.WithFields(logrus.Fields{
		"job_id":   job.ID,
		"type":     job.Type,
		"provider": job.Provider,
		"priority": job.Priority,
		"shots":    job.Shots,
	}).Info("Job submitted")

	return s.snapshot(job.ID), nil
}

func (s *Store) validate(req *types.SubmitRequest) error {
	if strings.TrimSpace(req.Type) == "" {
		return fmt.Errorf("type cannot be empty")
	}
	if !jobTypes[req.Type] {
		return fmt.Errorf("unknown job type %q", req.Type)
	}
	if strings.TrimSpace(req.Provider) == "" {
		return fmt.Errorf("provider cannot be empty")
	}
	if req.Priority == "" {
		req.Priority = types.PriorityNormal
	}
	if !req.Priority.Valid() {
		return fmt.Errorf("invalid priority %q", req.Priority)
	}
	if req.Shots == 0 {
		req.Shots = s.defaultShots
	}
	if req.Shots < 0 || req.Shots > s.maxShots {
		return fmt.Errorf("shots must be between 1 and %d", s.maxShots)
	}
	if req.Type == "custom" {
		if strings.TrimSpace(req.Source) == "" {
			return fmt.Errorf("custom jobs require QASM source")
		}
		if _, err := qasm.Analyze(req.Source); err != nil {
			return fmt.Errorf("invalid QASM source: %w", err)
		}
	}
	return nil
}

// Get returns a copy of the job.
func (s *Store) Get(id string) (*types.Job, error) {
	job := s.snapshot(id)
	if job == nil {
		return nil, fmt.Errorf("job %q not found", id)
	}
	return job, nil
}

// Result returns the result payload once the job completed.
func (s *Store) Result(id string) (*types.JobResult, error) {
	job, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if job.Status != types.StatusCompleted {
		return nil, fmt.Errorf("job %q has no result yet (status %s)", id, job.Status)
	}
	return job.Result, nil
}

// List returns jobs newest-first, optionally filtered by status and
// provider.
func (s *Store) List(status, provider string) []*types.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*types.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if status != "" && string(job.Status) != status {
			continue
		}
		if provider != "" && job.Provider != provider {
			continue
		}
		jobs = append(jobs, copyJob(job))
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].SubmittedAt.After(jobs[j].SubmittedAt)
	})
	return jobs
}

// Cancel stops a queued or running job. Terminal jobs cannot be cancelled.
func (s *Store) Cancel(id string) (*types.Job, error) {
	s.mu.Lock()
	job, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("job %q not found", id)
	}
	if job.Status.Terminal() {
		status := job.Status
		s.mu.Unlock()
		return nil, &ConflictError{ID: id, Status: status}
	}
	sim := s.sims[id]
	s.mu.Unlock()

	// The simulator goroutine marks the job cancelled on its way out; wait
	// for the transition so the response reflects it.
	if sim != nil {
		sim.stop()
		sim.wait()
	}
	return s.Get(id)
}

// ConflictError marks a cancel attempt on a job that already finished.
type ConflictError struct {
	ID     string
	Status types.JobStatus
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("job %q already %s", e.ID, e.Status)
}

// Prune drops terminal jobs older than the retention window. Registered as
// a scheduled task.
func (s *Store) Prune(retention time.Duration) int {
	cutoff := time.Now().Add(-retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, job := range s.jobs {
		if job.Status.Terminal() && job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			delete(s.jobs, id)
			delete(s.sims, id)
			removed++
		}
	}

	if removed > 0 {
		s.logger.WithFields(logrus.Fields{
			"removed":   removed,
			"remaining": len(s.jobs),
		}).Info("Pruned finished jobs")
	}
	return removed
}

// Wait blocks until every simulator goroutine exited. Used on shutdown and
// in tests.
func (s *Store) Wait() {
	s.wg.Wait()
}

func (s *Store) snapshot(id string) *types.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil
	}
	return copyJob(job)
}

func copyJob(job *types.Job) *types.Job {
	dup := *job
	if job.Result != nil {
		res := *job.Result
		res.Counts = make(map[string]int, len(job.Result.Counts))
		for k, v := range job.Result.Counts {
			res.Counts[k] = v
		}
		dup.Result = &res
	}
	return &dup
}

func (s *Store) randFloat() float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64()
}

func (s *Store) randIntn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}
