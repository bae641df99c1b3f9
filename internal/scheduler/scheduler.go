// Package scheduler runs maintenance jobs on cron schedules.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Daily is the default schedule for cache maintenance (03:00 UTC)
const Daily = "0 3 * * *"

// Job is a unit of scheduled work
type Job interface {
	Run() error
	Name() string
}

// Scheduler manages scheduled jobs
type Scheduler struct {
	cron      *cron.Cron
	log       zerolog.Logger
	mu        sync.RWMutex
	isRunning bool
	jobIDs    map[string]cron.EntryID
	jobs      map[string]Job
}

// New creates a scheduler that evaluates schedules in UTC
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		log:    log.With().Str("component", "scheduler").Logger(),
		jobIDs: make(map[string]cron.EntryID),
		jobs:   make(map[string]Job),
	}
}

// AddJob registers job under a standard five-field cron expression
func (s *Scheduler) AddJob(spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobIDs[job.Name()]; exists {
		return fmt.Errorf("job %s already scheduled", job.Name())
	}

	entryID, err := s.cron.AddFunc(spec, func() { s.run(job) })
	if err != nil {
		return fmt.Errorf("failed to add job %s: %w", job.Name(), err)
	}

	s.jobIDs[job.Name()] = entryID
	s.jobs[job.Name()] = job
	s.log.Info().Str("job", job.Name()).Str("schedule", spec).Msg("Scheduled job")
	return nil
}

// RunNow executes a registered job synchronously
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("job %s not found", name)
	}
	return s.run(job)
}

func (s *Scheduler) run(job Job) error {
	start := time.Now()
	if err := job.Run(); err != nil {
		s.log.Error().Err(err).Str("job", job.Name()).Msg("Job failed")
		return err
	}
	s.log.Debug().Str("job", job.Name()).Dur("elapsed", time.Since(start)).Msg("Job completed")
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	s.cron.Start()
	s.isRunning = true
	s.log.Info().Int("jobs", len(s.jobIDs)).Msg("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.isRunning = false
	s.log.Info().Msg("Scheduler stopped")
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the next scheduled time of a job, or zero if unknown
func (s *Scheduler) NextRun(name string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.jobIDs[name]
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}
