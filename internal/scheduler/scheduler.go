// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a unit of periodic work.
type Job func(ctx context.Context) error

type registeredJob struct {
	name        string
	description string
	schedule    string
	entryID     cron.EntryID
	run         Job

	mu        sync.Mutex
	lastError string
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Schedule    string    `json:"schedule"`
	LastRun     time.Time `json:"lastRun,omitzero"`
	NextRun     time.Time `json:"nextRun,omitzero"`
	LastError   string    `json:"lastError,omitempty"`
}

// Scheduler handles scheduled tasks like publishing blogs.
type Scheduler struct {
	ctx    context.Context
	cron   *cron.Cron
	logger *slog.Logger

	mu   sync.RWMutex
	jobs map[string]*registeredJob
}

// New creates a scheduler. Jobs receive ctx, which should live as long as
// the server.
func New(ctx context.Context, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		ctx:    ctx,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: logger,
		jobs:   make(map[string]*registeredJob),
	}
}

// Add registers a job under a standard 5-field cron schedule or descriptor.
func (s *Scheduler) Add(name, description, schedule string, run Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}

	job := &registeredJob{name: name, description: description, schedule: schedule, run: run}
	id, err := s.cron.AddFunc(schedule, func() { s.execute(job) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", schedule, name, err)
	}
	job.entryID = id
	s.jobs[name] = job
	return nil
}

// Start begins running jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// List returns all registered jobs sorted by name.
func (s *Scheduler) List() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]JobInfo, 0, len(s.jobs))
	for _, job := range s.jobs {
		entry := s.cron.Entry(job.entryID)
		job.mu.Lock()
		result = append(result, JobInfo{
			Name:        job.name,
			Description: job.description,
			Schedule:    job.schedule,
			LastRun:     entry.Prev,
			NextRun:     entry.Next,
			LastError:   job.lastError,
		})
		job.mu.Unlock()
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// TriggerNow runs a job synchronously.
func (s *Scheduler) TriggerNow(name string) error {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job not found: %s", name)
	}

	s.logger.Info("manually triggering job", "name", name)
	return s.execute(job)
}

func (s *Scheduler) execute(job *registeredJob) error {
	start := time.Now()
	err := job.run(s.ctx)

	job.mu.Lock()
	job.lastError = ""
	if err != nil {
		job.lastError = err.Error()
	}
	job.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled job failed", "category", "scheduler", "job", job.name, "error", err)
		return err
	}
	s.logger.Debug("scheduled job finished", "job", job.name, "duration", time.Since(start))
	return nil
}
