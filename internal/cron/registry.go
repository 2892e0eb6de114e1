package cron

import (
	"context"
	"time"
)

// Job is one unit of scheduled maintenance.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Entry pairs a job with how often it is due.
type Entry struct {
	Job   Job
	Every time.Duration
}

// Registry holds the scheduled jobs in registration order.
type Registry struct {
	entries []Entry
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Add schedules job every interval. A zero interval means every tick.
// Nil jobs are ignored so optional jobs can be chained unconditionally.
func (r *Registry) Add(job Job, every time.Duration) *Registry {
	if job == nil {
		return r
	}
	if every < 0 {
		every = 0
	}
	r.entries = append(r.entries, Entry{Job: job, Every: every})
	return r
}

// Entries returns a copy of the schedule.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
