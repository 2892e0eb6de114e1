package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/freightquote-backend/pkg/logger"
	"github.com/angelmondragon/freightquote-backend/pkg/metrics"
)

type fakeLock struct {
	held     bool
	acquires int
	err      error
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	f.acquires++
	if f.err != nil {
		return false, f.err
	}
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error { f.held = false; return nil }

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

type clock struct{ at time.Time }

func (c *clock) now() time.Time          { return c.at }
func (c *clock) advance(d time.Duration) { c.at = c.at.Add(d) }

func newTestService(t *testing.T, lock Lock, registry *Registry) (*Service, *clock) {
	t.Helper()
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.NewRegistry()),
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	c := &clock{at: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	service.now = c.now
	return service, c
}

func TestRunDueRunsEveryJobOnFirstTickEvenOnFailure(t *testing.T) {
	ok := &testJob{name: "staging_janitor"}
	failing := &testJob{name: "outbox_retention", err: errors.New("boom")}
	service, _ := newTestService(t, &fakeLock{}, NewRegistry().Add(ok, time.Hour).Add(failing, 24*time.Hour))

	if err := service.runDue(context.Background()); err != nil {
		t.Fatalf("run due: %v", err)
	}
	if ok.runs != 1 || failing.runs != 1 {
		t.Fatalf("expected both jobs to run once, got %d and %d", ok.runs, failing.runs)
	}
}

func TestRunDueHonoursPerJobInterval(t *testing.T) {
	hourly := &testJob{name: "staging_janitor"}
	daily := &testJob{name: "outbox_retention"}
	lock := &fakeLock{}
	service, c := newTestService(t, lock, NewRegistry().Add(hourly, time.Hour).Add(daily, 24*time.Hour))
	ctx := context.Background()

	if err := service.runDue(ctx); err != nil {
		t.Fatalf("first tick: %v", err)
	}

	c.advance(30 * time.Minute)
	if err := service.runDue(ctx); err != nil {
		t.Fatalf("idle tick: %v", err)
	}
	if lock.acquires != 1 {
		t.Fatalf("idle tick should not touch the lock, acquires=%d", lock.acquires)
	}

	c.advance(30 * time.Minute)
	if err := service.runDue(ctx); err != nil {
		t.Fatalf("hourly tick: %v", err)
	}
	if hourly.runs != 2 || daily.runs != 1 {
		t.Fatalf("expected hourly=2 daily=1, got %d and %d", hourly.runs, daily.runs)
	}
}

func TestRunDueSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "staging_janitor"}
	service, _ := newTestService(t, &fakeLock{held: true}, NewRegistry().Add(job, time.Hour))

	if err := service.runDue(context.Background()); err != nil {
		t.Fatalf("run due: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("job ran without the lock")
	}

	// Still due on the next tick since it never ran.
	if len(service.dueEntries()) != 1 {
		t.Fatalf("expected job to stay due")
	}
}

func TestRunDueReturnsLockErrors(t *testing.T) {
	service, _ := newTestService(t, &fakeLock{err: errors.New("redis down")}, NewRegistry().Add(&testJob{name: "x"}, 0))
	if err := service.runDue(context.Background()); err == nil {
		t.Fatalf("expected lock error")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "staging_janitor"}
	service, _ := newTestService(t, &fakeLock{}, NewRegistry().Add(job, time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := service.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
