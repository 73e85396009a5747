// Package schedule runs recurring background jobs on fixed intervals.
//
// GiftBid registers exactly one job in production, the auction-closing
// sweep, but the builder reads like a schedule definition:
//
//	schedule.
//		EveryInterval(config.SweepInterval()).
//		Name("auction-sweep").
//		WithoutOverlapping().
//		Run(func() { sweep.Run(ctx) })
//
//	schedule.Start(ctx) // begin dispatching (call once at boot)
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shashiranjanraj/giftbid/pkg/logger"
)

// Task is a scheduled job body.
type Task func()

// job is one registered entry in the dispatcher.
type job struct {
	mu         sync.Mutex
	id         string
	interval   time.Duration
	task       Task
	lastRun    time.Time
	inFlight   bool
	noOverlap  bool
	beforeHook Task
	afterHook  Task
}

// due reports whether the job should fire at tick time now.
func (j *job) due(now time.Time) bool {
	return j.lastRun.IsZero() || now.Sub(j.lastRun) >= j.interval
}

// registry holds all registered jobs. Package-level because registration
// happens from several entry points (server boot, CLI) before Start.
var registry = struct {
	mu   sync.Mutex
	jobs []*job
}{}

// Schedule is the fluent builder for one job.
type Schedule struct {
	j *job
}

// EveryInterval schedules at an arbitrary duration, for intervals that come
// from configuration rather than code.
func EveryInterval(d time.Duration) *Schedule {
	return &Schedule{j: &job{interval: d}}
}

// Every starts a builder with n units: Every(5).Minutes().
func Every(n int) *freqBuilder { return &freqBuilder{n: n} }

// EveryMinute schedules the job every 60 seconds.
func EveryMinute() *Schedule { return Every(1).Minutes() }

// Hourly schedules the job every hour.
func Hourly() *Schedule { return Every(1).Hours() }

// Daily schedules the job every 24 hours.
func Daily() *Schedule { return Every(24).Hours() }

type freqBuilder struct{ n int }

func (f *freqBuilder) Seconds() *Schedule {
	return EveryInterval(time.Duration(f.n) * time.Second)
}
func (f *freqBuilder) Minutes() *Schedule {
	return EveryInterval(time.Duration(f.n) * time.Minute)
}
func (f *freqBuilder) Hours() *Schedule {
	return EveryInterval(time.Duration(f.n) * time.Hour)
}
func (f *freqBuilder) Days() *Schedule {
	return EveryInterval(time.Duration(f.n) * 24 * time.Hour)
}

// Name gives the job an identifier for logging and the route:list-style CLI.
func (s *Schedule) Name(id string) *Schedule {
	s.j.id = id
	return s
}

// WithoutOverlapping skips a tick while the previous run is still executing.
// The sweep relies on this: a slow pass must not race a second one.
func (s *Schedule) WithoutOverlapping() *Schedule {
	s.j.noOverlap = true
	return s
}

// Before registers a hook that fires before each run.
func (s *Schedule) Before(fn Task) *Schedule {
	s.j.beforeHook = fn
	return s
}

// After registers a hook that fires after each run, panics included.
func (s *Schedule) After(fn Task) *Schedule {
	s.j.afterHook = fn
	return s
}

// Run sets the job body and registers it with the dispatcher.
func (s *Schedule) Run(fn Task) {
	s.j.task = fn
	registry.mu.Lock()
	if s.j.id == "" {
		s.j.id = fmt.Sprintf("task-%d", len(registry.jobs)+1)
	}
	registry.jobs = append(registry.jobs, s.j)
	registry.mu.Unlock()
}

// Start launches the dispatcher loop in the background. It ticks every
// second and fires whichever jobs are due; ctx cancellation stops it.
func Start(ctx context.Context) {
	go loop(ctx)
	logger.Info("schedule: scheduler started")
}

func loop(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("schedule: scheduler stopped")
			return
		case now := <-ticker.C:
			for _, j := range snapshot() {
				if j.due(now) {
					fire(j)
				}
			}
		}
	}
}

func snapshot() []*job {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	out := make([]*job, len(registry.jobs))
	copy(out, registry.jobs)
	return out
}

func fire(j *job) {
	j.mu.Lock()
	if j.noOverlap && j.inFlight {
		j.mu.Unlock()
		logger.Warn("schedule: skipping overlapping run", "id", j.id)
		return
	}
	j.inFlight = true
	j.lastRun = time.Now()
	j.mu.Unlock()

	go func() {
		defer func() {
			j.mu.Lock()
			j.inFlight = false
			j.mu.Unlock()
			if r := recover(); r != nil {
				logger.Error("schedule: job panicked", "id", j.id, "panic", r)
			}
			if j.afterHook != nil {
				j.afterHook()
			}
		}()

		if j.beforeHook != nil {
			j.beforeHook()
		}
		logger.Info("schedule: running job", "id", j.id)
		j.task()
	}()
}

// List describes the registered jobs, one "id (interval)" line each.
func List() []string {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	out := make([]string, 0, len(registry.jobs))
	for _, j := range registry.jobs {
		out = append(out, fmt.Sprintf("%s (%s)", j.id, j.interval))
	}
	return out
}
