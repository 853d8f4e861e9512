package sched

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Job is one reschedulable repeating timer driven by a standard 5-field cron
// expression. UpdateCronTime replaces schedule and callback atomically: once
// it returns, the old schedule can no longer fire.
type Job struct {
	mu      sync.Mutex
	loc     *time.Location
	runner  *cron.Cron
	spec    string
	fn      func()
	started bool
	gen     uint64 // bumped on every reschedule; stale runners check it and bail
}

func NewJob(spec string, fn func(), loc *time.Location) (*Job, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return &Job{loc: loc, spec: spec, fn: fn}, nil
}

// Start arms the timer. Calling Start on a running job is a no-op; the job
// never double-fires.
func (j *Job) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.started {
		return
	}
	j.startLocked()
}

func (j *Job) startLocked() {
	runner := cron.New(cron.WithLocation(j.loc))
	gen := j.gen
	// Spec was validated in NewJob / UpdateCronTime.
	if _, err := runner.AddFunc(j.spec, func() { j.run(gen) }); err != nil {
		log.Error().Err(err).Str("spec", j.spec).Msg("cron job rejected expression")
		return
	}
	runner.Start()
	j.runner = runner
	j.started = true
}

// UpdateCronTime swaps in a new schedule and callback. A running job keeps
// running on the new schedule; a stopped one stays stopped until Start.
func (j *Job) UpdateCronTime(spec string, fn func()) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.runner != nil {
		j.runner.Stop()
		j.runner = nil
	}
	j.gen++
	j.spec = spec
	j.fn = fn
	if j.started {
		j.started = false
		j.startLocked()
	}
	return nil
}

func (j *Job) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.runner != nil {
		j.runner.Stop()
		j.runner = nil
	}
	j.gen++
	j.started = false
}

// run fires the current callback. A panicking callback must not take the
// process or the next tick down with it. A tick raced against a reschedule
// carries the old generation and is dropped.
func (j *Job) run(gen uint64) {
	j.mu.Lock()
	if gen != j.gen {
		j.mu.Unlock()
		return
	}
	fn := j.fn
	j.mu.Unlock()
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("scheduled job panicked")
		}
	}()
	fn()
}

// Registry owns one Job per chat. All timers run concurrently and
// independently; one chat's reschedule never touches another's.
type Registry struct {
	mu   sync.Mutex
	loc  *time.Location
	jobs map[int64]*Job
}

func NewRegistry(loc *time.Location) *Registry {
	return &Registry{loc: loc, jobs: map[int64]*Job{}}
}

// Upsert creates or reschedules the chat's job and ensures it is running.
func (r *Registry) Upsert(chatID int64, spec string, fn func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if j, ok := r.jobs[chatID]; ok {
		if err := j.UpdateCronTime(spec, fn); err != nil {
			return err
		}
		j.Start()
		return nil
	}

	j, err := NewJob(spec, fn, r.loc)
	if err != nil {
		return err
	}
	j.Start()
	r.jobs[chatID] = j
	return nil
}

func (r *Registry) Cancel(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[chatID]; ok {
		j.Stop()
		delete(r.jobs, chatID)
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// StopAll cancels every job, for shutdown.
func (r *Registry) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, j := range r.jobs {
		j.Stop()
		delete(r.jobs, id)
	}
}
