// Package pomodoro implements the focus timer: a work/break state machine
// whose work intervals are reported to Hooks when they start and complete.
package pomodoro

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

type Phase string

const (
	PhaseWork  Phase = "work"
	PhaseBreak Phase = "break"

	DefaultWork  = 25 * time.Minute
	DefaultBreak = 5 * time.Minute
)

var errInvalidDuration = errors.New("pomodoro: durations must be positive")

type Config struct {
	Work  time.Duration
	Break time.Duration
}

func (c Config) withDefaults() Config {
	if c.Work == 0 {
		c.Work = DefaultWork
	}
	if c.Break == 0 {
		c.Break = DefaultBreak
	}
	return c
}

// Interval describes one work interval.
type Interval struct {
	Seq       int           // 1-based, per Timer
	StartedAt time.Time     // first Start of the interval
	EndedAt   time.Time     // set on completion, not before StartedAt+Planned
	Planned   time.Duration // configured work length
	Breaks    int           // pauses taken during the interval
}

// Hooks receives the side effects of work intervals. Calls are serialized
// in transition order: WorkCompleted for an interval always follows its WorkStarted.
type Hooks interface {
	WorkStarted(ctx context.Context, iv Interval) error
	WorkCompleted(ctx context.Context, iv Interval) error
}

// Status is a snapshot of the Timer.
type Status struct {
	Phase     Phase         `json:"phase"`
	Running   bool          `json:"running"`
	Remaining time.Duration `json:"remaining"`
	Completed int           `json:"completed"`
	Breaks    int           `json:"breaks"`
	// Active is true once the current work interval has been started.
	Active bool `json:"active"`
}

// Timer is the four-state machine (work|break × running|paused) plus the
// completed work interval counter. It is safe for concurrent use.
type Timer struct {
	conf  Config
	hooks Hooks
	now   func() time.Time

	mu        sync.Mutex
	phase     Phase
	running   bool
	remaining time.Duration
	completed int
	active    bool // current work interval has started
	interval  Interval

	hookMu sync.Mutex // serializes hook calls
}

func NewTimer(conf Config, hooks Hooks) (*Timer, error) {
	conf = conf.withDefaults()
	if conf.Work < 0 || conf.Break < 0 {
		return nil, errInvalidDuration
	}
	if hooks == nil {
		hooks = NopHooks{}
	}
	return &Timer{
		conf:      conf,
		hooks:     hooks,
		now:       func() time.Time { return time.Now().UTC() },
		phase:     PhaseWork,
		remaining: conf.Work,
	}, nil
}

func (t *Timer) Config() Config { return t.conf }

func (t *Timer) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status()
}

func (t *Timer) status() Status {
	st := Status{
		Phase:     t.phase,
		Running:   t.running,
		Remaining: t.remaining,
		Completed: t.completed,
		Active:    t.active,
	}
	if t.phase == PhaseWork {
		st.Breaks = t.interval.Breaks
	}
	return st
}

type effect struct {
	completed bool // WorkCompleted, else WorkStarted
	iv        Interval
}

// fire runs effects after the state lock is released. It must be called with
// t.mu held: hookMu is taken before unlocking so effects keep transition order.
func (t *Timer) fire(ctx context.Context, effects []effect) error {
	if len(effects) == 0 {
		t.mu.Unlock()
		return nil
	}
	t.hookMu.Lock()
	t.mu.Unlock()
	defer t.hookMu.Unlock()

	var firstErr error
	for _, eff := range effects {
		var err error
		if eff.completed {
			err = errors.Wrapf(t.hooks.WorkCompleted(ctx, eff.iv), "completing interval %d", eff.iv.Seq)
		} else {
			err = errors.Wrapf(t.hooks.WorkStarted(ctx, eff.iv), "starting interval %d", eff.iv.Seq)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Start starts or resumes the current phase. Starting a fresh work interval
// fires Hooks.WorkStarted. Starting a running timer does nothing.
func (t *Timer) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return nil
	}
	t.running = true

	var effects []effect
	if t.phase == PhaseWork && !t.active {
		t.active = true
		t.interval = Interval{
			Seq:       t.completed + 1,
			StartedAt: t.now(),
			Planned:   t.conf.Work,
		}
		effects = append(effects, effect{iv: t.interval})
	}
	return t.fire(ctx, effects)
}

// Pause stops the clock; pausing during work counts as a break taken.
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.running = false
	if t.phase == PhaseWork {
		t.interval.Breaks++
	}
}

// Reset stops the timer and returns to a fresh, paused work interval.
// The interval in progress is abandoned without completion side effects.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.toWork()
}

// SkipToBreak abandons the current work interval and switches to a paused, full-length break.
func (t *Timer) SkipToBreak() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.toBreak(false)
}

// SkipToWork switches to a fresh, paused, full-length work interval.
func (t *Timer) SkipToWork() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.toWork()
}

func (t *Timer) toWork() {
	t.phase = PhaseWork
	t.running = false
	t.remaining = t.conf.Work
	t.active = false
	t.interval = Interval{}
}

func (t *Timer) toBreak(running bool) {
	t.phase = PhaseBreak
	t.running = running
	t.remaining = t.conf.Break
	t.active = false
	t.interval = Interval{}
}

// Advance lets d elapse on a running timer. An expired work interval fires
// Hooks.WorkCompleted, increments the counter and starts the break; an
// expired break leaves a fresh work interval paused, awaiting Start.
func (t *Timer) Advance(ctx context.Context, d time.Duration) error {
	t.mu.Lock()
	var effects []effect
	for t.running && d > 0 {
		if d < t.remaining {
			t.remaining -= d
			break
		}
		d -= t.remaining

		switch t.phase {
		case PhaseWork:
			iv := t.interval
			// never before the planned end, even when time is simulated
			iv.EndedAt = t.now()
			if planned := iv.StartedAt.Add(iv.Planned); iv.EndedAt.Before(planned) {
				iv.EndedAt = planned
			}
			t.completed++
			effects = append(effects, effect{completed: true, iv: iv})
			t.toBreak(true)
		case PhaseBreak:
			t.toWork()
		}
	}
	return t.fire(ctx, effects)
}

// NopHooks ignores all side effects.
type NopHooks struct{}

func (NopHooks) WorkStarted(context.Context, Interval) error   { return nil }
func (NopHooks) WorkCompleted(context.Context, Interval) error { return nil }
