package pomodoro

import (
	"context"
	"time"
)

const DefaultTick = time.Second

// Runner drives a Timer from a ticker until its context is done.
type Runner struct {
	Timer *Timer
	Tick  time.Duration

	// OnTick receives the status after every tick. optional
	OnTick func(Status)
	// OnError receives hook errors; the timer keeps running. optional
	OnError func(error)

	newTicker func(d time.Duration) (<-chan time.Time, func()) // mockable
}

func NewRunner(timer *Timer) *Runner {
	return &Runner{Timer: timer, Tick: DefaultTick}
}

// Run advances the timer by the wall time elapsed between ticks.
// It returns ctx.Err() once ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	tick := r.Tick
	if tick <= 0 {
		tick = DefaultTick
	}
	newTicker := r.newTicker
	if newTicker == nil {
		newTicker = func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		}
	}
	ticks, stop := newTicker(tick)
	defer stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticks:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			elapsed := now.Sub(last)
			last = now
			if err := r.Timer.Advance(ctx, elapsed); err != nil && r.OnError != nil {
				r.OnError(err)
			}
			if r.OnTick != nil {
				r.OnTick(r.Timer.Status())
			}
		}
	}
}
