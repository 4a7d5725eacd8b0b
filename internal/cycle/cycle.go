// Package cycle runs the light sleep loop: arm the timer wakeup, sleep,
// measure how long the platform was suspended and report why it resumed.
package cycle

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/mutker/sleepctl/internal/errors"
	"codeberg.org/mutker/sleepctl/internal/logger"
	"codeberg.org/mutker/sleepctl/internal/metrics"
	"codeberg.org/mutker/sleepctl/internal/platform"
)

// DefaultWakeup is the timer wakeup armed before every sleep.
const DefaultWakeup = 3 * time.Second

const enteringLine = "Entering light sleep"

// Printer receives the console lines.
type Printer interface {
	Println(line string) error
}

// Recorder receives every completed cycle.
type Recorder interface {
	Record(ctx context.Context, record *metrics.CycleRecord) error
}

// Result is the measurement of one sleep cycle.
type Result struct {
	Iteration int
	Before    int64 // µs
	After     int64 // µs
	Cause     platform.Cause
	Wakeup    platform.Wakeup
}

// WakeMs is the resume instant in milliseconds.
func (r Result) WakeMs() int64 {
	return r.After / 1000
}

// SleptMs is the time spent suspended in milliseconds.
func (r Result) SleptMs() int64 {
	return (r.After - r.Before) / 1000
}

// Line renders the console line reporting the wakeup.
func (r Result) Line() string {
	return fmt.Sprintf("Returned from light sleep, reason: %s, t=%d ms, slept for %d ms",
		r.Cause, r.WakeMs(), r.SleptMs())
}

// Stats summarizes the cycles a Runner completed.
type Stats struct {
	Cycles       int
	TimerWakes   int
	OtherWakes   int
	TotalSleptMs int64
}

// Config tunes the sleep loop.
type Config struct {
	Wakeup time.Duration
	// MaxCycles stops the loop after that many cycles; 0 runs until the
	// context is cancelled.
	MaxCycles int
}

// Runner drives the sleep cycle on one platform.
type Runner struct {
	platform platform.Platform
	console  Printer
	recorder Recorder
	logger   logger.Logger
	cfg      Config
	stats    Stats
}

// NewRunner builds a Runner. A nil recorder disables cycle recording.
func NewRunner(p platform.Platform, console Printer, recorder Recorder, log logger.Logger, cfg Config) *Runner {
	if cfg.Wakeup <= 0 {
		cfg.Wakeup = DefaultWakeup
	}
	if log == nil {
		log = logger.Default()
	}

	return &Runner{
		platform: p,
		console:  console,
		recorder: recorder,
		logger:   log,
		cfg:      cfg,
	}
}

// Run executes sleep cycles until ctx is cancelled or MaxCycles is reached.
// Cancellation is a clean stop and returns nil. Any platform failure ends
// the loop with a coded error.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info().
		Dur("wakeup", r.cfg.Wakeup).
		Int("max_cycles", r.cfg.MaxCycles).
		Msg("Starting light sleep cycle")

	for i := 1; r.cfg.MaxCycles == 0 || i <= r.cfg.MaxCycles; i++ {
		if ctx.Err() != nil {
			return nil
		}

		res, err := r.Step(ctx, i)
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return nil
			}
			return err
		}

		r.record(ctx, res)
	}

	return nil
}

// Step runs a single cycle.
func (r *Runner) Step(ctx context.Context, iteration int) (Result, error) {
	errFactory := errors.New()
	res := Result{Iteration: iteration}

	if err := r.platform.ArmTimerWakeup(r.cfg.Wakeup); err != nil {
		return res, errFactory.Wrap(errors.ErrWakeupConfig, err)
	}

	if err := r.console.Println(enteringLine); err != nil {
		return res, err
	}

	before, err := r.platform.Now()
	if err != nil {
		return res, errFactory.Wrap(errors.ErrClockRead, err)
	}

	if err := r.platform.EnterLightSleep(ctx); err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return res, err
		}
		return res, errFactory.Wrap(errors.ErrSleepEntry, err)
	}

	after, err := r.platform.Now()
	if err != nil {
		return res, errFactory.Wrap(errors.ErrClockRead, err)
	}
	if after < before {
		return res, errFactory.WithData(errors.ErrClockRead, struct {
			Before int64
			After  int64
		}{
			Before: before,
			After:  after,
		}).WithMessage("monotonic clock went backwards")
	}

	cause, err := r.platform.WakeupCause()
	if err != nil {
		return res, errFactory.Wrap(errors.ErrUnknownWakeupCause, err)
	}

	res.Before = before
	res.After = after
	res.Cause = cause
	if nr, ok := r.platform.(platform.NativeReporter); ok {
		res.Wakeup = nr.LastWakeup()
	} else if cause == platform.CauseTimer {
		res.Wakeup.Native = platform.NativeTimer
	}

	if err := r.console.Println(res.Line()); err != nil {
		return res, err
	}

	return res, nil
}

// Stats returns the counters accumulated by Run.
func (r *Runner) Stats() Stats {
	return r.stats
}

func (r *Runner) record(ctx context.Context, res Result) {
	r.stats.Cycles++
	r.stats.TotalSleptMs += res.SleptMs()
	if res.Cause == platform.CauseTimer {
		r.stats.TimerWakes++
	} else {
		r.stats.OtherWakes++
	}

	r.logger.Debug().
		Int("iteration", res.Iteration).
		Str("cause", res.Cause.String()).
		Str("native_cause", res.Wakeup.Native.String()).
		Int64("t_ms", res.WakeMs()).
		Int64("slept_ms", res.SleptMs()).
		Msg("Sleep cycle complete")

	if res.Cause == platform.CauseTimer && res.After-res.Before < r.cfg.Wakeup.Microseconds() {
		r.logger.Warn().
			Int64("slept_ms", res.SleptMs()).
			Dur("wakeup", r.cfg.Wakeup).
			Msg("Timer wakeup fired before the armed delay")
	}

	if r.recorder == nil {
		return
	}

	rec := &metrics.CycleRecord{
		RecordedAt:  time.Now(),
		Iteration:   res.Iteration,
		WakeupUS:    r.cfg.Wakeup.Microseconds(),
		BeforeUS:    res.Before,
		AfterUS:     res.After,
		Cause:       res.Cause.String(),
		NativeCause: res.Wakeup.Native.String(),
		Detail:      res.Wakeup.Detail,
	}
	// The cycle completed, so it is stored even when shutdown has begun.
	if err := r.recorder.Record(context.WithoutCancel(ctx), rec); err != nil {
		r.logger.Warn().Err(err).Int("iteration", res.Iteration).Msg("Failed to record sleep cycle")
	}
}
