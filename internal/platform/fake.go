package platform

import (
	"context"
	"sync"
	"time"
)

// Fake is a deterministic platform. Clock readings and wakeup causes are
// taken from the scripted slices first; once those run out the virtual
// clock advances by the armed delay plus Jitter on each sleep and the cause
// is timer.
type Fake struct {
	Readings []int64
	Causes   []NativeCause
	Jitter   time.Duration

	ArmErr   error
	SleepErr error
	ClockErr error
	CauseErr error

	// OnSleep runs at the start of every sleep with the 1-based sleep count.
	OnSleep func(n int)

	mu     sync.Mutex
	clock  int64
	armed  time.Duration
	last   Wakeup
	arms   []time.Duration
	sleeps int
}

func (f *Fake) ArmTimerWakeup(d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ArmErr != nil {
		return f.ArmErr
	}
	f.armed = d
	f.arms = append(f.arms, d)

	return nil
}

func (f *Fake) EnterLightSleep(ctx context.Context) error {
	f.mu.Lock()
	f.sleeps++
	n := f.sleeps
	hook := f.OnSleep
	f.mu.Unlock()

	if hook != nil {
		hook(n)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SleepErr != nil {
		return f.SleepErr
	}

	f.clock += (f.armed + f.Jitter).Microseconds()

	native := NativeTimer
	if len(f.Causes) > 0 {
		native = f.Causes[0]
		f.Causes = f.Causes[1:]
	}
	f.last = Wakeup{Native: native}

	return nil
}

func (f *Fake) Now() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ClockErr != nil {
		return 0, f.ClockErr
	}

	if len(f.Readings) > 0 {
		r := f.Readings[0]
		f.Readings = f.Readings[1:]
		return r, nil
	}

	return f.clock, nil
}

func (f *Fake) WakeupCause() (Cause, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.CauseErr != nil {
		return CauseOther, f.CauseErr
	}

	return Translate(f.last.Native), nil
}

func (f *Fake) LastWakeup() Wakeup {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

// Arms returns every delay passed to ArmTimerWakeup.
func (f *Fake) Arms() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()

	arms := make([]time.Duration, len(f.arms))
	copy(arms, f.arms)

	return arms
}

// Sleeps returns how many times EnterLightSleep was called.
func (f *Fake) Sleeps() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sleeps
}
