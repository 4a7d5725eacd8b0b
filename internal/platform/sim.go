package platform

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"codeberg.org/mutker/sleepctl/internal/errors"
)

// Sim runs the sleep cycle on the host: sleeping is waiting on a timer and
// the clock is the process monotonic clock. With a non-zero early wake
// probability a cycle may be cut short by a simulated GPIO wakeup.
type Sim struct {
	earlyWake float64
	start     time.Time

	mu    sync.Mutex
	rng   *rand.Rand
	armed time.Duration
	last  Wakeup
}

// NewSim returns a simulated platform. A nil rng is seeded from the clock.
func NewSim(earlyWake float64, rng *rand.Rand) *Sim {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // simulation only
	}

	return &Sim{
		earlyWake: earlyWake,
		start:     time.Now(),
		rng:       rng,
	}
}

func (s *Sim) ArmTimerWakeup(d time.Duration) error {
	if d <= 0 {
		return errors.New().WithData(errors.ErrInvalidArgument, d.String())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed = d

	return nil
}

func (s *Sim) EnterLightSleep(ctx context.Context) error {
	s.mu.Lock()
	armed := s.armed
	early := armed > 0 && s.earlyWake > 0 && s.rng.Float64() < s.earlyWake
	var earlyAfter time.Duration
	if early {
		earlyAfter = time.Duration(s.rng.Int63n(int64(armed)))
	}
	s.mu.Unlock()

	if armed == 0 {
		return errors.New().New(ErrNotArmed)
	}

	wait := armed
	native := NativeTimer
	if early {
		wait = earlyAfter
		native = NativeGPIO
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	s.mu.Lock()
	s.last = Wakeup{Native: native}
	if native != NativeTimer {
		s.last.Detail = "simulated early wakeup"
	}
	s.mu.Unlock()

	return nil
}

func (s *Sim) Now() (int64, error) {
	return time.Since(s.start).Microseconds(), nil
}

func (s *Sim) WakeupCause() (Cause, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Translate(s.last.Native), nil
}

func (s *Sim) LastWakeup() Wakeup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
