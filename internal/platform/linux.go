//go:build linux

package platform

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"codeberg.org/mutker/sleepctl/internal/errors"
	"codeberg.org/mutker/sleepctl/internal/logger"
	"golang.org/x/sys/unix"
)

const (
	defaultSysfsRoot = "/sys"
	sysfsFilePerm    = 0o644
)

// Linux drives suspend through sysfs. The timer wakeup is the RTC
// wakealarm, sleep is a write to /sys/power/state (suspend-to-idle by
// default) and the clock is CLOCK_BOOTTIME, which keeps counting while
// suspended.
type Linux struct {
	wakealarm string
	state     string
	wakeupIRQ string
	sleepMode string
	logger    logger.Logger

	mu    sync.Mutex
	armed bool
	last  Wakeup
}

func NewLinux(opts Options) (*Linux, error) {
	errFactory := errors.New()

	root := opts.SysfsRoot
	if root == "" {
		root = defaultSysfsRoot
	}
	rtc := opts.RTCDevice
	if rtc == "" {
		rtc = "rtc0"
	}
	mode := opts.SleepState
	if mode == "" {
		mode = "freeze"
	}
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}

	l := &Linux{
		wakealarm: filepath.Join(root, "class", "rtc", rtc, "wakealarm"),
		state:     filepath.Join(root, "power", "state"),
		wakeupIRQ: filepath.Join(root, "power", "pm_wakeup_irq"),
		sleepMode: mode,
		logger:    log,
	}

	if _, err := os.Stat(l.wakealarm); err != nil {
		return nil, errFactory.Wrap(ErrUnsupported, err)
	}

	states, err := os.ReadFile(l.state)
	if err != nil {
		return nil, errFactory.Wrap(ErrUnsupported, err)
	}
	if !containsField(string(states), mode) {
		return nil, errFactory.WithData(ErrUnsupported, struct {
			Requested string
			Available string
		}{
			Requested: mode,
			Available: strings.TrimSpace(string(states)),
		})
	}

	log.Debug().
		Str("wakealarm", l.wakealarm).
		Str("sleep_state", mode).
		Msg("Linux sleep platform initialized")

	return l, nil
}

// ArmTimerWakeup programs the RTC alarm. The RTC has whole second
// resolution so the delay is rounded up.
func (l *Linux) ArmTimerWakeup(d time.Duration) error {
	errFactory := errors.New()

	if d <= 0 {
		return errFactory.WithData(errors.ErrInvalidArgument, d.String())
	}

	secs := int64((d + time.Second - 1) / time.Second)

	l.mu.Lock()
	defer l.mu.Unlock()

	// An alarm that is already set must be cleared before a new one is accepted.
	if err := os.WriteFile(l.wakealarm, []byte("0"), sysfsFilePerm); err != nil {
		return errFactory.Wrap(ErrSysfsAccess, err)
	}
	if err := os.WriteFile(l.wakealarm, []byte("+"+strconv.FormatInt(secs, 10)), sysfsFilePerm); err != nil {
		return errFactory.Wrap(ErrSysfsAccess, err)
	}
	l.armed = true

	l.logger.Debug().Int64("seconds", secs).Msg("RTC wakealarm armed")

	return nil
}

// EnterLightSleep blocks in the kernel until resume. Once the state write
// has started the context can no longer interrupt it.
func (l *Linux) EnterLightSleep(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	armed := l.armed
	l.mu.Unlock()
	if !armed {
		return errors.New().New(ErrNotArmed)
	}

	if err := os.WriteFile(l.state, []byte(l.sleepMode), sysfsFilePerm); err != nil {
		return errors.New().Wrap(ErrSysfsAccess, err)
	}

	return nil
}

func (l *Linux) Now() (int64, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_BOOTTIME, &ts); err != nil {
		return 0, errors.New().Wrap(errors.ErrClockRead, err)
	}

	return ts.Nano() / int64(time.Microsecond), nil
}

// WakeupCause reports a timer wakeup when the RTC alarm has been consumed.
// A still pending alarm means something else resumed the system.
func (l *Linux) WakeupCause() (Cause, error) {
	errFactory := errors.New()

	alarm, err := os.ReadFile(l.wakealarm)
	if err != nil {
		return CauseOther, errFactory.Wrap(ErrSysfsAccess, err)
	}

	w := Wakeup{Native: NativeUndefined}
	if strings.TrimSpace(string(alarm)) == "" {
		w.Native = NativeTimer
	}
	if irq, err := os.ReadFile(l.wakeupIRQ); err == nil {
		w.Detail = "irq " + strings.TrimSpace(string(irq))
	}

	l.mu.Lock()
	l.last = w
	if w.Native == NativeTimer {
		l.armed = false
	}
	l.mu.Unlock()

	return Translate(w.Native), nil
}

func (l *Linux) LastWakeup() Wakeup {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}

// Close clears any pending alarm.
func (l *Linux) Close() error {
	if err := os.WriteFile(l.wakealarm, []byte("0"), sysfsFilePerm); err != nil {
		return errors.New().Wrap(ErrSysfsAccess, err)
	}
	return nil
}

func containsField(s, field string) bool {
	for _, f := range strings.Fields(s) {
		if f == field {
			return true
		}
	}
	return false
}
