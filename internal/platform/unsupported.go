//go:build !linux

package platform

import (
	"context"
	"time"

	"codeberg.org/mutker/sleepctl/internal/errors"
)

// Linux is unavailable on this operating system.
type Linux struct{}

func NewLinux(Options) (*Linux, error) {
	return nil, errors.New().New(ErrUnsupported)
}

func (*Linux) ArmTimerWakeup(time.Duration) error {
	return errors.New().New(ErrUnsupported)
}

func (*Linux) EnterLightSleep(context.Context) error {
	return errors.New().New(ErrUnsupported)
}

func (*Linux) Now() (int64, error) {
	return 0, errors.New().New(ErrUnsupported)
}

func (*Linux) WakeupCause() (Cause, error) {
	return CauseOther, errors.New().New(ErrUnsupported)
}
