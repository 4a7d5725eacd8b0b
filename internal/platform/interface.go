package platform

import (
	"context"
	"time"
)

// Platform is the set of power-management operations the sleep loop
// consumes. Implementations are not required to be safe for concurrent use.
type Platform interface {
	// ArmTimerWakeup registers the one-shot timer wakeup source, replacing
	// any previously armed delay.
	ArmTimerWakeup(d time.Duration) error

	// EnterLightSleep suspends execution until a wakeup source fires.
	EnterLightSleep(ctx context.Context) error

	// Now returns a monotonic timestamp in microseconds.
	Now() (int64, error)

	// WakeupCause classifies the most recent resume.
	WakeupCause() (Cause, error)
}

// NativeReporter is implemented by platforms that keep the platform-native
// detail of the last wakeup.
type NativeReporter interface {
	LastWakeup() Wakeup
}

// Closer is implemented by platforms holding resources.
type Closer interface {
	Close() error
}

// Cause is the wakeup classification seen by the application.
type Cause int

const (
	CauseOther Cause = iota
	CauseTimer
)

func (c Cause) String() string {
	if c == CauseTimer {
		return "timer"
	}
	return "other"
}

// NativeCause mirrors the wakeup sources a light-sleep capable SoC reports.
type NativeCause int

const (
	NativeUndefined NativeCause = iota
	NativeExt0
	NativeExt1
	NativeTimer
	NativeTouchpad
	NativeULP
	NativeGPIO
	NativeUART
	NativeWiFi
	NativeCOCPU
	NativeCOCPUTrap
	NativeBT
)

var nativeNames = [...]string{
	NativeUndefined: "undefined",
	NativeExt0:      "ext0",
	NativeExt1:      "ext1",
	NativeTimer:     "timer",
	NativeTouchpad:  "touchpad",
	NativeULP:       "ulp",
	NativeGPIO:      "gpio",
	NativeUART:      "uart",
	NativeWiFi:      "wifi",
	NativeCOCPU:     "cocpu",
	NativeCOCPUTrap: "cocpu_trap",
	NativeBT:        "bt",
}

func (n NativeCause) String() string {
	if n < 0 || int(n) >= len(nativeNames) {
		return "undefined"
	}
	return nativeNames[n]
}

// Translate collapses a native cause into the application variant.
func Translate(n NativeCause) Cause {
	if n == NativeTimer {
		return CauseTimer
	}
	return CauseOther
}

// Wakeup is the platform-native record of one resume.
type Wakeup struct {
	Native NativeCause
	Detail string
}
