package platform

import (
	"codeberg.org/mutker/sleepctl/internal/errors"
	"codeberg.org/mutker/sleepctl/internal/logger"
)

const (
	NameSim   = "sim"
	NameLinux = "linux"
)

// Options selects and tunes a platform backend.
type Options struct {
	Name       string
	EarlyWake  float64
	RTCDevice  string
	SleepState string
	// SysfsRoot prefixes every sysfs path; empty means "/sys".
	SysfsRoot string
	Logger    logger.Logger
}

// New returns the backend named in opts.
func New(opts Options) (Platform, error) {
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}

	switch opts.Name {
	case "", NameSim:
		return NewSim(opts.EarlyWake, nil), nil
	case NameLinux:
		l, err := NewLinux(opts)
		if err != nil {
			return nil, err
		}
		return l, nil
	default:
		return nil, errors.New().WithData(ErrUnknownPlatform, opts.Name)
	}
}
