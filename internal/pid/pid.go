package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/mutker/sleepctl/internal/errors"
)

const (
	pidFile = "sleepctl.pid"
)

// Path returns the PID file location inside dir.
func Path(dir string) string {
	return filepath.Join(dir, pidFile)
}

// Write writes the current process ID to the PID file in dir. A PID file
// owned by a live process means another instance holds the sleep platform.
func Write(dir string) error {
	errFactory := errors.New()
	path := Path(dir)

	if data, err := os.ReadFile(path); err == nil {
		if other, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil && other != os.Getpid() {
			process, err := os.FindProcess(other)
			if err == nil && process.Signal(syscall.Signal(0)) == nil {
				return errFactory.WithData(errors.ErrAlreadyRunning, other)
			}
		}
	} else if !os.IsNotExist(err) {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Remove removes the PID file.
func Remove(dir string) error {
	if err := os.Remove(Path(dir)); err != nil && !os.IsNotExist(err) {
		return errors.New().Wrap(errors.ErrInternal, err)
	}

	return nil
}
