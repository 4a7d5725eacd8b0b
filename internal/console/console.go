// Package console writes the sleep loop's console lines. Stdout is the
// primary sink; a serial port can mirror it for boards that are watched
// over UART.
package console

import (
	"io"
	"os"
	"sync"

	"codeberg.org/mutker/sleepctl/internal/errors"
	"codeberg.org/mutker/sleepctl/internal/logger"
	"go.bug.st/serial"
)

type Console struct {
	out    io.Writer
	mirror io.WriteCloser
	logger logger.Logger
	mu     sync.Mutex
}

// New returns a console writing to out. A nil out means stdout.
func New(out io.Writer, log logger.Logger) *Console {
	if out == nil {
		out = os.Stdout
	}
	if log == nil {
		log = logger.Default()
	}

	return &Console{out: out, logger: log}
}

// OpenSerial opens port at baud and mirrors every line to it.
func (c *Console) OpenSerial(port string, baud int) error {
	p, err := serial.Open(port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return errors.New().Wrap(errors.ErrInitFailed, err)
	}

	c.logger.Info().Str("port", port).Int("baud", baud).Msg("Mirroring console to serial port")
	c.SetMirror(p)

	return nil
}

// SetMirror replaces the secondary sink.
func (c *Console) SetMirror(w io.WriteCloser) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mirror = w
}

// Println writes line followed by a newline. Mirror failures disable the
// mirror and are not returned.
func (c *Console) Println(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := []byte(line + "\n")
	if _, err := c.out.Write(b); err != nil {
		return errors.New().Wrap(errors.ErrConsole, err)
	}

	if c.mirror != nil {
		if _, err := c.mirror.Write(b); err != nil {
			c.logger.Warn().Err(err).Msg("Serial mirror failed, disabling it")
			c.mirror.Close()
			c.mirror = nil
		}
	}

	return nil
}

func (c *Console) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mirror == nil {
		return nil
	}
	err := c.mirror.Close()
	c.mirror = nil
	if err != nil {
		return errors.New().Wrap(errors.ErrShutdownFailed, err)
	}

	return nil
}
