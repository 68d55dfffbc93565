// Package channel implements the duplex byte channel between the host
// and the GUI process: two named pipes inside a session-private
// directory, carrying newline-delimited frames.
package channel

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Fixed pipe names inside the channel directory. The GUI-side bridge
// opens OutboundName for reading and InboundName for writing.
const (
	OutboundName = "host_to_nw"
	InboundName  = "nw_to_host"
)

// ErrClosed is returned by WriteFrame after the channel is closed.
var ErrClosed = errors.New("channel is closed")

// InitError wraps a failure to set up the pipes, so callers can tell a
// channel problem apart from a failure to launch the GUI executable.
type InitError struct {
	Err error
}

func (e *InitError) Error() string { return fmt.Sprintf("initializing channel: %s", e.Err) }
func (e *InitError) Unwrap() error { return e.Err }

// Channel is the open pipe pair. WriteFrame and ReadLine may be used
// from different goroutines; each direction is owned by one side.
type Channel struct {
	log *zap.SugaredLogger

	outbound *os.File
	inbound  *os.File
	reader   *bufio.Reader

	mut    sync.Mutex
	closed bool
}

// Open creates both pipes in dir and opens the host ends. Both pipes
// exist on disk before either end is opened: the GUI side polls the
// directory for them and then blocks opening its ends, so the open
// order here must mirror the GUI side's (outbound first, then inbound)
// or both processes would wait on opposite pipes forever.
func Open(dir string, log *zap.SugaredLogger) (*Channel, error) {
	log.Debugf("creating pipes in channel directory: %s", dir)

	outPath := filepath.Join(dir, OutboundName)
	inPath := filepath.Join(dir, InboundName)
	for _, p := range []string{outPath, inPath} {
		if err := unix.Mkfifo(p, 0o600); err != nil {
			return nil, &InitError{Err: fmt.Errorf("creating pipe %s: %w", p, err)}
		}
	}

	c := &Channel{log: log}

	// O_RDWR so this open never blocks waiting on the GUI's read end.
	out, err := os.OpenFile(outPath, os.O_RDWR, 0)
	if err != nil {
		return nil, &InitError{Err: fmt.Errorf("opening outbound pipe: %w", err)}
	}
	c.outbound = out

	// Blocks until the GUI opens its write end. This is the only
	// readiness handshake between the two processes.
	in, err := os.OpenFile(inPath, os.O_RDONLY, 0)
	if err != nil {
		c.Close()
		return nil, &InitError{Err: fmt.Errorf("opening inbound pipe: %w", err)}
	}
	c.inbound = in
	c.reader = bufio.NewReader(in)

	return c, nil
}

// WriteFrame writes one encoded frame to the outbound pipe. The pipe
// is unbuffered on the host side, so the frame is flushed by the write
// itself.
func (c *Channel) WriteFrame(frame []byte) error {
	c.mut.Lock()
	defer c.mut.Unlock()
	if c.closed {
		return ErrClosed
	}
	if _, err := c.outbound.Write(frame); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// ReadLine blocks until one newline-terminated line arrives, or until
// the GUI closes its write end (io.EOF). Closing the channel unblocks
// a pending ReadLine with an error.
func (c *Channel) ReadLine() ([]byte, error) {
	return c.reader.ReadBytes('\n')
}

// Close closes both pipe ends. Idempotent, and tolerates ends that
// never finished opening.
func (c *Channel) Close() error {
	c.mut.Lock()
	defer c.mut.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	var firstErr error
	if c.outbound != nil {
		if err := c.outbound.Close(); err != nil {
			firstErr = fmt.Errorf("closing outbound pipe: %w", err)
		}
	}
	if c.inbound != nil {
		if err := c.inbound.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing inbound pipe: %w", err)
		}
	}
	return firstErr
}
