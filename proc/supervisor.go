// Package proc launches and supervises the external GUI process.
package proc

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// SpawnError reports that the GUI executable could not be started,
// typically because it is not installed or not on PATH.
type SpawnError struct {
	Executable string
	Err        error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("unable to run executable %q: %s", e.Executable, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Proc is a handle to the spawned GUI process.
type Proc struct {
	log *zap.SugaredLogger
	cmd *exec.Cmd

	exited chan struct{}

	mut     sync.Mutex
	waitErr error
}

// Spawn launches the executable with the app root and the channel
// directory as its two arguments, inheriting the host's stdout and
// stderr for the GUI's own diagnostics.
func Spawn(executable, appRoot, channelDir string, log *zap.SugaredLogger) (*Proc, error) {
	cmd := exec.Command(executable, appRoot, channelDir)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	log.Debugf("running executable %s with app root %s", executable, appRoot)
	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Executable: executable, Err: err}
	}

	p := &Proc{
		log:    log,
		cmd:    cmd,
		exited: make(chan struct{}),
	}
	go p.reap()
	return p, nil
}

// reap waits on the child exactly once and records the result.
func (p *Proc) reap() {
	err := p.cmd.Wait()
	p.mut.Lock()
	p.waitErr = err
	p.mut.Unlock()
	close(p.exited)
	p.log.Debugf("process %d exited", p.cmd.Process.Pid)
}

// Pid returns the OS process ID of the child.
func (p *Proc) Pid() int { return p.cmd.Process.Pid }

// Alive reports whether the process has not yet exited. Non-blocking.
func (p *Proc) Alive() bool {
	select {
	case <-p.exited:
		return false
	default:
		return true
	}
}

// Exited is closed once the process has exited.
func (p *Proc) Exited() <-chan struct{} { return p.exited }

// Wait blocks until the process exits. A nonzero exit status is normal
// for an interrupted GUI and is not reported as an error.
func (p *Proc) Wait() error {
	<-p.exited
	p.mut.Lock()
	defer p.mut.Unlock()
	var exitErr *exec.ExitError
	if errors.As(p.waitErr, &exitErr) {
		return nil
	}
	return p.waitErr
}

// Terminate asks the process to exit with an interrupt, waits up to
// grace, and escalates to a kill if it does not comply. Idempotent,
// and tolerates a process that already exited.
func (p *Proc) Terminate(grace time.Duration) error {
	if !p.Alive() {
		return nil
	}

	// a signal error means the process is already gone
	if err := p.cmd.Process.Signal(syscall.SIGINT); err != nil {
		return nil
	}

	select {
	case <-p.exited:
		return nil
	case <-time.After(grace):
	}

	p.log.Debugf("process %d ignored interrupt, killing", p.Pid())
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("killing process: %w", err)
	}
	<-p.exited
	return nil
}
