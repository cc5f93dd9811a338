// Package processtest provides an in-memory process.Spawner for tests.
package processtest

import (
	"context"
	"os"
	"slices"
	"sync"
	"syscall"

	"github.com/smazurov/ffmpeg-sidecar/internal/process"
)

// Spawner is a fake process.Spawner that hands out sequential PIDs.
type Spawner struct {
	mu           sync.Mutex
	nextPID      int
	err          error
	ignoreTerm   bool
	termExitCode int
	procs        []*Process
	calls        [][]string
}

// NewSpawner returns a fake spawner whose first process has PID 1000.
func NewSpawner() *Spawner {
	return &Spawner{nextPID: 1000}
}

// SetError makes subsequent Spawn calls fail with err (nil clears it).
func (s *Spawner) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// SetIgnoreTerm makes subsequently spawned processes ignore SIGTERM.
func (s *Spawner) SetIgnoreTerm(ignore bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ignoreTerm = ignore
}

// SetTermExitCode sets the exit code of processes that exit on SIGTERM.
func (s *Spawner) SetTermExitCode(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.termExitCode = code
}

// Spawn implements process.Spawner.
func (s *Spawner) Spawn(args []string) (process.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, slices.Clone(args))
	if s.err != nil {
		return nil, s.err
	}

	p := &Process{
		pid:          s.nextPID,
		ignoreTerm:   s.ignoreTerm,
		termExitCode: s.termExitCode,
		done:         make(chan struct{}),
	}
	s.nextPID++
	s.procs = append(s.procs, p)
	return p, nil
}

// Processes returns every process spawned so far, oldest first.
func (s *Spawner) Processes() []*Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.procs)
}

// Calls returns the argument vectors passed to Spawn, including failed ones.
func (s *Spawner) Calls() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// LiveCount returns the number of spawned processes still alive.
func (s *Spawner) LiveCount() int {
	n := 0
	for _, p := range s.Processes() {
		if p.Alive() {
			n++
		}
	}
	return n
}

// Process is a fake process.Process.
// SIGTERM and SIGINT end it with the configured exit code unless it ignores
// them; SIGKILL always ends it with -9.
type Process struct {
	pid          int
	ignoreTerm   bool
	termExitCode int

	mu       sync.Mutex
	done     chan struct{}
	exitCode int
	signals  []os.Signal
}

// PID implements process.Process.
func (p *Process) PID() int {
	return p.pid
}

// Alive implements process.Process.
func (p *Process) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Signal implements process.Process.
func (p *Process) Signal(sig os.Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.Alive() {
		return os.ErrProcessDone
	}
	p.signals = append(p.signals, sig)

	switch sig {
	case syscall.SIGTERM, syscall.SIGINT:
		if !p.ignoreTerm {
			p.exitLocked(p.termExitCode)
		}
	case syscall.SIGKILL:
		p.exitLocked(-int(syscall.SIGKILL))
	}
	return nil
}

// Wait implements process.Process.
func (p *Process) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ExitCode implements process.Process.
func (p *Process) ExitCode() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Alive() {
		return 0, false
	}
	return p.exitCode, true
}

// Exit simulates the process exiting on its own.
func (p *Process) Exit(code int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exitLocked(code)
}

// Signals returns the signals delivered so far.
func (p *Process) Signals() []os.Signal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.signals)
}

func (p *Process) exitLocked(code int) {
	if !p.Alive() {
		return
	}
	p.exitCode = code
	close(p.done)
}
