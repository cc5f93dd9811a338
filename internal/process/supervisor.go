package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/smazurov/ffmpeg-sidecar/internal/events"
	"github.com/smazurov/ffmpeg-sidecar/internal/ffmpeg"
)

// Termination reasons reported in ProcessStoppedEvent.
const (
	reasonStop     = "stop"
	reasonRestart  = "restart"
	reasonShutdown = "shutdown"
)

// handle records the current or most recently managed process.
type handle struct {
	proc      Process
	pid       int
	startedAt time.Time
	state     atomic.Value // State
}

func newHandle(proc Process) *handle {
	h := &handle{
		proc:      proc,
		pid:       proc.PID(),
		startedAt: time.Now(),
	}
	h.state.Store(StateRunning)
	return h
}

func (h *handle) setState(s State) {
	h.state.Store(s)
}

// terminalState returns the recorded state of a terminated process.
// A process that exited on its own is still recorded as running.
func (h *handle) terminalState() State {
	s, _ := h.state.Load().(State)
	if s == StateRunning {
		return StateStopped
	}
	return s
}

// Supervisor owns at most one live subprocess.
//
// Start, Stop and Shutdown are serialized by a mutex. Status reads the
// handle through an atomic pointer and never blocks on a transition.
type Supervisor struct {
	opts   Options
	logger *slog.Logger
	bus    *events.Bus

	mu     sync.Mutex
	handle atomic.Pointer[handle]
	closed bool // set by Shutdown, guarded by mu

	shutdownOnce sync.Once
}

// NewSupervisor creates a supervisor. Panics if opts.Spawner is nil.
func NewSupervisor(opts *Options) *Supervisor {
	if opts == nil || opts.Spawner == nil {
		panic("Options with Spawner is required")
	}

	o := *opts
	if o.GracePeriod <= 0 {
		o.GracePeriod = DefaultGracePeriod
	}
	if o.KillTimeout <= 0 {
		o.KillTimeout = DefaultKillTimeout
	}

	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Supervisor{
		opts:   o,
		logger: logger,
		bus:    o.EventBus,
	}
}

// Start spawns a new process, terminating a live predecessor first.
// If the predecessor cannot be terminated nothing is spawned and the
// existing handle is kept. A spawn failure wraps ErrSpawn and installs
// no new handle.
func (s *Supervisor) Start() (*StartResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrShuttingDown
	}

	var replaced int
	if prev := s.handle.Load(); prev != nil && prev.proc.Alive() {
		s.logger.Info("Stopping existing process", "pid", prev.pid)
		if _, err := s.terminate(prev, reasonRestart); err != nil {
			s.logger.Error("Failed to terminate existing process", "pid", prev.pid, "error", err)
			return nil, fmt.Errorf("terminate pid %d: %w", prev.pid, err)
		}
		replaced = prev.pid
	}

	args := ffmpeg.BuildArgs(s.opts.Template, s.opts.Destination)
	command := ffmpeg.Redact(args)
	s.logger.Info("Starting process", "command", command, "destination_length", len(s.opts.Destination))

	proc, err := s.opts.Spawner.Spawn(args)
	if err != nil {
		s.logger.Error("Failed to start process", "error", err, "binary", args[0], "command", command)
		s.bus.Publish(events.ProcessSpawnFailedEvent{
			Error:     err.Error(),
			Timestamp: timestamp(),
		})
		return nil, fmt.Errorf("%w: %w", ErrSpawn, err)
	}

	h := newHandle(proc)
	s.handle.Store(h)

	s.logger.Info("Process started", "pid", h.pid)
	s.bus.Publish(events.ProcessStartedEvent{
		PID:       h.pid,
		Replaced:  replaced,
		Timestamp: timestamp(),
	})

	return &StartResult{PID: h.pid, ReplacedPID: replaced}, nil
}

// Stop terminates the live process. Returns StopResultNotRunning without
// side effects when there is nothing to stop.
func (s *Supervisor) Stop() StopResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.handle.Load()
	if h == nil || !h.proc.Alive() {
		return StopResultNotRunning
	}

	result, err := s.terminate(h, reasonStop)
	if err != nil {
		s.logger.Error("Stop did not complete cleanly", "pid", h.pid, "error", err)
	}
	return result
}

// Status reports the current projection of the handle. It does not take
// the lifecycle lock.
func (s *Supervisor) Status() Snapshot {
	h := s.handle.Load()
	if h == nil {
		return Snapshot{Status: StatusNotStarted, State: StateNotStarted}
	}

	if h.proc.Alive() {
		return Snapshot{
			Status:    StatusRunning,
			State:     StateRunning,
			PID:       h.pid,
			StartedAt: h.startedAt,
		}
	}

	code, _ := h.proc.ExitCode()
	return Snapshot{
		Status:    StatusStopped,
		State:     h.terminalState(),
		PID:       h.pid,
		ExitCode:  &code,
		StartedAt: h.startedAt,
	}
}

// Shutdown sends SIGTERM to the live process and waits for it to exit
// without a deadline. It runs once; afterwards Start returns
// ErrShuttingDown.
func (s *Supervisor) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.closed = true

		h := s.handle.Load()
		if h == nil || !h.proc.Alive() {
			return
		}

		s.logger.Info("Shutting down process", "pid", h.pid)
		if err := h.proc.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
			s.logger.Error("Failed to send SIGTERM", "pid", h.pid, "error", err)
			return
		}

		_ = h.proc.Wait(context.Background())
		s.finish(h, StateStopped, reasonShutdown)
	})
}

// terminate runs SIGTERM, the grace period wait and SIGKILL escalation.
// Must hold s.mu. Returns an error only if neither signal could be delivered.
func (s *Supervisor) terminate(h *handle, reason string) (StopResult, error) {
	s.logger.Info("Sending SIGTERM to process", "pid", h.pid)
	if err := h.proc.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			s.finish(h, StateStopped, reason)
			return StopResultStopped, nil
		}
		s.logger.Warn("Failed to send SIGTERM, forcing kill", "pid", h.pid, "error", err)
		return s.kill(h, reason)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.GracePeriod)
	defer cancel()

	if err := h.proc.Wait(ctx); err == nil {
		s.finish(h, StateStopped, reason)
		return StopResultStopped, nil
	}

	s.logger.Warn("Graceful shutdown timeout, forcing kill", "pid", h.pid, "timeout", s.opts.GracePeriod)
	return s.kill(h, reason)
}

// kill sends SIGKILL and waits a bounded time for the process to be reaped.
// A process that survives is logged and otherwise left alone.
func (s *Supervisor) kill(h *handle, reason string) (StopResult, error) {
	if err := h.proc.Signal(syscall.SIGKILL); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return StopResultKilled, fmt.Errorf("kill pid %d: %w", h.pid, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.KillTimeout)
	defer cancel()

	if err := h.proc.Wait(ctx); err != nil {
		s.logger.Error("Process did not exit after kill signal", "pid", h.pid, "timeout", s.opts.KillTimeout)
	}

	s.finish(h, StateKilled, reason)
	return StopResultKilled, nil
}

// finish records the terminal state and publishes the stop event.
func (s *Supervisor) finish(h *handle, state State, reason string) {
	h.setState(state)

	outcome := StopResultStopped
	if state == StateKilled {
		outcome = StopResultKilled
	}
	s.logger.Info("Process terminated", "pid", h.pid, "outcome", outcome, "reason", reason)
	s.bus.Publish(events.ProcessStoppedEvent{
		PID:       h.pid,
		Outcome:   string(outcome),
		Reason:    reason,
		Timestamp: timestamp(),
	})
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
