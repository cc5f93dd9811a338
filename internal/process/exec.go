package process

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// outputDrainTimeout bounds how long an exited process is reported alive
// while its output is still being read.
const outputDrainTimeout = 100 * time.Millisecond

// LogParser parses a line of process output into a log level and message.
// Used to extract structured log info from ffmpeg output.
type LogParser func(line string) (level, msg string)

// LineHook receives every line of process output before it is logged.
type LineHook func(line string)

// ExecOption configures an ExecSpawner.
type ExecOption func(*ExecSpawner)

// WithOutputLogger routes process output to logger, using parser to pick
// the level of each line. A nil parser logs every line at info.
func WithOutputLogger(logger *slog.Logger, parser LogParser) ExecOption {
	return func(s *ExecSpawner) {
		s.outputLogger = logger
		s.logParser = parser
	}
}

// WithLineHook registers hook to observe process output lines.
func WithLineHook(hook LineHook) ExecOption {
	return func(s *ExecSpawner) {
		s.lineHooks = append(s.lineHooks, hook)
	}
}

// ExecSpawner spawns processes with os/exec.
type ExecSpawner struct {
	logger       *slog.Logger
	outputLogger *slog.Logger // logger for process output (nil = use logger)
	logParser    LogParser
	lineHooks    []LineHook
}

// NewExecSpawner creates a spawner that logs lifecycle messages to logger.
func NewExecSpawner(logger *slog.Logger, opts ...ExecOption) *ExecSpawner {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ExecSpawner{logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Spawn starts args[0] with the remaining arguments in its own process group.
// Output is drained in the background. The process is reaped as soon as it
// exits, even if a child of its own still holds the output pipes.
func (s *ExecSpawner) Spawn(args []string) (Process, error) {
	if len(args) == 0 {
		return nil, ErrEmptyCommand
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	// cmd.Wait must not depend on pipe EOF: a helper that inherits the write
	// ends would otherwise delay reaping the child.
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		closeAll(stdoutR, stdoutW)
		return nil, err
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	err = cmd.Start()
	closeAll(stdoutW, stderrW)
	if err != nil {
		closeAll(stdoutR, stderrR)
		return nil, err
	}

	p := &execProcess{
		cmd:  cmd,
		pid:  cmd.Process.Pid,
		done: make(chan struct{}),
	}

	var outputs sync.WaitGroup
	outputs.Add(2)
	go func() {
		defer outputs.Done()
		s.streamOutput(stdoutR, "stdout", p.pid)
	}()
	go func() {
		defer outputs.Done()
		s.streamOutput(stderrR, "stderr", p.pid)
	}()

	go func() {
		waitErr := cmd.Wait()
		waitOutputs(&outputs, outputDrainTimeout)
		p.exitCode = exitCodeFromError(waitErr)
		var exitErr *exec.ExitError
		if waitErr != nil && !errors.As(waitErr, &exitErr) {
			s.logger.Error("Process exited with error", "pid", p.pid, "error", waitErr)
		}
		s.logger.Info("Process exited", "pid", p.pid, "exit_code", p.exitCode)
		close(p.done)
	}()

	return p, nil
}

// waitOutputs gives the readers up to timeout to log trailing output.
func waitOutputs(wg *sync.WaitGroup, timeout time.Duration) {
	drained := make(chan struct{})
	go func() {
		wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(timeout):
	}
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

// streamOutput logs each line read from reader until every writer has
// closed its end, then closes reader.
func (s *ExecSpawner) streamOutput(reader io.ReadCloser, source string, pid int) {
	defer reader.Close()

	scanner := bufio.NewScanner(reader)
	scanner.Split(scanLines)

	logger := s.outputLogger
	if logger == nil {
		logger = s.logger
	}
	logger = logger.With("pid", pid, "source", source)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		for _, hook := range s.lineHooks {
			hook(line)
		}

		level, msg := "info", line
		if s.logParser != nil {
			level, msg = s.logParser(line)
		}

		switch level {
		case "panic", "fatal", "error":
			logger.Error(msg)
		case "warning":
			logger.Warn(msg)
		case "verbose", "debug", "trace":
			logger.Debug(msg)
		default:
			logger.Info(msg)
		}
	}

	if err := scanner.Err(); err != nil {
		s.logger.Warn("Error reading output", "pid", pid, "source", source, "error", err)
		// Keep draining so the child never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, reader)
	}
}

// scanLines is bufio.ScanLines that also splits on a bare '\r', which ffmpeg
// uses to terminate its periodic statistics lines.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// execProcess is a Process backed by *exec.Cmd.
type execProcess struct {
	cmd      *exec.Cmd
	pid      int
	done     chan struct{}
	exitCode int // written before done is closed
}

func (p *execProcess) PID() int {
	return p.pid
}

func (p *execProcess) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Signal delivers sig to the process group the child leads, so helpers it
// started receive it too.
func (p *execProcess) Signal(sig os.Signal) error {
	if !p.Alive() {
		return os.ErrProcessDone
	}
	if ssig, ok := sig.(syscall.Signal); ok {
		err := syscall.Kill(-p.pid, ssig)
		if !errors.Is(err, syscall.ESRCH) {
			return err
		}
	}
	return p.cmd.Process.Signal(sig)
}

func (p *execProcess) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *execProcess) ExitCode() (int, bool) {
	select {
	case <-p.done:
		return p.exitCode, true
	default:
		return 0, false
	}
}

// exitCodeFromError extracts the exit code from a Wait error.
// Returns 0 for nil, -N for a process terminated by signal N, the exit
// status for other ExitErrors and 1 for anything else.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return -int(ws.Signal())
		}
		return exitErr.ExitCode()
	}
	return 1
}
