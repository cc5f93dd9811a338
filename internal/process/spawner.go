package process

import (
	"context"
	"os"
)

// Spawner creates subprocesses from an argument vector.
type Spawner interface {
	Spawn(args []string) (Process, error)
}

// Process is a spawned subprocess.
type Process interface {
	// PID returns the OS process ID.
	PID() int

	// Alive reports whether the process has not yet terminated.
	Alive() bool

	// Signal delivers sig. Returns os.ErrProcessDone if the process already exited.
	Signal(sig os.Signal) error

	// Wait blocks until the process exits or ctx is done.
	// Returns ctx.Err() if the context ended first.
	Wait(ctx context.Context) error

	// ExitCode returns the exit code and true once the process has terminated.
	ExitCode() (int, bool)
}
