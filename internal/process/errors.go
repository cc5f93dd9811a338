package process

import "errors"

var (
	// ErrSpawn is returned by Start when the subprocess could not be created.
	ErrSpawn = errors.New("failed to spawn process")

	// ErrShuttingDown is returned by Start after Shutdown has run.
	ErrShuttingDown = errors.New("supervisor is shutting down")

	// ErrEmptyCommand is returned by ExecSpawner for an empty argument vector.
	ErrEmptyCommand = errors.New("empty command")
)
