// Package process supervises the single relay subprocess.
//
// The package offers two layers:
//
// Spawner and Process abstract the OS primitives (spawn, liveness,
// signal delivery, wait). ExecSpawner implements them with os/exec:
//   - Each process runs in its own process group
//   - stdout/stderr are drained line by line into a logger with pluggable
//     level parsing
//   - Exit codes of signal-terminated processes are reported as the
//     negative signal number
//
// Supervisor owns at most one Process:
//   - Start terminates any live predecessor before spawning
//   - Stop sends SIGTERM, waits for the grace period, then SIGKILL
//   - Status polls liveness on demand without taking the lifecycle lock
//   - Shutdown performs a final SIGTERM and waits without a deadline
//
// Example usage:
//
//	sup := process.NewSupervisor(&process.Options{
//	    Spawner:     process.NewExecSpawner(logger),
//	    Template:    ffmpeg.DefaultTemplate(""),
//	    Destination: "rtmp://owncast:1935/live/key",
//	})
//	res, err := sup.Start()
//	defer sup.Shutdown()
package process
