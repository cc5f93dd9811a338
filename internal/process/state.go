package process

import "time"

// State is the lifecycle state of the supervised process.
type State string

// Lifecycle states. There is no transition back to StateNotStarted.
const (
	StateNotStarted State = "not_started" // No process was ever spawned
	StateRunning    State = "running"     // Spawned and not yet terminated
	StateStopped    State = "stopped"     // Exited after SIGTERM or on its own
	StateKilled     State = "killed"      // Forced with SIGKILL after the grace period
)

// Status is the externally reported projection of the handle.
type Status string

// Status values reported by Supervisor.Status.
const (
	StatusNotStarted Status = "not_started"
	StatusRunning    Status = "running"
	StatusStopped    Status = "stopped"
)

// StopResult is the outcome of a stop request.
type StopResult string

// Stop outcomes.
const (
	StopResultStopped    StopResult = "stopped"
	StopResultKilled     StopResult = "killed"
	StopResultNotRunning StopResult = "not_running"
)

// StartResult describes a successful start.
type StartResult struct {
	PID         int
	ReplacedPID int // 0 if no live process was replaced
}

// Snapshot is a point-in-time view of the supervised process.
type Snapshot struct {
	Status    Status
	State     State
	PID       int
	ExitCode  *int // set once the process has terminated
	StartedAt time.Time
}
