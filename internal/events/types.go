package events

// Event type constants for kelindar/event.
const (
	TypeProcessStarted uint32 = iota + 1
	TypeProcessStopped
	TypeProcessSpawnFailed
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// ProcessStartedEvent is published after a relay process has been spawned.
type ProcessStartedEvent struct {
	PID       int    `json:"pid" example:"4242" doc:"Process ID of the new relay process"`
	Replaced  int    `json:"replaced_pid,omitempty" example:"4100" doc:"PID of the process terminated to make room, if any"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Start timestamp"`
}

// Type returns the event type identifier for ProcessStartedEvent.
func (e ProcessStartedEvent) Type() uint32 { return TypeProcessStarted }

// ProcessStoppedEvent is published after a termination procedure completes.
type ProcessStoppedEvent struct {
	PID       int    `json:"pid" example:"4242" doc:"Process ID of the terminated relay process"`
	Outcome   string `json:"outcome" example:"stopped" enum:"stopped,killed" doc:"Whether the process exited gracefully or was killed"`
	Reason    string `json:"reason" example:"stop" enum:"stop,restart,shutdown" doc:"What triggered the termination"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Stop timestamp"`
}

// Type returns the event type identifier for ProcessStoppedEvent.
func (e ProcessStoppedEvent) Type() uint32 { return TypeProcessStopped }

// ProcessSpawnFailedEvent is published when the relay process could not be created.
type ProcessSpawnFailedEvent struct {
	Error     string `json:"error" example:"exec: \"ffmpeg\": executable file not found in $PATH" doc:"Spawn error"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Failure timestamp"`
}

// Type returns the event type identifier for ProcessSpawnFailedEvent.
func (e ProcessSpawnFailedEvent) Type() uint32 { return TypeProcessSpawnFailed }

// LogEntryEvent carries a log line to SSE subscribers.
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"supervisor" doc:"Logger module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
