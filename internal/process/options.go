package process

import (
	"log/slog"
	"time"

	"github.com/smazurov/ffmpeg-sidecar/internal/events"
	"github.com/smazurov/ffmpeg-sidecar/internal/ffmpeg"
)

// Default timeouts.
const (
	DefaultGracePeriod = 5 * time.Second
	DefaultKillTimeout = 5 * time.Second
)

// Options configures a new Supervisor.
type Options struct {
	// Spawner creates the subprocess (required).
	Spawner Spawner

	// Template and Destination feed the command builder on every start.
	Template    ffmpeg.Template
	Destination string

	// GracePeriod is how long Stop waits after SIGTERM before SIGKILL.
	// Zero uses DefaultGracePeriod.
	GracePeriod time.Duration

	// KillTimeout bounds the wait for the process to be reaped after SIGKILL.
	// Zero uses DefaultKillTimeout.
	KillTimeout time.Duration

	// EventBus receives lifecycle events (optional).
	EventBus *events.Bus

	// Logger for supervisor operations. If nil, uses slog.Default().
	Logger *slog.Logger
}
