// Package logging provides structured logging with per-module log levels.
//
// Loggers are plain *slog.Logger values tagged with a "module" attribute.
// Output is routed automatically:
//   - stdout (or Config.Output) as text or json
//   - the systemd journal when journald is reachable, tagged
//     SYSLOG_IDENTIFIER=ffmpeg-sidecar
//   - an in-memory ring buffer of recent entries served by the API
//
// Initialize once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"supervisor": "debug",
//			"ffmpeg":     "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("supervisor")
//	logger.Info("Process started", "pid", pid)
//
// Viewing journal output:
//
//	journalctl -t ffmpeg-sidecar -f
//	journalctl -t ffmpeg-sidecar MODULE=ffmpeg
package logging
