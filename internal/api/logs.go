package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/ffmpeg-sidecar/internal/api/models"
	"github.com/smazurov/ffmpeg-sidecar/internal/events"
	"github.com/smazurov/ffmpeg-sidecar/internal/logging"
)

// registerLogRoutes registers the buffered log endpoints.
func (s *Server) registerLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Recent logs",
		Description: "Recent log entries from the in-memory ring buffer, including ffmpeg output.",
		Tags:        []string{"logs"},
	}, func(_ context.Context, input *models.LogsRequest) (*models.LogsResponse, error) {
		entries := recentLogs(logging.GetBuffer(), input.Module, input.Limit)
		return &models.LogsResponse{
			Body: models.LogsData{
				Entries: entries,
				Count:   len(entries),
			},
		}, nil
	})

	if s.eventBus == nil {
		return
	}

	sse.Register(s.api, huma.Operation{
		OperationID: "logs-stream",
		Method:      http.MethodGet,
		Path:        "/api/logs/stream",
		Summary:     "Log Stream",
		Description: "Real-time log streaming via Server-Sent Events. Sends buffered logs first, then streams new logs.",
		Tags:        []string{"logs"},
	}, map[string]any{
		"message": events.LogEntryEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		// Subscribe before replaying so nothing logged in between is lost.
		eventCh := make(chan any, 100)
		unsubscribe := events.SubscribeToChannel[events.LogEntryEvent](s.eventBus, eventCh)
		defer unsubscribe()

		for _, entry := range logging.GetBuffer().ReadAll() {
			if err := send.Data(toLogEvent(entry)); err != nil {
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}

// recentLogs returns up to limit of the newest entries, optionally
// restricted to one module.
func recentLogs(buffer *logging.RingBuffer, module string, limit int) []logging.LogEntry {
	if buffer == nil {
		return []logging.LogEntry{}
	}
	if module == "" {
		return buffer.ReadLast(limit)
	}

	var filtered []logging.LogEntry
	for _, entry := range buffer.ReadAll() {
		if entry.Module == module {
			filtered = append(filtered, entry)
		}
	}
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}
	if filtered == nil {
		filtered = []logging.LogEntry{}
	}
	return filtered
}

// toLogEvent converts a buffered entry to its event form.
func toLogEvent(entry logging.LogEntry) events.LogEntryEvent {
	return events.LogEntryEvent{
		Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
		Level:      entry.Level,
		Module:     entry.Module,
		Message:    entry.Message,
		Attributes: entry.Attributes,
	}
}
