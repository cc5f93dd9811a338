package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/ffmpeg-sidecar/internal/events"
)

// registerSSERoutes registers the process lifecycle event stream.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time relay lifecycle events: started, stopped and spawn failures",
		Tags:        []string{"events"},
	}, map[string]any{
		"process-started":      events.ProcessStartedEvent{},
		"process-stopped":      events.ProcessStoppedEvent{},
		"process-spawn-failed": events.ProcessSpawnFailedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 10)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.ProcessStartedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.ProcessStoppedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.ProcessSpawnFailedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

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
