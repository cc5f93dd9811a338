package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/ffmpeg-sidecar/internal/api/models"
	"github.com/smazurov/ffmpeg-sidecar/internal/process"
)

// Supervisor is the process lifecycle the control routes drive.
type Supervisor interface {
	Start() (*process.StartResult, error)
	Stop() process.StopResult
	Status() process.Snapshot
}

const (
	msgStarted     = "FFmpeg started"
	msgStartFailed = "Failed to start ffmpeg"
)

// registerControlRoutes registers start, status and stop.
func (s *Server) registerControlRoutes() {
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		huma.Register(s.api, huma.Operation{
			OperationID: "start-live-" + strings.ToLower(method),
			Method:      method,
			Path:        "/start/live",
			Summary:     "Start relay",
			Description: "Start the ffmpeg relay. A running relay is terminated first.",
			Tags:        []string{"control"},
			Errors:      []int{500},
		}, s.handleStart)
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/status",
		Summary:     "Relay status",
		Description: "Report whether the relay has never started, is running or has stopped.",
		Tags:        []string{"control"},
	}, s.handleStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "stop",
		Method:      http.MethodPost,
		Path:        "/stop",
		Summary:     "Stop relay",
		Description: "Terminate the relay with SIGTERM, escalating to SIGKILL after the grace period.",
		Tags:        []string{"control"},
	}, s.handleStop)
}

func (s *Server) handleStart(_ context.Context, _ *struct{}) (*models.StartResponse, error) {
	result, err := s.supervisor.Start()
	if err != nil {
		if !errors.Is(err, process.ErrSpawn) {
			s.logger.Error("Start rejected", "error", err)
		}
		return &models.StartResponse{
			Status: http.StatusInternalServerError,
			Body: models.StartData{
				Status:  models.ResultError,
				Message: msgStartFailed,
			},
		}, nil
	}

	return &models.StartResponse{
		Status: http.StatusOK,
		Body: models.StartData{
			Status:  models.ResultSuccess,
			Message: msgStarted,
			PID:     result.PID,
		},
	}, nil
}

func (s *Server) handleStatus(_ context.Context, _ *struct{}) (*models.StatusResponse, error) {
	snap := s.supervisor.Status()

	data := models.StatusData{Status: string(snap.Status)}
	switch snap.Status {
	case process.StatusRunning:
		pid := snap.PID
		data.PID = &pid
	case process.StatusStopped:
		data.ReturnCode = snap.ExitCode
	}

	return &models.StatusResponse{Body: data}, nil
}

func (s *Server) handleStop(_ context.Context, _ *struct{}) (*models.StopResponse, error) {
	return &models.StopResponse{
		Body: models.StopData{Status: string(s.supervisor.Stop())},
	}, nil
}
