package models

import "github.com/smazurov/ffmpeg-sidecar/internal/logging"

// Result values of the "status" field in control responses.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Start models
type StartData struct {
	Status  string `json:"status" example:"success" enum:"success,error" doc:"Outcome of the start request"`
	Message string `json:"message" example:"FFmpeg started" doc:"Human-readable outcome"`
	PID     int    `json:"pid,omitempty" example:"4242" doc:"Process ID of the new relay process"`
}

// StartResponse carries its own status code so a failed spawn can be
// answered with 500 and the contract body.
type StartResponse struct {
	Status int
	Body   StartData
}

// Status models
type StatusData struct {
	Status     string `json:"status" example:"running" enum:"not_started,running,stopped" doc:"Relay process status"`
	PID        *int   `json:"pid,omitempty" example:"4242" doc:"Process ID, present while running"`
	ReturnCode *int   `json:"return_code,omitempty" example:"0" doc:"Exit code, present once stopped. Negative values are the terminating signal"`
}

type StatusResponse struct {
	Body StatusData
}

// Stop models
type StopData struct {
	Status string `json:"status" example:"stopped" enum:"stopped,killed,not_running" doc:"Outcome of the stop request"`
}

type StopResponse struct {
	Body StopData
}

// ErrorData is written by the panic recovery middleware.
type ErrorData struct {
	Status  string `json:"status" example:"error"`
	Message string `json:"message" example:"Internal server error"`
}

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"1.0.0" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit hash"`
	BuildDate string `json:"build_date" example:"2025-01-27T10:30:00Z" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"42" doc:"Build identifier"`
	GoVersion string `json:"go_version" example:"go1.24.11" doc:"Go toolchain version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Go compiler"`
	Platform  string `json:"platform" example:"linux/amd64" doc:"Target platform"`
}

type VersionResponse struct {
	Body VersionData
}

// Log models
type LogsRequest struct {
	Limit  int    `query:"limit" minimum:"0" maximum:"1000" default:"100" doc:"Maximum number of entries, newest last. 0 returns all buffered entries"`
	Module string `query:"module" example:"supervisor" doc:"Only return entries from this module"`
}

type LogsData struct {
	Entries []logging.LogEntry `json:"entries" doc:"Buffered log entries in chronological order"`
	Count   int                `json:"count" example:"100" doc:"Number of entries returned"`
}

type LogsResponse struct {
	Body LogsData
}
