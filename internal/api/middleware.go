package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/ffmpeg-sidecar/internal/api/models"
	"github.com/smazurov/ffmpeg-sidecar/internal/logging"
)

// HTTPLoggingMiddleware logs HTTP requests with log levels based on status codes.
func HTTPLoggingMiddleware(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()
	logger := logging.GetLogger("http")

	method := ctx.Method()
	query := ctx.URL().RawQuery
	userAgent := ctx.Header("User-Agent")

	logAttrs := []slog.Attr{
		slog.String("method", method),
		slog.String("path", ctx.URL().Path),
		slog.String("remote_addr", ctx.RemoteAddr()),
	}
	if query != "" {
		logAttrs = append(logAttrs, slog.String("query", query))
	}
	if userAgent != "" {
		logAttrs = append(logAttrs, slog.String("user_agent", userAgent))
	}

	next(ctx)

	status := ctx.Status()
	logAttrs = append(logAttrs,
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)),
	)

	message := "HTTP request completed"
	switch {
	case method == http.MethodOptions:
		logger.LogAttrs(ctx.Context(), slog.LevelDebug, message, logAttrs...)
	case status >= 500:
		logger.LogAttrs(ctx.Context(), slog.LevelError, message, logAttrs...)
	case status >= 400:
		logger.LogAttrs(ctx.Context(), slog.LevelWarn, message, logAttrs...)
	default:
		logger.LogAttrs(ctx.Context(), slog.LevelInfo, message, logAttrs...)
	}
}

// RecoveryMiddleware turns a panicking handler into a 500 response with an
// error body.
func RecoveryMiddleware(ctx huma.Context, next func(huma.Context)) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if rec == http.ErrAbortHandler {
			panic(rec)
		}

		logging.GetLogger("api").Error("Handler panicked",
			"path", ctx.URL().Path,
			"panic", fmt.Sprint(rec),
			"stack", string(debug.Stack()))

		ctx.SetHeader("Content-Type", "application/json")
		ctx.SetStatus(http.StatusInternalServerError)
		_ = json.NewEncoder(ctx.BodyWriter()).Encode(models.ErrorData{
			Status:  models.ResultError,
			Message: "Internal server error",
		})
	}()

	next(ctx)
}
