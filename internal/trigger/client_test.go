package trigger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/ffmpeg-sidecar/internal/version"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(url string, opts ...Option) *Client {
	base := []Option{WithURL(url), WithDelay(0), WithTimeout(time.Second), WithLogger(testLogger())}
	return New(append(base, opts...)...)
}

func TestFireSuccess(t *testing.T) {
	requests := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests <- r.Method + " " + r.URL.Path + " " + r.UserAgent()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":"success","message":"FFmpeg started","pid":4242}`+"\n")
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL + "/start/live").Fire(context.Background())
	if err != nil {
		t.Fatalf("Fire failed: %v", err)
	}

	if got, want := <-requests, "GET /start/live "+version.UserAgent(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
	if res.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", res.StatusCode)
	}
	want := `{"status":"success","message":"FFmpeg started","pid":4242}`
	if res.Body != want {
		t.Errorf("Body = %q, want %q", res.Body, want)
	}

	msg := Message(res, nil)
	if msg != "Successfully started ffmpeg: 200 - "+want {
		t.Errorf("Message = %q", msg)
	}
	if ExitCode(nil) != 0 {
		t.Error("Expected exit code 0 on success")
	}
}

func TestFireRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"status":"error","message":"Failed to start ffmpeg"}`)
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Fire(context.Background())
	if res != nil {
		t.Errorf("Expected no result, got %+v", res)
	}

	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("Expected *RejectedError, got %T: %v", err, err)
	}
	if rejected.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", rejected.StatusCode)
	}
	if !strings.Contains(rejected.Body, "Failed to start ffmpeg") {
		t.Errorf("Body = %q", rejected.Body)
	}

	if msg := Message(nil, err); msg != "HTTP error starting ffmpeg: 500 - Internal Server Error" {
		t.Errorf("Message = %q", msg)
	}
	if ExitCode(err) != 1 {
		t.Error("Expected exit code 1")
	}
}

func TestFireUnreachable(t *testing.T) {
	// Reserve a port, then close it so nothing is listening.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	start := time.Now()
	_, err = newTestClient("http://" + addr + "/start/live").Fire(context.Background())
	elapsed := time.Since(start)

	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("Expected *TransportError, got %T: %v", err, err)
	}
	if elapsed > 2*time.Second {
		t.Errorf("Fire took %v, expected to fail within the timeout", elapsed)
	}
	if msg := Message(nil, err); !strings.HasPrefix(msg, "URL error starting ffmpeg: ") {
		t.Errorf("Message = %q", msg)
	}
	if ExitCode(err) != 1 {
		t.Error("Expected exit code 1")
	}
}

func TestFireTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := newTestClient(srv.URL, WithTimeout(100*time.Millisecond)).Fire(context.Background())
	elapsed := time.Since(start)

	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("Expected *TransportError, got %T: %v", err, err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
	if elapsed > time.Second {
		t.Errorf("Timeout not honored: took %v", elapsed)
	}
}

func TestFireWaitsForDelay(t *testing.T) {
	hits := make(chan time.Time, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits <- time.Now()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	start := time.Now()
	if _, err := newTestClient(srv.URL, WithDelay(100*time.Millisecond)).Fire(context.Background()); err != nil {
		t.Fatalf("Fire failed: %v", err)
	}
	if waited := (<-hits).Sub(start); waited < 100*time.Millisecond {
		t.Errorf("Request sent after %v, expected at least 100ms", waited)
	}
}

func TestFireCanceledDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient("http://127.0.0.1:1", WithDelay(time.Hour)).Fire(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if msg := Message(nil, err); !strings.HasPrefix(msg, "Unexpected error starting ffmpeg: ") {
		t.Errorf("Message = %q", msg)
	}
}

func TestFireInvalidURL(t *testing.T) {
	_, err := newTestClient("://bad").Fire(context.Background())
	if err == nil {
		t.Fatal("Expected error for invalid URL")
	}
	var transport *TransportError
	if errors.As(err, &transport) {
		t.Errorf("Invalid URL should not be a transport error: %v", err)
	}
	if msg := Message(nil, err); !strings.HasPrefix(msg, "Unexpected error starting ffmpeg: ") {
		t.Errorf("Message = %q", msg)
	}
}

func TestDefaults(t *testing.T) {
	c := New()
	if c.url != DefaultURL || c.delay != DefaultDelay || c.timeout != DefaultTimeout {
		t.Errorf("Unexpected defaults: %s %v %v", c.url, c.delay, c.timeout)
	}
}
