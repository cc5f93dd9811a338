package systemd

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifierStates(t *testing.T) {
	var got []string
	n := &Notifier{
		notify: func(_ bool, state string) (bool, error) {
			got = append(got, state)
			return true, nil
		},
		logger: testLogger(),
	}

	n.Ready()
	n.Status("ffmpeg running (pid 42)")
	n.Stopping()

	want := []string{"READY=1", "STATUS=ffmpeg running (pid 42)", "STOPPING=1"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("state %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNotifierErrorIsNotFatal(t *testing.T) {
	calls := 0
	n := &Notifier{
		notify: func(bool, string) (bool, error) {
			calls++
			return false, errors.New("socket gone")
		},
		logger: testLogger(),
	}

	n.Ready()
	n.Stopping()

	if calls != 2 {
		t.Errorf("Expected 2 notify attempts, got %d", calls)
	}
}

func TestNewNotifierWithoutSocket(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")

	n := NewNotifier(nil)
	n.Ready()
	n.Stopping()
}
