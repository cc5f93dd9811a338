package ffmpeg

import "testing"

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantLevel string
		wantMsg   string
	}{
		{"plain line", "Input #0, rtsp, from 'rtsp://mediamtx:8554/live':", "info", "Input #0, rtsp, from 'rtsp://mediamtx:8554/live':"},
		{"statistics line", "frame=  100 fps= 30", "debug", "frame=  100 fps= 30"},
		{"level prefix", "[error] Connection refused", "error", "Connection refused"},
		{"warning prefix", "[warning] Non-monotonic DTS", "warning", "Non-monotonic DTS"},
		{"component and level", "[rtsp @ 0x55d0] [error] method DESCRIBE failed", "error", "[rtsp @ 0x55d0] method DESCRIBE failed"},
		{"component only", "[flv @ 0x55d0] Failed to update header", "info", "[flv @ 0x55d0] Failed to update header"},
		{"unterminated bracket", "[error", "info", "[error"},
		{"empty", "", "info", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, msg := ParseLogLevel(tt.line)
			if level != tt.wantLevel {
				t.Errorf("level = %q, want %q", level, tt.wantLevel)
			}
			if msg != tt.wantMsg {
				t.Errorf("msg = %q, want %q", msg, tt.wantMsg)
			}
		})
	}
}
