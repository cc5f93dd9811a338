package version

import (
	"runtime"
	"testing"
)

func TestString(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	defer func() { Version, GitCommit = origVersion, origCommit }()

	tests := []struct {
		version, commit, want string
	}{
		{"dev", "unknown", "dev"},
		{"1.2.0", "", "1.2.0"},
		{"1.2.0", "abc1234def5678", "1.2.0 (abc1234)"},
		{"1.2.0", "abc12", "1.2.0 (abc12)"},
	}
	for _, tt := range tests {
		Version, GitCommit = tt.version, tt.commit
		if got := String(); got != tt.want {
			t.Errorf("String() with %q/%q = %q, want %q", tt.version, tt.commit, got, tt.want)
		}
	}
}

func TestGetAndUserAgent(t *testing.T) {
	info := Get()
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
	if got := UserAgent(); got != "ffmpeg-sidecar/"+Version {
		t.Errorf("UserAgent() = %q", got)
	}
}
