package ffmpeg

import (
	"strconv"
	"strings"
)

// RedactedDestination replaces the destination in rendered commands.
const RedactedDestination = "[DESTINATION]"

// BuildArgs builds the argument vector for the relay process.
// The destination is always the last element. The returned slice is freshly
// allocated on every call so callers may keep it.
func BuildArgs(t Template, destination string) []string {
	binary := t.Binary
	if binary == "" {
		binary = DefaultBinary
	}

	args := []string{binary}

	// Input
	if t.RTSPTransport != "" {
		args = append(args, "-rtsp_transport", t.RTSPTransport)
	}
	args = append(args, "-i", t.SourceURL)

	// Encoding
	if t.VideoCodec != "" {
		args = append(args, "-c:v", t.VideoCodec)
	}
	if t.Preset != "" {
		args = append(args, "-preset", t.Preset)
	}
	if t.AudioCodec != "" {
		args = append(args, "-c:a", t.AudioCodec)
	}
	if t.AudioBitrate != "" {
		args = append(args, "-b:a", t.AudioBitrate)
	}

	// Output
	if t.Format != "" {
		args = append(args, "-f", t.Format)
	}
	if t.Overwrite {
		args = append(args, "-y")
	}

	if t.Reconnect {
		args = append(args, "-reconnect", "1")
	}
	if t.ReconnectAtEOF {
		args = append(args, "-reconnect_at_eof", "1")
	}
	if t.ReconnectStreamed {
		args = append(args, "-reconnect_streamed", "1")
	}
	if t.ReconnectDelayMax > 0 {
		args = append(args, "-reconnect_delay_max", strconv.Itoa(t.ReconnectDelayMax))
	}

	return append(args, destination)
}

// Redact renders args as a single line with the trailing destination
// replaced by RedactedDestination. The destination may carry a stream key.
func Redact(args []string) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, 0, len(args))
	parts = append(parts, args[:len(args)-1]...)
	parts = append(parts, RedactedDestination)
	return strings.Join(parts, " ")
}
