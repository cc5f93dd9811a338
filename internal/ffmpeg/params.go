package ffmpeg

// Template is the fixed argument template for the relay process.
// Every field is resolved from configuration at startup and never changes
// while the supervisor runs.
type Template struct {
	Binary        string // ffmpeg executable
	RTSPTransport string // tcp, udp
	SourceURL     string // rtsp://mediamtx:8554/live

	VideoCodec   string // libx264
	Preset       string // veryfast
	AudioCodec   string // aac
	AudioBitrate string // 128k
	Format       string // flv

	Overwrite bool

	// Reconnect flags
	Reconnect         bool
	ReconnectAtEOF    bool
	ReconnectStreamed bool
	ReconnectDelayMax int // seconds
}

// Defaults for the MediaMTX -> Owncast relay.
const (
	DefaultBinary            = "ffmpeg"
	DefaultSourceURL         = "rtsp://mediamtx:8554/live"
	DefaultReconnectDelayMax = 2
)

// DefaultTemplate returns the relay template pulling from sourceURL.
// An empty sourceURL falls back to DefaultSourceURL.
func DefaultTemplate(sourceURL string) Template {
	if sourceURL == "" {
		sourceURL = DefaultSourceURL
	}
	return Template{
		Binary:            DefaultBinary,
		RTSPTransport:     "tcp",
		SourceURL:         sourceURL,
		VideoCodec:        "libx264",
		Preset:            "veryfast",
		AudioCodec:        "aac",
		AudioBitrate:      "128k",
		Format:            "flv",
		Overwrite:         true,
		Reconnect:         true,
		ReconnectAtEOF:    true,
		ReconnectStreamed: true,
		ReconnectDelayMax: DefaultReconnectDelayMax,
	}
}
