package ffmpeg

import (
	"strconv"
	"strings"
)

// Progress is one periodic statistics line printed by ffmpeg while encoding:
//
//	frame=  250 fps= 25 q=28.0 size=    1024KiB time=00:00:10.00 bitrate= 838.9kbits/s dup=0 drop=2 speed=1.01x
type Progress struct {
	Frame         int64
	FPS           float64
	BitrateKbps   float64
	Speed         float64
	DroppedFrames int64
	DupFrames     int64
}

// IsProgressLine reports whether line is an ffmpeg statistics line.
func IsProgressLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "frame=")
}

// ParseProgress parses a statistics line. Fields ffmpeg reports as "N/A"
// are left zero. ok is false when line is not a statistics line.
func ParseProgress(line string) (p Progress, ok bool) {
	if !IsProgressLine(line) {
		return Progress{}, false
	}

	for key, value := range progressFields(line) {
		switch key {
		case "frame":
			p.Frame, _ = strconv.ParseInt(value, 10, 64)
		case "fps":
			p.FPS, _ = strconv.ParseFloat(value, 64)
		case "bitrate":
			p.BitrateKbps, _ = strconv.ParseFloat(strings.TrimSuffix(value, "kbits/s"), 64)
		case "speed":
			p.Speed, _ = strconv.ParseFloat(strings.TrimSuffix(value, "x"), 64)
		case "drop":
			p.DroppedFrames, _ = strconv.ParseInt(value, 10, 64)
		case "dup":
			p.DupFrames, _ = strconv.ParseInt(value, 10, 64)
		}
	}
	return p, true
}

// progressFields splits "key= value key=value" pairs. ffmpeg pads values
// with spaces after the '=' so the value is the next non-empty token.
func progressFields(line string) map[string]string {
	fields := make(map[string]string)
	tokens := strings.Fields(line)
	for i := 0; i < len(tokens); i++ {
		key, value, found := strings.Cut(tokens[i], "=")
		if !found {
			continue
		}
		if value == "" && i+1 < len(tokens) && !strings.Contains(tokens[i+1], "=") {
			i++
			value = tokens[i]
		}
		fields[key] = value
	}
	return fields
}
