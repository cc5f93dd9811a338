package ffmpeg

import "strings"

// ParseLogLevel extracts the log level from a line of ffmpeg output.
// With -loglevel level+info ffmpeg prefixes lines with "[info] " or
// "[component @ 0x...] [level] ". The level tag is stripped, the component
// is kept. Statistics lines are reported at debug, other lines without a
// recognised tag at info.
func ParseLogLevel(line string) (level, msg string) {
	if IsProgressLine(line) {
		return "debug", line
	}
	tag, rest, ok := cutBracket(line)
	if !ok {
		return "info", line
	}
	if isLogLevel(tag) {
		return tag, rest
	}

	if next, tail, found := cutBracket(rest); found && isLogLevel(next) {
		component := line[:len(line)-len(rest)]
		return next, component + tail
	}

	return "info", line
}

// cutBracket splits "[tag] rest" into tag and rest.
func cutBracket(s string) (tag, rest string, ok bool) {
	if len(s) < 3 || s[0] != '[' {
		return "", s, false
	}
	end := strings.Index(s, "] ")
	if end == -1 {
		return "", s, false
	}
	return s[1:end], s[end+2:], true
}

func isLogLevel(s string) bool {
	switch s {
	case "quiet", "panic", "fatal", "error", "warning", "info", "verbose", "debug", "trace":
		return true
	}
	return false
}
