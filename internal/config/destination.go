package config

import "strings"

// DefaultDestination is used when OWNCAST_URL is not set.
const DefaultDestination = "rtmp://owncast:1935/live/changeme"

// RTMPScheme is the prefix expected on the destination URL.
const RTMPScheme = "rtmp://"

// DestinationWarning returns a non-empty message when dest does not look like
// an RTMP URL. The destination itself is never part of the message.
func DestinationWarning(dest string) string {
	switch {
	case dest == "":
		return "destination URL is empty"
	case !strings.HasPrefix(dest, RTMPScheme):
		return "destination URL does not start with " + RTMPScheme
	default:
		return ""
	}
}
