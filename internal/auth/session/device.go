package session

import (
	"strings"

	"github.com/mssola/useragent"
)

// DisplayName derives a short human label ("Firefox on Linux") from a raw
// User-Agent header, for session listings and audit trails.
func DisplayName(rawUA string) string {
	if strings.TrimSpace(rawUA) == "" {
		return "Unknown device"
	}

	ua := useragent.New(rawUA)
	name, _ := ua.Browser()
	os := ua.OS()

	switch {
	case name != "" && os != "":
		return name + " on " + os
	case name != "":
		return name
	case os != "":
		return os
	default:
		return "Unknown device"
	}
}
