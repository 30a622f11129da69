// Package device turns raw User-Agent strings into short human-readable
// descriptions for audit events.
package device

import "github.com/mssola/useragent"

// Describe summarises a User-Agent header as "Browser on OS". Unknown or
// empty strings come back as "unknown" so callers never branch.
func Describe(rawUserAgent string) string {
	if rawUserAgent == "" {
		return "unknown"
	}

	ua := useragent.New(rawUserAgent)
	name, _ := ua.Browser()
	os := ua.OSInfo().Name

	switch {
	case name != "" && os != "":
		return name + " on " + os
	case name != "":
		return name
	case os != "":
		return os
	default:
		return "unknown"
	}
}
