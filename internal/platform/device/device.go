// Package device turns raw User-Agent strings into short display names for
// audit trails ("Chrome on Linux" instead of the full UA line).
package device

import "github.com/mssola/useragent"

// Display parses a User-Agent header into a human-readable device name.
// Unknown or empty agents come back as "unknown device".
func Display(rawUserAgent string) string {
	if rawUserAgent == "" {
		return "unknown device"
	}
	ua := useragent.New(rawUserAgent)
	browser, _ := ua.Browser()
	os := ua.OSInfo().Name
	switch {
	case browser != "" && os != "":
		return browser + " on " + os
	case browser != "":
		return browser
	case ua.Bot():
		return "bot"
	default:
		return "unknown device"
	}
}
