package parser

import "strings"

// ParseUserAgent reduces a User-Agent header to coarse OS and client names.
// Command line clients such as tokenctl and curl are reported by name.
func ParseUserAgent(ua string) (os, client string) {
	uaLower := strings.ToLower(ua)

	if strings.Contains(uaLower, "windows") {
		os = "Windows"
	} else if strings.Contains(uaLower, "mac os") {
		os = "macOS"
	} else if strings.Contains(uaLower, "linux") {
		os = "Linux"
	} else if strings.Contains(uaLower, "android") {
		os = "Android"
	} else if strings.Contains(uaLower, "iphone") || strings.Contains(uaLower, "ipad") {
		os = "iOS"
	} else {
		os = "Unknown"
	}

	switch {
	case strings.HasPrefix(uaLower, "tokenctl"):
		return os, "tokenctl"
	case strings.HasPrefix(uaLower, "curl"):
		return os, "curl"
	case strings.HasPrefix(uaLower, "go-http-client"):
		return os, "Go"
	}

	if strings.Contains(uaLower, "chrome") && !strings.Contains(uaLower, "edge") {
		client = "Chrome"
	} else if strings.Contains(uaLower, "safari") && !strings.Contains(uaLower, "chrome") {
		client = "Safari"
	} else if strings.Contains(uaLower, "firefox") {
		client = "Firefox"
	} else if strings.Contains(uaLower, "edge") {
		client = "Edge"
	} else {
		client = "Unknown"
	}

	return os, client
}
