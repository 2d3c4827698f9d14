package parser

import "testing"

func TestParseUserAgent(t *testing.T) {
	tests := []struct {
		ua, os, client string
	}{
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36", "Windows", "Chrome"},
		{"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0) AppleWebKit/605.1.15 Version/17.0 Safari/605.1.15", "macOS", "Safari"},
		{"tokenctl/1.0 (linux)", "Linux", "tokenctl"},
		{"curl/8.4.0", "Unknown", "curl"},
		{"", "Unknown", "Unknown"},
	}

	for _, tt := range tests {
		os, client := ParseUserAgent(tt.ua)
		if os != tt.os || client != tt.client {
			t.Errorf("ParseUserAgent(%q) = %s, %s; want %s, %s", tt.ua, os, client, tt.os, tt.client)
		}
	}
}
