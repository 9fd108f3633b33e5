package utils

import (
	"net"
	"net/http"
	"strings"
)

// ParseUserAgent turns a raw User-Agent header into a human-readable
// "Browser on OS (DeviceClass)" label for the session registry. The
// detection is deliberately heuristic; unknown agents fall back to
// "Unknown Device".
func ParseUserAgent(userAgent string) string {
	if userAgent == "" {
		return "Unknown Device"
	}

	browser := "Unknown Browser"
	switch {
	case strings.Contains(userAgent, "Edg"):
		browser = "Edge"
	case strings.Contains(userAgent, "OPR"), strings.Contains(userAgent, "Opera"):
		browser = "Opera"
	case strings.Contains(userAgent, "Chrome"):
		browser = "Chrome"
	case strings.Contains(userAgent, "Firefox"):
		browser = "Firefox"
	case strings.Contains(userAgent, "Safari"):
		browser = "Safari"
	}

	os := "Unknown OS"
	switch {
	case strings.Contains(userAgent, "Windows"):
		os = "Windows"
	case strings.Contains(userAgent, "Android"):
		os = "Android"
	case strings.Contains(userAgent, "iPhone"), strings.Contains(userAgent, "iPad"), strings.Contains(userAgent, "iOS"):
		os = "iOS"
	case strings.Contains(userAgent, "Mac"):
		os = "macOS"
	case strings.Contains(userAgent, "Linux"):
		os = "Linux"
	}

	deviceType := "Desktop"
	switch {
	case strings.Contains(userAgent, "Tablet"), strings.Contains(userAgent, "iPad"):
		deviceType = "Tablet"
	case strings.Contains(userAgent, "Mobile"):
		deviceType = "Mobile"
	}

	return browser + " on " + os + " (" + deviceType + ")"
}

// ClientIP extracts the caller's IP: first entry of X-Forwarded-For, else
// X-Real-IP, else the transport remote address. First non-empty wins.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}

	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
