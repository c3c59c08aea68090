package util

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the caller's address, preferring proxy headers over RemoteAddr
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// DescribeClient summarises a user agent for audit logs, e.g. "curl" or "Firefox on Linux".
// Returns "unknown" when nothing is recognised.
func DescribeClient(ua string) string {
	ua = strings.TrimSpace(ua)
	if ua == "" {
		return "unknown"
	}

	if tool := parseTool(ua); tool != "" {
		return tool
	}

	browser, os := parseBrowser(ua), parseOS(ua)
	switch {
	case browser != "" && os != "":
		return browser + " on " + os
	case browser != "":
		return browser
	case os != "":
		return os
	default:
		return "unknown"
	}
}

// parseTool matches command-line and library HTTP clients
func parseTool(ua string) string {
	lower := strings.ToLower(ua)
	for _, tool := range []string{"curl", "wget", "httpie", "postman", "go-http-client", "python-requests"} {
		if strings.HasPrefix(lower, tool) || strings.Contains(lower, " "+tool) {
			return tool
		}
	}
	return ""
}

func parseBrowser(ua string) string {
	// Order matters, specific browsers share tokens with generic engines
	switch {
	case strings.Contains(ua, "Edg/") || strings.Contains(ua, "Edge/"):
		return "Edge"
	case strings.Contains(ua, "OPR/") || strings.Contains(ua, "Opera"):
		return "Opera"
	case strings.Contains(ua, "Chrome/") && !strings.Contains(ua, "Chromium"):
		return "Chrome"
	case strings.Contains(ua, "Firefox/"):
		return "Firefox"
	case strings.Contains(ua, "Safari/") && !strings.Contains(ua, "Chrome"):
		return "Safari"
	default:
		return ""
	}
}

func parseOS(ua string) string {
	switch {
	case strings.Contains(ua, "iPhone") || strings.Contains(ua, "iPad"):
		return "iOS"
	case strings.Contains(ua, "Macintosh") || strings.Contains(ua, "Mac OS"):
		return "macOS"
	case strings.Contains(ua, "Windows"):
		return "Windows"
	case strings.Contains(ua, "Android"):
		return "Android"
	case strings.Contains(ua, "CrOS"):
		return "ChromeOS"
	case strings.Contains(ua, "Linux"):
		return "Linux"
	default:
		return ""
	}
}
