package views

import (
	"strings"
)

func IsActivePath(activePath, target string) bool {
	activePath = strings.TrimSpace(activePath)
	target = strings.TrimSpace(target)
	if target == "/" {
		return activePath == "/" || strings.HasPrefix(activePath, "/images")
	}
	return strings.HasPrefix(activePath, target)
}

func AriaCurrent(activePath, target string) string {
	if IsActivePath(activePath, target) {
		return "page"
	}
	return ""
}

// IsAlertDestructive reports whether a toast category is an error.
func IsAlertDestructive(category string) bool {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return false
	}
	return strings.Contains(category, "error") || strings.Contains(category, "destructive")
}

func AlertRole(destructive bool) string {
	if destructive {
		return "alert"
	}
	return "status"
}

func AlertAriaLive(destructive bool) string {
	if destructive {
		return "assertive"
	}
	return "polite"
}

// SeverityBadgeClass maps a lowercase severity label to its badge class.
func SeverityBadgeClass(severity string) string {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case "critical", "important", "moderate", "low":
		return "badge severity-" + strings.ToLower(strings.TrimSpace(severity))
	default:
		return "badge-outline"
	}
}
