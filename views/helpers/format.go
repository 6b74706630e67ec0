package helpers

import (
	"fmt"
	"time"
)

// FormatDate formats a time.Time as "Jan 2, 2006"
func FormatDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

// FormatDateTime formats a time.Time as "Jan 2, 2006 3:04 PM"
func FormatDateTime(t time.Time) string {
	return t.Format("Jan 2, 2006 3:04 PM")
}

// TimeAgo renders t relative to now the way feeds usually do: "just now",
// "5m", "3h", "2d", falling back to the date after a week.
func TimeAgo(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d/time.Hour))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d/(24*time.Hour)))
	}
	return FormatDate(t)
}

// FormatStressLevel formats a 0..1 score as a percentage, returning
// defaultVal when the post has not been scored yet.
func FormatStressLevel(level *float64, defaultVal string) string {
	if level == nil {
		return defaultVal
	}
	return fmt.Sprintf("%.0f%%", clamp(*level)*100)
}

// StressLabel buckets a score for the badge color
func StressLabel(level *float64) string {
	if level == nil {
		return ""
	}
	switch v := clamp(*level); {
	case v < 0.34:
		return "low"
	case v < 0.67:
		return "moderate"
	default:
		return "high"
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
