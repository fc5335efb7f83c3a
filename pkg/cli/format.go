package cli

import (
	"fmt"
	"time"
)

// FormatDuration formats a duration as 850ms, 1.5s or 2m5.5s.
func FormatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	secs := float64(ms) / 1000
	if secs < 60 {
		return fmt.Sprintf("%.1fs", secs)
	}
	mins := int(secs / 60)
	secs -= float64(mins * 60)
	return fmt.Sprintf("%dm%.1fs", mins, secs)
}

// FormatBytes formats bytes to human readable string
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatOccupancy formats a fill level as "3 B / 4.00 KB (0%)".
func FormatOccupancy(n, capacity int) string {
	pct := 0
	if capacity > 0 {
		pct = n * 100 / capacity
	}
	return fmt.Sprintf("%s / %s (%d%%)", FormatBytes(int64(n)), FormatBytes(int64(capacity)), pct)
}
