package utils

import (
	"fmt"
	"time"
)

// FormatDuration renders a duration the way the dashboard displays it.
// Job runs are seconds-scale, calibration ages are hours-to-days scale.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "just now"
	}

	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%d days, %d hours", days, hours)
	}
	if hours > 0 {
		return fmt.Sprintf("%d hours, %d minutes", hours, minutes)
	}
	return fmt.Sprintf("%d minutes", minutes)
}
