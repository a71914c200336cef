package util //nolint:revive // package name util hosts shared formatting helpers used by the admin CLI

import "time"

// FormatRemaining renders the time left until expiresAt for display.
// Returns "expired" once expiresAt has passed and truncates to whole seconds otherwise.
func FormatRemaining(expiresAt, now time.Time) string {
	d := expiresAt.Sub(now)
	if d <= 0 {
		return "expired"
	}
	if d < time.Second {
		return "<1s"
	}
	return d.Truncate(time.Second).String()
}
