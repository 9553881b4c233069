package timer

import "fmt"

// FormatTime renders seconds as HH:MM:SS when there is at least one hour,
// otherwise MM:SS. Negative input renders as zero.
func FormatTime(seconds int) string {
	seconds = max(seconds, 0)
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
