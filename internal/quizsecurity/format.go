package quizsecurity

import "fmt"

// FormatTime renders seconds as M:SS. Negative input is treated as zero.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
