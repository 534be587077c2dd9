package views

import (
	"fmt"
	"time"
)

// formatWhen renders a unix-seconds timestamp relative to now: recent
// messages read as an age, older ones fall back to a clock time or date.
func formatWhen(unixSec int64, now time.Time) string {
	if unixSec <= 0 {
		return ""
	}
	t := time.Unix(unixSec, 0)
	age := now.Sub(t)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case t.YearDay() == now.YearDay() && t.Year() == now.Year():
		return t.Format("15:04")
	default:
		return t.Format("Jan 2 15:04")
	}
}
