package session

import (
	"fmt"
	"time"
)

// FormatClock renders a millisecond offset as mm:ss, or h:mm:ss from one
// hour on. Negative values render as zero.
func FormatClock(ms int) string {
	d := time.Duration(ms) * time.Millisecond
	if d < 0 {
		d = 0
	}
	h := int(d / time.Hour)
	m := int(d/time.Minute) % 60
	s := int(d/time.Second) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
