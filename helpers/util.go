package helpers

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

func GetSplitPart(target string, separate string, index int) (string, error) {
	parts := strings.Split(target, separate)
	if index >= len(parts) {
		return "", errors.New("index out of range")
	}
	return parts[index], nil
}

// FormatDuration renders an elapsed duration as a short human-readable string.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	seconds := d.Seconds()
	switch {
	case seconds < 60:
		return fmt.Sprintf("%.0fs", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%.0fm %.0fs", seconds/60, float64(int(seconds)%60))
	default:
		return fmt.Sprintf("%.0fh %.0fm", seconds/3600, float64(int(seconds)%3600)/60)
	}
}
