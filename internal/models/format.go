package models

import (
	"fmt"
	"regexp"
)

var byteUnits = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// FormatBytes renders size with 1024-based units; bytes print as an integer,
// larger units with one decimal.
func FormatBytes(size int64) (string, error) {
	if size < 0 {
		return "", NewError(KindInputInvalid, fmt.Sprintf("size must be non-negative, got %d", size), nil)
	}
	value := float64(size)
	for i, unit := range byteUnits {
		if value < 1024 || i == len(byteUnits)-1 {
			if i == 0 {
				return fmt.Sprintf("%d %s", size, unit), nil
			}
			return fmt.Sprintf("%.1f %s", value, unit), nil
		}
		value /= 1024
	}
	return "", nil
}

var alnumRegexp = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// IsValidTorrentHash reports whether s looks like an info hash:
// 16, 32 or 40 alphanumeric characters.
func IsValidTorrentHash(s string) bool {
	switch len(s) {
	case 16, 32, 40:
		return alnumRegexp.MatchString(s)
	}
	return false
}

// Truncate cuts s to limit runes and appends "..." when it had to cut.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
