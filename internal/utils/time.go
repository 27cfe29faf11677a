package utils

import "time"

func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// TimeOfDay returns the offset of t from the start of its day.
func TimeOfDay(t time.Time) time.Duration {
	return t.Sub(StartOfDay(t))
}

func FormatTimeISO(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
