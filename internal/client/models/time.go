package models

import "time"

// TimeLayout is how timestamps are stored in SQLite. It is fixed width and
// always UTC, so stored values compare correctly as plain text.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

// FormatTime renders t in TimeLayout. Precision below a microsecond is
// dropped.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}

// Truncate drops what FormatTime would drop, so in-memory values equal their
// stored form.
func Truncate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
