package alarmreport

import (
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the report-wide timestamp pattern.
const TimestampLayout = "02-Jan-2006 15:04:05"

// FormatTime formats t with the report layout in loc.
func FormatTime(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(TimestampLayout)
}

// FormatEpochMillis formats epoch millis with the report layout. Values outside the
// four-digit year range fall back to the raw number.
func FormatEpochMillis(millis int64, loc *time.Location) string {
	t := time.UnixMilli(millis)
	if loc != nil {
		t = t.In(loc)
	}
	if t.Year() < 1 || t.Year() > 9999 {
		return strconv.FormatInt(millis, 10)
	}
	return t.Format(TimestampLayout)
}

// SplitDateTime splits a formatted timestamp into its date and time parts.
func SplitDateTime(formatted string) (string, string) {
	date, clock, found := strings.Cut(formatted, " ")
	if !found {
		return formatted, ""
	}
	return date, clock
}
