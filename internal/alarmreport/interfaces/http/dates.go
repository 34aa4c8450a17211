package http

import (
	"fmt"
	"strings"
	"time"

	alarmreport "bms-reports/internal/alarmreport/domain"
)

// boundaryLayouts are tried in order for window endpoints.
var boundaryLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseBoundaryTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: missing date", alarmreport.ErrInvalidWindow)
	}
	for _, layout := range boundaryLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), nil
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized date %q", alarmreport.ErrInvalidWindow, value)
}

func parseWindow(start, end string, loc *time.Location) (alarmreport.TimeWindow, error) {
	from, err := parseBoundaryTime(start, loc)
	if err != nil {
		return alarmreport.TimeWindow{}, err
	}
	to, err := parseBoundaryTime(end, loc)
	if err != nil {
		return alarmreport.TimeWindow{}, err
	}
	window := alarmreport.TimeWindow{Start: from, End: to}
	if err := window.Validate(); err != nil {
		return alarmreport.TimeWindow{}, err
	}
	return window, nil
}
