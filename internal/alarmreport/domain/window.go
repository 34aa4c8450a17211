package alarmreport

import (
	"fmt"
	"time"
)

// TimeWindow is a closed [Start, End] query interval.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Validate rejects zero endpoints and inverted windows. Start == End is allowed.
func (w TimeWindow) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidWindow)
	}
	if w.Start.After(w.End) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidWindow, w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
	}
	return nil
}

// StartMillis returns the window start as epoch millis.
func (w TimeWindow) StartMillis() int64 { return w.Start.UnixMilli() }

// EndMillis returns the window end as epoch millis.
func (w TimeWindow) EndMillis() int64 { return w.End.UnixMilli() }
