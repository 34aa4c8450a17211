package application

import (
	"context"
	"time"

	alarmreport "bms-reports/internal/alarmreport/domain"
)

// RecordFetcher reads alarm records for a window.
type RecordFetcher interface {
	Fetch(ctx context.Context, window alarmreport.TimeWindow) ([]alarmreport.AlarmRecord, error)
}

// ReportRenderer renders records into a document.
type ReportRenderer interface {
	Render(records []alarmreport.AlarmRecord, window alarmreport.TimeWindow, requester string) ([]byte, error)
}

// ReviewStamper overlays review metadata on a stored document.
type ReviewStamper interface {
	ResolveReviewer(reviewer string) string
	Stamp(original []byte, reviewer string, reviewedAt time.Time) ([]byte, error)
}

// ReportStore persists rendered reports.
type ReportStore interface {
	Save(ctx context.Context, doc *alarmreport.ReportDocument) (int64, error)
	LoadData(ctx context.Context, id int64) ([]byte, error)
	UpdateAfterReview(ctx context.Context, id int64, data []byte, reviewer string, reviewedAt time.Time) error
	Get(ctx context.Context, id int64) (*alarmreport.ReportDocument, error)
	List(ctx context.Context) ([]alarmreport.ReportDocument, error)
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
