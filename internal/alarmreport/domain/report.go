package alarmreport

import "time"

const reportNameLayout = "20060102_150405"

// ReportDocument is a rendered report together with its generation and review metadata.
type ReportDocument struct {
	ID          int64
	ReportName  string
	Data        []byte
	GeneratedOn time.Time
	GeneratedBy string
	ReviewedBy  string
	ReviewDate  time.Time
}

// Reviewed reports whether both review fields are set.
func (d ReportDocument) Reviewed() bool {
	return d.ReviewedBy != "" && !d.ReviewDate.IsZero()
}

// NewReportDocument builds an unreviewed document generated at the given time.
func NewReportDocument(data []byte, generatedBy string, generatedOn time.Time) *ReportDocument {
	return &ReportDocument{
		ReportName:  ReportName(generatedOn),
		Data:        data,
		GeneratedOn: generatedOn,
		GeneratedBy: generatedBy,
	}
}

// ReportName derives the stored report name from its generation time.
func ReportName(generatedOn time.Time) string {
	return "Alarm_Report_" + generatedOn.Format(reportNameLayout)
}
