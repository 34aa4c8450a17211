package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	alarmreport "bms-reports/internal/alarmreport/domain"
)

// BuildAlarmXLSX renders the alarm table into a workbook with a summary sheet.
// An empty title falls back to DefaultTitle.
func BuildAlarmXLSX(title string, records []alarmreport.AlarmRecord, window alarmreport.TimeWindow, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.Local
	}
	if title == "" {
		title = DefaultTitle
	}
	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "summary"
	alarmsSheet := "alarms"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("%w: %w", alarmreport.ErrRender, err)
	}
	if _, err := f.NewSheet(alarmsSheet); err != nil {
		return nil, fmt.Errorf("%w: %w", alarmreport.ErrRender, err)
	}

	_ = f.SetCellValue(summarySheet, "A1", title)
	_ = f.SetCellValue(summarySheet, "A3", "Start")
	_ = f.SetCellValue(summarySheet, "B3", alarmreport.FormatTime(window.Start, loc))
	_ = f.SetCellValue(summarySheet, "A4", "End")
	_ = f.SetCellValue(summarySheet, "B4", alarmreport.FormatTime(window.End, loc))
	_ = f.SetCellValue(summarySheet, "A5", "Records")
	_ = f.SetCellValue(summarySheet, "B5", len(records))

	for i, title := range columnTitles {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(alarmsSheet, cell, title)
	}
	for i, rec := range records {
		row := i + 2
		_ = f.SetCellValue(alarmsSheet, fmt.Sprintf("A%d", row), alarmreport.FormatEpochMillis(rec.NormalTime, loc))
		_ = f.SetCellValue(alarmsSheet, fmt.Sprintf("B%d", row), rec.Source)
		_ = f.SetCellValue(alarmsSheet, fmt.Sprintf("C%d", row), rec.AckState.Label())
		_ = f.SetCellValue(alarmsSheet, fmt.Sprintf("D%d", row), rec.MessageText)
		_ = f.SetCellValue(alarmsSheet, fmt.Sprintf("E%d", row), rec.AlarmClass.Label())
		_ = f.SetCellValue(alarmsSheet, fmt.Sprintf("F%d", row), alarmreport.FormatEpochMillis(rec.TimeOfLastAlarm, loc))
	}
	_ = f.SetColWidth(alarmsSheet, "A", "F", 22)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", alarmreport.ErrRender, err)
	}
	return buf.Bytes(), nil
}
