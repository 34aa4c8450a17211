package historian

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	alarmreport "bms-reports/internal/alarmreport/domain"
	"bms-reports/internal/database"
)

// DefaultSQLServerSchema is the catalog and schema of the Metasys historian.
const DefaultSQLServerSchema = "JCIHistorianDB.dbo"

const (
	recordTable      = "alarmOrion_OrionAlarmRecord"
	sourceOrderTable = "alarmOrion_OrionAlarmSourceOrder"
	sourceTable      = "alarmOrion_OrionAlarmSource"
	classTable       = "alarmOrion_OrionAlarmClass"
)

// RecordFetcher reads alarm records for a time window from the historian.
type RecordFetcher struct {
	db     *sql.DB
	query  string
	logger *zap.Logger
}

// NewRecordFetcher builds the range query for the dialect and schema prefix.
// An empty schema leaves table names unqualified.
func NewRecordFetcher(db *sql.DB, dialect database.Dialect, schema string, logger *zap.Logger) (*RecordFetcher, error) {
	if db == nil {
		return nil, errors.New("record fetcher: nil db")
	}
	if dialect == nil {
		return nil, errors.New("record fetcher: nil dialect")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	query, err := buildRangeQuery(dialect, schema)
	if err != nil {
		return nil, fmt.Errorf("record fetcher: %w", err)
	}
	return &RecordFetcher{db: db, query: query, logger: logger}, nil
}

// Fetch returns every record whose event timestamp lies in the closed window,
// ordered ascending by event timestamp.
func (f *RecordFetcher) Fetch(ctx context.Context, window alarmreport.TimeWindow) ([]alarmreport.AlarmRecord, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	rows, err := f.db.QueryContext(ctx, f.query, window.StartMillis(), window.EndMillis())
	if err != nil {
		return nil, fmt.Errorf("%w: query alarm records: %w", alarmreport.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	records := []alarmreport.AlarmRecord{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan alarm record: %w", alarmreport.ErrStoreUnavailable, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate alarm records: %w", alarmreport.ErrStoreUnavailable, err)
	}
	f.logger.Debug("alarm records fetched",
		zap.Int64("start_ms", window.StartMillis()),
		zap.Int64("end_ms", window.EndMillis()),
		zap.Int("count", len(records)),
	)
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (alarmreport.AlarmRecord, error) {
	var (
		ackState        sql.NullInt64
		alarmClass      sql.NullInt64
		normalTime      sql.NullInt64
		ackTime         sql.NullInt64
		source          sql.NullString
		timeOfLastAlarm sql.NullInt64
	)
	if err := row.Scan(&ackState, &alarmClass, &normalTime, &ackTime, &source, &timeOfLastAlarm); err != nil {
		return alarmreport.AlarmRecord{}, err
	}
	record := alarmreport.AlarmRecord{
		Source:          alarmreport.ExtractSourceName(source.String),
		AckState:        alarmreport.AckStateUnknown,
		AlarmClass:      alarmreport.AlarmClassUnknown,
		NormalTime:      normalTime.Int64,
		AckTime:         ackTime.Int64,
		TimeOfLastAlarm: timeOfLastAlarm.Int64,
		MessageText:     alarmreport.DefaultMessageText,
	}
	if ackState.Valid {
		record.AckState = alarmreport.AckState(ackState.Int64)
	}
	if alarmClass.Valid {
		record.AlarmClass = alarmreport.AlarmClass(alarmClass.Int64)
	}
	return record, nil
}

func buildRangeQuery(dialect database.Dialect, schema string) (string, error) {
	table := func(name string) (string, error) {
		if schema == "" {
			return database.QuoteQualified(dialect, name)
		}
		return database.QuoteQualified(dialect, schema+"."+name)
	}
	records, err := table(recordTable)
	if err != nil {
		return "", err
	}
	sourceOrder, err := table(sourceOrderTable)
	if err != nil {
		return "", err
	}
	sources, err := table(sourceTable)
	if err != nil {
		return "", err
	}
	classes, err := table(classTable)
	if err != nil {
		return "", err
	}
	q := dialect.QuoteIdent
	return fmt.Sprintf(`
SELECT r.%s, r.%s, r.%s, r.%s, s.%s, c.%s
FROM %s r
LEFT JOIN %s o ON r.%s = o.%s
LEFT JOIN %s s ON o.%s = s.%s
LEFT JOIN %s c ON r.%s = c.%s
WHERE r.%s BETWEEN %s AND %s
ORDER BY r.%s ASC`,
		q("ackState"), q("alarmClass"), q("normalTime"), q("ackTime"), q("source"), q("timeOfLastAlarm"),
		records,
		sourceOrder, q("id"), q("id"),
		sources, q("alarmSource"), q("id"),
		classes, q("alarmClass"), q("id"),
		q("timestamp"), dialect.Placeholder(1), dialect.Placeholder(2),
		q("timestamp"),
	), nil
}
