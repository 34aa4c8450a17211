package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	alarmreport "bms-reports/internal/alarmreport/domain"
	"bms-reports/internal/database"
)

// DefaultTable is the stored report table.
const DefaultTable = "stored_alarm_report"

// Repository persists rendered alarm reports.
type Repository struct {
	db      *sql.DB
	dialect database.Dialect
	table   string
	rawName string
}

// Option configures the repository.
type Option func(*Repository)

// WithTable overrides the stored report table name.
func WithTable(name string) Option {
	return func(r *Repository) {
		if name != "" {
			r.rawName = name
		}
	}
}

// NewRepository constructs a repository for the dialect.
func NewRepository(db *sql.DB, dialect database.Dialect, opts ...Option) (*Repository, error) {
	if db == nil {
		return nil, errors.New("report repo: nil db")
	}
	if dialect == nil {
		return nil, errors.New("report repo: nil dialect")
	}
	repo := &Repository{db: db, dialect: dialect, rawName: DefaultTable}
	for _, opt := range opts {
		opt(repo)
	}
	table, err := database.QuoteQualified(dialect, repo.rawName)
	if err != nil {
		return nil, fmt.Errorf("report repo: %w", err)
	}
	repo.table = table
	return repo, nil
}

// EnsureSchema creates the report table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	d := r.dialect
	var ddl string
	switch d.Name() {
	case "sqlserver":
		ddl = fmt.Sprintf(`
IF OBJECT_ID(N'%s', N'U') IS NULL
CREATE TABLE %s (
	%s,
	report_name NVARCHAR(255) NOT NULL,
	generated_on %s NOT NULL,
	report_data %s NOT NULL,
	generated_by NVARCHAR(255) NOT NULL,
	reviewed_by NVARCHAR(255) NULL,
	review_date BIGINT NULL
)`, r.rawName, r.table, d.IdentityColumn(), d.TimestampType(), d.BlobType())
	default:
		ddl = fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	%s,
	report_name TEXT NOT NULL,
	generated_on %s NOT NULL,
	report_data %s NOT NULL,
	generated_by TEXT NOT NULL,
	reviewed_by TEXT NULL,
	review_date BIGINT NULL
)`, r.table, d.IdentityColumn(), d.TimestampType(), d.BlobType())
	}
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return storeErr("ensure schema", err)
	}
	return nil
}

// Save inserts a new unreviewed document and returns its id.
func (r *Repository) Save(ctx context.Context, doc *alarmreport.ReportDocument) (int64, error) {
	if doc == nil {
		return 0, errors.New("report repo: nil document")
	}
	query := r.dialect.InsertReturningID(r.table, []string{"report_name", "generated_on", "report_data", "generated_by"})
	var id int64
	err := r.db.QueryRowContext(ctx, query, doc.ReportName, doc.GeneratedOn.UTC(), doc.Data, doc.GeneratedBy).Scan(&id)
	if err != nil {
		return 0, storeErr("save report", err)
	}
	doc.ID = id
	return id, nil
}

// LoadData returns the stored document bytes.
func (r *Repository) LoadData(ctx context.Context, id int64) ([]byte, error) {
	query := fmt.Sprintf("SELECT report_data FROM %s WHERE id = %s", r.table, r.dialect.Placeholder(1))
	var data []byte
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: report %d", alarmreport.ErrNotFound, id)
		}
		return nil, storeErr("load report", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: report %d has no data", alarmreport.ErrNotFound, id)
	}
	return data, nil
}

// UpdateAfterReview replaces the document bytes and review metadata in one statement.
func (r *Repository) UpdateAfterReview(ctx context.Context, id int64, data []byte, reviewer string, reviewedAt time.Time) error {
	p := r.dialect.Placeholder
	query := fmt.Sprintf("UPDATE %s SET report_data = %s, reviewed_by = %s, review_date = %s WHERE id = %s",
		r.table, p(1), p(2), p(3), p(4))
	res, err := r.db.ExecContext(ctx, query, data, reviewer, reviewedAt.UnixMilli(), id)
	if err != nil {
		return storeErr("update report", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storeErr("update report", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: report %d", alarmreport.ErrNotFound, id)
	}
	return nil
}

// Get returns document metadata without the bytes.
func (r *Repository) Get(ctx context.Context, id int64) (*alarmreport.ReportDocument, error) {
	query := fmt.Sprintf(`
SELECT id, report_name, generated_on, generated_by, reviewed_by, review_date
FROM %s
WHERE id = %s`, r.table, r.dialect.Placeholder(1))
	doc, err := scanMetadata(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: report %d", alarmreport.ErrNotFound, id)
		}
		return nil, storeErr("get report", err)
	}
	return doc, nil
}

// List returns metadata for every stored report, newest first.
func (r *Repository) List(ctx context.Context) ([]alarmreport.ReportDocument, error) {
	query := fmt.Sprintf(`
SELECT id, report_name, generated_on, generated_by, reviewed_by, review_date
FROM %s
ORDER BY generated_on DESC, id DESC`, r.table)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storeErr("list reports", err)
	}
	defer rows.Close()

	result := []alarmreport.ReportDocument{}
	for rows.Next() {
		doc, err := scanMetadata(rows)
		if err != nil {
			return nil, storeErr("list reports", err)
		}
		result = append(result, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list reports", err)
	}
	return result, nil
}

// CountPendingReview counts reports without review metadata.
func (r *Repository) CountPendingReview(ctx context.Context) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE review_date IS NULL OR review_date = 0", r.table)
	var count int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, storeErr("count pending", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMetadata(row rowScanner) (*alarmreport.ReportDocument, error) {
	var (
		doc         alarmreport.ReportDocument
		generatedOn dbTime
		generatedBy sql.NullString
		reviewedBy  sql.NullString
		reviewDate  sql.NullInt64
	)
	if err := row.Scan(&doc.ID, &doc.ReportName, &generatedOn, &generatedBy, &reviewedBy, &reviewDate); err != nil {
		return nil, err
	}
	doc.GeneratedOn = generatedOn.Time
	doc.GeneratedBy = generatedBy.String
	// a half-written review is reported as not reviewed
	if reviewedBy.Valid && reviewedBy.String != "" && reviewDate.Valid && reviewDate.Int64 > 0 {
		doc.ReviewedBy = reviewedBy.String
		doc.ReviewDate = time.UnixMilli(reviewDate.Int64).UTC()
	}
	return &doc, nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", alarmreport.ErrStoreUnavailable, op, err)
}
