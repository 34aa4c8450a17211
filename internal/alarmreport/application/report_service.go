package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	alarmreport "bms-reports/internal/alarmreport/domain"
	"bms-reports/internal/alarmreport/render"
	"bms-reports/internal/audit"
	"bms-reports/internal/auth"
	"bms-reports/internal/observability/metrics"
)

// DefaultRequester labels reports generated without a known user.
const DefaultRequester = "System"

// GeneratedReport is the result of a generate request.
type GeneratedReport struct {
	ID          int64
	ReportName  string
	Data        []byte
	Records     int
	GeneratedOn time.Time
}

// Options tunes the report service.
type Options struct {
	// SkipEmpty makes Generate return ErrNoContent instead of an empty report.
	SkipEmpty bool
	// Title heads the XLSX summary sheet.
	Title    string
	Location *time.Location
	Audit    audit.Logger
	Logger   *zap.Logger
	Clock    Clock
}

// ReportService orchestrates report generation, viewing and review.
type ReportService struct {
	fetcher  RecordFetcher
	renderer ReportRenderer
	stamper  ReviewStamper
	store    ReportStore
	opts     Options
	logger   *zap.Logger
	clock    Clock
}

// NewReportService constructs the service.
func NewReportService(
	fetcher RecordFetcher,
	renderer ReportRenderer,
	stamper ReviewStamper,
	store ReportStore,
	opts Options,
) (*ReportService, error) {
	if fetcher == nil {
		return nil, errors.New("report service: nil record fetcher")
	}
	if renderer == nil {
		return nil, errors.New("report service: nil renderer")
	}
	if stamper == nil {
		return nil, errors.New("report service: nil stamper")
	}
	if store == nil {
		return nil, errors.New("report service: nil store")
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	return &ReportService{
		fetcher:  fetcher,
		renderer: renderer,
		stamper:  stamper,
		store:    store,
		opts:     opts,
		logger:   logger,
		clock:    clock,
	}, nil
}

// Generate fetches, renders and stores a report for the window.
func (s *ReportService) Generate(ctx context.Context, window alarmreport.TimeWindow, requester string) (*GeneratedReport, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveGenerate(result, time.Since(start))
	}()

	if requester == "" {
		requester = DefaultRequester
	}
	if err := window.Validate(); err != nil {
		result = metrics.ResultError
		return nil, err
	}

	records, err := s.fetcher.Fetch(ctx, window)
	if err != nil {
		result = metrics.ResultError
		return nil, ensureKind(err, alarmreport.ErrStoreUnavailable)
	}
	if len(records) == 0 && s.opts.SkipEmpty {
		result = metrics.ResultEmpty
		s.logger.Info("alarm report skipped, no records",
			zap.Time("start", window.Start),
			zap.Time("end", window.End),
		)
		return nil, alarmreport.ErrNoContent
	}

	data, err := s.renderer.Render(records, window, requester)
	if err != nil {
		result = metrics.ResultError
		return nil, ensureKind(err, alarmreport.ErrRender)
	}
	metrics.AddRowsRendered(len(records))

	doc := alarmreport.NewReportDocument(data, requester, s.clock.Now().In(s.opts.Location))
	id, err := s.store.Save(ctx, doc)
	if err != nil {
		result = metrics.ResultError
		return nil, ensureKind(err, alarmreport.ErrStoreUnavailable)
	}

	s.logger.Info("alarm report generated",
		zap.Int64("report_id", id),
		zap.String("report_name", doc.ReportName),
		zap.String("requester", requester),
		zap.Int("rows", len(records)),
		zap.Int("bytes", len(data)),
	)
	s.audit(ctx, requester, audit.ActionReportGenerate, id, map[string]any{
		"report_name": doc.ReportName,
		"rows":        len(records),
		"start":       window.Start.UTC().Format(time.RFC3339),
		"end":         window.End.UTC().Format(time.RFC3339),
	})

	return &GeneratedReport{
		ID:          id,
		ReportName:  doc.ReportName,
		Data:        data,
		Records:     len(records),
		GeneratedOn: doc.GeneratedOn,
	}, nil
}

// Document returns the stored bytes of a report.
func (s *ReportService) Document(ctx context.Context, id int64) ([]byte, error) {
	data, err := s.store.LoadData(ctx, id)
	if err != nil {
		return nil, ensureKind(err, alarmreport.ErrStoreUnavailable)
	}
	return data, nil
}

// Review stamps the stored report and replaces it. Nothing is written unless the
// stamp succeeds, and the bytes and review metadata are written together.
func (s *ReportService) Review(ctx context.Context, id int64, reviewer string) ([]byte, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveReview(result, time.Since(start))
	}()

	original, err := s.store.LoadData(ctx, id)
	if err != nil {
		result = metrics.ResultError
		return nil, ensureKind(err, alarmreport.ErrStoreUnavailable)
	}

	name := s.stamper.ResolveReviewer(reviewer)
	reviewedAt := s.clock.Now()
	stamped, err := s.stamper.Stamp(original, name, reviewedAt)
	if err != nil {
		result = metrics.ResultError
		return nil, ensureKind(err, alarmreport.ErrStamp)
	}

	if err := s.store.UpdateAfterReview(ctx, id, stamped, name, reviewedAt); err != nil {
		result = metrics.ResultError
		return nil, ensureKind(err, alarmreport.ErrStoreUnavailable)
	}

	s.logger.Info("alarm report reviewed",
		zap.Int64("report_id", id),
		zap.String("reviewer", name),
	)
	s.audit(ctx, name, audit.ActionReportReview, id, map[string]any{
		"reviewed_at": reviewedAt.UTC().Format(time.RFC3339),
	})
	return stamped, nil
}

// Get returns report metadata.
func (s *ReportService) Get(ctx context.Context, id int64) (*alarmreport.ReportDocument, error) {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, ensureKind(err, alarmreport.ErrStoreUnavailable)
	}
	return doc, nil
}

// List returns metadata for all stored reports.
func (s *ReportService) List(ctx context.Context) ([]alarmreport.ReportDocument, error) {
	docs, err := s.store.List(ctx)
	if err != nil {
		return nil, ensureKind(err, alarmreport.ErrStoreUnavailable)
	}
	return docs, nil
}

// ExportXLSX builds a workbook for the window without storing it.
func (s *ReportService) ExportXLSX(ctx context.Context, window alarmreport.TimeWindow) ([]byte, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport(metrics.FormatXLSX, result, time.Since(start))
	}()

	if err := window.Validate(); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	records, err := s.fetcher.Fetch(ctx, window)
	if err != nil {
		result = metrics.ResultError
		return nil, ensureKind(err, alarmreport.ErrStoreUnavailable)
	}
	data, err := render.BuildAlarmXLSX(s.opts.Title, records, window, s.opts.Location)
	if err != nil {
		result = metrics.ResultError
		return nil, ensureKind(err, alarmreport.ErrRender)
	}
	return data, nil
}

func (s *ReportService) audit(ctx context.Context, actor, action string, id int64, meta map[string]any) {
	if s.opts.Audit == nil {
		return
	}
	payload, err := json.Marshal(meta)
	if err != nil {
		payload = nil
	}
	entry := audit.Entry{
		Actor:        actor,
		Role:         string(auth.RoleFromContext(ctx)),
		Action:       action,
		ResourceType: audit.ResourceAlarmReport,
		ResourceID:   strconv.FormatInt(id, 10),
		Metadata:     payload,
		CreatedAt:    s.clock.Now().UTC(),
	}
	if err := s.opts.Audit.Log(ctx, entry); err != nil {
		s.logger.Warn("audit log failed", zap.String("action", action), zap.Int64("report_id", id), zap.Error(err))
	}
}

var knownKinds = []error{
	alarmreport.ErrInvalidWindow,
	alarmreport.ErrStoreUnavailable,
	alarmreport.ErrRender,
	alarmreport.ErrNotFound,
	alarmreport.ErrStamp,
	alarmreport.ErrNoContent,
}

// ensureKind keeps known error kinds and files anything else under fallback.
func ensureKind(err error, fallback error) error {
	for _, kind := range knownKinds {
		if errors.Is(err, kind) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", fallback, err)
}
