package application

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	alarmreport "bms-reports/internal/alarmreport/domain"
	"bms-reports/internal/alarmreport/infrastructure/historian"
	"bms-reports/internal/alarmreport/infrastructure/store"
	"bms-reports/internal/alarmreport/render"
	"bms-reports/internal/alarmreport/stamp"
	"bms-reports/internal/audit"
	"bms-reports/internal/database"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fakeFetcher struct {
	records []alarmreport.AlarmRecord
	err     error
	calls   int
}

func (f *fakeFetcher) Fetch(_ context.Context, window alarmreport.TimeWindow) ([]alarmreport.AlarmRecord, error) {
	f.calls++
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

type fakeRenderer struct {
	err   error
	calls int
}

func (r *fakeRenderer) Render(records []alarmreport.AlarmRecord, _ alarmreport.TimeWindow, requester string) ([]byte, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return []byte("pdf:" + requester), nil
}

type fakeStamper struct {
	err error
}

func (s *fakeStamper) ResolveReviewer(reviewer string) string {
	if reviewer == "" {
		return "Supervisor"
	}
	return reviewer
}

func (s *fakeStamper) Stamp(original []byte, reviewer string, _ time.Time) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append(append([]byte{}, original...), []byte("|stamped:"+reviewer)...), nil
}

type memoryStore struct {
	mu        sync.Mutex
	docs      map[int64]*alarmreport.ReportDocument
	nextID    int64
	saveErr   error
	updateErr error
	updates   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{docs: map[int64]*alarmreport.ReportDocument{}}
}

func (m *memoryStore) Save(_ context.Context, doc *alarmreport.ReportDocument) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return 0, m.saveErr
	}
	m.nextID++
	copied := *doc
	copied.ID = m.nextID
	m.docs[copied.ID] = &copied
	doc.ID = m.nextID
	return m.nextID, nil
}

func (m *memoryStore) LoadData(_ context.Context, id int64) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, alarmreport.ErrNotFound
	}
	return doc.Data, nil
}

func (m *memoryStore) UpdateAfterReview(_ context.Context, id int64, data []byte, reviewer string, reviewedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	if m.updateErr != nil {
		return m.updateErr
	}
	doc, ok := m.docs[id]
	if !ok {
		return alarmreport.ErrNotFound
	}
	doc.Data = data
	doc.ReviewedBy = reviewer
	doc.ReviewDate = reviewedAt
	return nil
}

func (m *memoryStore) Get(_ context.Context, id int64) (*alarmreport.ReportDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, alarmreport.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (m *memoryStore) List(context.Context) ([]alarmreport.ReportDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []alarmreport.ReportDocument{}
	for _, doc := range m.docs {
		out = append(out, *doc)
	}
	return out, nil
}

type recordingAudit struct {
	entries []audit.Entry
	err     error
}

func (a *recordingAudit) Log(_ context.Context, entry audit.Entry) error {
	a.entries = append(a.entries, entry)
	return a.err
}

var testNow = time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

func testWindow() alarmreport.TimeWindow {
	return alarmreport.TimeWindow{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC),
	}
}

func oneRecord() alarmreport.AlarmRecord {
	return alarmreport.AlarmRecord{
		Source:          "AHU_12",
		AckState:        alarmreport.AckStateAck,
		AlarmClass:      alarmreport.AlarmClassCritical,
		NormalTime:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).UnixMilli(),
		TimeOfLastAlarm: time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC).UnixMilli(),
		MessageText:     alarmreport.DefaultMessageText,
	}
}

func newTestService(t *testing.T, fetcher *fakeFetcher, renderer *fakeRenderer, stamper *fakeStamper, st *memoryStore, opts Options) *ReportService {
	t.Helper()
	opts.Location = time.UTC
	opts.Clock = fixedClock{now: testNow}
	svc, err := NewReportService(fetcher, renderer, stamper, st, opts)
	require.NoError(t, err)
	return svc
}

func TestNewReportServiceRejectsNilDeps(t *testing.T) {
	_, err := NewReportService(nil, &fakeRenderer{}, &fakeStamper{}, newMemoryStore(), Options{})
	assert.Error(t, err)
	_, err = NewReportService(&fakeFetcher{}, nil, &fakeStamper{}, newMemoryStore(), Options{})
	assert.Error(t, err)
	_, err = NewReportService(&fakeFetcher{}, &fakeRenderer{}, nil, newMemoryStore(), Options{})
	assert.Error(t, err)
	_, err = NewReportService(&fakeFetcher{}, &fakeRenderer{}, &fakeStamper{}, nil, Options{})
	assert.Error(t, err)
}

func TestGenerateStoresUnreviewedReport(t *testing.T) {
	st := newMemoryStore()
	rec := &recordingAudit{}
	svc := newTestService(t, &fakeFetcher{records: []alarmreport.AlarmRecord{oneRecord()}}, &fakeRenderer{}, &fakeStamper{}, st, Options{Audit: rec})

	report, err := svc.Generate(context.Background(), testWindow(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.ID)
	assert.Equal(t, "Alarm_Report_20240201_090000", report.ReportName)
	assert.Equal(t, []byte("pdf:alice"), report.Data)
	assert.Equal(t, 1, report.Records)

	doc, err := svc.Get(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", doc.GeneratedBy)
	assert.False(t, doc.Reviewed())

	require.Len(t, rec.entries, 1)
	assert.Equal(t, audit.ActionReportGenerate, rec.entries[0].Action)
	assert.Equal(t, "1", rec.entries[0].ResourceID)
}

func TestGenerateInvalidWindowSkipsFetch(t *testing.T) {
	fetcher := &fakeFetcher{}
	svc := newTestService(t, fetcher, &fakeRenderer{}, &fakeStamper{}, newMemoryStore(), Options{})
	window := testWindow()
	window.Start, window.End = window.End, window.Start

	_, err := svc.Generate(context.Background(), window, "alice")
	assert.True(t, errors.Is(err, alarmreport.ErrInvalidWindow))
	assert.Equal(t, 0, fetcher.calls)
}

func TestGenerateEmptyWindow(t *testing.T) {
	t.Run("renders header-only report by default", func(t *testing.T) {
		st := newMemoryStore()
		renderer := &fakeRenderer{}
		svc := newTestService(t, &fakeFetcher{}, renderer, &fakeStamper{}, st, Options{})
		report, err := svc.Generate(context.Background(), testWindow(), "alice")
		require.NoError(t, err)
		assert.Equal(t, 0, report.Records)
		assert.Equal(t, 1, renderer.calls)
		assert.Len(t, st.docs, 1)
	})
	t.Run("skips when configured", func(t *testing.T) {
		st := newMemoryStore()
		renderer := &fakeRenderer{}
		svc := newTestService(t, &fakeFetcher{}, renderer, &fakeStamper{}, st, Options{SkipEmpty: true})
		_, err := svc.Generate(context.Background(), testWindow(), "alice")
		assert.True(t, errors.Is(err, alarmreport.ErrNoContent))
		assert.Equal(t, 0, renderer.calls)
		assert.Empty(t, st.docs)
	})
}

func TestGenerateErrorKinds(t *testing.T) {
	t.Run("fetch failure", func(t *testing.T) {
		svc := newTestService(t, &fakeFetcher{err: errors.New("timeout")}, &fakeRenderer{}, &fakeStamper{}, newMemoryStore(), Options{})
		_, err := svc.Generate(context.Background(), testWindow(), "alice")
		assert.True(t, errors.Is(err, alarmreport.ErrStoreUnavailable))
	})
	t.Run("render failure stores nothing", func(t *testing.T) {
		st := newMemoryStore()
		svc := newTestService(t, &fakeFetcher{}, &fakeRenderer{err: errors.New("font")}, &fakeStamper{}, st, Options{})
		_, err := svc.Generate(context.Background(), testWindow(), "alice")
		assert.True(t, errors.Is(err, alarmreport.ErrRender))
		assert.Empty(t, st.docs)
	})
	t.Run("save failure", func(t *testing.T) {
		st := newMemoryStore()
		st.saveErr = errors.New("disk full")
		svc := newTestService(t, &fakeFetcher{}, &fakeRenderer{}, &fakeStamper{}, st, Options{})
		_, err := svc.Generate(context.Background(), testWindow(), "alice")
		assert.True(t, errors.Is(err, alarmreport.ErrStoreUnavailable))
	})
}

func TestGenerateDefaultsRequester(t *testing.T) {
	svc := newTestService(t, &fakeFetcher{}, &fakeRenderer{}, &fakeStamper{}, newMemoryStore(), Options{})
	report, err := svc.Generate(context.Background(), testWindow(), "")
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf:"+DefaultRequester), report.Data)
}

func TestGenerateAuditFailureDoesNotFail(t *testing.T) {
	rec := &recordingAudit{err: errors.New("audit down")}
	svc := newTestService(t, &fakeFetcher{}, &fakeRenderer{}, &fakeStamper{}, newMemoryStore(), Options{Audit: rec, Logger: zap.NewNop()})
	_, err := svc.Generate(context.Background(), testWindow(), "alice")
	require.NoError(t, err)
	assert.Len(t, rec.entries, 1)
}

func TestReviewStampsAndUpdates(t *testing.T) {
	st := newMemoryStore()
	svc := newTestService(t, &fakeFetcher{}, &fakeRenderer{}, &fakeStamper{}, st, Options{})
	report, err := svc.Generate(context.Background(), testWindow(), "alice")
	require.NoError(t, err)

	stamped, err := svc.Review(context.Background(), report.ID, "")
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf:alice|stamped:Supervisor"), stamped)

	doc, err := svc.Get(context.Background(), report.ID)
	require.NoError(t, err)
	assert.True(t, doc.Reviewed())
	assert.Equal(t, "Supervisor", doc.ReviewedBy)
	assert.True(t, testNow.Equal(doc.ReviewDate))

	data, err := svc.Document(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, stamped, data)
}

func TestReviewMissingReport(t *testing.T) {
	st := newMemoryStore()
	svc := newTestService(t, &fakeFetcher{}, &fakeRenderer{}, &fakeStamper{}, st, Options{})
	_, err := svc.Review(context.Background(), 99, "bob")
	assert.True(t, errors.Is(err, alarmreport.ErrNotFound))
	assert.Equal(t, 0, st.updates)

	_, err = svc.Document(context.Background(), 99)
	assert.True(t, errors.Is(err, alarmreport.ErrNotFound))
}

func TestReviewStampFailureLeavesReportUntouched(t *testing.T) {
	st := newMemoryStore()
	svc := newTestService(t, &fakeFetcher{}, &fakeRenderer{}, &fakeStamper{err: errors.New("corrupt xref")}, st, Options{})
	report, err := svc.Generate(context.Background(), testWindow(), "alice")
	require.NoError(t, err)

	_, err = svc.Review(context.Background(), report.ID, "bob")
	assert.True(t, errors.Is(err, alarmreport.ErrStamp))
	assert.Equal(t, 0, st.updates)

	doc, err := svc.Get(context.Background(), report.ID)
	require.NoError(t, err)
	assert.False(t, doc.Reviewed())
	assert.Equal(t, []byte("pdf:alice"), st.docs[report.ID].Data)
}

func TestReviewUpdateFailureLeavesReportUntouched(t *testing.T) {
	st := newMemoryStore()
	svc := newTestService(t, &fakeFetcher{}, &fakeRenderer{}, &fakeStamper{}, st, Options{})
	report, err := svc.Generate(context.Background(), testWindow(), "alice")
	require.NoError(t, err)

	st.updateErr = errors.New("connection reset")
	_, err = svc.Review(context.Background(), report.ID, "bob")
	assert.True(t, errors.Is(err, alarmreport.ErrStoreUnavailable))

	data, err := svc.Document(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf:alice"), data)
	doc, err := svc.Get(context.Background(), report.ID)
	require.NoError(t, err)
	assert.False(t, doc.Reviewed())
}

func TestExportXLSX(t *testing.T) {
	svc := newTestService(t, &fakeFetcher{records: []alarmreport.AlarmRecord{oneRecord()}}, &fakeRenderer{}, &fakeStamper{}, newMemoryStore(), Options{Title: "Plant 7 Alarms"})
	data, err := svc.ExportXLSX(context.Background(), testWindow())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()
	title, err := book.GetCellValue("summary", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Plant 7 Alarms", title)

	_, err = svc.ExportXLSX(context.Background(), alarmreport.TimeWindow{})
	assert.True(t, errors.Is(err, alarmreport.ErrInvalidWindow))
}

func TestEndToEndOneRowReport(t *testing.T) {
	ctx := context.Background()
	db, dialect, err := database.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "reports.db"), database.Options{})
	require.NoError(t, err)
	defer db.Close()
	repo, err := store.NewRepository(db, dialect)
	require.NoError(t, err)
	require.NoError(t, repo.EnsureSchema(ctx))

	historianDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer historianDB.Close()
	window := testWindow()
	mock.ExpectQuery(`SELECT`).
		WithArgs(window.StartMillis(), window.EndMillis()).
		WillReturnRows(sqlmock.NewRows([]string{"ackState", "alarmClass", "normalTime", "ackTime", "source", "timeOfLastAlarm"}).
			AddRow(int64(0), int64(1), oneRecord().NormalTime, int64(0), "/Drivers/BacnetNetwork/AHU_12/x", oneRecord().TimeOfLastAlarm))
	fetcher, err := historian.NewRecordFetcher(historianDB, database.SQLServerDialect{}, historian.DefaultSQLServerSchema, nil)
	require.NoError(t, err)

	renderer := render.NewRenderer(render.Options{Location: time.UTC}, nil)
	stamper := stamp.NewStamper("", time.UTC, nil)
	svc, err := NewReportService(fetcher, renderer, stamper, repo, Options{
		Location: time.UTC,
		Clock:    fixedClock{now: testNow},
	})
	require.NoError(t, err)

	report, err := svc.Generate(ctx, window, "alice")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 1, report.Records)
	pages, err := stamper.PageCount(report.Data)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
	for _, cell := range []string{"(AHU_12)", "(Ack)", "(Critical)", "(HUMIDITY NORMAL)", "(02-Jan-2024 03:04:05)"} {
		assert.Contains(t, string(report.Data), cell)
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].Reviewed())

	stamped, err := svc.Review(ctx, report.ID, "bob")
	require.NoError(t, err)
	assert.NotEqual(t, report.Data, stamped)
	pages, err = stamper.PageCount(stamped)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)

	stored, err := svc.Document(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, stamped, stored)

	doc, err := svc.Get(ctx, report.ID)
	require.NoError(t, err)
	assert.True(t, doc.Reviewed())
	assert.Equal(t, "bob", doc.ReviewedBy)
}
