package render

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	alarmreport "bms-reports/internal/alarmreport/domain"
)

// DefaultTitle is the report heading.
const DefaultTitle = "Alarm Report of S20A BMS System"

// PageDecorator paints page furniture once a page is complete.
type PageDecorator interface {
	DecoratePage(pdf *gofpdf.Fpdf, pageNo int)
}

// Options configures the renderer.
type Options struct {
	Title       string
	ServiceName string
	Location    *time.Location
	Logo        *Logo
	// Compress toggles stream compression.
	Compress bool
}

// Renderer turns alarm records into a paginated PDF.
type Renderer struct {
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// NewRenderer constructs a renderer.
func NewRenderer(opts Options, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Renderer{opts: opts, logger: logger, now: time.Now}
}

// WithClock overrides the generation clock.
func (r *Renderer) WithClock(now func() time.Time) *Renderer {
	if now != nil {
		r.now = now
	}
	return r
}

// Location returns the time zone used for formatting.
func (r *Renderer) Location() *time.Location {
	return r.opts.Location
}

// Render renders records with the standard header and footer.
func (r *Renderer) Render(records []alarmreport.AlarmRecord, window alarmreport.TimeWindow, requester string) ([]byte, error) {
	dec := &HeaderFooter{
		Title:       r.opts.Title,
		Window:      window,
		Requester:   requester,
		GeneratedOn: r.now(),
		Location:    r.opts.Location,
		Logo:        r.opts.Logo,
		Logger:      r.logger,
	}
	return r.RenderWithDecorator(records, dec, requester)
}

// RenderWithDecorator renders records, calling dec once for every page.
func (r *Renderer) RenderWithDecorator(records []alarmreport.AlarmRecord, dec PageDecorator, requester string) (out []byte, err error) {
	if dec == nil {
		return nil, fmt.Errorf("%w: nil decorator", alarmreport.ErrRender)
	}
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = fmt.Errorf("%w: %v", alarmreport.ErrRender, rec)
		}
	}()

	pdf := gofpdf.New("L", "pt", "A4", "")
	pdf.SetCompression(r.opts.Compress)
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.SetTitle(r.opts.Title, true)
	pdf.SetAuthor(requester, true)
	if r.opts.ServiceName != "" {
		pdf.SetCreator(r.opts.ServiceName, true)
	}
	pdf.SetCreationDate(r.now())
	pdf.SetFooterFunc(func() {
		dec.DecoratePage(pdf, pdf.PageNo())
	})

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()
	widths := columnWidths(pageW - marginLeft - marginRight)

	cells := make([][]string, len(records))
	heights := make([]float64, len(records))
	pdf.SetFont("Helvetica", "", bodyFontSize)
	for i, rec := range records {
		cells[i] = r.rowCells(rec, tr)
		heights[i] = rowHeight(pdf, cells[i], widths)
	}

	headerCells := make([]string, len(columnTitles))
	for i, title := range columnTitles {
		headerCells[i] = tr(title)
	}
	pdf.SetFont("Helvetica", "B", headerFontSize)
	headerHeight := rowHeight(pdf, headerCells, widths)

	capacity := pageH - marginTop - marginBottom - headerHeight
	for _, page := range paginate(heights, capacity) {
		pdf.AddPage()
		y := marginTop
		pdf.SetFont("Helvetica", "B", headerFontSize)
		pdf.SetFillColor(211, 211, 211)
		drawRow(pdf, headerCells, widths, y, headerHeight, true, "C")
		y += headerHeight

		pdf.SetFont("Helvetica", "", bodyFontSize)
		for _, idx := range page {
			drawRow(pdf, cells[idx], widths, y, heights[idx], false, "L")
			y += heights[idx]
		}
		if pdf.Err() {
			break
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", alarmreport.ErrRender, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("%w: %w", alarmreport.ErrRender, errors.New("empty output"))
	}
	r.logger.Debug("alarm report rendered",
		zap.Int("rows", len(records)),
		zap.Int("pages", pdf.PageCount()),
		zap.Int("bytes", buf.Len()),
	)
	return buf.Bytes(), nil
}

func (r *Renderer) rowCells(rec alarmreport.AlarmRecord, tr func(string) string) []string {
	loc := r.opts.Location
	return []string{
		tr(alarmreport.FormatEpochMillis(rec.NormalTime, loc)),
		tr(rec.Source),
		tr(rec.AckState.Label()),
		tr(rec.MessageText),
		tr(rec.AlarmClass.Label()),
		tr(alarmreport.FormatEpochMillis(rec.TimeOfLastAlarm, loc)),
	}
}

// rowHeight measures a row with the current font.
func rowHeight(pdf *gofpdf.Fpdf, cells []string, widths []float64) float64 {
	maxLines := 1
	for i, text := range cells {
		lines := len(pdf.SplitLines([]byte(text), widths[i]-2*cellPadding))
		if lines > maxLines {
			maxLines = lines
		}
	}
	return math.Max(minRowHeight, float64(maxLines)*lineHeight+2*cellPadding)
}

func drawRow(pdf *gofpdf.Fpdf, cells []string, widths []float64, y, height float64, fill bool, align string) {
	x := marginLeft
	style := "D"
	if fill {
		style = "FD"
	}
	for i, text := range cells {
		w := widths[i]
		pdf.Rect(x, y, w, height, style)
		lines := pdf.SplitLines([]byte(text), w-2*cellPadding)
		top := y + (height-float64(len(lines))*lineHeight)/2
		for n, line := range lines {
			pdf.SetXY(x+cellPadding, top+float64(n)*lineHeight)
			pdf.CellFormat(w-2*cellPadding, lineHeight, string(line), "", 0, align, false, 0, "")
		}
		x += w
	}
}
