package render

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	alarmreport "bms-reports/internal/alarmreport/domain"
)

const (
	logoMaxWidth  = 90.0
	logoMaxHeight = 40.0
	logoImageName = "report-logo"
)

// Logo is a decoded header image.
type Logo struct {
	data      []byte
	imageType string
	width     float64
	height    float64
}

// NewLogo decodes image bytes and scales them to fit the logo box.
func NewLogo(data []byte) (*Logo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("logo: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("logo: empty image")
	}
	scale := math.Min(logoMaxWidth/float64(cfg.Width), logoMaxHeight/float64(cfg.Height))
	return &Logo{
		data:      data,
		imageType: strings.ToUpper(format),
		width:     float64(cfg.Width) * scale,
		height:    float64(cfg.Height) * scale,
	}, nil
}

// LoadLogo reads the logo file. A missing or unreadable logo is logged and skipped.
func LoadLogo(path string, logger *zap.Logger) *Logo {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("report logo unavailable", zap.String("path", path), zap.Error(err))
		return nil
	}
	logo, err := NewLogo(data)
	if err != nil {
		logger.Warn("report logo unreadable", zap.String("path", path), zap.Error(err))
		return nil
	}
	return logo
}

// HeaderFooter paints the logo, title, window metadata and footer on each page.
type HeaderFooter struct {
	Title       string
	Window      alarmreport.TimeWindow
	Requester   string
	GeneratedOn time.Time
	Location    *time.Location
	Logo        *Logo
	Logger      *zap.Logger
}

// DecoratePage implements PageDecorator.
func (h *HeaderFooter) DecoratePage(pdf *gofpdf.Fpdf, pageNo int) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()
	contentW := pageW - marginLeft - marginRight

	h.drawLogo(pdf)

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(marginLeft, 30)
	pdf.CellFormat(contentW, logoMaxHeight, tr(h.Title), "", 0, "C", false, 0, "")

	startDate, startTime := alarmreport.SplitDateTime(alarmreport.FormatTime(h.Window.Start, h.Location))
	endDate, endTime := alarmreport.SplitDateTime(alarmreport.FormatTime(h.Window.End, h.Location))
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, 76)
	pdf.CellFormat(contentW/2, 12, "Start Date: "+startDate, "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW/2, 12, "End Date: "+endDate, "", 0, "R", false, 0, "")
	pdf.SetXY(marginLeft, 90)
	pdf.CellFormat(contentW/2, 12, "Start Time: "+startTime, "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW/2, 12, "End Time: "+endTime, "", 0, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.Text(marginLeft, pageH-40, tr("Generated By: "+h.Requester))
	pdf.Text(marginLeft, pageH-28, "Generated on: "+alarmreport.FormatTime(h.GeneratedOn, h.Location))
	pdf.SetXY(marginLeft, pageH-42)
	pdf.CellFormat(contentW, 12, fmt.Sprintf("Page %d", pageNo), "", 0, "C", false, 0, "")
}

func (h *HeaderFooter) drawLogo(pdf *gofpdf.Fpdf) {
	if h.Logo == nil || !pdf.Ok() {
		return
	}
	opt := gofpdf.ImageOptions{ImageType: h.Logo.imageType, ReadDpi: false}
	if pdf.GetImageInfo(logoImageName) == nil {
		pdf.RegisterImageOptionsReader(logoImageName, opt, bytes.NewReader(h.Logo.data))
		if !pdf.Ok() {
			if h.Logger != nil {
				h.Logger.Warn("report logo rejected", zap.String("type", h.Logo.imageType), zap.Error(pdf.Error()))
			}
			pdf.ClearError()
			h.Logo = nil
			return
		}
	}
	pdf.ImageOptions(logoImageName, marginLeft, 30, h.Logo.width, h.Logo.height, false, opt, 0, "")
}
