package stamp

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"

	alarmreport "bms-reports/internal/alarmreport/domain"
)

// DefaultReviewer labels reviews submitted without a name.
const DefaultReviewer = "Supervisor"

// stampDescription anchors the review block at the bottom right of every page.
const stampDescription = "fontname:Helvetica, points:9, position:br, offset:-36 40, scalefactor:1 abs, rotation:0, aligntext:r, fillcolor:#000000, opacity:1"

var disableConfigDir sync.Once

func newConfiguration() *model.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Stamper overlays review metadata onto an existing PDF.
type Stamper struct {
	defaultReviewer string
	loc             *time.Location
	logger          *zap.Logger
}

// NewStamper constructs a stamper.
func NewStamper(defaultReviewer string, loc *time.Location, logger *zap.Logger) *Stamper {
	if strings.TrimSpace(defaultReviewer) == "" {
		defaultReviewer = DefaultReviewer
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stamper{defaultReviewer: defaultReviewer, loc: loc, logger: logger}
}

// ResolveReviewer returns the reviewer, or the default label when blank.
func (s *Stamper) ResolveReviewer(reviewer string) string {
	reviewer = strings.TrimSpace(reviewer)
	if reviewer == "" {
		return s.defaultReviewer
	}
	return reviewer
}

// Stamp writes the review lines on top of every page. Page content is left as is.
func (s *Stamper) Stamp(original []byte, reviewer string, reviewedAt time.Time) (out []byte, err error) {
	if len(original) == 0 {
		return nil, fmt.Errorf("%w: empty document", alarmreport.ErrStamp)
	}
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = fmt.Errorf("%w: %v", alarmreport.ErrStamp, rec)
		}
	}()

	text := "Reviewed By: " + s.ResolveReviewer(reviewer) + "\n" +
		"Generated on: " + alarmreport.FormatTime(reviewedAt, s.loc)
	wm, err := api.TextWatermark(text, stampDescription, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", alarmreport.ErrStamp, err)
	}

	var buf bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(original), &buf, nil, wm, newConfiguration()); err != nil {
		return nil, fmt.Errorf("%w: %w", alarmreport.ErrStamp, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("%w: %w", alarmreport.ErrStamp, errors.New("empty output"))
	}
	s.logger.Debug("report stamped", zap.Int("in_bytes", len(original)), zap.Int("out_bytes", buf.Len()))
	return buf.Bytes(), nil
}

// PageCount returns the number of pages in doc.
func (s *Stamper) PageCount(doc []byte) (int, error) {
	if len(doc) == 0 {
		return 0, fmt.Errorf("%w: empty document", alarmreport.ErrStamp)
	}
	n, err := api.PageCount(bytes.NewReader(doc), newConfiguration())
	if err != nil {
		return 0, fmt.Errorf("%w: %w", alarmreport.ErrStamp, err)
	}
	return n, nil
}
