package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	alarmapp "bms-reports/internal/alarmreport/application"
	alarmreport "bms-reports/internal/alarmreport/domain"
	"bms-reports/internal/auth"
)

const (
	basePath        = "/api/v1/alarm-reports"
	fileStampLayout = "20060102_150405"

	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Handler provides alarm report HTTP endpoints.
type Handler struct {
	service *alarmapp.ReportService
	loc     *time.Location
	logger  *zap.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *alarmapp.ReportService, loc *time.Location, logger *zap.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("alarm report handler: nil service")
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, loc: loc, logger: logger}, nil
}

// RegisterRoutes mounts the report routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route(basePath, func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/download", h.handleDownload)
		r.Get("/export.xlsx", h.handleExportXLSX)
		r.Get("/{id}/view", h.handleView)
		r.Put("/{id}/review", h.handleReview)
	})
}

type reportSummary struct {
	ID          int64   `json:"id"`
	ReportName  string  `json:"reportName"`
	GeneratedOn string  `json:"generatedOn"`
	GeneratedBy string  `json:"generatedBy"`
	ReviewedBy  *string `json:"reviewedBy"`
	ReviewDate  *int64  `json:"reviewDate"`
}

type reviewRequest struct {
	Username string `json:"username"`
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	window, err := parseWindow(query.Get("startDate"), query.Get("endDate"), h.loc)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	requester := identity(r, query.Get("username"))

	report, err := h.service.Generate(r.Context(), window, requester)
	if err != nil {
		if errors.Is(err, alarmreport.ErrNoContent) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.logger.Error("generate alarm report failed", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	filename := fmt.Sprintf("Alarm_Report_%s_to_%s.pdf",
		window.Start.In(h.loc).Format(fileStampLayout), window.End.In(h.loc).Format(fileStampLayout))
	w.Header().Set("X-Report-Id", strconv.FormatInt(report.ID, 10))
	writeDocument(w, contentTypePDF, "inline", filename, report.Data)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.List(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	resp := make([]reportSummary, 0, len(docs))
	for _, doc := range docs {
		item := reportSummary{
			ID:          doc.ID,
			ReportName:  doc.ReportName,
			GeneratedOn: doc.GeneratedOn.In(h.loc).Format(time.RFC3339),
			GeneratedBy: doc.GeneratedBy,
		}
		if doc.Reviewed() {
			reviewedBy := doc.ReviewedBy
			reviewDate := doc.ReviewDate.UnixMilli()
			item.ReviewedBy = &reviewedBy
			item.ReviewDate = &reviewDate
		}
		resp = append(resp, item)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	data, err := h.service.Document(r.Context(), id)
	if err != nil {
		if errors.Is(err, alarmreport.ErrNotFound) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		respondServiceError(w, err)
		return
	}
	writeDocument(w, contentTypePDF, "inline", fmt.Sprintf("Alarm_Report_%d.pdf", id), data)
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req reviewRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
	}
	reviewer := identity(r, req.Username)

	data, err := h.service.Review(r.Context(), id, reviewer)
	if err != nil {
		h.logger.Warn("review alarm report failed", zap.Int64("report_id", id), zap.Error(err))
		respondServiceError(w, err)
		return
	}
	writeDocument(w, contentTypePDF, "inline", fmt.Sprintf("Alarm_Report_%d.pdf", id), data)
}

func (h *Handler) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	window, err := parseWindow(query.Get("startDate"), query.Get("endDate"), h.loc)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	data, err := h.service.ExportXLSX(r.Context(), window)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	filename := fmt.Sprintf("Alarm_Report_%s_to_%s.xlsx",
		window.Start.In(h.loc).Format(fileStampLayout), window.End.In(h.loc).Format(fileStampLayout))
	writeDocument(w, contentTypeXLSX, "attachment", filename, data)
}

// identity prefers the authenticated user over the name supplied by the client.
func identity(r *http.Request, fallback string) string {
	if name := auth.DisplayNameFromContext(r.Context()); name != "" {
		return name
	}
	return strings.TrimSpace(fallback)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid report id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeDocument(w http.ResponseWriter, contentType, disposition, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func respondServiceError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, alarmreport.ErrInvalidWindow):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, alarmreport.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, alarmreport.ErrNoContent):
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, alarmreport.ErrStoreUnavailable):
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
	case errors.Is(err, alarmreport.ErrStamp):
		http.Error(w, "report cannot be stamped", http.StatusUnprocessableEntity)
	case errors.Is(err, alarmreport.ErrRender):
		http.Error(w, "report rendering failed", http.StatusInternalServerError)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
