package chi

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kmlfilter/internal/domain"
	domexport "github.com/kailas-cloud/kmlfilter/internal/domain/export"
	"github.com/kailas-cloud/kmlfilter/internal/domain/filter"
	"github.com/kailas-cloud/kmlfilter/internal/domain/placemark"
	"github.com/kailas-cloud/kmlfilter/internal/metrics"
	exportuc "github.com/kailas-cloud/kmlfilter/internal/usecase/export"
	healthuc "github.com/kailas-cloud/kmlfilter/internal/usecase/health"
	placemarkuc "github.com/kailas-cloud/kmlfilter/internal/usecase/placemark"
	"github.com/kailas-cloud/kmlfilter/internal/version"
)

const defaultMaxBodyBytes = 64 << 10

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements ServerInterface over the placemark, export and health use cases.
type Server struct {
	placemarks    *placemarkuc.Service
	exports       *exportuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	maxBodyBytes  int64
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(
	placemarks *placemarkuc.Service,
	exports *exportuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		placemarks:   placemarks,
		exports:      exports,
		health:       health,
		logger:       logger,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrUnsupportedFormat, http.StatusBadRequest, ErrorResponseCodeUnsupportedFormat),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorResponseCodeExportNotFound),
		sentinelHandler(exportuc.ErrStoreDisabled, http.StatusNotImplemented, ErrorResponseCodeNotImplemented),
		sentinelHandler(domain.ErrSourceUnavailable, http.StatusServiceUnavailable, ErrorResponseCodeSourceUnavailable),
	}
	return s
}

// WithMaxBodyBytes limits the size of export request bodies.
func (s *Server) WithMaxBodyBytes(n int64) *Server {
	if n > 0 {
		s.maxBodyBytes = n
	}
	return s
}

// QueryPlacemarks handles GET /api/placemarks.
func (s *Server) QueryPlacemarks(w http.ResponseWriter, r *http.Request, params filter.Set) {
	if errs := s.placemarks.CheckFilters(r.Context(), params); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	records := make([]placemark.Record, 0)
	for rec := range s.placemarks.Query(r.Context(), params) {
		records = append(records, rec)
	}
	metrics.QueryMatches.Observe(float64(len(records)))

	w.Header().Set("X-Placemark-Count", strconv.Itoa(len(records)))
	writeJSON(w, http.StatusOK, records)
}

// GetAvailableFilters handles GET /api/placemarks/filters.
func (s *Server) GetAvailableFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.placemarks.AvailableFilters(r.Context()))
}

// ExportPlacemarks handles POST /api/placemarks/export.
func (s *Server) ExportPlacemarks(w http.ResponseWriter, r *http.Request, params ExportParams) {
	set, format, ok := s.exportRequest(w, r, params)
	if !ok {
		return
	}

	a, err := s.exports.Render(r.Context(), set, format)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeArtifact(w, a)
}

// CreateExport handles POST /api/exports.
func (s *Server) CreateExport(w http.ResponseWriter, r *http.Request, params ExportParams) {
	set, format, ok := s.exportRequest(w, r, params)
	if !ok {
		return
	}

	h, err := s.exports.Store(r.Context(), set, format)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	url := "/api/exports/" + h.ID
	w.Header().Set("Location", url)
	writeJSON(w, http.StatusCreated, StoredExportResponse{
		ID:        h.ID,
		Format:    string(h.Format),
		Filename:  h.Format.Filename(),
		Count:     h.Count,
		ExpiresAt: h.ExpiresAt.UTC(),
		URL:       url,
	})
}

// GetExport handles GET /api/exports/{id}.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request, id string) {
	a, err := s.exports.Fetch(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeArtifact(w, a)
}

// DeleteExport handles DELETE /api/exports/{id}.
func (s *Server) DeleteExport(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.exports.Discard(r.Context(), id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:     string(report.Status),
		Checks:     checks,
		Placemarks: report.Placemarks,
		Version:    version.Version,
	})
}

// exportRequest decodes the filter set body and format, validating both.
// An empty body means no constraints.
func (s *Server) exportRequest(
	w http.ResponseWriter, r *http.Request, params ExportParams,
) (filter.Set, domexport.Format, bool) {
	format, err := domexport.ParseFormat(params.Format)
	if err != nil {
		s.handleDomainError(w, r, err)
		return filter.Set{}, "", false
	}

	var set filter.Set
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&set); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return filter.Set{}, "", false
	}

	if errs := s.placemarks.CheckFilters(r.Context(), set); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return filter.Set{}, "", false
	}
	return set, format, true
}

func writeArtifact(w http.ResponseWriter, a domexport.Artifact) {
	h := w.Header()
	h.Set("Content-Type", a.Format.ContentType())
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Format.Filename()}))
	h.Set("Content-Length", strconv.Itoa(len(a.Data)))
	h.Set("X-Placemark-Count", strconv.Itoa(a.Count))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.Data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// writeValidationErrors reports every failed rule; the message is the first one.
func writeValidationErrors(w http.ResponseWriter, errs []*filter.ValidationError) {
	resp := ErrorResponse{
		Code:    ErrorResponseCodeValidationFailed,
		Message: errs[0].Error(),
		Errors:  make([]FieldError, len(errs)),
	}
	for i, e := range errs {
		resp.Errors[i] = FieldError{Field: string(e.Field), Reason: e.Error(), Code: e.Reason.Code()}
	}
	writeJSON(w, http.StatusBadRequest, resp)
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrUnsupportedFormat,
		domain.ErrNotFound,
		domain.ErrSourceUnavailable,
		exportuc.ErrStoreDisabled,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// validationHandler reports a *filter.ValidationError with its field and reason.
func validationHandler(w http.ResponseWriter, err error, _ string) bool {
	var ve *filter.ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	writeValidationErrors(w, []*filter.ValidationError{ve})
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.logger.With(zap.String("request_id", middleware.GetReqID(r.Context())))
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}
