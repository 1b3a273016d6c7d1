package chi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/kmlfilter/internal/domain/filter"
)

// ErrorResponseCode is the machine-readable code of an error response.
type ErrorResponseCode string

// Error codes returned by the API.
const (
	ErrorResponseCodeBadRequest        ErrorResponseCode = "bad_request"
	ErrorResponseCodeValidationFailed  ErrorResponseCode = "validation_failed"
	ErrorResponseCodeUnsupportedFormat ErrorResponseCode = "unsupported_format"
	ErrorResponseCodeExportNotFound    ErrorResponseCode = "export_not_found"
	ErrorResponseCodeNotImplemented    ErrorResponseCode = "not_implemented"
	ErrorResponseCodeSourceUnavailable ErrorResponseCode = "source_unavailable"
	ErrorResponseCodeInternalError     ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
	Errors  []FieldError      `json:"errors,omitempty"`
}

// FieldError reports one failed filter rule.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
	Code   string `json:"code"`
}

// StoredExportResponse describes an export kept for later download.
type StoredExportResponse struct {
	ID        string    `json:"id"`
	Format    string    `json:"format"`
	Filename  string    `json:"filename"`
	Count     int       `json:"count"`
	ExpiresAt time.Time `json:"expiresAt"`
	URL       string    `json:"url"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status     string            `json:"status"`
	Checks     map[string]string `json:"checks"`
	Placemarks int               `json:"placemarks"`
	Version    string            `json:"version"`
}

// ExportParams are the query parameters of the export endpoints.
type ExportParams struct {
	Format string `form:"format" json:"format"`
}

// ServerInterface is implemented by Server. Handlers receive bound parameters.
type ServerInterface interface {
	// (GET /api/placemarks)
	QueryPlacemarks(w http.ResponseWriter, r *http.Request, params filter.Set)
	// (GET /api/placemarks/filters)
	GetAvailableFilters(w http.ResponseWriter, r *http.Request)
	// (POST /api/placemarks/export)
	ExportPlacemarks(w http.ResponseWriter, r *http.Request, params ExportParams)
	// (POST /api/exports)
	CreateExport(w http.ResponseWriter, r *http.Request, params ExportParams)
	// (GET /api/exports/{id})
	GetExport(w http.ResponseWriter, r *http.Request, id string)
	// (DELETE /api/exports/{id})
	DeleteExport(w http.ResponseWriter, r *http.Request, id string)
	// (GET /health)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// InvalidParamFormatError is passed to the error handler when a parameter cannot be bound.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// wrapper binds request parameters before calling the ServerInterface.
type wrapper struct {
	handler          ServerInterface
	errorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *wrapper) QueryPlacemarks(w http.ResponseWriter, r *http.Request) {
	var params filter.Set
	q := r.URL.Query()

	for _, p := range []struct {
		name string
		dest *string
	}{
		{"client", &params.Client},
		{"status", &params.Status},
		{"district", &params.District},
		{"reference", &params.Reference},
		{"streetOrIntersection", &params.StreetOrIntersection},
	} {
		if err := runtime.BindQueryParameter("form", true, false, p.name, q, p.dest); err != nil {
			siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: p.name, Err: err})
			return
		}
	}

	siw.handler.QueryPlacemarks(w, r, params)
}

func (siw *wrapper) GetAvailableFilters(w http.ResponseWriter, r *http.Request) {
	siw.handler.GetAvailableFilters(w, r)
}

func (siw *wrapper) bindExportParams(w http.ResponseWriter, r *http.Request) (ExportParams, bool) {
	var params ExportParams
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &params.Format); err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "format", Err: err})
		return params, false
	}
	return params, true
}

func (siw *wrapper) ExportPlacemarks(w http.ResponseWriter, r *http.Request) {
	if params, ok := siw.bindExportParams(w, r); ok {
		siw.handler.ExportPlacemarks(w, r, params)
	}
}

func (siw *wrapper) CreateExport(w http.ResponseWriter, r *http.Request) {
	if params, ok := siw.bindExportParams(w, r); ok {
		siw.handler.CreateExport(w, r, params)
	}
}

func (siw *wrapper) bindID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "id", Err: err})
		return "", false
	}
	return id, true
}

func (siw *wrapper) GetExport(w http.ResponseWriter, r *http.Request) {
	if id, ok := siw.bindID(w, r); ok {
		siw.handler.GetExport(w, r, id)
	}
}

func (siw *wrapper) DeleteExport(w http.ResponseWriter, r *http.Request) {
	if id, ok := siw.bindID(w, r); ok {
		siw.handler.DeleteExport(w, r, id)
	}
}

func (siw *wrapper) HealthCheck(w http.ResponseWriter, r *http.Request) {
	siw.handler.HealthCheck(w, r)
}

// HandlerFromMux registers the API routes of si on r.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	siw := &wrapper{
		handler: si,
		errorHandlerFunc: func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, err.Error())
		},
	}

	r.Get("/api/placemarks", siw.QueryPlacemarks)
	r.Get("/api/placemarks/filters", siw.GetAvailableFilters)
	r.Post("/api/placemarks/export", siw.ExportPlacemarks)
	r.Post("/api/exports", siw.CreateExport)
	r.Get("/api/exports/{id}", siw.GetExport)
	r.Delete("/api/exports/{id}", siw.DeleteExport)
	r.Get("/health", siw.HealthCheck)

	return r
}
