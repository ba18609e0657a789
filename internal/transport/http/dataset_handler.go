package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "icuboard/internal/errors"
	"icuboard/internal/exporter"
	"icuboard/internal/middleware"
	"icuboard/internal/query"
	"icuboard/internal/services"
)

// Pagination and chart parameter bounds.
const (
	defaultLimit = 100
	maxLimit     = 1000
	defaultBins  = 20
	maxBins      = 200
	defaultTop   = 10
	maxTop       = 100
)

// filterTimeLayouts are the accepted formats for from/to parameters.
var filterTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// queryParams collects every query-string parameter of the dataset API
// after parsing, so one validator pass covers all routes.
type queryParams struct {
	Limit  int `validate:"min=1,max=1000"`
	Offset int `validate:"min=0"`
	Bins   int `validate:"min=1,max=200"`
	Top    int `validate:"min=0,max=100"`
}

// DatasetHandler serves the dataset query and export API.
type DatasetHandler struct {
	service      DatasetServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate
}

// NewDatasetHandler creates a new dataset handler.
func NewDatasetHandler(service DatasetServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
		validate:     validator.New(),
	}
}

// Routes returns the dataset routes.
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/labels", h.GetLabels)
	r.Get("/careunits", h.GetCareUnits)
	r.Get("/observations", h.GetObservations)
	r.Get("/summary", h.GetSummary)
	r.Get("/snapshot", h.GetSnapshot)
	r.Post("/reload", h.Reload)

	r.Route("/charts", func(r chi.Router) {
		r.Get("/histogram", h.GetHistogram)
		r.Get("/trend", h.GetTrend)
		r.Get("/correlation", h.GetCorrelation)
		r.Get("/distribution", h.GetDistribution)
	})

	r.Route("/export", func(r chi.Router) {
		r.Get("/csv", h.ExportCSV)
		r.Get("/xlsx", h.ExportXLSX)
	})

	return r
}

// parseFilter builds the filter from query-string parameters. Multi-value
// parameters accept comma-separated lists.
func parseFilter(values url.Values) (query.Filter, error) {
	filter := query.Filter{
		Label:         strings.TrimSpace(values.Get("label")),
		Labels:        splitList(values.Get("labels")),
		CareUnits:     splitList(values.Get("careunits")),
		LabelContains: strings.TrimSpace(values.Get("label_contains")),
	}

	var err error
	if filter.ValueMin, err = parseFloatParam(values, "value_min"); err != nil {
		return filter, err
	}
	if filter.ValueMax, err = parseFloatParam(values, "value_max"); err != nil {
		return filter, err
	}
	if filter.HoursMin, err = parseFloatParam(values, "hours_min"); err != nil {
		return filter, err
	}
	if filter.HoursMax, err = parseFloatParam(values, "hours_max"); err != nil {
		return filter, err
	}
	if filter.From, err = parseTimeParam(values, "from"); err != nil {
		return filter, err
	}
	if filter.To, err = parseTimeParam(values, "to"); err != nil {
		return filter, err
	}

	if filter.ValueMin != nil && filter.ValueMax != nil && *filter.ValueMin > *filter.ValueMax {
		return filter, apierrors.ErrValidation("value_min", "must not exceed value_max")
	}
	if filter.HoursMin != nil && filter.HoursMax != nil && *filter.HoursMin > *filter.HoursMax {
		return filter, apierrors.ErrValidation("hours_min", "must not exceed hours_max")
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return filter, apierrors.ErrValidation("from", "must not be after to")
	}
	return filter, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseFloatParam(values url.Values, name string) (*float64, error) {
	raw := values.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apierrors.ErrValidation(name, fmt.Sprintf("must be a number, got %q", raw))
	}
	return &v, nil
}

func parseTimeParam(values url.Values, name string) (*time.Time, error) {
	raw := values.Get(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range filterTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, apierrors.ErrValidation(name, fmt.Sprintf("unrecognized timestamp %q", raw))
}

func parseIntParam(values url.Values, name string, fallback int) (int, error) {
	raw := values.Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierrors.ErrValidation(name, fmt.Sprintf("must be an integer, got %q", raw))
	}
	return v, nil
}

// parseParams reads pagination and chart parameters and validates their
// bounds in one pass.
func (h *DatasetHandler) parseParams(values url.Values) (queryParams, error) {
	params := queryParams{Limit: defaultLimit, Bins: defaultBins, Top: defaultTop}

	var err error
	if params.Limit, err = parseIntParam(values, "limit", defaultLimit); err != nil {
		return params, err
	}
	if params.Offset, err = parseIntParam(values, "offset", 0); err != nil {
		return params, err
	}
	if params.Bins, err = parseIntParam(values, "bins", defaultBins); err != nil {
		return params, err
	}
	if params.Top, err = parseIntParam(values, "top", defaultTop); err != nil {
		return params, err
	}

	if err := h.validate.Struct(params); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return params, apierrors.ErrValidation(strings.ToLower(fe.Field()),
				fmt.Sprintf("out of range (%s=%s)", fe.Tag(), fe.Param()))
		}
		return params, apierrors.InvalidRequestWithError(err)
	}
	return params, nil
}

// handleServiceError maps service sentinels to API errors before falling
// back to the generic handler.
func (h *DatasetHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrSnapshotNotReady):
		h.errorHandler.HandleError(w, r, apierrors.ErrSnapshotNotReady)
	case errors.Is(err, services.ErrLabelNotFound):
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusNotFound, "LABEL_NOT_FOUND", err.Error()))
	case errors.Is(err, services.ErrNoData):
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusUnprocessableEntity, "NO_DATA", "No observations match the filter"))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}

// GetLabels handles GET /api/dataset/labels.
func (h *DatasetHandler) GetLabels(w http.ResponseWriter, r *http.Request) {
	labels, err := h.service.GetLabels(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"labels": labels,
		"count":  len(labels),
	})
}

// GetCareUnits handles GET /api/dataset/careunits.
func (h *DatasetHandler) GetCareUnits(w http.ResponseWriter, r *http.Request) {
	units, err := h.service.GetCareUnits(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"careunits": units,
		"count":     len(units),
	})
}

// GetObservations handles GET /api/dataset/observations.
func (h *DatasetHandler) GetObservations(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	params, err := h.parseParams(r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	page, err := h.service.GetObservations(r.Context(), filter, params.Limit, params.Offset)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, page)
}

// GetSummary handles GET /api/dataset/summary.
func (h *DatasetHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	summary, err := h.service.GetSummary(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}

// GetHistogram handles GET /api/dataset/charts/histogram.
func (h *DatasetHandler) GetHistogram(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	params, err := h.parseParams(r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	bins, err := h.service.GetHistogram(r.Context(), filter, params.Bins)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"bins": bins})
}

// GetTrend handles GET /api/dataset/charts/trend.
func (h *DatasetHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	trend, err := h.service.GetTrend(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"points": trend})
}

// GetCorrelation handles GET /api/dataset/charts/correlation.
func (h *DatasetHandler) GetCorrelation(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	matrix, err := h.service.GetCorrelation(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, matrix)
}

// GetDistribution handles GET /api/dataset/charts/distribution.
func (h *DatasetHandler) GetDistribution(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	params, err := h.parseParams(r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	counts, err := h.service.GetDistribution(r.Context(), filter, params.Top)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"counts": counts})
}

// ExportCSV handles GET /api/dataset/export/csv. The body is streamed, so
// a mid-stream failure can only be logged, not turned into a problem
// response.
func (h *DatasetHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	fileName := exporter.ExportFileName("observations", "csv", time.Now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))

	if err := h.service.ExportCSV(r.Context(), w, filter); err != nil {
		if errorBeforeBody(err) {
			w.Header().Del("Content-Disposition")
			w.Header().Del("Content-Type")
			h.handleServiceError(w, r, err)
			return
		}
		h.logger.ErrorContext(r.Context(), "csv export failed mid-stream",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())))
	}
}

// ExportXLSX handles GET /api/dataset/export/xlsx.
func (h *DatasetHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	fileName := exporter.ExportFileName("observations", "xlsx", time.Now())
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))

	if err := h.service.ExportXLSX(r.Context(), w, filter); err != nil {
		if errorBeforeBody(err) {
			w.Header().Del("Content-Disposition")
			w.Header().Del("Content-Type")
			h.handleServiceError(w, r, err)
			return
		}
		h.logger.ErrorContext(r.Context(), "xlsx export failed mid-stream",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())))
	}
}

// errorBeforeBody reports whether the error happened before any bytes
// went out, meaning a problem response is still possible.
func errorBeforeBody(err error) bool {
	return errors.Is(err, services.ErrSnapshotNotReady) ||
		errors.Is(err, services.ErrLabelNotFound) ||
		errors.Is(err, services.ErrNoData)
}

// Reload handles POST /api/dataset/reload.
func (h *DatasetHandler) Reload(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "reload requested",
		slog.String("request_id", middleware.GetRequestID(r.Context())))

	info, err := h.service.Reload(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusInternalServerError, "RELOAD_FAILED",
			"Dataset reload failed; previous snapshot remains in service",
			err.Error()))
		return
	}
	render.JSON(w, r, info)
}

// GetSnapshot handles GET /api/dataset/snapshot.
func (h *DatasetHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.SnapshotInfo(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, info)
}
