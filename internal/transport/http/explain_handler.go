package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "icuboard/internal/errors"
	"icuboard/internal/services"
)

// ExplainHandler serves the classifier explainability API.
type ExplainHandler struct {
	service      ExplainServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewExplainHandler creates a new explain handler.
func NewExplainHandler(service ExplainServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ExplainHandler {
	return &ExplainHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "explain_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the explain routes.
func (h *ExplainHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/model", h.GetModel)
	r.Get("/roc", h.GetROC)
	r.Get("/pr", h.GetPR)
	r.Get("/confusion", h.GetConfusion)
	r.Get("/attributions", h.GetAttributions)

	return r
}

func (h *ExplainHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, services.ErrModelNotLoaded) {
		h.errorHandler.HandleError(w, r, apierrors.ErrModelNotLoaded)
		return
	}
	h.errorHandler.HandleError(w, r, err)
}

// GetModel handles GET /api/explain/model.
func (h *ExplainHandler) GetModel(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.GetModelInfo(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, info)
}

// GetROC handles GET /api/explain/roc.
func (h *ExplainHandler) GetROC(w http.ResponseWriter, r *http.Request) {
	curve, err := h.service.GetROC(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, curve)
}

// GetPR handles GET /api/explain/pr.
func (h *ExplainHandler) GetPR(w http.ResponseWriter, r *http.Request) {
	curve, err := h.service.GetPR(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, curve)
}

// GetConfusion handles GET /api/explain/confusion. The optional
// threshold parameter must be a probability; the service falls back to
// the model threshold when it is absent.
func (h *ExplainHandler) GetConfusion(w http.ResponseWriter, r *http.Request) {
	threshold := 0.0
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 || v >= 1 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("threshold",
				fmt.Sprintf("must be a probability in (0,1), got %q", raw)))
			return
		}
		threshold = v
	}

	matrix, err := h.service.GetConfusion(r.Context(), threshold)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, matrix)
}

// GetAttributions handles GET /api/explain/attributions.
func (h *ExplainHandler) GetAttributions(w http.ResponseWriter, r *http.Request) {
	top := 0
	if raw := r.URL.Query().Get("top"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("top",
				fmt.Sprintf("must be a non-negative integer, got %q", raw)))
			return
		}
		top = v
	}

	attrs, err := h.service.GetAttributions(r.Context(), top)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"attributions": attrs})
}
