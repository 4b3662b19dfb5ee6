package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "tickviewer/internal/errors"
	"tickviewer/internal/middleware"
	api "tickviewer/pkg/contracts/api/v1"
)

// OperationsHandler starts background conversions and reports their state
type OperationsHandler struct {
	service      ConversionServiceInterface
	validator    *middleware.ValidationMiddleware
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewOperationsHandler creates a new operations handler
func NewOperationsHandler(service ConversionServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *OperationsHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &OperationsHandler{
		service:      service,
		validator:    middleware.NewValidationMiddleware(logger, errorHandler),
		logger:       logger.With(slog.String("handler", "operations")),
		errorHandler: errorHandler,
	}
}

// Routes returns the operation routes. Mount it under /api/operations.
func (h *OperationsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(
		middleware.ContentTypeValidator(h.errorHandler, "application/json"),
		h.validator.ValidateRequest,
	).Post("/convert", h.StartConversion)
	r.Get("/status", h.GetStatus)

	return r
}

// StartConversion handles POST /api/operations/convert. An empty body
// converts every date without forcing.
func (h *OperationsHandler) StartConversion(w http.ResponseWriter, r *http.Request) {
	var req api.ConvertRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp, err := h.service.StartConversion(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "conversion started",
		slog.String("operation_id", resp.OperationID),
		slog.String("date", req.Date),
		slog.Bool("force", req.Force),
		slog.String("request_id", middleware.GetRequestID(r.Context())))

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, resp)
}

// GetStatus handles GET /api/operations/status
func (h *OperationsHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Status(r.Context()))
}
