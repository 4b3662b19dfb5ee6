package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "tickviewer/internal/errors"
	"tickviewer/internal/exporter"
	"tickviewer/internal/middleware"
	"tickviewer/internal/services"
	api "tickviewer/pkg/contracts/api/v1"
)

// Legacy error bodies the viewer frontend matches on
const (
	msgDateNotFound      = "Date not found"
	msgStockDataNotFound = "Stock data not found"
)

const contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DataHandler serves converted documents and per-date summaries
type DataHandler struct {
	service      DataServiceInterface
	cacheMaxAge  int
	params       *middleware.ValidationMiddleware
	query        *middleware.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates a new data handler. cacheMaxAge is the max-age, in
// seconds, sent with stored documents.
func NewDataHandler(service DataServiceInterface, cacheMaxAge int, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:      service,
		cacheMaxAge:  cacheMaxAge,
		params:       middleware.NewValidationMiddleware(logger, errorHandler),
		query:        middleware.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the data routes. Mount it under /api.
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/dates", h.GetDates)
	r.With(h.params.PathParams).Get("/stocks/{date}", h.GetStocks)
	r.With(h.params.PathParams).Get("/data/{date}/{stock_code}", h.GetDocument)
	r.With(h.params.PathParams).Get("/summary/{date}", h.GetSummary)

	return r
}

// GetDates handles GET /api/dates
func (h *DataHandler) GetDates(w http.ResponseWriter, r *http.Request) {
	dates, err := h.service.ListDates(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, dates)
}

// GetStocks handles GET /api/stocks/{date}
func (h *DataHandler) GetStocks(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, middleware.ParamDate)

	stocks, err := h.service.ListStocks(r.Context(), date)
	if errors.Is(err, services.ErrDateNotFound) {
		h.notFound(w, r, msgDateNotFound)
		return
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, stocks)
}

// GetDocument handles GET /api/data/{date}/{stock_code}. The stored bytes
// are written as is.
func (h *DataHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, middleware.ParamDate)
	stockCode := chi.URLParam(r, middleware.ParamStockCode)

	data, err := h.service.GetDocument(r.Context(), date, stockCode)
	if errors.Is(err, services.ErrStockDataNotFound) {
		h.notFound(w, r, msgStockDataNotFound)
		return
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", h.cacheMaxAge))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write document",
			slog.String("date", date),
			slog.String("stock_code", stockCode),
			slog.String("error", err.Error()))
	}
}

// GetSummary handles GET /api/summary/{date}?format=json|csv|xlsx
func (h *DataHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, middleware.ParamDate)

	format, ok := h.query.ValidateEnum(w, r, "format",
		[]string{exporter.FormatJSON, exporter.FormatCSV, exporter.FormatXLSX}, exporter.FormatJSON)
	if !ok {
		return
	}

	if format == exporter.FormatJSON {
		rows, err := h.service.GetSummary(r.Context(), date)
		if errors.Is(err, services.ErrDateNotFound) {
			h.notFound(w, r, msgDateNotFound)
			return
		}
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		render.JSON(w, r, api.SummaryResponse{Date: date, Stocks: rows})
		return
	}

	// Rendered to a buffer first so a failure can still become a problem response
	var buf bytes.Buffer
	err := h.service.WriteSummary(r.Context(), &buf, date, format)
	if errors.Is(err, services.ErrDateNotFound) {
		h.notFound(w, r, msgDateNotFound)
		return
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	contentType := "text/csv; charset=utf-8"
	if format == exporter.FormatXLSX {
		contentType = contentTypeXLSX
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="summary_%s.%s"`, date, format))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "failed to stream summary",
			slog.String("date", date),
			slog.String("format", format),
			slog.String("error", err.Error()))
	}
}

func (h *DataHandler) notFound(w http.ResponseWriter, r *http.Request, msg string) {
	h.logger.DebugContext(r.Context(), "not found",
		slog.String("path", r.URL.Path),
		slog.String("request_id", middleware.GetRequestID(r.Context())))
	render.Status(r, http.StatusNotFound)
	render.JSON(w, r, api.ErrorResponse{Error: msg})
}
