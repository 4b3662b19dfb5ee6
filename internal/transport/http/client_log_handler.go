package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apierrors "tickviewer/internal/errors"
	"tickviewer/internal/middleware"
)

// ClientLogHandler records log entries posted by the viewer frontend
type ClientLogHandler struct {
	validator    *middleware.ValidationMiddleware
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewClientLogHandler creates a new client log handler
func NewClientLogHandler(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ClientLogHandler {
	return &ClientLogHandler{
		validator:    middleware.NewValidationMiddleware(logger, errorHandler),
		logger:       logger.With(slog.String("handler", "client_log")),
		errorHandler: errorHandler,
	}
}

// LogRequest represents a client log entry
type LogRequest struct {
	Level     string                 `json:"level" validate:"omitempty,oneof=debug info warn error"`
	Message   string                 `json:"message" validate:"required,max=1024"`
	Date      string                 `json:"date,omitempty" validate:"omitempty,tradedate"`
	StockCode string                 `json:"stock_code,omitempty" validate:"omitempty,stockcode"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

var clientLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Handle handles POST /api/client-log
func (h *ClientLogHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req LogRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	level, ok := clientLevels[req.Level]
	if !ok {
		level = slog.LevelInfo
	}

	attrs := []slog.Attr{
		slog.String("source", "viewer"),
		slog.String("remote_ip", middleware.GetRealIP(r)),
	}
	if req.Date != "" {
		attrs = append(attrs, slog.String("date", req.Date))
	}
	if req.StockCode != "" {
		attrs = append(attrs, slog.String("stock_code", req.StockCode))
	}
	if req.Data != nil {
		attrs = append(attrs, slog.Any("data", req.Data))
	}

	h.logger.LogAttrs(r.Context(), level, req.Message, attrs...)

	render.JSON(w, r, map[string]interface{}{"success": true})
}
