package services

import (
	"context"
	"log/slog"

	apperrors "tickviewer/internal/errors"
	"tickviewer/internal/infrastructure"
	"tickviewer/internal/validation"
	api "tickviewer/pkg/contracts/api/v1"
	"tickviewer/pkg/contracts/domain"
)

// OperationTracker is the part of operations.Tracker the service uses.
type OperationTracker interface {
	Start(ctx context.Context, date string, force bool) (domain.Operation, error)
	Status() (bool, *domain.Operation)
}

// ConversionService starts background conversions for the API.
type ConversionService struct {
	tracker OperationTracker
	logger  *slog.Logger
}

// NewConversionService creates a conversion service.
func NewConversionService(tracker OperationTracker, logger *slog.Logger) *ConversionService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &ConversionService{
		tracker: tracker,
		logger:  logger.With(slog.String("component", "conversion_service")),
	}
}

// StartConversion starts a run for req. While another run is active it
// returns a conflict AppError.
func (s *ConversionService) StartConversion(ctx context.Context, req api.ConvertRequest) (api.ConvertResponse, error) {
	if req.Date != "" && !validation.IsDate(req.Date) {
		return api.ConvertResponse{}, apperrors.NewAppValidationError("date must be 8 digits (YYYYMMDD)").
			WithContext("date", req.Date)
	}

	op, err := s.tracker.Start(ctx, req.Date, req.Force)
	if err != nil {
		infrastructure.LoggerWithContext(ctx, s.logger).WarnContext(ctx, "Conversion not started",
			slog.String("error", err.Error()))
		return api.ConvertResponse{}, err
	}

	return api.ConvertResponse{
		OperationID: op.ID,
		Status:      string(op.Status),
		StartedAt:   op.StartedAt,
	}, nil
}

// Status returns the current or last conversion.
func (s *ConversionService) Status(ctx context.Context) api.OperationStatusResponse {
	running, op := s.tracker.Status()
	return api.OperationStatusResponse{Running: running, Operation: op}
}
