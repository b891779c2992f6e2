package handlers

import (
	"context"
	"errors"
	"net/http"

	"travel-crm/internal/api"
	"travel-crm/internal/logger"
	"travel-crm/internal/repository"
	"travel-crm/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// BookingMerger previews and performs booking merges
type BookingMerger interface {
	PreviewMerge(ctx context.Context, sourceID, targetID uuid.UUID) (*service.MergePreview, error)
	MergeBookings(ctx context.Context, sourceID, targetID uuid.UUID) (*repository.Booking, error)
}

type BookingHandler struct {
	merger    BookingMerger
	validator *validator.Validate
}

func NewBookingHandler(merger BookingMerger) *BookingHandler {
	return &BookingHandler{
		merger:    merger,
		validator: validator.New(),
	}
}

type MergePreviewQuery struct {
	Source string `form:"source" validate:"required,uuid"`
	Target string `form:"target" validate:"required,uuid"`
}

type MergeBookingsRequest struct {
	SourceID string `json:"source_id" validate:"required,uuid"`
	TargetID string `json:"target_id" validate:"required,uuid"`
}

// PreviewMerge validates a proposed merge without writing anything
// @Summary Preview booking merge
// @Tags bookings
// @Produce json
// @Param source query string true "Booking to merge away" format(uuid)
// @Param target query string true "Booking to keep" format(uuid)
// @Success 200 {object} api.APIResponse{data=service.MergePreview}
// @Failure 400 {object} api.APIResponse{error=api.APIError}
// @Failure 500 {object} api.APIResponse{error=api.APIError}
// @Router /bookings/merge/preview [get]
func (h *BookingHandler) PreviewMerge(c *gin.Context) {
	var query MergePreviewQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		api.SendValidationError(c, "Invalid query parameters", err.Error())
		return
	}
	if err := h.validator.Struct(query); err != nil {
		api.SendValidationError(c, "Validation failed", err.Error())
		return
	}

	sourceID, targetID := uuid.MustParse(query.Source), uuid.MustParse(query.Target)
	preview, err := h.merger.PreviewMerge(c.Request.Context(), sourceID, targetID)
	if err != nil {
		logger.Error().Err(err).
			Str("source_id", query.Source).
			Str("target_id", query.Target).
			Msg("failed to preview booking merge")
		api.SendInternalError(c, "Failed to preview merge")
		return
	}

	api.SendSuccess(c, http.StatusOK, preview, nil)
}

// MergeBookings merges the source booking into the target
// @Summary Merge bookings
// @Tags bookings
// @Accept json
// @Produce json
// @Param request body MergeBookingsRequest true "Bookings to merge"
// @Success 200 {object} api.APIResponse{data=repository.Booking}
// @Failure 400 {object} api.APIResponse{error=api.APIError}
// @Failure 422 {object} api.APIResponse{error=api.APIError}
// @Failure 500 {object} api.APIResponse{error=api.APIError}
// @Router /bookings/merge [post]
func (h *BookingHandler) MergeBookings(c *gin.Context) {
	var req MergeBookingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		api.SendValidationError(c, "Validation failed", err.Error())
		return
	}

	sourceID, targetID := uuid.MustParse(req.SourceID), uuid.MustParse(req.TargetID)
	merged, err := h.merger.MergeBookings(c.Request.Context(), sourceID, targetID)
	if err != nil {
		if errors.Is(err, service.ErrMergeInvalid) {
			api.SendUnprocessable(c, "Bookings cannot be merged", err.Error())
			return
		}
		logger.Error().Err(err).
			Str("source_id", req.SourceID).
			Str("target_id", req.TargetID).
			Msg("failed to merge bookings")
		api.SendInternalError(c, "Failed to merge bookings")
		return
	}

	api.SendSuccess(c, http.StatusOK, merged, nil)
}
