package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rtdacademy/SignupForm-sub036/internal/dto"
	"github.com/rtdacademy/SignupForm-sub036/internal/models"
	appErrors "github.com/rtdacademy/SignupForm-sub036/pkg/errors"
	"github.com/rtdacademy/SignupForm-sub036/pkg/response"
)

type normalizationService interface {
	Normalize(ctx context.Context, req dto.NormalizeRequest) (*dto.NormalizeResponse, error)
	NormalizedSchedule(ctx context.Context, studentKey, courseID string) (*models.NormalizedSchedule, error)
}

// NormalizationHandler exposes the on-demand normalization entry point.
type NormalizationHandler struct {
	service normalizationService
}

// NewNormalizationHandler constructs the handler.
func NewNormalizationHandler(service normalizationService) *NormalizationHandler {
	return &NormalizationHandler{service: service}
}

// Normalize godoc
// @Summary Normalize a student's course schedule
// @Description Merges the course structure, the personalized schedule and recorded grades, then persists the result. Results younger than the cache window are returned without recomputation unless forceUpdate is set.
// @Tags Normalization
// @Accept json
// @Produce json
// @Param payload body dto.NormalizeRequest true "Normalization request"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /normalizations [post]
func (h *NormalizationHandler) Normalize(c *gin.Context) {
	var req dto.NormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "invalid request body"))
		return
	}
	result, err := h.service.Normalize(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// NormalizedSchedule godoc
// @Summary Get the last normalized schedule
// @Tags Normalization
// @Produce json
// @Param studentKey path string true "Student key"
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{studentKey}/courses/{courseId}/normalized-schedule [get]
func (h *NormalizationHandler) NormalizedSchedule(c *gin.Context) {
	schedule, err := h.service.NormalizedSchedule(c.Request.Context(), c.Param("studentKey"), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule)
}
