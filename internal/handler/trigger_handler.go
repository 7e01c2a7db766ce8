package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/rtdacademy/SignupForm-sub036/internal/dto"
	"github.com/rtdacademy/SignupForm-sub036/internal/service"
	appErrors "github.com/rtdacademy/SignupForm-sub036/pkg/errors"
	"github.com/rtdacademy/SignupForm-sub036/pkg/jobs"
	"github.com/rtdacademy/SignupForm-sub036/pkg/middleware/requestid"
	"github.com/rtdacademy/SignupForm-sub036/pkg/response"
)

type jobEnqueuer interface {
	Enqueue(job jobs.Job) (string, error)
}

// TriggerHandler accepts store change events and queues them for the trigger worker.
type TriggerHandler struct {
	queue     jobEnqueuer
	validator *validator.Validate
}

// NewTriggerHandler constructs the handler.
func NewTriggerHandler(queue jobEnqueuer, validate *validator.Validate) *TriggerHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &TriggerHandler{queue: queue, validator: validate}
}

// GradeRecorded godoc
// @Summary Announce a new grade record
// @Tags Triggers
// @Accept json
// @Produce json
// @Param payload body dto.GradeRecordedEvent true "Grade event"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /events/grades [post]
func (h *TriggerHandler) GradeRecorded(c *gin.Context) {
	var event dto.GradeRecordedEvent
	if !h.bind(c, &event) {
		return
	}
	h.enqueue(c, service.JobKindGradeRecorded, event)
}

// LMSIDAssigned godoc
// @Summary Announce a newly assigned LMS student id
// @Tags Triggers
// @Accept json
// @Produce json
// @Param payload body dto.LMSIDAssignedEvent true "LMS id event"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /events/lms-ids [post]
func (h *TriggerHandler) LMSIDAssigned(c *gin.Context) {
	var event dto.LMSIDAssignedEvent
	if !h.bind(c, &event) {
		return
	}
	h.enqueue(c, service.JobKindLMSIDAssigned, event)
}

func (h *TriggerHandler) bind(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "invalid request body"))
		return false
	}
	if err := h.validator.Struct(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "invalid event payload"))
		return false
	}
	return true
}

func (h *TriggerHandler) enqueue(c *gin.Context, kind string, payload interface{}) {
	jobID, err := h.queue.Enqueue(jobs.Job{ID: requestid.Value(c), Kind: kind, Payload: payload})
	if err != nil {
		response.Error(c, appErrors.Internal(err, "trigger queue unavailable"))
		return
	}
	response.Accepted(c, dto.TriggerAccepted{JobID: jobID, Kind: kind})
}
