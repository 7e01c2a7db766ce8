package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rtdacademy/SignupForm-sub036/internal/dto"
	"github.com/rtdacademy/SignupForm-sub036/pkg/jobs"
)

// Trigger job kinds.
const (
	JobKindGradeRecorded = "grade_recorded"
	JobKindLMSIDAssigned = "lms_id_assigned"
)

type eventTriggers interface {
	OnGradeRecorded(ctx context.Context, event dto.GradeRecordedEvent) error
	OnLMSIDAssigned(ctx context.Context, event dto.LMSIDAssignedEvent) error
}

// TriggerWorker routes queued trigger jobs to the normalization event entry points.
type TriggerWorker struct {
	triggers eventTriggers
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewTriggerWorker constructs the worker.
func NewTriggerWorker(triggers eventTriggers, metrics *MetricsService, logger *zap.Logger) *TriggerWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TriggerWorker{triggers: triggers, metrics: metrics, logger: logger}
}

// Handle processes one job. Errors are returned to the queue, which logs them; jobs are never retried.
func (w *TriggerWorker) Handle(ctx context.Context, job jobs.Job) error {
	err := w.dispatch(ctx, job)
	w.metrics.RecordTriggerJob(job.Kind, err != nil)
	return err
}

func (w *TriggerWorker) dispatch(ctx context.Context, job jobs.Job) error {
	switch job.Kind {
	case JobKindGradeRecorded:
		event, ok := job.Payload.(dto.GradeRecordedEvent)
		if !ok {
			return fmt.Errorf("job %s: unexpected payload %T", job.ID, job.Payload)
		}
		return w.triggers.OnGradeRecorded(ctx, event)
	case JobKindLMSIDAssigned:
		event, ok := job.Payload.(dto.LMSIDAssignedEvent)
		if !ok {
			return fmt.Errorf("job %s: unexpected payload %T", job.ID, job.Payload)
		}
		return w.triggers.OnLMSIDAssigned(ctx, event)
	default:
		w.logger.Warn("unknown trigger job dropped", zap.String("job_id", job.ID), zap.String("kind", job.Kind))
		return nil
	}
}
