package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rtdacademy/SignupForm-sub036/internal/models"
	"github.com/rtdacademy/SignupForm-sub036/internal/repository"
)

// DefaultInactivityWindow is how long after the last completion a student counts as inactive.
const DefaultInactivityWindow = 14 * 24 * time.Hour

// Lessons offset thresholds for the automated status.
const (
	rockingItOffset = 3
	onTrackOffset   = -2
	behindOffset    = -4
)

// DeriveAutoStatus maps adherence to a categorical pace status. Inactivity wins over any offset.
func DeriveAutoStatus(adherence models.ScheduleAdherence, now time.Time, inactivity time.Duration) models.AutoStatusValue {
	if inactivity <= 0 {
		inactivity = DefaultInactivityWindow
	}
	if adherence.LastCompletedDate != nil {
		last := time.UnixMilli(*adherence.LastCompletedDate)
		if now.Sub(last) > inactivity {
			return models.AutoStatusNotActive
		}
	}

	switch offset := adherence.LessonsOffset; {
	case offset >= rockingItOffset:
		return models.AutoStatusRockingIt
	case offset >= onTrackOffset:
		return models.AutoStatusOnTrack
	case offset >= behindOffset:
		return models.AutoStatusBehind
	default:
		return models.AutoStatusFarBehind
	}
}

type autoStatusReader interface {
	AutoStatus(ctx context.Context, studentKey, courseID string) (*models.AutoStatus, error)
}

type recordWriter interface {
	Update(ctx context.Context, updates map[string]interface{}) error
}

// AutoStatusService persists the automated status when it changes.
type AutoStatusService struct {
	reader     autoStatusReader
	writer     recordWriter
	metrics    *MetricsService
	logger     *zap.Logger
	inactivity time.Duration
	now        func() time.Time
}

// NewAutoStatusService constructs the service.
func NewAutoStatusService(reader autoStatusReader, writer recordWriter, metrics *MetricsService, logger *zap.Logger, inactivity time.Duration) *AutoStatusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if inactivity <= 0 {
		inactivity = DefaultInactivityWindow
	}
	return &AutoStatusService{
		reader:     reader,
		writer:     writer,
		metrics:    metrics,
		logger:     logger,
		inactivity: inactivity,
		now:        time.Now,
	}
}

// Apply derives the status and, when it differs from the persisted one, writes it with its
// predecessor to the student course record and the course summary in one update.
func (s *AutoStatusService) Apply(ctx context.Context, studentKey, courseID string, adherence models.ScheduleAdherence) (*models.AutoStatus, bool, error) {
	now := s.now()
	value := DeriveAutoStatus(adherence, now, s.inactivity)

	current, err := s.reader.AutoStatus(ctx, studentKey, courseID)
	if err != nil {
		return nil, false, err
	}
	if current != nil && current.Value == value {
		return current, false, nil
	}

	next := &models.AutoStatus{Value: value, Timestamp: now.UnixMilli()}
	if current != nil {
		next.PreviousStatus = current.Value
	}
	if err := s.writer.Update(ctx, map[string]interface{}{
		repository.AutoStatusPath(studentKey, courseID):                 next,
		repository.SummaryFieldPath(studentKey, courseID, "autoStatus"): next,
	}); err != nil {
		return nil, false, err
	}

	s.metrics.RecordAutoStatusChange(value)
	s.logger.Info("automated status changed",
		zap.String("student_key", studentKey),
		zap.String("course_id", courseID),
		zap.String("previous", string(next.PreviousStatus)),
		zap.String("status", string(value)),
	)
	return next, true, nil
}
