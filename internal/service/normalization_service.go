package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rtdacademy/SignupForm-sub036/internal/dto"
	"github.com/rtdacademy/SignupForm-sub036/internal/models"
	"github.com/rtdacademy/SignupForm-sub036/internal/repository"
	appErrors "github.com/rtdacademy/SignupForm-sub036/pkg/errors"
	"github.com/rtdacademy/SignupForm-sub036/pkg/middleware/requestid"
)

type normalizationCourseReader interface {
	Get(ctx context.Context, courseID string) (*models.Course, error)
}

type normalizationStudentReader interface {
	Profile(ctx context.Context, studentKey string) (*models.StudentProfile, error)
	Course(ctx context.Context, studentKey, courseID string) (*models.StudentCourse, error)
	CourseIDs(ctx context.Context, studentKey string) ([]string, error)
	NormalizedSchedule(ctx context.Context, studentKey, courseID string) (*models.NormalizedSchedule, error)
	StudentKeyByLMSID(ctx context.Context, lmsStudentID models.ID) (string, error)
	Summary(ctx context.Context, studentKey, courseID string) (*models.CourseSummary, error)
}

type linkResolver interface {
	Resolve(ctx context.Context, linkIDs []string) (map[string]models.ExternalLinkInfo, error)
	FindByAssessment(ctx context.Context, assessmentID models.ID) (*models.ExternalLinkInfo, bool, error)
}

type gradeFetcher interface {
	Fetch(ctx context.Context, assessmentIDs []models.ID, externalStudentID models.ID) (map[string]models.GradeRecord, error)
}

type identityResolver interface {
	ResolveLMSStudentID(ctx context.Context, email string) (models.ID, error)
}

type lockAcquirer interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, error)
}

type autoStatusApplier interface {
	Apply(ctx context.Context, studentKey, courseID string, adherence models.ScheduleAdherence) (*models.AutoStatus, bool, error)
}

// NormalizationConfig tunes caching and locking of normalization runs.
// LockWait bounds how long event triggered runs wait for a concurrent run to finish.
type NormalizationConfig struct {
	CacheWindow       time.Duration
	LockTTL           time.Duration
	LockWait          time.Duration
	LockRetryInterval time.Duration
}

// NormalizationServiceParams groups the collaborators of NormalizationService.
type NormalizationServiceParams struct {
	Courses    normalizationCourseReader
	Students   normalizationStudentReader
	Records    recordWriter
	Links      linkResolver
	Grades     gradeFetcher
	Identity   identityResolver
	Locks      lockAcquirer
	AutoStatus autoStatusApplier
	Metrics    *MetricsService
	Validator  *validator.Validate
	Logger     *zap.Logger
	Config     NormalizationConfig
}

// NormalizationService reconciles a student's schedule with the course structure and grades,
// persists the normalized result and keeps the automated status current.
type NormalizationService struct {
	courses    normalizationCourseReader
	students   normalizationStudentReader
	records    recordWriter
	links      linkResolver
	grades     gradeFetcher
	identity   identityResolver
	locks      lockAcquirer
	autoStatus autoStatusApplier
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	config     NormalizationConfig
	now        func() time.Time
}

// NewNormalizationService constructs a NormalizationService with sane defaults.
func NewNormalizationService(params NormalizationServiceParams) *NormalizationService {
	cfg := params.Config
	if cfg.CacheWindow <= 0 {
		cfg.CacheWindow = time.Hour
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	if cfg.LockWait <= 0 {
		cfg.LockWait = cfg.LockTTL
	}
	if cfg.LockRetryInterval <= 0 {
		cfg.LockRetryInterval = 250 * time.Millisecond
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	return &NormalizationService{
		courses:    params.Courses,
		students:   params.Students,
		records:    params.Records,
		links:      params.Links,
		grades:     params.Grades,
		identity:   params.Identity,
		locks:      params.Locks,
		autoStatus: params.AutoStatus,
		metrics:    params.Metrics,
		validator:  validate,
		logger:     logger,
		config:     cfg,
		now:        time.Now,
	}
}

// Normalize recomputes the normalized schedule of one student course. Without ForceUpdate a
// run completed inside the cache window is returned as is. A run already in progress for the
// same student course fails the call with failed-precondition.
func (s *NormalizationService) Normalize(ctx context.Context, req dto.NormalizeRequest) (*dto.NormalizeResponse, error) {
	return s.normalize(ctx, req, false)
}

// normalize runs one normalization. With waitForLock the run queues behind a concurrent run
// for up to LockWait so that the data that triggered it is not lost.
func (s *NormalizationService) normalize(ctx context.Context, req dto.NormalizeRequest, waitForLock bool) (*dto.NormalizeResponse, error) {
	req.StudentKey = strings.TrimSpace(req.StudentKey)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "studentKey and courseId are required")
	}
	studentKey, courseID := req.StudentKey, req.CourseID.String()
	started := time.Now()

	if !req.ForceUpdate {
		if cached := s.cachedResult(ctx, studentKey, courseID); cached != nil {
			s.metrics.ObserveNormalization(OutcomeCached, time.Since(started))
			return cached, nil
		}
	}

	release, err := s.lock(ctx, studentKey, courseID, waitForLock)
	if err != nil {
		s.metrics.ObserveNormalization(OutcomeFailed, time.Since(started))
		return nil, err
	}
	defer release()

	resp, err := s.compute(ctx, studentKey, courseID)
	if err != nil {
		s.metrics.ObserveNormalization(OutcomeFailed, time.Since(started))
		appErr := appErrors.FromError(err)
		s.logger.Warn("normalization failed",
			zap.String("student_key", studentKey),
			zap.String("course_id", courseID),
			zap.String("code", appErr.Code),
			zap.String("request_id", requestid.FromContext(ctx)),
			zap.Error(err),
		)
		return nil, appErr
	}
	s.metrics.ObserveNormalization(OutcomeComputed, time.Since(started))
	return resp, nil
}

func (s *NormalizationService) cachedResult(ctx context.Context, studentKey, courseID string) *dto.NormalizeResponse {
	summary, err := s.students.Summary(ctx, studentKey, courseID)
	if err != nil {
		s.logger.Warn("course summary unavailable, recomputing", zap.String("student_key", studentKey), zap.String("course_id", courseID), zap.Error(err))
		return nil
	}
	if summary == nil || summary.NormalizedScheduleLastUpdated <= 0 {
		return nil
	}
	age := s.now().Sub(time.UnixMilli(summary.NormalizedScheduleLastUpdated))
	if age >= s.config.CacheWindow {
		return nil
	}
	return &dto.NormalizeResponse{
		Success:   true,
		Timestamp: summary.NormalizedScheduleLastUpdated,
		ItemCount: summary.NormalizedScheduleItemCount,
		Cached:    true,
	}
}

func (s *NormalizationService) lock(ctx context.Context, studentKey, courseID string, wait bool) (func(), error) {
	noop := func() {}
	if s.locks == nil {
		return noop, nil
	}
	name := fmt.Sprintf("normalize:%s_%s", studentKey, courseID)
	release, err := s.locks.Acquire(ctx, name, s.config.LockTTL)
	if wait && errors.Is(err, repository.ErrLockHeld) {
		release, err = s.waitForLock(ctx, name)
	}
	switch {
	case err == nil:
		return func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("failed to release normalization lock", zap.String("lock", name), zap.Error(err))
			}
		}, nil
	case errors.Is(err, repository.ErrLockHeld):
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "a normalization for this student course is already running")
	case errors.Is(err, repository.ErrLockUnavailable):
		return noop, nil
	case ctx.Err() != nil:
		return nil, appErrors.Internal(err, "normalization cancelled while waiting for lock")
	default:
		s.logger.Warn("normalization lock unavailable, continuing unlocked", zap.String("lock", name), zap.Error(err))
		return noop, nil
	}
}

// waitForLock retries a held lock every LockRetryInterval until it is acquired, LockWait
// elapses or ctx is done. The last acquire error is returned on timeout.
func (s *NormalizationService) waitForLock(ctx context.Context, name string) (func(context.Context) error, error) {
	deadline := time.NewTimer(s.config.LockWait)
	defer deadline.Stop()
	retry := time.NewTicker(s.config.LockRetryInterval)
	defer retry.Stop()

	s.logger.Debug("normalization lock held, waiting", zap.String("lock", name), zap.Duration("max_wait", s.config.LockWait))
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, repository.ErrLockHeld
		case <-retry.C:
			release, err := s.locks.Acquire(ctx, name, s.config.LockTTL)
			if !errors.Is(err, repository.ErrLockHeld) {
				return release, err
			}
		}
	}
}

func (s *NormalizationService) compute(ctx context.Context, studentKey, courseID string) (*dto.NormalizeResponse, error) {
	var (
		course *models.Course
		record *models.StudentCourse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		course, err = s.courses.Get(gctx, courseID)
		return readError(err, fmt.Sprintf("course %s not found", courseID), "failed to load course")
	})
	g.Go(func() error {
		var err error
		record, err = s.students.Course(gctx, studentKey, courseID)
		return readError(err, fmt.Sprintf("student %s is not enrolled in course %s", studentKey, courseID), "failed to load student course")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(course.Units()) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "course structure has no units")
	}
	if len(record.ScheduleUnits()) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student schedule has no units")
	}

	lmsStudentID, err := s.resolveLMSStudentID(ctx, studentKey)
	if err != nil {
		return nil, err
	}

	links, err := s.links.Resolve(ctx, CollectLinkIDs(course))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to resolve external links")
	}
	grades, err := s.grades.Fetch(ctx, AssessmentIDs(links), lmsStudentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to fetch grades")
	}

	merged, err := MergeSchedule(MergeInput{
		Course:            course,
		StudentCourse:     record,
		Links:             links,
		Grades:            grades,
		ExternalStudentID: lmsStudentID,
	})
	if err != nil {
		if errors.Is(err, ErrCannotNormalize) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student schedule has no units besides the schedule information unit")
		}
		return nil, appErrors.Internal(err, "failed to merge schedule")
	}

	now := s.now()
	adherence := CalculateAdherence(merged.Items, record.Status.Value, now)
	result := models.NormalizedSchedule{
		Units:             merged.Units,
		ScheduleAdherence: adherence,
		TotalItems:        len(merged.Items),
		Weights:           course.Weights,
		Marks:             AggregateMarks(merged.Units, course.Weights),
		LastUpdated:       now.UnixMilli(),
	}
	document, err := StripUndefined(result)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to encode normalized schedule")
	}

	if err := s.records.Update(ctx, map[string]interface{}{
		repository.NormalizedSchedulePath(studentKey, courseID):                            document,
		repository.SummaryFieldPath(studentKey, courseID, "normalizedScheduleLastUpdated"): result.LastUpdated,
		repository.SummaryFieldPath(studentKey, courseID, "normalizedScheduleItemCount"):   result.TotalItems,
	}); err != nil {
		return nil, appErrors.Internal(err, "failed to persist normalized schedule")
	}

	if s.autoStatus != nil {
		if _, _, err := s.autoStatus.Apply(ctx, studentKey, courseID, adherence); err != nil {
			s.logger.Warn("automated status update failed",
				zap.String("student_key", studentKey),
				zap.String("course_id", courseID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("schedule normalized",
		zap.String("student_key", studentKey),
		zap.String("course_id", courseID),
		zap.Int("items", result.TotalItems),
		zap.Int("lessons_offset", adherence.LessonsOffset),
	)
	return &dto.NormalizeResponse{Success: true, Timestamp: result.LastUpdated, ItemCount: result.TotalItems}, nil
}

// resolveLMSStudentID returns the student's LMS identifier, resolving and persisting it from
// the identity endpoint when the profile has none.
func (s *NormalizationService) resolveLMSStudentID(ctx context.Context, studentKey string) (models.ID, error) {
	profile, err := s.students.Profile(ctx, studentKey)
	if err != nil {
		return "", appErrors.Internal(err, "failed to load student profile")
	}
	if !profile.LMSStudentID.Empty() {
		return profile.LMSStudentID, nil
	}

	email := strings.TrimSpace(profile.Email)
	if email == "" {
		return "", appErrors.Clone(appErrors.ErrPreconditionFailed, "student profile has no email to resolve the LMS student id")
	}
	if s.identity == nil {
		return "", appErrors.Clone(appErrors.ErrPreconditionFailed, "LMS student id is missing and no identity resolver is configured")
	}
	lmsStudentID, err := s.identity.ResolveLMSStudentID(ctx, email)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrPreconditionFailed.Code, appErrors.ErrPreconditionFailed.Status, "failed to resolve LMS student id")
	}

	if err := s.records.Update(ctx, map[string]interface{}{
		repository.StudentProfileFieldPath(studentKey, "lmsStudentId"): lmsStudentID,
		repository.StudentProfileFieldPath(studentKey, "lmsIdToggle"):  !profile.LMSIDToggle,
		repository.LMSIndexPath(lmsStudentID.String()):                 studentKey,
	}); err != nil {
		return "", appErrors.Internal(err, "failed to persist LMS student id")
	}
	s.logger.Info("lms student id resolved", zap.String("student_key", studentKey), zap.String("lms_student_id", lmsStudentID.String()))
	return lmsStudentID, nil
}

// OnGradeRecorded renormalizes the course a newly graded assessment belongs to. Unknown
// assessments, students and courses with incomplete link setup are skipped.
func (s *NormalizationService) OnGradeRecorded(ctx context.Context, event dto.GradeRecordedEvent) error {
	if err := s.validator.Struct(event); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "assessmentId and lmsStudentId are required")
	}
	logger := s.logger.With(zap.String("assessment_id", event.AssessmentID.String()), zap.String("lms_student_id", event.LMSStudentID.String()))

	link, found, err := s.links.FindByAssessment(ctx, event.AssessmentID)
	if err != nil {
		return err
	}
	if !found || link.CourseID.Empty() {
		logger.Info("grade ignored: no external link for assessment")
		return nil
	}
	courseID := link.CourseID.String()

	ready, err := s.linkSetupComplete(ctx, courseID)
	if err != nil || !ready {
		if err == nil {
			logger.Info("grade ignored: course link setup incomplete", zap.String("course_id", courseID))
		}
		return err
	}

	studentKey, err := s.students.StudentKeyByLMSID(ctx, event.LMSStudentID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			logger.Info("grade ignored: no student for lms id")
			return nil
		}
		return err
	}

	_, err = s.normalize(ctx, dto.NormalizeRequest{StudentKey: studentKey, CourseID: link.CourseID, ForceUpdate: true}, true)
	return err
}

// OnLMSIDAssigned indexes the new LMS identifier and renormalizes every course of the student
// whose link setup is complete.
func (s *NormalizationService) OnLMSIDAssigned(ctx context.Context, event dto.LMSIDAssignedEvent) error {
	if err := s.validator.Struct(event); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "studentKey and lmsStudentId are required")
	}
	if err := s.records.Update(ctx, map[string]interface{}{
		repository.LMSIndexPath(event.LMSStudentID.String()): event.StudentKey,
	}); err != nil {
		return fmt.Errorf("index lms student id: %w", err)
	}

	courseIDs, err := s.students.CourseIDs(ctx, event.StudentKey)
	if err != nil {
		return fmt.Errorf("list courses of %s: %w", event.StudentKey, err)
	}

	var errs []error
	for _, courseID := range courseIDs {
		ready, err := s.linkSetupComplete(ctx, courseID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !ready {
			continue
		}
		if _, err := s.normalize(ctx, dto.NormalizeRequest{StudentKey: event.StudentKey, CourseID: models.CanonicalID(courseID), ForceUpdate: true}, true); err != nil {
			errs = append(errs, fmt.Errorf("course %s: %w", courseID, err))
		}
	}
	return errors.Join(errs...)
}

// NormalizedSchedule returns the last persisted normalization result.
func (s *NormalizationService) NormalizedSchedule(ctx context.Context, studentKey, courseID string) (*models.NormalizedSchedule, error) {
	if strings.TrimSpace(studentKey) == "" || strings.TrimSpace(courseID) == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "studentKey and courseId are required")
	}
	schedule, err := s.students.NormalizedSchedule(ctx, studentKey, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no normalized schedule for this student course")
		}
		if errors.Is(err, repository.ErrInvalidPath) {
			return nil, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "invalid studentKey or courseId")
		}
		return nil, appErrors.Internal(err, "failed to load normalized schedule")
	}
	return schedule, nil
}

func (s *NormalizationService) linkSetupComplete(ctx context.Context, courseID string) (bool, error) {
	course, err := s.courses.Get(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return course.LTILinksComplete, nil
}

func readError(err error, notFound, internal string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrRecordNotFound) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Internal(err, internal)
}
