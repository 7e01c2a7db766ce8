package repository

import (
	"context"

	"github.com/rtdacademy/SignupForm-sub036/internal/models"
)

// StudentRepository reads student profiles and per course records.
type StudentRepository struct {
	records recordReader
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(records recordReader) *StudentRepository {
	return &StudentRepository{records: records}
}

// Profile returns the student's profile; a missing profile yields an empty one.
func (r *StudentRepository) Profile(ctx context.Context, studentKey string) (*models.StudentProfile, error) {
	var profile models.StudentProfile
	if _, err := r.records.Get(ctx, StudentProfilePath(studentKey), &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Course returns the student course record or ErrRecordNotFound.
func (r *StudentRepository) Course(ctx context.Context, studentKey, courseID string) (*models.StudentCourse, error) {
	var record models.StudentCourse
	found, err := r.records.Get(ctx, StudentCoursePath(studentKey, courseID), &record)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrRecordNotFound
	}
	return &record, nil
}

// CourseIDs lists the courses the student is enrolled in.
func (r *StudentRepository) CourseIDs(ctx context.Context, studentKey string) ([]string, error) {
	return r.records.Children(ctx, StudentCoursesPath(studentKey))
}

// NormalizedSchedule returns the last persisted normalization result or ErrRecordNotFound.
func (r *StudentRepository) NormalizedSchedule(ctx context.Context, studentKey, courseID string) (*models.NormalizedSchedule, error) {
	var schedule models.NormalizedSchedule
	found, err := r.records.Get(ctx, NormalizedSchedulePath(studentKey, courseID), &schedule)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrRecordNotFound
	}
	return &schedule, nil
}

// AutoStatus returns the last persisted automated status, nil when none was written yet.
func (r *StudentRepository) AutoStatus(ctx context.Context, studentKey, courseID string) (*models.AutoStatus, error) {
	var status models.AutoStatus
	found, err := r.records.Get(ctx, AutoStatusPath(studentKey, courseID), &status)
	if err != nil || !found {
		return nil, err
	}
	return &status, nil
}

// StudentKeyByLMSID resolves a student key from the LMS identifier index.
func (r *StudentRepository) StudentKeyByLMSID(ctx context.Context, lmsStudentID models.ID) (string, error) {
	var studentKey string
	found, err := r.records.Get(ctx, LMSIndexPath(lmsStudentID.String()), &studentKey)
	if err != nil {
		return "", err
	}
	if !found || studentKey == "" {
		return "", ErrRecordNotFound
	}
	return studentKey, nil
}

// Summary returns the denormalized course summary; a missing summary yields an empty one.
func (r *StudentRepository) Summary(ctx context.Context, studentKey, courseID string) (*models.CourseSummary, error) {
	var summary models.CourseSummary
	if _, err := r.records.Get(ctx, SummaryPath(studentKey, courseID), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
