package repository

import (
	"context"

	"github.com/rtdacademy/SignupForm-sub036/internal/models"
)

type recordReader interface {
	Get(ctx context.Context, path string, dest interface{}) (bool, error)
	Children(ctx context.Context, path string) ([]string, error)
}

// CourseRepository reads course definitions.
type CourseRepository struct {
	records recordReader
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(records recordReader) *CourseRepository {
	return &CourseRepository{records: records}
}

// Get returns the course or ErrRecordNotFound.
func (r *CourseRepository) Get(ctx context.Context, courseID string) (*models.Course, error) {
	var course models.Course
	found, err := r.records.Get(ctx, CoursePath(courseID), &course)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrRecordNotFound
	}
	course.ID = courseID
	return &course, nil
}
