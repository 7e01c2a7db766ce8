package repository

import (
	"context"

	"github.com/rtdacademy/SignupForm-sub036/internal/models"
)

// LTIRepository reads external link metadata and recorded grades.
type LTIRepository struct {
	records recordReader
}

// NewLTIRepository constructs the repository.
func NewLTIRepository(records recordReader) *LTIRepository {
	return &LTIRepository{records: records}
}

// Links reads the whole link metadata collection in one pass.
func (r *LTIRepository) Links(ctx context.Context) (map[string]models.ExternalLinkInfo, error) {
	links := map[string]models.ExternalLinkInfo{}
	if _, err := r.records.Get(ctx, LinksCollection, &links); err != nil {
		return nil, err
	}
	for id, link := range links {
		link.LinkID = id
		links[id] = link
	}
	return links, nil
}

// Grade reads one grade record by composite key. The boolean is false when no grade exists.
func (r *LTIRepository) Grade(ctx context.Context, gradeKey string) (*models.GradeRecord, bool, error) {
	var grade models.GradeRecord
	found, err := r.records.Get(ctx, GradePath(gradeKey), &grade)
	if err != nil || !found {
		return nil, false, err
	}
	return &grade, true, nil
}
