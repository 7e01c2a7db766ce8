package service

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rtdacademy/SignupForm-sub036/internal/models"
)

// DefaultGradeFetchConcurrency bounds concurrent grade reads when no limit is configured.
const DefaultGradeFetchConcurrency = 16

type gradeReader interface {
	Grade(ctx context.Context, gradeKey string) (*models.GradeRecord, bool, error)
}

// GradeFetcher reads the grades of one student for a batch of assessments concurrently.
type GradeFetcher struct {
	repo        gradeReader
	concurrency int
}

// NewGradeFetcher constructs the fetcher.
func NewGradeFetcher(repo gradeReader, concurrency int) *GradeFetcher {
	if concurrency <= 0 {
		concurrency = DefaultGradeFetchConcurrency
	}
	return &GradeFetcher{repo: repo, concurrency: concurrency}
}

// Fetch returns the existing grade records keyed by models.GradeKey. Missing grades are
// absent; any read error fails the whole batch.
func (f *GradeFetcher) Fetch(ctx context.Context, assessmentIDs []models.ID, externalStudentID models.ID) (map[string]models.GradeRecord, error) {
	grades := make(map[string]models.GradeRecord)
	if externalStudentID.Empty() || len(assessmentIDs) == 0 {
		return grades, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for _, assessmentID := range dedupeIDs(assessmentIDs) {
		key := models.GradeKey(assessmentID, externalStudentID)
		g.Go(func() error {
			grade, found, err := f.repo.Grade(gctx, key)
			if err != nil || !found {
				return err
			}
			mu.Lock()
			grades[key] = *grade
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return grades, nil
}

// AssessmentIDs lists the distinct assessment identifiers of resolved links, sorted.
func AssessmentIDs(links map[string]models.ExternalLinkInfo) []models.ID {
	ids := make([]models.ID, 0, len(links))
	for _, link := range links {
		ids = append(ids, link.AssessmentID)
	}
	return dedupeIDs(ids)
}

func dedupeIDs(ids []models.ID) []models.ID {
	seen := make(map[models.ID]struct{}, len(ids))
	out := make([]models.ID, 0, len(ids))
	for _, id := range ids {
		if id.Empty() {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
