package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rtdacademy/SignupForm-sub036/internal/models"
)

const (
	linkCatalogCacheKey     = "lti-links:catalog"
	linkCatalogCachePattern = "lti-links:*"
)

type linkCatalogReader interface {
	Links(ctx context.Context) (map[string]models.ExternalLinkInfo, error)
}

// LinkResolver maps external link identifiers to their assessment metadata.
// It reads the whole catalog at once and filters locally.
type LinkResolver struct {
	repo   linkCatalogReader
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewLinkResolver constructs the resolver. A nil cache reads the store every time.
func NewLinkResolver(repo linkCatalogReader, cache *CacheService, ttl time.Duration, logger *zap.Logger) *LinkResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkResolver{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// CollectLinkIDs returns the distinct enabled link identifiers of the course, in course order.
func CollectLinkIDs(course *models.Course) []string {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, unit := range course.Units() {
		for _, item := range unit.Items {
			id, ok := item.LinkID()
			if !ok {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// Resolve returns metadata for the requested identifiers. Unknown identifiers are absent from the result.
func (r *LinkResolver) Resolve(ctx context.Context, linkIDs []string) (map[string]models.ExternalLinkInfo, error) {
	resolved := make(map[string]models.ExternalLinkInfo, len(linkIDs))
	if len(linkIDs) == 0 {
		return resolved, nil
	}
	catalog, _, err := r.catalog(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range linkIDs {
		if link, ok := catalog[id]; ok {
			resolved[id] = link
		}
	}
	return resolved, nil
}

// FindByAssessment locates the link carrying assessmentID. A cached catalog without a
// match is refreshed once from the store before giving up.
func (r *LinkResolver) FindByAssessment(ctx context.Context, assessmentID models.ID) (*models.ExternalLinkInfo, bool, error) {
	catalog, cached, err := r.catalog(ctx)
	if err != nil {
		return nil, false, err
	}
	if link, ok := findAssessment(catalog, assessmentID); ok {
		return link, true, nil
	}
	if !cached {
		return nil, false, nil
	}

	// load overwrites the catalog key, so a failed invalidation only leaves sibling keys behind.
	if err := r.cache.Invalidate(ctx, linkCatalogCachePattern); err != nil {
		r.logger.Debug("link catalog invalidation failed, reloading anyway", zap.String("assessment_id", assessmentID.String()), zap.Error(err))
	}
	catalog, err = r.load(ctx)
	if err != nil {
		return nil, false, err
	}
	link, ok := findAssessment(catalog, assessmentID)
	return link, ok, nil
}

func (r *LinkResolver) catalog(ctx context.Context) (map[string]models.ExternalLinkInfo, bool, error) {
	var catalog map[string]models.ExternalLinkInfo
	hit, err := r.cache.Get(ctx, linkCatalogCacheKey, &catalog)
	if err == nil && hit {
		for id, link := range catalog {
			link.LinkID = id
			catalog[id] = link
		}
		return catalog, true, nil
	}

	catalog, err = r.load(ctx)
	return catalog, false, err
}

func (r *LinkResolver) load(ctx context.Context) (map[string]models.ExternalLinkInfo, error) {
	catalog, err := r.repo.Links(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, linkCatalogCacheKey, catalog, r.ttl); err != nil {
		r.logger.Debug("link catalog not cached", zap.Error(err))
	}
	return catalog, nil
}

func findAssessment(catalog map[string]models.ExternalLinkInfo, assessmentID models.ID) (*models.ExternalLinkInfo, bool) {
	if assessmentID.Empty() {
		return nil, false
	}
	for _, link := range catalog {
		if link.AssessmentID == assessmentID {
			found := link
			return &found, true
		}
	}
	return nil, false
}
