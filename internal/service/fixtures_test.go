package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rtdacademy/SignupForm-sub036/internal/models"
	appErrors "github.com/rtdacademy/SignupForm-sub036/pkg/errors"
)

var testNow = time.Date(2024, 10, 15, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func floatPtr(v float64) *float64 { return &v }

func day(offset int) string {
	return testNow.AddDate(0, 0, offset).Format("2006-01-02")
}

// lessonUnit builds a unit of linked lessons titled "<prefix> 1".."<prefix> n" with link ids "<prefix>-1"...
func lessonUnit(name string, sequence int, prefix string, n int) models.CourseUnit {
	unit := models.CourseUnit{Name: name, Sequence: sequence}
	for i := 1; i <= n; i++ {
		unit.Items = append(unit.Items, models.CourseItem{
			Title: fmt.Sprintf("%s %d", prefix, i),
			Type:  models.ItemTypeLesson,
			LTI:   &models.LTIReference{Enabled: true, DeepLinkID: fmt.Sprintf("%s-%d", prefix, i)},
		})
	}
	return unit
}

// scheduleFor mirrors a course unit into a schedule unit using the given day offsets.
func scheduleFor(unit models.CourseUnit, offsets ...int) models.ScheduleUnit {
	scheduled := models.ScheduleUnit{Name: unit.Name, Sequence: unit.Sequence}
	for i, item := range unit.Items {
		entry := models.ScheduleEntry{Title: item.Title}
		if i < len(offsets) {
			entry.Date = day(offsets[i])
		}
		scheduled.Items = append(scheduled.Items, entry)
	}
	return scheduled
}

// linksFor registers one link per course item, assessment ids "a-<linkID>", score maximum 100.
func linksFor(course *models.Course) map[string]models.ExternalLinkInfo {
	links := map[string]models.ExternalLinkInfo{}
	for _, unit := range course.Units() {
		for _, item := range unit.Items {
			if id, ok := item.LinkID(); ok {
				links[id] = models.ExternalLinkInfo{
					LinkID:       id,
					AssessmentID: models.ID("a-" + id),
					CourseID:     models.ID(course.ID),
					ScoreMaximum: 100,
				}
			}
		}
	}
	return links
}

func gradeFor(linkID string, lmsID models.ID, score float64, lastChange int64) (string, models.GradeRecord) {
	return models.GradeKey(models.ID("a-"+linkID), lmsID), models.GradeRecord{Score: score, Status: "completed", LastChange: lastChange}
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]interface{}
	getErr    error
	deleteErr error
	sets      int
	deletes   int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]interface{}{}}
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return m.getErr
	}
	value, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	switch typed := dest.(type) {
	case *map[string]models.ExternalLinkInfo:
		src := value.(map[string]models.ExternalLinkInfo)
		out := make(map[string]models.ExternalLinkInfo, len(src))
		for k, v := range src {
			v.LinkID = ""
			out[k] = v
		}
		*typed = out
	default:
		return fmt.Errorf("unsupported cache destination %T", dest)
	}
	return nil
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	m.sets++
	return nil
}

func (m *memoryCache) DeleteByPattern(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.entries = map[string]interface{}{}
	return nil
}
