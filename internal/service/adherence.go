package service

import (
	"strings"
	"time"

	"github.com/rtdacademy/SignupForm-sub036/internal/models"
)

// CalculateAdherence measures the student's completion position against the scheduled position.
// Items without a parseable date never act as the scheduled boundary.
func CalculateAdherence(items []models.NormalizedItem, manualStatus string, now time.Time) models.ScheduleAdherence {
	adherence := models.ScheduleAdherence{
		CurrentScheduledIndex: len(items) - 1,
		CurrentCompletedIndex: -1,
		Status:                manualStatus,
	}

	for i, item := range items {
		if date, ok := parseScheduleDate(item.Date); ok && date.After(now) {
			adherence.CurrentScheduledIndex = i - 1
			break
		}
	}

	seenCompleted := false
	for i, item := range items {
		if !item.Completed() {
			if seenCompleted {
				adherence.HasInconsistentProgress = true
			}
			continue
		}
		seenCompleted = true
		adherence.CurrentCompletedIndex = i
		if item.AssessmentData.LastChange > 0 {
			completedAt := item.AssessmentData.LastChange * 1000
			adherence.LastCompletedDate = &completedAt
		}
	}

	adherence.LessonsOffset = adherence.CurrentCompletedIndex - adherence.CurrentScheduledIndex
	adherence.IsOnSchedule = adherence.LessonsOffset == 0
	adherence.IsAhead = adherence.LessonsOffset > 0
	adherence.IsBehind = adherence.LessonsOffset < 0
	return adherence
}

var scheduleDateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func parseScheduleDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range scheduleDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
