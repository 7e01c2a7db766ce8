package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtdacademy/SignupForm-sub036/internal/models"
)

func adherenceItem(date string, lastChange int64, completed bool) models.NormalizedItem {
	it := models.NormalizedItem{Type: models.ItemTypeLesson, Weight: 1, Date: date}
	if completed {
		it.AssessmentData = &models.AssessmentData{ScoreMaximum: 100, Score: 90, ScorePercent: 90, LastChange: lastChange}
	}
	return it
}

func TestCalculateAdherenceOnSchedule(t *testing.T) {
	items := []models.NormalizedItem{
		adherenceItem(day(-3), 100, true),
		adherenceItem(day(-2), 200, true),
		adherenceItem(day(-1), 300, true),
		adherenceItem(day(1), 0, false),
		adherenceItem(day(2), 0, false),
	}

	adherence := CalculateAdherence(items, "Active", testNow)
	assert.Equal(t, 2, adherence.CurrentScheduledIndex)
	assert.Equal(t, 2, adherence.CurrentCompletedIndex)
	assert.Equal(t, 0, adherence.LessonsOffset)
	assert.True(t, adherence.IsOnSchedule)
	assert.False(t, adherence.IsAhead)
	assert.False(t, adherence.IsBehind)
	assert.False(t, adherence.HasInconsistentProgress)
	assert.Equal(t, "Active", adherence.Status)
	require.NotNil(t, adherence.LastCompletedDate)
	assert.Equal(t, int64(300000), *adherence.LastCompletedDate)
}

func TestCalculateAdherenceWholeScheduleInPast(t *testing.T) {
	items := []models.NormalizedItem{
		adherenceItem(day(-3), 0, false),
		adherenceItem(day(-2), 0, false),
	}

	adherence := CalculateAdherence(items, "", testNow)
	assert.Equal(t, 1, adherence.CurrentScheduledIndex)
	assert.Equal(t, -1, adherence.CurrentCompletedIndex)
	assert.Equal(t, -2, adherence.LessonsOffset)
	assert.True(t, adherence.IsBehind)
	assert.Nil(t, adherence.LastCompletedDate)
}

func TestCalculateAdherenceBoundaryAtFirstItem(t *testing.T) {
	items := []models.NormalizedItem{
		adherenceItem(day(1), 50, true),
		adherenceItem(day(2), 0, false),
	}

	adherence := CalculateAdherence(items, "", testNow)
	assert.Equal(t, -1, adherence.CurrentScheduledIndex)
	assert.Equal(t, 0, adherence.CurrentCompletedIndex)
	assert.Equal(t, 1, adherence.LessonsOffset)
	assert.True(t, adherence.IsAhead)
}

func TestCalculateAdherenceInconsistentProgressLatches(t *testing.T) {
	items := []models.NormalizedItem{
		adherenceItem(day(-4), 100, true),
		adherenceItem(day(-3), 0, false),
		adherenceItem(day(-2), 50, true),
		adherenceItem(day(-1), 0, false),
	}

	adherence := CalculateAdherence(items, "", testNow)
	assert.True(t, adherence.HasInconsistentProgress)
	assert.Equal(t, 2, adherence.CurrentCompletedIndex)
	require.NotNil(t, adherence.LastCompletedDate)
	// The last completed item seen in the scan wins even when an earlier one changed later.
	assert.Equal(t, int64(50000), *adherence.LastCompletedDate)
}

func TestCalculateAdherenceUndatedItemsAreNeverBoundary(t *testing.T) {
	items := []models.NormalizedItem{
		adherenceItem(day(-1), 0, false),
		adherenceItem("", 0, false),
		adherenceItem("not a date", 0, false),
		adherenceItem(day(3), 0, false),
	}

	adherence := CalculateAdherence(items, "", testNow)
	assert.Equal(t, 2, adherence.CurrentScheduledIndex)
}

func TestCalculateAdherenceAcceptsTimestamps(t *testing.T) {
	items := []models.NormalizedItem{
		adherenceItem(testNow.Add(-time.Hour).Format(time.RFC3339), 0, false),
		adherenceItem(testNow.Add(time.Hour).Format(time.RFC3339), 0, false),
	}

	adherence := CalculateAdherence(items, "", testNow)
	assert.Equal(t, 0, adherence.CurrentScheduledIndex)
}

func TestCalculateAdherenceEmpty(t *testing.T) {
	adherence := CalculateAdherence(nil, "", testNow)
	assert.Equal(t, -1, adherence.CurrentScheduledIndex)
	assert.Equal(t, -1, adherence.CurrentCompletedIndex)
	assert.Equal(t, 0, adherence.LessonsOffset)
	assert.True(t, adherence.IsOnSchedule)
}
