package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtdacademy/SignupForm-sub036/internal/models"
)

func containsNull(node interface{}) bool {
	switch typed := node.(type) {
	case nil:
		return true
	case map[string]interface{}:
		for _, v := range typed {
			if containsNull(v) {
				return true
			}
		}
	case []interface{}:
		for _, v := range typed {
			if containsNull(v) {
				return true
			}
		}
	}
	return false
}

func TestStripUndefinedRemovesNullsAtAnyDepth(t *testing.T) {
	input := map[string]interface{}{
		"keep": 1,
		"drop": nil,
		"nested": map[string]interface{}{
			"deep":  map[string]interface{}{"gone": nil, "kept": "x"},
			"slice": []interface{}{nil, 2, map[string]interface{}{"inner": nil}},
		},
	}

	out, err := StripUndefined(input)
	require.NoError(t, err)
	assert.False(t, containsNull(out))

	tree := out.(map[string]interface{})
	assert.NotContains(t, tree, "drop")
	nested := tree["nested"].(map[string]interface{})
	assert.Len(t, nested["slice"], 2)
	assert.Equal(t, "x", nested["deep"].(map[string]interface{})["kept"])
}

func TestStripUndefinedOnNormalizedSchedule(t *testing.T) {
	schedule := models.NormalizedSchedule{
		Units: []models.NormalizedUnit{{Name: "U", Items: []models.NormalizedItem{{Title: "L1", Type: models.ItemTypeLesson}}}},
		Marks: models.Marks{ByCategory: map[models.ItemType]models.CategoryMarks{models.ItemTypeLesson: {}}},
	}

	out, err := StripUndefined(schedule)
	require.NoError(t, err)
	assert.False(t, containsNull(out))

	tree := out.(map[string]interface{})
	assert.NotContains(t, tree, "weights")
	assert.Contains(t, tree, "scheduleAdherence")
}
