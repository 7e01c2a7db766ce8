package service

import (
	"math"

	"github.com/rtdacademy/SignupForm-sub036/internal/models"
)

// AggregateMarks computes category and overall marks under both scoring policies.
// withZeros counts missing work as zero; omitMissing averages completed work only.
// A nil weight map weighs every category equally; otherwise a category without a
// positive weight is left out of the overall mark.
func AggregateMarks(units []models.NormalizedUnit, categoryWeights models.CategoryWeights) models.Marks {
	byCategory := make(map[models.ItemType]categoryTally, len(models.MarkCategories))
	for _, category := range models.MarkCategories {
		byCategory[category] = categoryTally{}
	}

	for _, unit := range units {
		for _, item := range unit.Items {
			tally, ok := byCategory[item.Type]
			if !ok {
				continue
			}
			tally.add(item)
			byCategory[item.Type] = tally
		}
	}

	marks := models.Marks{ByCategory: make(map[models.ItemType]models.CategoryMarks, len(byCategory))}
	var overall categoryTally
	for _, category := range models.MarkCategories {
		tally := byCategory[category]
		marks.ByCategory[category] = tally.marks()

		scale := categoryWeight(categoryWeights, category)
		if scale <= 0 {
			continue
		}
		overall.possible += tally.possible * scale
		overall.achieved += tally.achieved * scale
		overall.completedWeight += tally.completedWeight * scale
	}
	marks.Overall = models.MarkPair{
		WithZeros:   overall.withZeros(),
		OmitMissing: overall.omitMissing(),
	}
	return marks
}

// categoryTally accumulates weighted scores for one category. Scores are percentages.
type categoryTally struct {
	possible        float64
	achieved        float64
	completedWeight float64
	completed       int
	items           []models.MarkItem
}

func (t *categoryTally) add(item models.NormalizedItem) {
	weight := item.Weight
	if !validWeight(weight) {
		weight = 0
	}
	markItem := models.MarkItem{IsCompleted: item.Completed(), Weight: weight}
	t.possible += weight
	if markItem.IsCompleted {
		markItem.Score = clampPercent(item.AssessmentData.ScorePercent)
		t.achieved += weight * markItem.Score
		t.completedWeight += weight
		t.completed++
	}
	t.items = append(t.items, markItem)
}

func (t categoryTally) withZeros() float64 {
	if t.possible <= 0 {
		return 0
	}
	return clampPercent(t.achieved / t.possible)
}

func (t categoryTally) omitMissing() float64 {
	if t.completedWeight <= 0 {
		return 0
	}
	return clampPercent(t.achieved / t.completedWeight)
}

func (t categoryTally) marks() models.CategoryMarks {
	items := t.items
	if items == nil {
		items = []models.MarkItem{}
	}
	return models.CategoryMarks{
		WithZeros:      t.withZeros(),
		OmitMissing:    t.omitMissing(),
		WeightAchieved: finiteOrZero(t.achieved / 100),
		WeightPossible: finiteOrZero(t.possible),
		Completed:      t.completed,
		Total:          len(t.items),
		Items:          items,
	}
}

func categoryWeight(weights models.CategoryWeights, category models.ItemType) float64 {
	if weights == nil {
		return 1
	}
	return weights[category]
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// clampPercent bounds a mark to [0, 100]; NaN becomes 0.
func clampPercent(v float64) float64 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 100:
		return 100
	}
	return v
}
