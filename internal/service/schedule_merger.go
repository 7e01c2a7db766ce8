package service

import (
	"errors"
	"math"

	"github.com/rtdacademy/SignupForm-sub036/internal/models"
)

// ErrCannotNormalize is returned when the personalized schedule holds no units besides the sentinel.
var ErrCannotNormalize = errors.New("schedule has no units to normalize")

// DefaultItemWeight applies when neither the item nor the course carries a weight.
const DefaultItemWeight = 1.0

// MergeInput carries everything the merge pass reads.
type MergeInput struct {
	Course            *models.Course
	StudentCourse     *models.StudentCourse
	Links             map[string]models.ExternalLinkInfo
	Grades            map[string]models.GradeRecord
	ExternalStudentID models.ID
}

// MergeResult is the normalized structure in course order.
type MergeResult struct {
	Units []models.NormalizedUnit
	Items []models.NormalizedItem
}

// MergeSchedule reconciles the course structure with the student's schedule and grades.
// Items come out in course structure order with globalIndex 0..N-1; schedule dates never reorder them.
func MergeSchedule(input MergeInput) (*MergeResult, error) {
	scheduleBySequence := make(map[int]models.ScheduleUnit)
	for _, unit := range input.StudentCourse.ScheduleUnits() {
		if unit.Name == models.ScheduleInfoUnitName {
			continue
		}
		if _, exists := scheduleBySequence[unit.Sequence]; !exists {
			scheduleBySequence[unit.Sequence] = unit
		}
	}
	if len(scheduleBySequence) == 0 {
		return nil, ErrCannotNormalize
	}

	result := &MergeResult{Units: []models.NormalizedUnit{}, Items: []models.NormalizedItem{}}
	globalIndex := 0
	for unitIndex, courseUnit := range input.Course.Units() {
		scheduleUnit, hasSchedule := scheduleBySequence[courseUnit.Sequence]
		unit := models.NormalizedUnit{
			Name:      courseUnit.Name,
			Sequence:  courseUnit.Sequence,
			UnitIndex: unitIndex,
			Items:     make([]models.NormalizedItem, 0, len(courseUnit.Items)),
		}
		for _, courseItem := range courseUnit.Items {
			item := models.NormalizedItem{
				Title:       courseItem.Title,
				Type:        courseItem.Type,
				Weight:      ResolveItemWeight(courseItem, input.Course.ItemWeights),
				LTI:         courseItem.LTI,
				Sequence:    courseItem.Sequence,
				GlobalIndex: globalIndex,
				UnitIndex:   unitIndex,
				UnitName:    courseUnit.Name,
			}
			if hasSchedule {
				item.Date = matchScheduleDate(scheduleUnit, courseItem.Title)
			}
			item.AssessmentData = lookupAssessment(courseItem, input)

			unit.Items = append(unit.Items, item)
			result.Items = append(result.Items, item)
			globalIndex++
		}
		result.Units = append(result.Units, unit)
	}
	return result, nil
}

// ResolveItemWeight picks the item weight by precedence: the explicit item weight,
// then the course wide weight for the item's type, then DefaultItemWeight.
// Negative or non-finite weights are skipped in favour of the next tier.
func ResolveItemWeight(item models.CourseItem, typeWeights map[models.ItemType]float64) float64 {
	if item.Weight != nil && validWeight(*item.Weight) {
		return *item.Weight
	}
	if weight, ok := typeWeights[item.Type]; ok && validWeight(weight) {
		return weight
	}
	return DefaultItemWeight
}

func validWeight(w float64) bool {
	return w >= 0 && !math.IsNaN(w) && !math.IsInf(w, 0)
}

func matchScheduleDate(unit models.ScheduleUnit, title string) string {
	for _, entry := range unit.Items {
		if entry.Title == title {
			return entry.Date
		}
	}
	return ""
}

func lookupAssessment(item models.CourseItem, input MergeInput) *models.AssessmentData {
	linkID, ok := item.LinkID()
	if !ok {
		return nil
	}
	link, ok := input.Links[linkID]
	if !ok || link.AssessmentID.Empty() {
		return nil
	}
	grade, ok := input.Grades[models.GradeKey(link.AssessmentID, input.ExternalStudentID)]
	if !ok {
		return nil
	}

	var percent float64
	if link.ScoreMaximum > 0 {
		percent = clampPercent(round1(grade.Score / link.ScoreMaximum * 100))
	}
	return &models.AssessmentData{
		ScoreMaximum: link.ScoreMaximum,
		Score:        grade.Score,
		ScorePercent: percent,
		Status:       grade.Status,
		StartTime:    grade.StartTime,
		TimeOnTask:   grade.TimeOnTask,
		LastChange:   grade.LastChange,
		Version:      grade.Version,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
