package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtdacademy/SignupForm-sub036/internal/models"
)

func TestMergeScheduleAssignsGlobalIndexInCourseOrder(t *testing.T) {
	unitA := lessonUnit("Unit A", 1, "A", 3)
	unitB := lessonUnit("Unit B", 2, "B", 2)
	course := &models.Course{ID: "2", CourseDetails: &models.CourseDetails{Units: []models.CourseUnit{unitA, unitB}}}

	// Schedule lists unit B first and only dates part of unit A.
	record := &models.StudentCourse{Schedule: &models.Schedule{Units: []models.ScheduleUnit{
		{Name: models.ScheduleInfoUnitName, Sequence: 0},
		scheduleFor(unitB, 1, 2),
		scheduleFor(unitA, 5, -5),
	}}}

	result, err := MergeSchedule(MergeInput{Course: course, StudentCourse: record})
	require.NoError(t, err)
	require.Len(t, result.Items, 5)
	require.Len(t, result.Units, 2)

	for i, item := range result.Items {
		assert.Equal(t, i, item.GlobalIndex)
	}
	assert.Equal(t, "A 1", result.Items[0].Title)
	assert.Equal(t, day(5), result.Items[0].Date)
	assert.Equal(t, day(-5), result.Items[1].Date)
	assert.Empty(t, result.Items[2].Date)
	assert.Equal(t, "B 1", result.Items[3].Title)
	assert.Equal(t, 1, result.Items[3].UnitIndex)
	assert.Equal(t, "Unit B", result.Items[3].UnitName)
	assert.Equal(t, day(1), result.Items[3].Date)
	assert.Equal(t, 3, result.Units[1].Items[0].GlobalIndex)
}

func TestMergeScheduleJoinsOnSequenceNotName(t *testing.T) {
	unit := lessonUnit("Kinematics", 3, "K", 1)
	course := &models.Course{CourseDetails: &models.CourseDetails{Units: []models.CourseUnit{unit}}}
	record := &models.StudentCourse{Schedule: &models.Schedule{Units: []models.ScheduleUnit{
		{Name: "Kinematics", Sequence: 1, Items: []models.ScheduleEntry{{Title: "K 1", Date: day(-9)}}},
		{Name: "Renamed", Sequence: 3, Items: []models.ScheduleEntry{{Title: "K 1", Date: day(-1)}}},
	}}}

	result, err := MergeSchedule(MergeInput{Course: course, StudentCourse: record})
	require.NoError(t, err)
	assert.Equal(t, day(-1), result.Items[0].Date)
}

func TestMergeScheduleRequiresScheduleUnits(t *testing.T) {
	course := &models.Course{CourseDetails: &models.CourseDetails{Units: []models.CourseUnit{lessonUnit("U", 1, "L", 1)}}}

	_, err := MergeSchedule(MergeInput{Course: course, StudentCourse: &models.StudentCourse{Schedule: &models.Schedule{
		Units: []models.ScheduleUnit{{Name: models.ScheduleInfoUnitName}},
	}}})
	assert.ErrorIs(t, err, ErrCannotNormalize)

	_, err = MergeSchedule(MergeInput{Course: course, StudentCourse: &models.StudentCourse{}})
	assert.ErrorIs(t, err, ErrCannotNormalize)
}

func TestMergeScheduleAttachesAssessmentData(t *testing.T) {
	unit := lessonUnit("U", 1, "L", 3)
	course := &models.Course{ID: "2", CourseDetails: &models.CourseDetails{Units: []models.CourseUnit{unit}}}
	record := &models.StudentCourse{Schedule: &models.Schedule{Units: []models.ScheduleUnit{scheduleFor(unit)}}}

	links := linksFor(course)
	zeroMax := links["L-2"]
	zeroMax.ScoreMaximum = 0
	links["L-2"] = zeroMax
	thirds := links["L-3"]
	thirds.ScoreMaximum = 3
	links["L-3"] = thirds

	grades := map[string]models.GradeRecord{}
	key, grade := gradeFor("L-1", "999", 87, 1700000000)
	grades[key] = grade
	key, grade = gradeFor("L-2", "999", 5, 1700000100)
	grades[key] = grade
	key, grade = gradeFor("L-3", "999", 2, 1700000200)
	grades[key] = grade
	key, grade = gradeFor("L-1", "other-student", 10, 1)
	grades[key] = grade

	result, err := MergeSchedule(MergeInput{Course: course, StudentCourse: record, Links: links, Grades: grades, ExternalStudentID: "999"})
	require.NoError(t, err)

	first := result.Items[0].AssessmentData
	require.NotNil(t, first)
	assert.Equal(t, 87.0, first.ScorePercent)
	assert.Equal(t, 100.0, first.ScoreMaximum)
	assert.Equal(t, int64(1700000000), first.LastChange)
	assert.Equal(t, "completed", first.Status)

	require.NotNil(t, result.Items[1].AssessmentData)
	assert.Equal(t, 0.0, result.Items[1].AssessmentData.ScorePercent)

	require.NotNil(t, result.Items[2].AssessmentData)
	assert.Equal(t, 66.7, result.Items[2].AssessmentData.ScorePercent)
}

func TestMergeScheduleSkipsDisabledOrUnknownLinks(t *testing.T) {
	unit := models.CourseUnit{Name: "U", Sequence: 1, Items: []models.CourseItem{
		{Title: "disabled", Type: models.ItemTypeLesson, LTI: &models.LTIReference{Enabled: false, DeepLinkID: "x"}},
		{Title: "unknown", Type: models.ItemTypeLesson, LTI: &models.LTIReference{Enabled: true, DeepLinkID: "missing"}},
		{Title: "no assessment", Type: models.ItemTypeLesson, LTI: &models.LTIReference{Enabled: true, DeepLinkID: "bare"}},
		{Title: "plain", Type: models.ItemTypeLesson},
	}}
	course := &models.Course{CourseDetails: &models.CourseDetails{Units: []models.CourseUnit{unit}}}
	record := &models.StudentCourse{Schedule: &models.Schedule{Units: []models.ScheduleUnit{scheduleFor(unit)}}}
	links := map[string]models.ExternalLinkInfo{
		"x":    {LinkID: "x", AssessmentID: "a-x", ScoreMaximum: 10},
		"bare": {LinkID: "bare", ScoreMaximum: 10},
	}
	grades := map[string]models.GradeRecord{models.GradeKey("a-x", "1"): {Score: 10}}

	result, err := MergeSchedule(MergeInput{Course: course, StudentCourse: record, Links: links, Grades: grades, ExternalStudentID: "1"})
	require.NoError(t, err)
	for _, item := range result.Items {
		assert.False(t, item.Completed(), item.Title)
	}
}

func TestResolveItemWeightPrecedence(t *testing.T) {
	typeWeights := map[models.ItemType]float64{models.ItemTypeExam: 4}

	explicit := models.CourseItem{Type: models.ItemTypeExam, Weight: floatPtr(0.5)}
	assert.Equal(t, 0.5, ResolveItemWeight(explicit, typeWeights))

	explicitZero := models.CourseItem{Type: models.ItemTypeExam, Weight: floatPtr(0)}
	assert.Equal(t, 0.0, ResolveItemWeight(explicitZero, typeWeights))

	byType := models.CourseItem{Type: models.ItemTypeExam}
	assert.Equal(t, 4.0, ResolveItemWeight(byType, typeWeights))

	fallback := models.CourseItem{Type: models.ItemTypeLesson}
	assert.Equal(t, DefaultItemWeight, ResolveItemWeight(fallback, typeWeights))
	assert.Equal(t, DefaultItemWeight, ResolveItemWeight(fallback, nil))
}

func TestResolveItemWeightSkipsInvalidWeights(t *testing.T) {
	typeWeights := map[models.ItemType]float64{models.ItemTypeExam: 4, models.ItemTypeLesson: -2}

	negative := models.CourseItem{Type: models.ItemTypeExam, Weight: floatPtr(-0.5)}
	assert.Equal(t, 4.0, ResolveItemWeight(negative, typeWeights))

	notANumber := models.CourseItem{Type: models.ItemTypeExam, Weight: floatPtr(math.NaN())}
	assert.Equal(t, 4.0, ResolveItemWeight(notANumber, typeWeights))

	negativeType := models.CourseItem{Type: models.ItemTypeLesson, Weight: floatPtr(math.Inf(1))}
	assert.Equal(t, DefaultItemWeight, ResolveItemWeight(negativeType, typeWeights))
}

func TestMergeScheduleBoundsScorePercent(t *testing.T) {
	unit := lessonUnit("U", 1, "L", 2)
	course := &models.Course{ID: "2", CourseDetails: &models.CourseDetails{Units: []models.CourseUnit{unit}}}
	record := &models.StudentCourse{Schedule: &models.Schedule{Units: []models.ScheduleUnit{scheduleFor(unit)}}}

	links := linksFor(course)
	for id, link := range links {
		link.ScoreMaximum = 10
		links[id] = link
	}
	grades := map[string]models.GradeRecord{}
	key, grade := gradeFor("L-1", "999", 15, 1700000000)
	grades[key] = grade
	key, grade = gradeFor("L-2", "999", -4, 1700000100)
	grades[key] = grade

	result, err := MergeSchedule(MergeInput{Course: course, StudentCourse: record, Links: links, Grades: grades, ExternalStudentID: "999"})
	require.NoError(t, err)

	require.NotNil(t, result.Items[0].AssessmentData)
	assert.Equal(t, 100.0, result.Items[0].AssessmentData.ScorePercent)
	assert.Equal(t, 15.0, result.Items[0].AssessmentData.Score)
	require.NotNil(t, result.Items[1].AssessmentData)
	assert.Equal(t, 0.0, result.Items[1].AssessmentData.ScorePercent)

	marks := AggregateMarks([]models.NormalizedUnit{{Name: "U", Sequence: 1, Items: result.Items}}, nil)
	assert.LessOrEqual(t, marks.Overall.WithZeros, 100.0)
	assert.LessOrEqual(t, marks.Overall.OmitMissing, 100.0)
}
