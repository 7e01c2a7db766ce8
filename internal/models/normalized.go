package models

// AssessmentData is attached to a normalized item once a grade has been recorded.
type AssessmentData struct {
	ScoreMaximum float64 `json:"scoreMaximum"`
	Score        float64 `json:"score"`
	ScorePercent float64 `json:"scorePercent"`
	Status       string  `json:"status,omitempty"`
	StartTime    string  `json:"startTime,omitempty"`
	TimeOnTask   float64 `json:"timeOnTask,omitempty"`
	LastChange   int64   `json:"lastChange,omitempty"`
	Version      int     `json:"version,omitempty"`
}

// NormalizedItem is a course item reconciled with the schedule and grade data.
type NormalizedItem struct {
	Title          string          `json:"title"`
	Type           ItemType        `json:"type"`
	Weight         float64         `json:"weight"`
	LTI            *LTIReference   `json:"lti,omitempty"`
	Sequence       int             `json:"sequence,omitempty"`
	GlobalIndex    int             `json:"globalIndex"`
	UnitIndex      int             `json:"unitIndex"`
	UnitName       string          `json:"unitName"`
	Date           string          `json:"date,omitempty"`
	AssessmentData *AssessmentData `json:"assessmentData,omitempty"`
}

// Completed reports whether a grade was found for the item.
func (i NormalizedItem) Completed() bool {
	return i.AssessmentData != nil
}

// NormalizedUnit groups normalized items back into their course unit.
type NormalizedUnit struct {
	Name      string           `json:"name"`
	Sequence  int              `json:"sequence"`
	UnitIndex int              `json:"unitIndex"`
	Items     []NormalizedItem `json:"items"`
}

// ScheduleAdherence summarises a student's pace against their schedule.
type ScheduleAdherence struct {
	CurrentScheduledIndex   int    `json:"currentScheduledIndex"`
	CurrentCompletedIndex   int    `json:"currentCompletedIndex"`
	LessonsOffset           int    `json:"lessonsOffset"`
	HasInconsistentProgress bool   `json:"hasInconsistentProgress"`
	LastCompletedDate       *int64 `json:"lastCompletedDate,omitempty"`
	IsOnSchedule            bool   `json:"isOnSchedule"`
	IsAhead                 bool   `json:"isAhead"`
	IsBehind                bool   `json:"isBehind"`
	Status                  string `json:"status,omitempty"`
}

// MarkPair holds a mark under both scoring policies.
type MarkPair struct {
	WithZeros   float64 `json:"withZeros"`
	OmitMissing float64 `json:"omitMissing"`
}

// MarkItem is the per item tuple used by the aggregation pass.
type MarkItem struct {
	IsCompleted bool    `json:"isCompleted"`
	Score       float64 `json:"score"`
	Weight      float64 `json:"weight"`
}

// CategoryMarks are the marks of one item category.
type CategoryMarks struct {
	WithZeros      float64    `json:"withZeros"`
	OmitMissing    float64    `json:"omitMissing"`
	WeightAchieved float64    `json:"weightAchieved"`
	WeightPossible float64    `json:"weightPossible"`
	Completed      int        `json:"completed"`
	Total          int        `json:"total"`
	Items          []MarkItem `json:"items"`
}

// Marks are the course marks overall and per category.
type Marks struct {
	Overall    MarkPair                   `json:"overall"`
	ByCategory map[ItemType]CategoryMarks `json:"byCategory"`
}

// NormalizedSchedule is the persisted normalization result.
type NormalizedSchedule struct {
	Units             []NormalizedUnit  `json:"units"`
	ScheduleAdherence ScheduleAdherence `json:"scheduleAdherence"`
	TotalItems        int               `json:"totalItems"`
	Weights           CategoryWeights   `json:"weights,omitempty"`
	Marks             Marks             `json:"marks"`
	LastUpdated       int64             `json:"lastUpdated"`
}
