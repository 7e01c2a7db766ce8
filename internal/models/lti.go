package models

import (
	"encoding/json"
	"fmt"
)

// ExternalLinkInfo is resolved link metadata for an externally hosted assessment.
type ExternalLinkInfo struct {
	LinkID       string
	URL          string
	AssessmentID ID
	CourseID     ID
	ScoreMaximum float64
}

// linkRecord is the stored wire shape of a link metadata entry.
type linkRecord struct {
	URL          string    `json:"url"`
	AssessmentID ID        `json:"assessment_id"`
	CourseID     ID        `json:"course_id"`
	LineItem     *lineItem `json:"lineItem,omitempty"`
}

type lineItem struct {
	ScoreMaximum float64 `json:"scoreMaximum"`
}

// MarshalJSON encodes the stored link metadata layout.
func (l ExternalLinkInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(linkRecord{
		URL:          l.URL,
		AssessmentID: l.AssessmentID,
		CourseID:     l.CourseID,
		LineItem:     &lineItem{ScoreMaximum: l.ScoreMaximum},
	})
}

// UnmarshalJSON decodes the stored link metadata layout.
func (l *ExternalLinkInfo) UnmarshalJSON(data []byte) error {
	var rec linkRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	l.URL = rec.URL
	l.AssessmentID = rec.AssessmentID
	l.CourseID = rec.CourseID
	if rec.LineItem != nil {
		l.ScoreMaximum = rec.LineItem.ScoreMaximum
	}
	return nil
}

// GradeRecord is a raw grade recorded by the external grading system.
type GradeRecord struct {
	Score      float64 `json:"score"`
	Status     string  `json:"status,omitempty"`
	StartTime  string  `json:"startTime,omitempty"`
	TimeOnTask float64 `json:"timeOnTask,omitempty"`
	LastChange int64   `json:"lastChange,omitempty"`
	Version    int     `json:"version,omitempty"`
}

// GradeKey is the composite key of a grade record.
func GradeKey(assessmentID, externalStudentID ID) string {
	return fmt.Sprintf("%s_%s", assessmentID, externalStudentID)
}
