package dto

import "github.com/rtdacademy/SignupForm-sub036/internal/models"

// NormalizeRequest asks for a schedule normalization of one student course.
type NormalizeRequest struct {
	StudentKey  string    `json:"studentKey" validate:"required,excludesall=/.#$[]"`
	CourseID    models.ID `json:"courseId" validate:"required,excludesall=/.#$[]"`
	ForceUpdate bool      `json:"forceUpdate"`
}

// NormalizeResponse reports the outcome of a normalization. Cached runs return the stored timestamp.
type NormalizeResponse struct {
	Success   bool  `json:"success"`
	Timestamp int64 `json:"timestamp"`
	ItemCount int   `json:"itemCount"`
	Cached    bool  `json:"cached"`
}

// GradeRecordedEvent announces a new grade record for an assessment.
type GradeRecordedEvent struct {
	AssessmentID models.ID `json:"assessmentId" validate:"required,excludesall=/.#$[]"`
	LMSStudentID models.ID `json:"lmsStudentId" validate:"required,excludesall=/.#$[]"`
}

// LMSIDAssignedEvent announces that a student received their LMS identifier.
type LMSIDAssignedEvent struct {
	StudentKey   string    `json:"studentKey" validate:"required,excludesall=/.#$[]"`
	LMSStudentID models.ID `json:"lmsStudentId" validate:"required,excludesall=/.#$[]"`
}

// TriggerAccepted acknowledges a queued event trigger.
type TriggerAccepted struct {
	JobID string `json:"jobId"`
	Kind  string `json:"kind"`
}
