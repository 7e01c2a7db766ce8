package models

// StudentProfile carries the identity fields the engine needs.
type StudentProfile struct {
	Email        string `json:"email,omitempty"`
	LMSStudentID ID     `json:"lmsStudentId,omitempty"`
	LMSIDToggle  bool   `json:"lmsIdToggle"`
}

// StudentCourse is the per student course record.
type StudentCourse struct {
	Schedule           *Schedule           `json:"schedule,omitempty"`
	Status             ManualStatus        `json:"status"`
	AutoStatus         *AutoStatus         `json:"autoStatus,omitempty"`
	NormalizedSchedule *NormalizedSchedule `json:"normalizedSchedule,omitempty"`
}

// ScheduleUnits returns the schedule units or nil when no schedule exists.
func (s *StudentCourse) ScheduleUnits() []ScheduleUnit {
	if s == nil || s.Schedule == nil {
		return nil
	}
	return s.Schedule.Units
}

// CourseSummary is the denormalized per student course summary record.
type CourseSummary struct {
	NormalizedScheduleLastUpdated int64       `json:"normalizedScheduleLastUpdated,omitempty"`
	NormalizedScheduleItemCount   int         `json:"normalizedScheduleItemCount,omitempty"`
	AutoStatus                    *AutoStatus `json:"autoStatus,omitempty"`
}
