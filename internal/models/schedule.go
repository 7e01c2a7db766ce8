package models

// ScheduleInfoUnitName is the reserved schedule unit carrying metadata rather than items.
const ScheduleInfoUnitName = "Schedule Information"

// ScheduleEntry assigns a date to a titled item in a student's personalized plan.
type ScheduleEntry struct {
	Title string `json:"title"`
	Date  string `json:"date,omitempty"`
}

// ScheduleUnit mirrors a course unit inside the personalized schedule.
type ScheduleUnit struct {
	Name     string          `json:"name"`
	Sequence int             `json:"sequence"`
	Items    []ScheduleEntry `json:"items"`
}

// Schedule is a student's personalized schedule for one course.
type Schedule struct {
	Units []ScheduleUnit `json:"units"`
}

// ManualStatus is the status set by staff on the student course record.
type ManualStatus struct {
	Value string `json:"value,omitempty"`
}
