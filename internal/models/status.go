package models

// AutoStatusValue is the categorical pace status derived by the engine.
type AutoStatusValue string

const (
	AutoStatusNotActive AutoStatusValue = "Not Active"
	AutoStatusRockingIt AutoStatusValue = "Rocking it!"
	AutoStatusOnTrack   AutoStatusValue = "On Track"
	AutoStatusBehind    AutoStatusValue = "⚠️ Behind"
	AutoStatusFarBehind AutoStatusValue = "❗ Behind"
)

// AutoStatus is the persisted automated status with its audit fields.
type AutoStatus struct {
	Value          AutoStatusValue `json:"value"`
	Timestamp      int64           `json:"timestamp"`
	PreviousStatus AutoStatusValue `json:"previousStatus,omitempty"`
}
