package models

import "time"

// SystemMetrics is a point in time summary of the engine's instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	NormalizationRuns        uint64    `json:"normalization_runs"`
	NormalizationFailures    uint64    `json:"normalization_failures"`
	AutoStatusChanges        uint64    `json:"auto_status_changes"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
