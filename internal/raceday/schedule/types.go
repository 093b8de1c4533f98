package schedule

import (
	"time"
)

// Sentinel values used when a schedule entry references a catalog record
// that does not exist. The feed never contains nulls.
const (
	UnknownSeries   = "Unknown Series"
	UnknownTrack    = "Unknown Track"
	UnknownCarClass = "Unknown"
)

// NormalizedRace is a fully joined, classified race record ready for
// persistence and serving.
type NormalizedRace struct {
	Title          string         `json:"title"`
	StartTime      time.Time      `json:"start_time"`
	EndTime        time.Time      `json:"end_time"`
	TrackName      string         `json:"track_name"`
	State          LifecycleState `json:"lifecycle_state"`
	LicenseLevel   string         `json:"license_level"`
	CarClassID     int            `json:"car_class"`
	CarClassName   string         `json:"car_class_name"`
	NumberOfRacers int            `json:"number_of_racers"`
	SeriesID       int            `json:"series_id"`
	CategoryID     int            `json:"category_id"`
	AvailableCars  []string       `json:"available_cars"`
}
