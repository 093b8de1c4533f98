package upstream

import (
	"time"
)

// RawSession is a schedule entry as returned by the upstream race guide.
// Entries pass through to the normalizer unmodified; no business rules are
// applied at fetch time.
type RawSession struct {
	SubsessionID  int64     `json:"subsession_id"`
	SessionID     int64     `json:"session_id"`
	SeriesID      int       `json:"series_id"`
	Track         TrackRef  `json:"track"`
	StartTime     time.Time `json:"start_time"`
	LicenseGroup  int       `json:"license_group"`
	EntryCount    int       `json:"entry_count"`
	RaceLapLimit  int       `json:"race_lap_limit"`
	RaceTimeLimit int       `json:"race_time_limit"` // minutes
}

// TrackRef is the track reference embedded in a schedule entry. The embedded
// name is preferred over the catalog lookup when the catalog entry is absent.
type TrackRef struct {
	TrackID   int    `json:"track_id"`
	TrackName string `json:"track_name"`
}

// SeriesEntry is a series catalog record.
type SeriesEntry struct {
	SeriesID        int              `json:"series_id"`
	SeriesName      string           `json:"series_name"`
	CategoryID      int              `json:"category_id"`
	CarClassIDs     []int            `json:"car_class_ids"`
	AllowedLicenses []AllowedLicense `json:"allowed_licenses"`
}

// AllowedLicense is a license group admitted to a series.
type AllowedLicense struct {
	GroupName    string `json:"group_name"`
	LicenseGroup int    `json:"license_group"`
}

// TrackEntry is a track catalog record.
type TrackEntry struct {
	TrackID   int    `json:"track_id"`
	TrackName string `json:"track_name"`
}

// CarEntry is a car catalog record associated with a car class.
type CarEntry struct {
	CarClassID int    `json:"car_class_id"`
	CarName    string `json:"car_name"`
}

// DriverRecord identifies a driver in the upstream directory.
type DriverRecord struct {
	DisplayName string `json:"display_name"`
	CustID      int64  `json:"cust_id"`
}

// LeagueSeason is a season in a league's schedule.
type LeagueSeason struct {
	SeasonID   int    `json:"season_id"`
	SeasonName string `json:"season_name"`
}

// ResultRow is one finisher in a completed session's result set.
type ResultRow struct {
	DisplayName    string `json:"display_name"`
	CustID         int64  `json:"cust_id"`
	FinishPosition int    `json:"finish_position"`
}

// SessionResult is the per-session result payload.
type SessionResult struct {
	SubsessionID int64       `json:"subsession_id"`
	SeriesName   string      `json:"series_name"`
	StartTime    time.Time   `json:"start_time"`
	Results      []ResultRow `json:"results"`
}
