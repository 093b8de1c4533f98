package schedule

import (
	"sort"
	"time"

	"github.com/gridline/gridline/internal/raceday/upstream"
)

// Catalogs indexes the reference catalogs for joining against schedule
// entries. Build once per sync pass with BuildCatalogs.
type Catalogs struct {
	Series      map[int]upstream.SeriesEntry
	Tracks      map[int]upstream.TrackEntry
	CarsByClass map[int][]upstream.CarEntry
}

// BuildCatalogs indexes the catalog slices by their natural identifiers.
// Nil slices are fine; lookups against the resulting maps simply miss and
// the join falls back to sentinels.
func BuildCatalogs(series []upstream.SeriesEntry, tracks []upstream.TrackEntry, cars []upstream.CarEntry) Catalogs {
	cat := Catalogs{
		Series:      make(map[int]upstream.SeriesEntry, len(series)),
		Tracks:      make(map[int]upstream.TrackEntry, len(tracks)),
		CarsByClass: make(map[int][]upstream.CarEntry),
	}
	for _, s := range series {
		cat.Series[s.SeriesID] = s
	}
	for _, tr := range tracks {
		cat.Tracks[tr.TrackID] = tr
	}
	for _, c := range cars {
		cat.CarsByClass[c.CarClassID] = append(cat.CarsByClass[c.CarClassID], c)
	}
	return cat
}

// lapDuration is the per-lap estimate used when a session declares a lap
// limit but no time limit.
const lapDuration = 2 * time.Minute

var licenseGroupLabels = map[int]string{
	1: "Rookie",
	2: "Class D",
	3: "Class C",
	4: "Class B",
	5: "Class A",
}

// Normalize joins each raw schedule entry against the catalogs and
// classifies it as of now. Missing catalog records degrade to sentinel
// values; the function never fails on a join miss.
func Normalize(sessions []upstream.RawSession, cat Catalogs, now time.Time) []NormalizedRace {
	races := make([]NormalizedRace, 0, len(sessions))
	for _, raw := range sessions {
		races = append(races, normalizeOne(raw, cat, now))
	}
	return races
}

func normalizeOne(raw upstream.RawSession, cat Catalogs, now time.Time) NormalizedRace {
	race := NormalizedRace{
		Title:          UnknownSeries,
		StartTime:      raw.StartTime,
		EndTime:        estimateEndTime(raw),
		TrackName:      trackName(raw.Track, cat),
		State:          Classify(raw.StartTime, now),
		LicenseLevel:   licenseLabel(raw.LicenseGroup),
		CarClassName:   UnknownCarClass,
		NumberOfRacers: raw.EntryCount,
		SeriesID:       raw.SeriesID,
		AvailableCars:  []string{},
	}

	series, ok := cat.Series[raw.SeriesID]
	if !ok {
		return race
	}

	race.Title = series.SeriesName
	race.CategoryID = series.CategoryID
	race.AvailableCars = availableCars(series.CarClassIDs, cat)
	if name, ok := seriesLicenseLabel(series, raw.LicenseGroup); ok {
		race.LicenseLevel = name
	}
	if len(series.CarClassIDs) > 0 {
		race.CarClassID = series.CarClassIDs[0]
		if cars := cat.CarsByClass[race.CarClassID]; len(cars) > 0 {
			race.CarClassName = cars[0].CarName
		}
	}
	return race
}

// trackName resolves the track display name: catalog record first, then the
// name embedded in the schedule entry, then the sentinel.
func trackName(ref upstream.TrackRef, cat Catalogs) string {
	if tr, ok := cat.Tracks[ref.TrackID]; ok && tr.TrackName != "" {
		return tr.TrackName
	}
	if ref.TrackName != "" {
		return ref.TrackName
	}
	return UnknownTrack
}

// availableCars flattens the car names across all of a series' car classes,
// deduplicated by name, preserving class then catalog order.
func availableCars(classIDs []int, cat Catalogs) []string {
	names := []string{}
	seen := make(map[string]struct{})
	for _, classID := range classIDs {
		for _, car := range cat.CarsByClass[classID] {
			if car.CarName == "" {
				continue
			}
			if _, dup := seen[car.CarName]; dup {
				continue
			}
			seen[car.CarName] = struct{}{}
			names = append(names, car.CarName)
		}
	}
	return names
}

func seriesLicenseLabel(series upstream.SeriesEntry, group int) (string, bool) {
	for _, lic := range series.AllowedLicenses {
		if lic.LicenseGroup == group && lic.GroupName != "" {
			return lic.GroupName, true
		}
	}
	return "", false
}

func licenseLabel(group int) string {
	if name, ok := licenseGroupLabels[group]; ok {
		return name
	}
	return "Unknown License"
}

// estimateEndTime derives a finish estimate from the session's limits. A
// time limit wins over a lap limit; with neither, the end collapses onto
// the start.
func estimateEndTime(raw upstream.RawSession) time.Time {
	switch {
	case raw.RaceTimeLimit > 0:
		return raw.StartTime.Add(time.Duration(raw.RaceTimeLimit) * time.Minute)
	case raw.RaceLapLimit > 0:
		return raw.StartTime.Add(time.Duration(raw.RaceLapLimit) * lapDuration)
	default:
		return raw.StartTime
	}
}

// Upcoming filters to races a player can still join (Practice or
// Qualifying) and orders them by start time ascending. At equal start
// times Qualifying sorts before Practice.
func Upcoming(races []NormalizedRace) []NormalizedRace {
	out := make([]NormalizedRace, 0, len(races))
	for _, r := range races {
		if r.State == StatePractice || r.State == StateQualifying {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return stateRank(out[i].State) < stateRank(out[j].State)
	})
	return out
}

func stateRank(s LifecycleState) int {
	if s == StateQualifying {
		return 0
	}
	return 1
}
