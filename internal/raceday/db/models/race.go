package models

import (
	"time"

	"github.com/jackc/pgtype"

	"github.com/gridline/gridline/internal/common/uuid"
)

// Race is a persisted race row. The natural key is (series_id, start_time);
// the surrogate id only anchors the child car rows.
type Race struct {
	ID             uuid.UUID    `db:"id"`
	Title          string       `db:"title"`
	StartTime      time.Time    `db:"start_time"`
	EndTime        time.Time    `db:"end_time"`
	TrackName      string       `db:"track_name"`
	LicenseLevel   string       `db:"license_level"`
	CarClassID     int          `db:"car_class_id"`
	CarClassName   string       `db:"car_class_name"`
	CategoryID     int          `db:"category_id"`
	NumberOfRacers int          `db:"number_of_racers"`
	SeriesID       int          `db:"series_id"`
	Source         pgtype.JSONB `db:"source"`
	CreatedAt      time.Time    `db:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at"`

	// AvailableCars is loaded from the race_cars child table.
	AvailableCars []string `db:"-"`
}
