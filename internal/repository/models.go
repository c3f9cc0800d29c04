package repository

// Flight aggregates one calendar day of drone activity. Its ID is derived from
// the capture date ("flight-YYYY-MM-DD"), so at most one row exists per day.
type Flight struct {
	ID        string     `gorm:"primaryKey;size:64" json:"id"`
	Date      string     `gorm:"column:date;size:10;not null" json:"date"`
	Waypoints []Waypoint `gorm:"foreignKey:FlightID" json:"waypoints"`
}

// TableName overrides the default table name.
func (Flight) TableName() string {
	return "flights"
}

// Waypoint is one scored, geolocated observation derived from a single
// captured image. Its ID is the source object's storage key, which makes the
// insert the sole dedup mechanism for redelivered messages.
type Waypoint struct {
	ID       string  `gorm:"primaryKey;size:255" json:"id"`
	FlightID string  `gorm:"column:flight_id;size:64;not null;index" json:"-"`
	Lat      float64 `gorm:"column:lat;not null" json:"lat"`
	Lng      float64 `gorm:"column:lng;not null" json:"lng"`
	// TrashScore is 0-100. When ScoreUnavailable is set the score is a
	// placeholder, not a measurement.
	TrashScore       int    `gorm:"column:trash_score;not null" json:"trashScore"`
	ScoreUnavailable bool   `gorm:"column:score_unavailable;not null" json:"scoreUnavailable"`
	ImageURL         string `gorm:"column:image_url" json:"imageUrl"`
	Timestamp        string `gorm:"column:timestamp;size:8;not null" json:"timestamp"`
}

// TableName overrides the default table name.
func (Waypoint) TableName() string {
	return "waypoints"
}

// StatsAggregation holds store-side aggregates over all recorded waypoints.
type StatsAggregation struct {
	FlightCount   int64
	WaypointCount int64
	AverageScore  float64
	MaxScore      int
	UnscoredCount int64
}
