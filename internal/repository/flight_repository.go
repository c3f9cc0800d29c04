package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicateWaypoint reports that a waypoint with the same ID already
// exists. For a redelivered queue message this is the expected outcome, not a
// failure.
var ErrDuplicateWaypoint = errors.New("waypoint already exists")

// ErrFlightNotFound reports that no flight matches the requested ID.
var ErrFlightNotFound = errors.New("flight not found")

// FlightRepository provides persistence APIs for flights and waypoints.
type FlightRepository struct {
	db *gorm.DB
}

// NewFlightRepository creates a new repository instance.
func NewFlightRepository(db *gorm.DB) *FlightRepository {
	return &FlightRepository{db: db}
}

// AutoMigrate ensures the schema is available.
func (r *FlightRepository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&Flight{}, &Waypoint{})
}

// RecordWaypoint persists a waypoint together with its parent flight in one
// transaction. The flight insert is idempotent; a pre-existing flight row is
// not an error. A pre-existing waypoint ID aborts the transaction with
// ErrDuplicateWaypoint, leaving the store untouched.
func (r *FlightRepository) RecordWaypoint(ctx context.Context, flight Flight, wp Waypoint) error {
	flight.Waypoints = nil
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&flight).Error; err != nil {
			return err
		}
		if err := tx.Create(&wp).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateWaypoint
			}
			return err
		}
		return nil
	})
}

// ListFlights returns every flight with its waypoints ordered by capture time.
func (r *FlightRepository) ListFlights(ctx context.Context) ([]Flight, error) {
	var flights []Flight
	err := r.db.WithContext(ctx).
		Preload("Waypoints", func(db *gorm.DB) *gorm.DB {
			return db.Order("timestamp ASC")
		}).
		Order("date ASC").
		Find(&flights).Error
	if err != nil {
		return nil, err
	}
	return flights, nil
}

// GetFlight returns one flight with its waypoints ordered by capture time.
func (r *FlightRepository) GetFlight(ctx context.Context, id string) (*Flight, error) {
	var flight Flight
	err := r.db.WithContext(ctx).
		Preload("Waypoints", func(db *gorm.DB) *gorm.DB {
			return db.Order("timestamp ASC")
		}).
		First(&flight, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFlightNotFound
		}
		return nil, err
	}
	return &flight, nil
}

// AggregateStats computes summary aggregates across all recorded waypoints.
func (r *FlightRepository) AggregateStats(ctx context.Context) (*StatsAggregation, error) {
	var agg StatsAggregation
	db := r.db.WithContext(ctx)

	if err := db.Model(&Flight{}).Count(&agg.FlightCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&Waypoint{}).Count(&agg.WaypointCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&Waypoint{}).
		Where("score_unavailable = ?", true).
		Count(&agg.UnscoredCount).Error; err != nil {
		return nil, err
	}
	if agg.WaypointCount > 0 {
		row := db.Model(&Waypoint{}).
			Where("score_unavailable = ?", false).
			Select("COALESCE(AVG(trash_score), 0), COALESCE(MAX(trash_score), 0)").
			Row()
		if err := row.Scan(&agg.AverageScore, &agg.MaxScore); err != nil {
			return nil, err
		}
	}
	return &agg, nil
}
