package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/example/skysweep/internal/repository"
)

const (
	flightListCacheKey = "flights:list"
	statsCacheKey      = "flights:stats"
)

// FlightReader defines the persistence operations needed by the read side.
type FlightReader interface {
	ListFlights(ctx context.Context) ([]repository.Flight, error)
	GetFlight(ctx context.Context, id string) (*repository.Flight, error)
	AggregateStats(ctx context.Context) (*repository.StatsAggregation, error)
}

// StatsSummary aggregates survey insights across all flights.
type StatsSummary struct {
	Flights           int64   `json:"flights"`
	Waypoints         int64   `json:"waypoints"`
	AverageTrashScore float64 `json:"averageTrashScore"`
	MaxTrashScore     int     `json:"maxTrashScore"`
	UnscoredWaypoints int64   `json:"unscoredWaypoints"`
}

// FlightService serves the read API, keeping a short-lived Redis cache in
// front of the store. Cache failures degrade to direct reads; they never fail
// a request.
type FlightService struct {
	repo   FlightReader
	cache  Cache
	logger *zap.Logger
	ttl    time.Duration
}

// NewFlightService constructs a new service instance. The cache may be nil.
func NewFlightService(repo FlightReader, cache Cache, ttl time.Duration, logger *zap.Logger) *FlightService {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &FlightService{
		repo:   repo,
		cache:  cache,
		logger: logger.Named("flight_service"),
		ttl:    ttl,
	}
}

// ListFlights returns every flight with ordered waypoints, served from cache
// when fresh.
func (s *FlightService) ListFlights(ctx context.Context) ([]repository.Flight, error) {
	if cached, ok := s.cacheGet(ctx, flightListCacheKey); ok {
		var flights []repository.Flight
		if err := json.Unmarshal([]byte(cached), &flights); err == nil {
			return flights, nil
		}
		s.logger.Warn("discarding undecodable cached flight list")
	}

	flights, err := s.repo.ListFlights(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, flightListCacheKey, flights)
	return flights, nil
}

// GetFlight returns one flight with ordered waypoints. Single-flight reads go
// straight to the store.
func (s *FlightService) GetFlight(ctx context.Context, id string) (*repository.Flight, error) {
	return s.repo.GetFlight(ctx, id)
}

// Stats returns aggregate survey metrics, served from cache when fresh.
func (s *FlightService) Stats(ctx context.Context) (*StatsSummary, error) {
	if cached, ok := s.cacheGet(ctx, statsCacheKey); ok {
		var summary StatsSummary
		if err := json.Unmarshal([]byte(cached), &summary); err == nil {
			return &summary, nil
		}
		s.logger.Warn("discarding undecodable cached stats")
	}

	agg, err := s.repo.AggregateStats(ctx)
	if err != nil {
		return nil, err
	}
	summary := &StatsSummary{
		Flights:           agg.FlightCount,
		Waypoints:         agg.WaypointCount,
		AverageTrashScore: agg.AverageScore,
		MaxTrashScore:     agg.MaxScore,
		UnscoredWaypoints: agg.UnscoredCount,
	}
	s.cacheSet(ctx, statsCacheKey, summary)
	return summary, nil
}

// Invalidate drops cached read results. The worker calls this after each
// successful insert.
func (s *FlightService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, flightListCacheKey, statsCacheKey)
}

func (s *FlightService) cacheGet(ctx context.Context, key string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return value, true
}

func (s *FlightService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	serialized, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("failed to serialize cache value", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, string(serialized), s.ttl); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
