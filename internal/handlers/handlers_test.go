package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/example/skysweep/internal/repository"
	"github.com/example/skysweep/internal/usecase"
)

type stubService struct {
	flights []repository.Flight
	flight  *repository.Flight
	stats   *usecase.StatsSummary
	err     error
}

func (s *stubService) ListFlights(ctx context.Context) ([]repository.Flight, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.flights, nil
}

func (s *stubService) GetFlight(ctx context.Context, id string) (*repository.Flight, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.flight, nil
}

func (s *stubService) Stats(ctx context.Context) (*usecase.StatsSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.stats, nil
}

func newTestRouter(svc FlightAPI) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router, svc)
	return router
}

func TestListFlightsReturnsNestedWaypoints(t *testing.T) {
	svc := &stubService{
		flights: []repository.Flight{
			{
				ID:   "flight-2025-10-11",
				Date: "2025-10-11",
				Waypoints: []repository.Waypoint{
					{ID: "img-42", FlightID: "flight-2025-10-11", Lat: 34.09, Lng: 74.87, TrashScore: 37, ImageURL: "https://bucket.example/img-42", Timestamp: "15:50:57"},
				},
			},
		},
	}
	router := newTestRouter(svc)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/flights", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var payload []map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload) != 1 {
		t.Fatalf("expected 1 flight, got %d", len(payload))
	}
	if payload[0]["id"] != "flight-2025-10-11" {
		t.Fatalf("unexpected flight id: %v", payload[0]["id"])
	}

	waypoints, ok := payload[0]["waypoints"].([]interface{})
	if !ok || len(waypoints) != 1 {
		t.Fatalf("expected 1 nested waypoint, got %v", payload[0]["waypoints"])
	}
	wp := waypoints[0].(map[string]interface{})
	if wp["id"] != "img-42" || wp["timestamp"] != "15:50:57" {
		t.Fatalf("unexpected waypoint: %v", wp)
	}
	if _, leaked := wp["flight_id"]; leaked {
		t.Fatal("flight_id must be stripped from the waypoint payload")
	}
}

func TestListFlightsRendersEmptyWaypointsAsArray(t *testing.T) {
	svc := &stubService{
		flights: []repository.Flight{{ID: "flight-2025-10-12", Date: "2025-10-12"}},
	}
	router := newTestRouter(svc)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/flights", nil))

	var payload []map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if _, ok := payload[0]["waypoints"].([]interface{}); !ok {
		t.Fatalf("expected waypoints to be an array, got %v", payload[0]["waypoints"])
	}
}

func TestGetFlightNotFound(t *testing.T) {
	svc := &stubService{err: repository.ErrFlightNotFound}
	router := newTestRouter(svc)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/flights/flight-1999-01-01", nil))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["status"] != "error" {
		t.Fatalf("expected error status, got %v", payload["status"])
	}
}

func TestGetFlightStoreFailure(t *testing.T) {
	svc := &stubService{err: errors.New("store offline")}
	router := newTestRouter(svc)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/flights/flight-2025-10-11", nil))

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	svc := &stubService{
		stats: &usecase.StatsSummary{Flights: 2, Waypoints: 10, AverageTrashScore: 41.5, MaxTrashScore: 88, UnscoredWaypoints: 1},
	}
	router := newTestRouter(svc)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/stats", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var payload usecase.StatsSummary
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Waypoints != 10 || payload.MaxTrashScore != 88 {
		t.Fatalf("unexpected stats payload: %+v", payload)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(&stubService{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}
