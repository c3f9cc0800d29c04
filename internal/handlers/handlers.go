package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/skysweep/internal/repository"
	"github.com/example/skysweep/internal/usecase"
)

// FlightAPI exposes the read operations served over HTTP.
type FlightAPI interface {
	ListFlights(ctx context.Context) ([]repository.Flight, error)
	GetFlight(ctx context.Context, id string) (*repository.Flight, error)
	Stats(ctx context.Context) (*usecase.StatsSummary, error)
}

// RegisterRoutes wires the HTTP handlers to the Gin router.
func RegisterRoutes(router *gin.Engine, svc FlightAPI) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": "Drone Flight Path API is operational.",
			"endpoints": gin.H{
				"all_flights":     "/flights",
				"specific_flight": "/flights/:id",
				"stats":           "/stats",
			},
		})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/flights", func(c *gin.Context) {
		flights, err := svc.ListFlights(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"status":  "error",
				"message": "failed to load flights",
			})
			return
		}
		for i := range flights {
			if flights[i].Waypoints == nil {
				flights[i].Waypoints = []repository.Waypoint{}
			}
		}
		c.JSON(http.StatusOK, flights)
	})

	router.GET("/flights/:id", func(c *gin.Context) {
		id := c.Param("id")
		flight, err := svc.GetFlight(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, repository.ErrFlightNotFound) {
				c.JSON(http.StatusNotFound, gin.H{
					"status":  "error",
					"message": "Flight path with ID '" + id + "' not found.",
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"status":  "error",
				"message": "failed to load flight",
			})
			return
		}
		if flight.Waypoints == nil {
			flight.Waypoints = []repository.Waypoint{}
		}
		c.JSON(http.StatusOK, flight)
	})

	router.GET("/stats", func(c *gin.Context) {
		summary, err := svc.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"status":  "error",
				"message": "failed to load stats",
			})
			return
		}
		c.JSON(http.StatusOK, summary)
	})
}
