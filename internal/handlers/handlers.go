// Package handlers exposes the place service over HTTP.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/export"
	"github.com/UnknownOlympus/waypoint/internal/metrics"
	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/UnknownOlympus/waypoint/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Radius bounds accepted by the nearby endpoints, in kilometres.
const (
	MinRadiusKm = 1
	MaxRadiusKm = 50
)

const requestIDHeader = "X-Request-ID"

// Service is the application logic behind the HTTP API.
type Service interface {
	RegisterCity(ctx context.Context, name, state string) (models.City, error)
	ListCities(ctx context.Context, filter models.CityFilter) ([]models.City, error)
	GetCity(ctx context.Context, cityID int64) (*models.City, error)
	UpdateCity(ctx context.Context, cityID int64, name, state string) error
	DeleteCity(ctx context.Context, cityID int64) error
	RegisterPlace(ctx context.Context, input models.PlaceInput) (models.Place, error)
	PlacesByCity(ctx context.Context, city string) ([]models.Place, error)
	GetPlace(ctx context.Context, placeID string) (*models.Place, error)
	UpdatePlace(ctx context.Context, placeID string, update models.PlaceUpdate) error
	DeletePlace(ctx context.Context, placeID string) error
	Nearby(ctx context.Context, query models.NearbyQuery) ([]models.ProximityResult, error)
}

// Pinger reports whether a backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the API routes.
type Handler struct {
	svc     Service
	db      Pinger
	metrics *metrics.Metrics
	log     *slog.Logger
}

type cityRequest struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

// NearbyResponse is the body returned by the nearby endpoint.
type NearbyResponse struct {
	Reference models.Coordinates       `json:"reference"`
	RadiusKm  float64                  `json:"radius_km"`
	Count     int                      `json:"count"`
	Results   []models.ProximityResult `json:"results"`
}

// NewRouter builds the gin engine with every API route, the health check
// and the metrics endpoint for reg.
func NewRouter(svc Service, db Pinger, reg *prometheus.Registry, m *metrics.Metrics, log *slog.Logger) *gin.Engine {
	hdl := &Handler{svc: svc, db: db, metrics: m, log: log}

	router := gin.New()
	router.Use(gin.Recovery(), hdl.requestID(), hdl.observe())

	router.GET("/healthz", hdl.health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := router.Group("/api/v1")
	{
		api.POST("/cities", hdl.createCity)
		api.GET("/cities", hdl.listCities)
		api.GET("/cities/:id", hdl.getCity)
		api.PUT("/cities/:id", hdl.updateCity)
		api.DELETE("/cities/:id", hdl.deleteCity)

		api.POST("/places", hdl.createPlace)
		api.GET("/places", hdl.listPlaces)
		api.GET("/places/nearby", hdl.nearby)
		api.GET("/places/nearby/export", hdl.nearbyExport)
		api.GET("/places/:id", hdl.getPlace)
		api.PATCH("/places/:id", hdl.updatePlace)
		api.DELETE("/places/:id", hdl.deletePlace)
	}

	return router
}

func (h *Handler) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set("request_id", reqID)
		c.Header(requestIDHeader, reqID)
		c.Next()
	}
}

func (h *Handler) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		h.metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		h.log.DebugContext(c.Request.Context(), "Request served",
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration", time.Since(start),
			"request_id", c.GetString("request_id"))
	}
}

func (h *Handler) health(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		h.log.ErrorContext(c.Request.Context(), "Health check failed", "error", err)
		c.String(http.StatusServiceUnavailable, "DB ping failed")
		return
	}
	c.String(http.StatusOK, "OK")
}

// fail writes err as a JSON error body with the matching status code.
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrUnknownCity):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		h.log.ErrorContext(c.Request.Context(), "Request failed",
			"route", c.FullPath(), "request_id", c.GetString("request_id"), "error", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", service.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func cityID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid city id %q", c.Param("id"))
	}
	return id, nil
}

func (h *Handler) createCity(c *gin.Context) {
	var req cityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest("malformed body"))
		return
	}

	city, err := h.svc.RegisterCity(c.Request.Context(), req.Name, req.State)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, city)
}

func (h *Handler) listCities(c *gin.Context) {
	filter := models.CityFilter{
		Name:    c.Query("name"),
		State:   c.Query("state"),
		OrderBy: c.Query("order"),
	}

	cities, err := h.svc.ListCities(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	if cities == nil {
		cities = []models.City{}
	}
	c.JSON(http.StatusOK, cities)
}

func (h *Handler) getCity(c *gin.Context) {
	id, err := cityID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	city, err := h.svc.GetCity(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, city)
}

func (h *Handler) updateCity(c *gin.Context) {
	id, err := cityID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req cityRequest
	if err = c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest("malformed body"))
		return
	}

	if err = h.svc.UpdateCity(c.Request.Context(), id, req.Name, req.State); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteCity(c *gin.Context) {
	id, err := cityID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	if err = h.svc.DeleteCity(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) createPlace(c *gin.Context) {
	var input models.PlaceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.fail(c, badRequest("malformed body"))
		return
	}

	place, err := h.svc.RegisterPlace(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, place)
}

func (h *Handler) listPlaces(c *gin.Context) {
	places, err := h.svc.PlacesByCity(c.Request.Context(), c.Query("city"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if places == nil {
		places = []models.Place{}
	}
	c.JSON(http.StatusOK, places)
}

func (h *Handler) getPlace(c *gin.Context) {
	place, err := h.svc.GetPlace(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, place)
}

func (h *Handler) updatePlace(c *gin.Context) {
	var update models.PlaceUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		h.fail(c, badRequest("malformed body"))
		return
	}

	if err := h.svc.UpdatePlace(c.Request.Context(), c.Param("id"), update); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deletePlace(c *gin.Context) {
	if err := h.svc.DeletePlace(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// parseNearby reads lat, lon, radius and sort from the query string.
func parseNearby(c *gin.Context) (models.NearbyQuery, error) {
	var query models.NearbyQuery

	lat, err := parseFloat(c, "lat")
	if err != nil {
		return query, err
	}
	lon, err := parseFloat(c, "lon")
	if err != nil {
		return query, err
	}
	radius, err := parseFloat(c, "radius")
	if err != nil {
		return query, err
	}

	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return query, badRequest("coordinates out of range")
	}
	if radius < MinRadiusKm || radius > MaxRadiusKm {
		return query, badRequest("radius must be between %d and %d km", MinRadiusKm, MaxRadiusKm)
	}

	switch sortBy := c.Query("sort"); sortBy {
	case "":
	case "distance":
		query.SortByDistance = true
	default:
		return query, badRequest("unsupported sort %q", sortBy)
	}

	query.Reference = models.Coordinates{Latitude: lat, Longitude: lon}
	query.RadiusKm = radius

	return query, nil
}

func parseFloat(c *gin.Context, key string) (float64, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return 0, badRequest("%s is required", key)
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, badRequest("%s must be a number", key)
	}
	return value, nil
}

func (h *Handler) nearby(c *gin.Context) {
	query, err := parseNearby(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	results, err := h.svc.Nearby(c.Request.Context(), query)
	if err != nil {
		h.fail(c, err)
		return
	}
	if results == nil {
		results = []models.ProximityResult{}
	}

	c.JSON(http.StatusOK, NearbyResponse{
		Reference: query.Reference,
		RadiusKm:  query.RadiusKm,
		Count:     len(results),
		Results:   results,
	})
}

func (h *Handler) nearbyExport(c *gin.Context) {
	query, err := parseNearby(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	results, err := h.svc.Nearby(c.Request.Context(), query)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Type", export.ContentType)
	c.Header("Content-Disposition", `attachment; filename="nearby.xlsx"`)
	c.Status(http.StatusOK)
	if err = export.WriteNearby(c.Writer, query.Reference, query.RadiusKm, results); err != nil {
		h.log.ErrorContext(c.Request.Context(), "Failed to write export", "error", err)
	}
}
