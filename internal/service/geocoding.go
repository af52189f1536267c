package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/geocoding"
	"github.com/UnknownOlympus/waypoint/internal/metrics"
	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/UnknownOlympus/waypoint/internal/placestore"
)

// batchSize is the number of places picked up per polling round.
const batchSize = 100

// GeocodingService fills in the coordinates of places that were registered
// with an address only.
type GeocodingService struct {
	log          *slog.Logger       // Logger for logging service activities
	places       placestore.Store   // Store holding the places to geocode
	provider     geocoding.Provider // Geocoding provider for external geocoding services
	providerName string             // Name of the provider for metrics labeling
	metrics      *metrics.Metrics   // Metrics for tracking service performance
	numWorkers   int                // Number of concurrent workers for processing
	pollInterval time.Duration      // Interval between polling rounds
}

// NewGeocodingService creates a new instance of GeocodingService.
func NewGeocodingService(
	log *slog.Logger,
	places placestore.Store,
	provider geocoding.Provider,
	providerName string,
	metrics *metrics.Metrics,
	numWorkers int,
	pollInterval time.Duration,
) *GeocodingService {
	return &GeocodingService{
		log:          log,
		places:       places,
		provider:     provider,
		providerName: providerName,
		metrics:      metrics,
		numWorkers:   max(numWorkers, 1),
		pollInterval: pollInterval,
	}
}

// Run polls for places without coordinates until ctx is cancelled.
func (gs *GeocodingService) Run(ctx context.Context) {
	ticker := time.NewTicker(gs.pollInterval)
	defer ticker.Stop()

	gs.log.InfoContext(ctx, "Geocoding backfill started", "interval", gs.pollInterval, "workers", gs.numWorkers)

	for {
		select {
		case <-ctx.Done():
			gs.log.InfoContext(ctx, "Geocoding backfill stopped.")
			return
		case <-ticker.C:
			gs.processBatch(ctx)
		}
	}
}

// processBatch fetches places missing coordinates and spreads them over the worker pool.
func (gs *GeocodingService) processBatch(ctx context.Context) {
	places, err := gs.places.Find(ctx, models.PlaceFilter{MissingCoordinates: true, Limit: batchSize})
	if err != nil {
		gs.log.ErrorContext(ctx, "Failed to fetch places without coordinates", "error", err)
		return
	}
	if len(places) == 0 {
		gs.log.DebugContext(ctx, "No places to geocode.")
		return
	}

	gs.log.InfoContext(ctx, "Found places to geocode", "jobs", len(places), "num_workers", gs.numWorkers)

	jobs := make(chan models.Place, len(places))
	var wgr sync.WaitGroup

	for i := 1; i <= gs.numWorkers; i++ {
		wgr.Add(1)
		go gs.worker(ctx, i, &wgr, jobs)
	}

	for _, place := range places {
		jobs <- place
	}
	close(jobs)

	wgr.Wait()
	gs.log.InfoContext(ctx, "Geocoding batch finished")
}

// worker geocodes places from jobs. A failed lookup increments the place's
// attempt counter; a successful one stores the coordinates.
func (gs *GeocodingService) worker(ctx context.Context, idx int, wg *sync.WaitGroup, jobs <-chan models.Place) {
	defer wg.Done()
	for place := range jobs {
		gs.metrics.ActiveWorkers.Inc()
		gs.geocodePlace(ctx, idx, place)
		gs.metrics.ActiveWorkers.Dec()
	}
}

func (gs *GeocodingService) geocodePlace(ctx context.Context, idx int, place models.Place) {
	gs.log.DebugContext(ctx, "Geocoding place", "worker", idx, "place", place.ID)

	startTime := time.Now()
	coords, err := gs.provider.Geocode(ctx, place.Address)
	gs.metrics.RequestSeconds.WithLabelValues(gs.providerName).Observe(time.Since(startTime).Seconds())

	if err != nil {
		gs.log.ErrorContext(ctx, "Failed to geocode", "worker", idx, "place", place.ID, "error", err)
		gs.metrics.TaskProcessed.WithLabelValues("failure").Inc()
		gs.metrics.APIErrors.Inc()

		if err = gs.places.RecordGeocodeFailure(ctx, place.ID, err.Error()); err != nil {
			gs.log.ErrorContext(ctx, "Could not record geocoding failure",
				"worker", idx, "place", place.ID, "error", err)
		}
		return
	}

	gs.metrics.TaskProcessed.WithLabelValues("success").Inc()

	if err = gs.places.SetCoordinates(ctx, place.ID, *coords); err != nil {
		gs.log.ErrorContext(ctx, "Failed to store coordinates", "worker", idx, "place", place.ID, "error", err)
		return
	}

	gs.log.DebugContext(ctx, "Place geocoded", "worker", idx, "place", place.ID)
}
