package geo

import (
	"context"
	"runtime"
	"slices"

	"github.com/UnknownOlympus/waypoint/internal/models"
	"golang.org/x/sync/errgroup"
)

// FilterWithinRadius returns the candidates whose distance from ref is at most
// radiusKm, each annotated with its rounded distance.
//
// Candidates without both coordinate components, or whose distance cannot be
// computed, are skipped. The output keeps the input order.
func FilterWithinRadius(ref models.Coordinates, radiusKm float64, candidates []models.Place) []models.ProximityResult {
	results := make([]models.ProximityResult, 0)
	for _, candidate := range candidates {
		if res, ok := evaluate(ref, radiusKm, candidate); ok {
			results = append(results, res)
		}
	}

	return results
}

// FilterWithinRadiusParallel is FilterWithinRadius spread over at most workers
// goroutines. Every candidate owns one result slot, so the output is identical
// to the sequential filter. It fails only if ctx is cancelled.
func FilterWithinRadiusParallel(
	ctx context.Context,
	ref models.Coordinates,
	radiusKm float64,
	candidates []models.Place,
	workers int,
) ([]models.ProximityResult, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	slots := make([]*models.ProximityResult, len(candidates))
	chunk := (len(candidates) + workers - 1) / workers

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(workers)

	for start := 0; start < len(candidates); start += chunk {
		end := min(start+chunk, len(candidates))
		grp.Go(func() error {
			for idx := start; idx < end; idx++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				if res, ok := evaluate(ref, radiusKm, candidates[idx]); ok {
					slots[idx] = &res
				}
			}
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}

	results := make([]models.ProximityResult, 0)
	for _, slot := range slots {
		if slot != nil {
			results = append(results, *slot)
		}
	}

	return results, nil
}

// SortByDistance orders results from nearest to farthest. Ties keep their order.
func SortByDistance(results []models.ProximityResult) {
	slices.SortStableFunc(results, func(a, b models.ProximityResult) int {
		switch {
		case a.DistanceKm < b.DistanceKm:
			return -1
		case a.DistanceKm > b.DistanceKm:
			return 1
		default:
			return 0
		}
	})
}

func evaluate(ref models.Coordinates, radiusKm float64, candidate models.Place) (models.ProximityResult, bool) {
	coords, ok := candidate.Coordinates.Resolve()
	if !ok {
		return models.ProximityResult{}, false
	}

	distance, err := Distance(ref, coords)
	if err != nil || distance > radiusKm {
		return models.ProximityResult{}, false
	}

	return models.ProximityResult{Place: candidate, DistanceKm: RoundKm(distance)}, true
}
