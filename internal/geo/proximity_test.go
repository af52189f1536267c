package geo_test

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/UnknownOlympus/waypoint/internal/geo"
	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func place(name string, lat, lon float64) models.Place {
	return models.Place{
		Name:        name,
		City:        "Recife",
		Coordinates: models.NewGeoPoint(models.Coordinates{Latitude: lat, Longitude: lon}),
	}
}

func names(results []models.ProximityResult) []string {
	out := make([]string, 0, len(results))
	for _, res := range results {
		out = append(out, res.Name)
	}
	return out
}

func TestFilterWithinRadius(t *testing.T) {
	t.Parallel()
	origin := models.Coordinates{}

	t.Run("boundary is inclusive", func(t *testing.T) {
		t.Parallel()
		candidate := place("edge", 1, 0)
		exact, err := geo.Distance(origin, models.Coordinates{Latitude: 1})
		require.NoError(t, err)

		included := geo.FilterWithinRadius(origin, exact, []models.Place{candidate})
		excluded := geo.FilterWithinRadius(origin, exact-0.01, []models.Place{candidate})

		require.Len(t, included, 1)
		assert.Equal(t, geo.RoundKm(exact), included[0].DistanceKm)
		assert.Empty(t, excluded)
	})

	t.Run("one degree radius", func(t *testing.T) {
		t.Parallel()
		candidates := []models.Place{place("in", 1, 0), place("out", 1.01, 0)}

		results := geo.FilterWithinRadius(origin, 111.19, candidates)

		assert.Equal(t, []string{"in"}, names(results))
	})

	t.Run("incomplete coordinates are skipped", func(t *testing.T) {
		t.Parallel()
		lat := 0.5
		candidates := []models.Place{
			{Name: "no coordinates"},
			place("origin", 0, 0),
			{Name: "no longitude", Coordinates: &models.GeoPoint{Latitude: &lat}},
			place("north", 1, 0),
		}

		results := geo.FilterWithinRadius(origin, 200, candidates)

		assert.Equal(t, []string{"origin", "north"}, names(results))
	})

	t.Run("uncomputable distance is skipped", func(t *testing.T) {
		t.Parallel()
		nan := place("nan", math.NaN(), 0)

		results := geo.FilterWithinRadius(origin, 200, []models.Place{nan, place("ok", 0.1, 0.1)})

		assert.Equal(t, []string{"ok"}, names(results))
	})

	t.Run("nearly antipodal candidates are kept", func(t *testing.T) {
		t.Parallel()
		candidates := []models.Place{place("antipode", 0, 180), place("near antipode", 0.5, 179.7)}

		results := geo.FilterWithinRadius(origin, 25000, candidates)

		require.Equal(t, []string{"antipode", "near antipode"}, names(results))
		for _, res := range results {
			assert.Greater(t, res.DistanceKm, 19900.0)
		}
	})

	t.Run("input order is preserved", func(t *testing.T) {
		t.Parallel()
		candidates := []models.Place{place("C3", 0.3, 0), place("C1", 0.1, 0), place("C2", 0.2, 0)}

		results := geo.FilterWithinRadius(origin, 50, candidates)

		assert.Equal(t, []string{"C3", "C1", "C2"}, names(results))
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, geo.FilterWithinRadius(origin, 10, nil))
	})

	t.Run("non-positive radius", func(t *testing.T) {
		t.Parallel()
		candidates := []models.Place{place("a", 0.1, 0), place("b", 0, 0.1)}

		assert.Empty(t, geo.FilterWithinRadius(origin, 0, candidates))
		assert.Empty(t, geo.FilterWithinRadius(origin, -5, candidates))
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()
		candidates := []models.Place{place("a", 0.1, 0), {Name: "b"}, place("c", 2, 2)}

		first := geo.FilterWithinRadius(origin, 100, candidates)
		second := geo.FilterWithinRadius(origin, 100, candidates)

		assert.Equal(t, first, second)
	})

	t.Run("extra fields are kept", func(t *testing.T) {
		t.Parallel()
		candidate := place("museum", 0.01, 0.01)
		candidate.Extra = map[string]any{"opening_hours": "9-17"}

		results := geo.FilterWithinRadius(origin, 5, []models.Place{candidate})

		require.Len(t, results, 1)
		assert.Equal(t, "9-17", results[0].Extra["opening_hours"])
		assert.InDelta(t, 1.57, results[0].DistanceKm, 0.01)
	})
}

func TestFilterWithinRadiusParallel(t *testing.T) {
	t.Parallel()
	origin := models.Coordinates{Latitude: -8.05, Longitude: -34.9}

	rnd := rand.New(rand.NewSource(42))
	candidates := make([]models.Place, 0, 500)
	for i := range 500 {
		if i%17 == 0 {
			candidates = append(candidates, models.Place{Name: fmt.Sprintf("p%d", i)})
			continue
		}
		candidates = append(candidates, place(
			fmt.Sprintf("p%d", i),
			origin.Latitude+rnd.Float64()-0.5,
			origin.Longitude+rnd.Float64()-0.5,
		))
	}

	t.Run("matches sequential filter", func(t *testing.T) {
		t.Parallel()
		want := geo.FilterWithinRadius(origin, 30, candidates)

		for _, workers := range []int{0, 1, 3, 16, 1000} {
			got, err := geo.FilterWithinRadiusParallel(t.Context(), origin, 30, candidates, workers)

			require.NoError(t, err)
			assert.Equal(t, want, got, "workers=%d", workers)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		got, err := geo.FilterWithinRadiusParallel(t.Context(), origin, 30, nil, 4)

		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		got, err := geo.FilterWithinRadiusParallel(ctx, origin, 30, candidates, 4)

		require.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, got)
	})
}

func TestSortByDistance(t *testing.T) {
	t.Parallel()
	results := []models.ProximityResult{
		{Place: models.Place{Name: "far"}, DistanceKm: 9.5},
		{Place: models.Place{Name: "near"}, DistanceKm: 1.25},
		{Place: models.Place{Name: "tie-a"}, DistanceKm: 3},
		{Place: models.Place{Name: "tie-b"}, DistanceKm: 3},
	}

	geo.SortByDistance(results)

	assert.Equal(t, []string{"near", "tie-a", "tie-b", "far"}, names(results))
}
