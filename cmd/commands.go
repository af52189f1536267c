package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/UnknownOlympus/waypoint/internal/config"
	"github.com/UnknownOlympus/waypoint/internal/metrics"
	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/UnknownOlympus/waypoint/internal/repository"
	"github.com/UnknownOlympus/waypoint/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.MustLoad()
	logger := setupLogger(cfg.Env)

	dtb, err := repository.NewDatabase(ctx,
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to connect to DB: %w", err)
	}
	defer dtb.Close()

	if err = repository.NewRepository(dtb, logger).EnsureSchema(ctx); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")

	return nil
}

func runNearby(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.MustLoad()
	logger := setupLogger(cfg.Env)

	places, closePlaces, err := openPlaces(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closePlaces(ctx) }()

	placeService := service.NewPlaceService(
		logger, nil, places, nil, metrics.NewMetrics(prometheus.NewRegistry()), cfg.ParallelThreshold, cfg.Workers,
	)

	results, err := placeService.Nearby(ctx, models.NearbyQuery{
		Reference:      models.Coordinates{Latitude: nearbyLat, Longitude: nearbyLon},
		RadiusKm:       nearbyRadius,
		SortByDistance: nearbySort,
	})
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No places within %.2f km of (%f, %f).\n", nearbyRadius, nearbyLat, nearbyLon)
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCITY\tDISTANCE (km)\tDESCRIPTION")
	for _, result := range results {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\n", result.Name, result.City, result.DistanceKm, result.Description)
	}

	return tw.Flush()
}
