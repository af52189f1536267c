package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

var rootCmd = &cobra.Command{
	Use:   "waypoint",
	Short: "Cities, points of interest and proximity search",
	Long: `Waypoint keeps cities in PostgreSQL and points of interest in a document store,
geocodes addresses in the background and answers "what is within N km of here" queries.`,
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, metrics endpoint and geocoding backfill",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the PostgreSQL schema",
	RunE:  runMigrate,
}

var nearbyCmd = &cobra.Command{
	Use:   "nearby",
	Short: "Print the places within a radius of a point",
	RunE:  runNearby,
}

var (
	nearbyLat    float64
	nearbyLon    float64
	nearbyRadius float64
	nearbySort   bool
)

func init() {
	nearbyCmd.Flags().Float64Var(&nearbyLat, "lat", 0, "Reference latitude")
	nearbyCmd.Flags().Float64Var(&nearbyLon, "lon", 0, "Reference longitude")
	nearbyCmd.Flags().Float64VarP(&nearbyRadius, "radius", "r", 5, "Search radius in km")
	nearbyCmd.Flags().BoolVar(&nearbySort, "sort", false, "Sort results by distance")
	_ = nearbyCmd.MarkFlagRequired("lat")
	_ = nearbyCmd.MarkFlagRequired("lon")

	rootCmd.AddCommand(serveCmd, migrateCmd, nearbyCmd)
}

// main is the entry point of the application.
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelWarn,
				ReplaceAttr: dropTime,
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelError,
				ReplaceAttr: dropTime,
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}

func dropTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}
