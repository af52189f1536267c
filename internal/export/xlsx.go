// Package export renders proximity results as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	// NearbySheet holds one row per matched place.
	NearbySheet = "Nearby"
	// QuerySheet holds the reference point and radius of the query.
	QuerySheet = "Query"
	// ContentType is the MIME type of the produced workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	defaultSheet = "Sheet1"
)

// NearbyHeader is the first row of the Nearby sheet.
var NearbyHeader = []any{"Name", "City", "Description", "Latitude", "Longitude", "Distance (km)"}

// WriteNearby writes results as an XLSX workbook to w.
func WriteNearby(w io.Writer, ref models.Coordinates, radiusKm float64, results []models.ProximityResult) error {
	file := excelize.NewFile()
	defer file.Close()

	index, err := file.NewSheet(NearbySheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	stream, err := file.NewStreamWriter(NearbySheet)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}
	if err = stream.SetRow("A1", NearbyHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, result := range results {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err = stream.SetRow(cell, resultRow(result)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err = stream.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	if err = writeQuery(file, ref, radiusKm, len(results)); err != nil {
		return err
	}

	file.SetActiveSheet(index)
	if err = file.DeleteSheet(defaultSheet); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	if _, err = file.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	return nil
}

func resultRow(result models.ProximityResult) []any {
	row := []any{result.Name, result.City, result.Description, nil, nil, result.DistanceKm}
	if coords, ok := result.Coordinates.Resolve(); ok {
		row[3], row[4] = coords.Latitude, coords.Longitude
	}

	return row
}

func writeQuery(file *excelize.File, ref models.Coordinates, radiusKm float64, matches int) error {
	if _, err := file.NewSheet(QuerySheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	rows := [][]any{
		{"Latitude", ref.Latitude},
		{"Longitude", ref.Longitude},
		{"Radius (km)", radiusKm},
		{"Matches", matches},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := file.SetSheetRow(QuerySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write query sheet: %w", err)
		}
	}

	return nil
}
