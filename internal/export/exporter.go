package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sjsage522/propertyscraper/logger"
	apperrors "sjsage522/propertyscraper/pkg/errors"
)

const timestampLayout = "20060102_150405"

// Exporter writes exports of a loaded dataset to files
type Exporter struct {
	Data *Dataset
	Now  func() time.Time
}

// NewExporter creates an exporter over data
func NewExporter(data *Dataset) *Exporter {
	return &Exporter{Data: data, Now: time.Now}
}

// ExportCSV writes the filtered listings as CSV. An empty filename uses
// buyrentkenya_properties_<timestamp>.csv. Nothing is written when there
// are no listings at all.
func (e *Exporter) ExportCSV(filename string, f Filters) (string, error) {
	if len(e.Data.Properties) == 0 {
		return "", apperrors.NewValidation("exporter", "no property data to export")
	}
	filename = e.defaultName(filename, "buyrentkenya_properties_%s.csv")
	listings := Filter(e.Data.Properties, f)

	file, err := create(filename)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := WriteCSV(file, listings); err != nil {
		return "", apperrors.NewPersistence("exporter", "failed to write "+filename, err)
	}
	logger.ForExporter().Info().Int("count", len(listings)).Str("file", filename).Msg("exported properties to CSV")
	return filename, nil
}

// ExportJSON writes the filtered document. An empty filename uses
// buyrentkenya_filtered_<timestamp>.json.
func (e *Exporter) ExportJSON(filename string, f Filters) (string, error) {
	filename = e.defaultName(filename, "buyrentkenya_filtered_%s.json")
	doc := NewDocument(e.Data.Properties, f, e.Now())

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", apperrors.NewPersistence("exporter", "failed to encode document", err)
	}
	if err := os.MkdirAll(dirOf(filename), 0o755); err != nil {
		return "", apperrors.NewPersistence("exporter", "failed to create directory for "+filename, err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return "", apperrors.NewPersistence("exporter", "failed to write "+filename, err)
	}
	logger.ForExporter().Info().Int("count", doc.Metadata.TotalItems).Str("file", filename).Msg("exported filtered properties to JSON")
	return filename, nil
}

// ExportReport writes the text report. An empty filename uses
// buyrentkenya_summary_report_<timestamp>.txt.
func (e *Exporter) ExportReport(filename string) (string, error) {
	filename = e.defaultName(filename, "buyrentkenya_summary_report_%s.txt")

	file, err := create(filename)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := WriteReport(file, e.Data, e.Now()); err != nil {
		return "", apperrors.NewPersistence("exporter", "failed to write "+filename, err)
	}
	logger.ForExporter().Info().Str("file", filename).Msg("exported summary report")
	return filename, nil
}

func (e *Exporter) defaultName(filename, pattern string) string {
	if filename != "" {
		return filename
	}
	return fmt.Sprintf(pattern, e.Now().Format(timestampLayout))
}

func create(filename string) (*os.File, error) {
	if err := os.MkdirAll(dirOf(filename), 0o755); err != nil {
		return nil, apperrors.NewPersistence("exporter", "failed to create directory for "+filename, err)
	}
	file, err := os.Create(filename)
	if err != nil {
		return nil, apperrors.NewPersistence("exporter", "failed to create "+filename, err)
	}
	return file, nil
}

func dirOf(filename string) string {
	return filepath.Dir(filename)
}
