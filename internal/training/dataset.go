// Package training builds a model artifact from the historical flights CSV.
// Feature derivation is shared with the serving pipeline so vectors built
// here match vectors built at request time.
package training

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/flightontime/flight-ai-go/internal/models"
)

// Dataset column names as found in the BrFlights exports.
const (
	colStatus        = "Situacao.Voo"
	colScheduled     = "Partida.Prevista"
	colActual        = "Partida.Real"
	colCarrier       = "Companhia.Aerea"
	colOrigin        = "Aeroporto.Origem"
	colDestination   = "Aeroporto.Destino"
	colLatOrig       = "LatOrig"
	colLonOrig       = "LongOrig"
	colLatDest       = "LatDest"
	colLonDest       = "LongDest"
	colPrecipitation = "precipitation"
	colWindSpeed     = "wind_speed"
	colImputed       = "clima_imputado"
)

// statusCompleted marks flights that actually departed.
const statusCompleted = "Realizado"

// Delay sanity window in minutes. Rows outside it are recording errors, not
// flights.
const (
	minDelayMinutes = -60
	maxDelayMinutes = 1440
)

// DelayTargetMinutes is the cutoff above which a flight counts as delayed.
const DelayTargetMinutes = 15.0

// Row is one usable flight observation.
type Row struct {
	Carrier       string
	Origin        string
	Destination   string
	Scheduled     time.Time
	DelayMinutes  float64
	OriginLat     float64
	OriginLon     float64
	DestLat       float64
	DestLon       float64
	Precipitation float64
	WindSpeed     float64
	Imputed       int
	Delayed       bool
}

var datasetLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range datasetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

type columns struct {
	index map[string]int
}

func mapColumns(header []string) (columns, error) {
	c := columns{index: make(map[string]int, len(header))}
	for i, name := range header {
		c.index[name] = i
	}
	for _, required := range []string{
		colStatus, colScheduled, colActual, colCarrier, colOrigin, colDestination,
		colLatOrig, colLonOrig, colLatDest, colLonDest,
	} {
		if _, ok := c.index[required]; !ok {
			return columns{}, fmt.Errorf("dataset is missing column %q", required)
		}
	}
	return c, nil
}

func (c columns) get(record []string, name string) (string, bool) {
	i, ok := c.index[name]
	if !ok || i >= len(record) {
		return "", false
	}
	return record[i], true
}

func (c columns) float(record []string, name string) (float64, bool) {
	s, ok := c.get(record, name)
	if !ok || s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// LoadDataset reads and filters the flights CSV: completed flights only,
// parseable timestamps and coordinates, delay inside the sanity window,
// duplicates dropped. Skipped rows are counted, never fatal.
func LoadDataset(path string, log *logrus.Logger) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var rows []Row
	seen := make(map[string]struct{})
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		row, ok := parseRow(cols, record)
		if !ok {
			skipped++
			continue
		}
		key := row.Carrier + "|" + row.Origin + "|" + row.Destination + "|" + row.Scheduled.Format(time.RFC3339)
		if _, dup := seen[key]; dup {
			skipped++
			continue
		}
		seen[key] = struct{}{}
		rows = append(rows, row)
	}

	log.WithFields(logrus.Fields{
		"rows":    len(rows),
		"skipped": skipped,
	}).Info("Dataset loaded")
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset %s has no usable rows", path)
	}
	return rows, nil
}

func parseRow(cols columns, record []string) (Row, bool) {
	status, _ := cols.get(record, colStatus)
	if status != statusCompleted {
		return Row{}, false
	}

	scheduledRaw, _ := cols.get(record, colScheduled)
	actualRaw, _ := cols.get(record, colActual)
	scheduled, err := parseTimestamp(scheduledRaw)
	if err != nil {
		return Row{}, false
	}
	actual, err := parseTimestamp(actualRaw)
	if err != nil {
		return Row{}, false
	}

	delay := actual.Sub(scheduled).Minutes()
	if delay < minDelayMinutes || delay > maxDelayMinutes {
		return Row{}, false
	}

	carrier, _ := cols.get(record, colCarrier)
	origin, _ := cols.get(record, colOrigin)
	destination, _ := cols.get(record, colDestination)
	if carrier == "" || origin == "" || destination == "" {
		return Row{}, false
	}

	latO, ok1 := cols.float(record, colLatOrig)
	lonO, ok2 := cols.float(record, colLonOrig)
	latD, ok3 := cols.float(record, colLatDest)
	lonD, ok4 := cols.float(record, colLonDest)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return Row{}, false
	}

	// Weather columns only exist in the enriched export; absent or junk
	// values fall back to zero the same way the enrichment did.
	precip, _ := cols.float(record, colPrecipitation)
	wind, _ := cols.float(record, colWindSpeed)
	imputed := 0
	if v, ok := cols.float(record, colImputed); ok && v != 0 {
		imputed = 1
	}

	return Row{
		Carrier:       carrier,
		Origin:        origin,
		Destination:   destination,
		Scheduled:     scheduled,
		DelayMinutes:  delay,
		OriginLat:     latO,
		OriginLon:     lonO,
		DestLat:       latD,
		DestLon:       lonD,
		Precipitation: precip,
		WindSpeed:     wind,
		Imputed:       imputed,
		Delayed:       delay > DelayTargetMinutes,
	}, true
}

// ExtractCoordinates builds the airport coordinate table: first-seen
// coordinates per origin code, then destination codes not yet present.
func ExtractCoordinates(rows []Row) map[string]models.Coordinate {
	coords := make(map[string]models.Coordinate)
	for _, r := range rows {
		if _, ok := coords[r.Origin]; !ok {
			coords[r.Origin] = models.Coordinate{Lat: r.OriginLat, Lon: r.OriginLon}
		}
	}
	for _, r := range rows {
		if _, ok := coords[r.Destination]; !ok {
			coords[r.Destination] = models.Coordinate{Lat: r.DestLat, Lon: r.DestLon}
		}
	}
	return coords
}
