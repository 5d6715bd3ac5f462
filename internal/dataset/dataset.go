// Package dataset provides read-only lookups over the tabular input files
// the models compute against. The files are small CSVs scanned per query;
// absence of matching rows is reported through zero-valued aggregates, never
// as an error. A missing file or a malformed row is an error for that query.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
)

// Accessor reads the yield and water-risk datasets.
type Accessor struct {
	yieldPath string
	waterPath string
	logger    *slog.Logger
}

// New creates an Accessor over the given CSV files.
func New(yieldPath, waterPath string, logger *slog.Logger) *Accessor {
	return &Accessor{
		yieldPath: yieldPath,
		waterPath: waterPath,
		logger:    logger.With("component", "dataset"),
	}
}

// YieldStats aggregates yield records matching a region and year.
type YieldStats struct {
	AvgYield     float64 // mean of expected_yield_bu_acre
	TotalBushels float64 // sum of acres * yield
	TotalAcres   int     // sum of acres, truncated
	Records      int
}

// WaterRiskStats aggregates water-risk records matching a region and year.
// Per record, risk = 0.5*drought_index + 0.5*(irrigation_cost/100).
type WaterRiskStats struct {
	AvgDroughtIndex   float64 // rounded to 3 decimals
	AvgIrrigationCost float64 // rounded to 2 decimals
	AvgRiskScore      float64 // rounded to 3 decimals
	Records           int
}

// LookupYield scans the yield dataset for rows matching region and year.
// Zero matches yield all-zero stats.
func (a *Accessor) LookupYield(region string, year int) (YieldStats, error) {
	var stats YieldStats

	err := a.scan(a.yieldPath, func(row map[string]string) error {
		if row["region"] != region {
			return nil
		}
		y, err := strconv.Atoi(row["year"])
		if err != nil {
			return fmt.Errorf("year %q: %w", row["year"], err)
		}
		if y != year {
			return nil
		}

		acres, err := strconv.ParseFloat(row["acres"], 64)
		if err != nil {
			return fmt.Errorf("acres %q: %w", row["acres"], err)
		}
		yld, err := strconv.ParseFloat(row["expected_yield_bu_acre"], 64)
		if err != nil {
			return fmt.Errorf("expected_yield_bu_acre %q: %w", row["expected_yield_bu_acre"], err)
		}

		stats.AvgYield += yld // running sum, divided below
		stats.TotalBushels += acres * yld
		stats.TotalAcres += int(acres)
		stats.Records++
		return nil
	})
	if err != nil {
		return YieldStats{}, err
	}

	if stats.Records == 0 {
		return YieldStats{}, nil
	}
	stats.AvgYield /= float64(stats.Records)
	return stats, nil
}

// LookupWaterRisk scans the water-risk dataset for rows matching region and year.
// Zero matches yield all-zero stats with Records 0.
func (a *Accessor) LookupWaterRisk(region string, year int) (WaterRiskStats, error) {
	var drought, cost, risk float64
	var n int

	err := a.scan(a.waterPath, func(row map[string]string) error {
		if row["region"] != region {
			return nil
		}
		y, err := strconv.Atoi(row["year"])
		if err != nil {
			return fmt.Errorf("year %q: %w", row["year"], err)
		}
		if y != year {
			return nil
		}

		d, err := strconv.ParseFloat(row["drought_index"], 64)
		if err != nil {
			return fmt.Errorf("drought_index %q: %w", row["drought_index"], err)
		}
		c, err := strconv.ParseFloat(row["irrigation_cost_usd_per_acre"], 64)
		if err != nil {
			return fmt.Errorf("irrigation_cost_usd_per_acre %q: %w", row["irrigation_cost_usd_per_acre"], err)
		}

		drought += d
		cost += c
		risk += 0.5*d + 0.5*(c/100.0)
		n++
		return nil
	})
	if err != nil {
		return WaterRiskStats{}, err
	}

	if n == 0 {
		return WaterRiskStats{}, nil
	}
	return WaterRiskStats{
		AvgDroughtIndex:   Round(drought/float64(n), 3),
		AvgIrrigationCost: Round(cost/float64(n), 2),
		AvgRiskScore:      Round(risk/float64(n), 3),
		Records:           n,
	}, nil
}

// Regions returns the sorted distinct region values of the yield dataset.
func (a *Accessor) Regions() ([]string, error) {
	seen := map[string]bool{}
	err := a.scan(a.yieldPath, func(row map[string]string) error {
		seen[row["region"]] = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	regions := make([]string, 0, len(seen))
	for r := range seen {
		regions = append(regions, r)
	}
	sort.Strings(regions)
	return regions, nil
}

// scan streams a CSV file row by row, passing each record to fn as a
// header-keyed map. Rows shorter than the header and header-less files are
// rejected by the csv reader itself.
func (a *Accessor) scan(path string, fn func(row map[string]string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read header %s: %w", path, err)
	}

	line := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		line++

		row := make(map[string]string, len(header))
		for i, col := range header {
			row[col] = rec[i]
		}
		if err := fn(row); err != nil {
			return fmt.Errorf("%s line %d: %w", path, line, err)
		}
	}
}

// Round rounds x to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(x*p) / p
}
