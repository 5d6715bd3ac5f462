// Package registry holds the static model catalog: each entry binds a model
// identifier to its display metadata and its computation routine. The catalog
// is fixed at construction and never mutated afterwards.
package registry

import (
	"github.com/me/modelrun/internal/dataset"
	"github.com/me/modelrun/pkg/model"
)

// ComputeFunc produces the summary and table for one run of a model.
type ComputeFunc func(a *dataset.Accessor, region string, year int) (map[string]any, []map[string]any, error)

// Model is one catalog entry.
type Model struct {
	Info    model.ModelInfo
	Compute ComputeFunc
}

// Registry is the static model catalog.
type Registry struct {
	models map[string]Model
	order  []string
}

// New creates the catalog with the built-in models registered.
func New() *Registry {
	r := &Registry{models: map[string]Model{}}
	r.register(Model{
		Info: model.ModelInfo{
			ModelID:     "crop_yield_predictor",
			Name:        "Crop Yield Predictor",
			Description: "Predicts expected yield using USDA public data sample",
		},
		Compute: computeCropYield,
	})
	r.register(Model{
		Info: model.ModelInfo{
			ModelID:     "water_risk",
			Name:        "Water Risk Model",
			Description: "Scores irrigation stress and drought risk using synthetic data",
		},
		Compute: computeWaterRisk,
	})
	return r
}

func (r *Registry) register(m Model) {
	r.models[m.Info.ModelID] = m
	r.order = append(r.order, m.Info.ModelID)
}

// Get returns the model registered under id.
func (r *Registry) Get(id string) (Model, bool) {
	m, ok := r.models[id]
	return m, ok
}

// List returns catalog entries in registration order.
func (r *Registry) List() []model.ModelInfo {
	infos := make([]model.ModelInfo, 0, len(r.order))
	for _, id := range r.order {
		infos = append(infos, r.models[id].Info)
	}
	return infos
}

func computeCropYield(a *dataset.Accessor, region string, year int) (map[string]any, []map[string]any, error) {
	stats, err := a.LookupYield(region, year)
	if err != nil {
		return nil, nil, err
	}

	summary := map[string]any{
		"expected_yield_bu_acre": dataset.Round(stats.AvgYield, 2),
		"total_production_bu":    dataset.Round(stats.TotalBushels, 2),
		"total_acres":            stats.TotalAcres,
		"region":                 region,
		"year":                   year,
	}
	table := []map[string]any{
		{
			"region":            region,
			"year":              year,
			"avg_yield_bu_acre": dataset.Round(stats.AvgYield, 2),
			"total_acres":       stats.TotalAcres,
			"total_bu":          dataset.Round(stats.TotalBushels, 2),
		},
	}
	return summary, table, nil
}

func computeWaterRisk(a *dataset.Accessor, region string, year int) (map[string]any, []map[string]any, error) {
	stats, err := a.LookupWaterRisk(region, year)
	if err != nil {
		return nil, nil, err
	}

	summary := map[string]any{
		"region":                           region,
		"year":                             year,
		"avg_drought_index":                stats.AvgDroughtIndex,
		"avg_irrigation_cost_usd_per_acre": stats.AvgIrrigationCost,
		"avg_water_risk_score":             stats.AvgRiskScore,
		"records_used":                     stats.Records,
	}
	table := []map[string]any{
		{
			"region":                       region,
			"year":                         year,
			"drought_index":                stats.AvgDroughtIndex,
			"irrigation_cost_usd_per_acre": stats.AvgIrrigationCost,
			"water_risk_score":             stats.AvgRiskScore,
			"records_used":                 stats.Records,
		},
	}
	return summary, table, nil
}
