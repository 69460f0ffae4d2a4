package batch

import (
	"errors"
	"fmt"

	"github.com/chrisdamba/golfsim/internal/metrics"
	"github.com/chrisdamba/golfsim/internal/models"
)

// Cell is one point of a sweep matrix.
type Cell struct {
	Scenario    string
	OrderVolume int // 0 keeps the base arrival rate
	AgentCount  int // 0 keeps the base roster
}

// CellSummary averages the runs of one cell.
type CellSummary struct {
	Cell
	Runs    int
	Metrics map[string]float64
}

// SweepJobs expands the order volume × agent count matrix of config.Sweep. Cells
// of one order volume share their run seeds, so staffing levels are compared on
// identical demand.
func SweepJobs(config *models.Config) ([]Job, []Cell, error) {
	volumes := config.Sweep.OrderVolumes
	if len(volumes) == 0 {
		volumes = []int{0}
	}
	counts := config.Sweep.AgentCounts
	if len(counts) == 0 {
		counts = []int{0}
	}

	var jobs []Job
	var cells []Cell
	for _, volume := range volumes {
		for _, count := range counts {
			cellConfig, cell, err := ApplyCell(config, volume, count)
			if err != nil {
				return nil, nil, err
			}
			cells = append(cells, cell)
			jobs = append(jobs, RunJobsFor(cellConfig)...)
		}
	}
	return jobs, cells, nil
}

// ApplyCell derives the scenario of one sweep cell from the base configuration.
// An order volume is converted into a Poisson group rate over the ordering window
// (shift minus last call) using the mean group size.
func ApplyCell(base *models.Config, orderVolume, agentCount int) (*models.Config, Cell, error) {
	cfg := base.Clone()
	cell := Cell{OrderVolume: orderVolume, AgentCount: agentCount}

	if orderVolume < 0 || agentCount < 0 {
		return nil, cell, fmt.Errorf("sweep cell orders=%d agents=%d: values must not be negative", orderVolume, agentCount)
	}

	if orderVolume > 0 {
		if cfg.Arrivals.Process != models.ArrivalProcessPoisson {
			return nil, cell, errors.New("order volume sweeps require poisson arrivals")
		}
		window := (cfg.ShiftDuration - cfg.Arrivals.LastCall).Hours()
		if window <= 0 {
			return nil, cell, errors.New("order volume sweeps need last_call shorter than the shift")
		}
		cfg.Arrivals.GroupsPerHour = float64(orderVolume) / (cfg.MeanGroupSize() * window)
	}

	if agentCount > 0 {
		if len(cfg.Agents) == 0 {
			return nil, cell, errors.New("agent count sweeps need at least one agent entry")
		}
		for i := range cfg.Agents {
			cfg.Agents[i].Count = 0
		}
		for i := 0; i < agentCount; i++ {
			cfg.Agents[i%len(cfg.Agents)].Count++
		}
	}

	cfg.Scenario = fmt.Sprintf("%s_orders%d_agents%d", base.Scenario, orderVolume, cfg.TotalAgents())
	cfg.DemandKey = fmt.Sprintf("%s_orders%d", base.SeedKey(), orderVolume)
	cell.Scenario = cfg.Scenario
	if err := cfg.Validate(); err != nil {
		return nil, cell, fmt.Errorf("sweep cell %s: %w", cfg.Scenario, err)
	}
	return cfg, cell, nil
}

// Summarize averages every metric value of each cell's runs, in cell order.
func Summarize(cells []Cell, outcomes []Outcome) []CellSummary {
	byScenario := make(map[string][]Outcome)
	for _, o := range outcomes {
		byScenario[o.Job.Config.Scenario] = append(byScenario[o.Job.Config.Scenario], o)
	}

	summaries := make([]CellSummary, 0, len(cells))
	for _, cell := range cells {
		runs := byScenario[cell.Scenario]
		summary := CellSummary{Cell: cell, Runs: len(runs), Metrics: make(map[string]float64)}
		samples := make(map[string][]float64)
		for _, o := range runs {
			for _, m := range o.Report.Metrics {
				if m.Available {
					samples[m.Key] = append(samples[m.Key], m.Value)
				}
			}
		}
		for key, values := range samples {
			summary.Metrics[key] = metrics.Mean(values)
		}
		summaries = append(summaries, summary)
	}
	return summaries
}
