package cmd

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/chrisdamba/golfsim/internal/metrics"
	"github.com/chrisdamba/golfsim/internal/models"
	"github.com/chrisdamba/golfsim/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRunRepository struct {
	runs map[string]*repositories.RunSummary
}

func (m *memoryRunRepository) EnsureSchema(context.Context) error { return nil }

func (m *memoryRunRepository) SaveRun(_ context.Context, result *models.RunResult, _ metrics.Report) error {
	m.runs[result.SimulationID] = &repositories.RunSummary{
		SimulationID:     result.SimulationID,
		Scenario:         result.Scenario,
		RunIndex:         result.RunIndex,
		Seed:             result.Seed,
		TotalOrders:      result.TotalOrders,
		SuccessfulOrders: result.SuccessfulOrders,
		FailedOrders:     result.FailedOrders,
		TotalGroups:      result.TotalGroups,
		Revenue:          result.Revenue.StringFixed(2),
	}
	return nil
}

func (m *memoryRunRepository) GetRun(_ context.Context, simulationID string) (*repositories.RunSummary, error) {
	run, ok := m.runs[simulationID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repositories.ErrRunNotFound, simulationID)
	}
	return run, nil
}

func (m *memoryRunRepository) Count(context.Context) (int, error) { return len(m.runs), nil }

func (m *memoryRunRepository) DeleteAll(context.Context) error {
	m.runs = make(map[string]*repositories.RunSummary)
	return nil
}

func seededRepository(t *testing.T) *memoryRunRepository {
	t.Helper()
	repo := &memoryRunRepository{runs: make(map[string]*repositories.RunSummary)}
	for i := 1; i <= 2; i++ {
		require.NoError(t, repo.SaveRun(context.Background(), &models.RunResult{
			SimulationID:     fmt.Sprintf("links_run_%02d", i),
			Scenario:         "links",
			RunIndex:         i,
			Seed:             int64(100 + i),
			TotalOrders:      20,
			SuccessfulOrders: 18,
			FailedOrders:     2,
			TotalGroups:      14,
		}, metrics.Report{}))
	}
	return repo
}

func TestPrintRun(t *testing.T) {
	repo := seededRepository(t)
	var out bytes.Buffer

	require.NoError(t, printRun(context.Background(), repo, "links_run_02", &out))
	assert.Contains(t, out.String(), "links_run_02 (scenario links, run 2, seed 102)")
	assert.Contains(t, out.String(), "orders 20, delivered 18, failed 2, groups 14, revenue $0.00")

	err := printRun(context.Background(), repo, "links_run_09", &out)
	assert.ErrorIs(t, err, repositories.ErrRunNotFound)
}

func TestPrintRunCountAndPurge(t *testing.T) {
	repo := seededRepository(t)
	var out bytes.Buffer

	require.NoError(t, printRunCount(context.Background(), repo, &out))
	assert.Equal(t, "2 run(s) stored\n", out.String())

	out.Reset()
	require.NoError(t, purgeRuns(context.Background(), repo, &out))
	assert.Equal(t, "deleted 2 run(s)\n", out.String())

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
