package repositories

import (
	"context"
	"errors"

	"github.com/chrisdamba/golfsim/internal/metrics"
	"github.com/chrisdamba/golfsim/internal/models"
)

var ErrRunNotFound = errors.New("run not found")

// RunSummary is the stored headline of one simulation run.
type RunSummary struct {
	SimulationID     string
	Scenario         string
	RunIndex         int
	Seed             int64
	TotalOrders      int
	SuccessfulOrders int
	FailedOrders     int
	TotalGroups      int
	Revenue          string
}

type RunRepository interface {
	EnsureSchema(ctx context.Context) error
	SaveRun(ctx context.Context, result *models.RunResult, report metrics.Report) error
	GetRun(ctx context.Context, simulationID string) (*RunSummary, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}
