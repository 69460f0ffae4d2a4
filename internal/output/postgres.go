package output

import (
	"context"
	"fmt"

	"github.com/chrisdamba/golfsim/internal/metrics"
	"github.com/chrisdamba/golfsim/internal/models"
	"github.com/chrisdamba/golfsim/internal/repositories"
)

// PostgresOutput stores runs through a RunRepository.
type PostgresOutput struct {
	repo    repositories.RunRepository
	closeFn func()
}

func NewPostgresOutput(repo repositories.RunRepository, closeFn func()) *PostgresOutput {
	return &PostgresOutput{repo: repo, closeFn: closeFn}
}

func (p *PostgresOutput) WriteRun(ctx context.Context, result *models.RunResult, report metrics.Report) error {
	if err := p.repo.SaveRun(ctx, result, report); err != nil {
		return fmt.Errorf("failed to save run %s: %w", result.SimulationID, err)
	}
	return nil
}

func (p *PostgresOutput) Close() error {
	if p.closeFn != nil {
		p.closeFn()
		p.closeFn = nil
	}
	return nil
}
