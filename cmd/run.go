package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/chrisdamba/golfsim/internal/batch"
	"github.com/chrisdamba/golfsim/internal/models"
	"github.com/chrisdamba/golfsim/internal/output"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate a scenario and report its metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		_, err = execute(cmd.Context(), cfg, batch.RunJobsFor(cfg), "Simulating "+cfg.Scenario)
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// execute runs jobs against the configured destination under a fresh batch id.
func execute(ctx context.Context, cfg *models.Config, jobs []batch.Job, description string) ([]batch.Outcome, error) {
	dest, err := output.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating output: %w", err)
	}

	batchID := batch.NewBatchID()
	ctx = output.WithBatchID(ctx, batchID)
	log.Printf("Batch %s: %d run(s) to %s", batchID, len(jobs), cfg.Output.Destination)

	runner := &batch.Runner{
		Parallelism: cfg.Sweep.Parallelism,
		Destination: dest,
	}
	if len(jobs) > 1 {
		bar := progressbar.NewOptions(len(jobs),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(description),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		runner.OnDone = func(batch.Outcome) { _ = bar.Add(1) }
		defer bar.Finish()
	}

	outcomes, err := runner.RunJobs(ctx, jobs)
	if closeErr := dest.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("error closing output: %w", closeErr)
	}
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}
