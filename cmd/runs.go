package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/chrisdamba/golfsim/internal/repositories"
	"github.com/chrisdamba/golfsim/internal/repositories/postgres"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect runs stored by the postgres destination",
}

var runsCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print how many runs are stored",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunRepository(cmd.Context(), func(repo repositories.RunRepository) error {
			return printRunCount(cmd.Context(), repo, cmd.OutOrStdout())
		})
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <simulation-id>",
	Short: "Print the stored headline of one run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunRepository(cmd.Context(), func(repo repositories.RunRepository) error {
			return printRun(cmd.Context(), repo, args[0], cmd.OutOrStdout())
		})
	},
}

var runsPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every stored run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunRepository(cmd.Context(), func(repo repositories.RunRepository) error {
			return purgeRuns(cmd.Context(), repo, cmd.OutOrStdout())
		})
	},
}

func init() {
	runsCmd.AddCommand(runsCountCmd, runsShowCmd, runsPurgeCmd)
	rootCmd.AddCommand(runsCmd)
}

func withRunRepository(ctx context.Context, fn func(repositories.RunRepository) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pool, err := postgres.Connect(ctx, cfg.Output.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := postgres.NewRunRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return fn(repo)
}

func printRunCount(ctx context.Context, repo repositories.RunRepository, w io.Writer) error {
	count, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("error counting runs: %w", err)
	}
	fmt.Fprintf(w, "%d run(s) stored\n", count)
	return nil
}

func printRun(ctx context.Context, repo repositories.RunRepository, simulationID string, w io.Writer) error {
	run, err := repo.GetRun(ctx, simulationID)
	if err != nil {
		return fmt.Errorf("error loading run: %w", err)
	}
	fmt.Fprintf(w, "%s (scenario %s, run %d, seed %d)\n", run.SimulationID, run.Scenario, run.RunIndex, run.Seed)
	fmt.Fprintf(w, "orders %d, delivered %d, failed %d, groups %d, revenue $%s\n",
		run.TotalOrders, run.SuccessfulOrders, run.FailedOrders, run.TotalGroups, run.Revenue)
	return nil
}

func purgeRuns(ctx context.Context, repo repositories.RunRepository, w io.Writer) error {
	count, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("error counting runs: %w", err)
	}
	if err := repo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("error deleting runs: %w", err)
	}
	fmt.Fprintf(w, "deleted %d run(s)\n", count)
	return nil
}
