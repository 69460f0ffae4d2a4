package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/chrisdamba/golfsim/internal/batch"
	"github.com/chrisdamba/golfsim/internal/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Simulate an order volume × agent count matrix",
	Long: `sweep runs the scenario once per cell of sweep.order_volumes × sweep.agent_counts,
repeating each cell runs times, and prints the mean of the key metrics per cell.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		jobs, cells, err := batch.SweepJobs(cfg)
		if err != nil {
			return err
		}
		outcomes, err := execute(cmd.Context(), cfg, jobs, "Sweeping "+cfg.Scenario)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CELL\tRUNS\tAOV\tORDERS/AGENT-HR\tON-TIME\tP90 CYCLE\tFAILED\tBREAK-EVEN")
		for _, s := range batch.Summarize(cells, outcomes) {
			fmt.Fprintf(tw, "%s\t%d\t$%.2f\t%.2f\t%.1f%%\t%.1f min\t%.1f%%\t%.0f\n",
				s.Scenario,
				s.Runs,
				s.Metrics[metrics.KeyAverageOrderValue],
				s.Metrics[metrics.KeyOrdersPerAgentHour],
				s.Metrics[metrics.KeyOnTimeRate]*100,
				s.Metrics[metrics.KeyP90CycleTime],
				s.Metrics[metrics.KeyFailedRate]*100,
				s.Metrics[metrics.KeyBreakEvenOrders],
			)
		}
		return tw.Flush()
	},
}

func init() {
	sweepCmd.Flags().IntSlice("order-volumes", nil, "Orders per shift to sweep over")
	sweepCmd.Flags().IntSlice("agent-counts", nil, "Agent counts to sweep over")
	cobra.CheckErr(viper.BindPFlag("sweep.order_volumes", sweepCmd.Flags().Lookup("order-volumes")))
	cobra.CheckErr(viper.BindPFlag("sweep.agent_counts", sweepCmd.Flags().Lookup("agent-counts")))
	rootCmd.AddCommand(sweepCmd)
}
