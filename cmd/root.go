package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/chrisdamba/golfsim/internal/models"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "golfsim",
	Short: "Simulates food and beverage delivery on a golf course",
	Long: `golfsim is a discrete-event simulator for golf-course food and beverage service.
Beverage carts and delivery runners serve orders placed from holes during a shift, and
every run produces an executive metrics report: revenue, utilization, cycle times,
failure rates and the break-even staffing point.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "scenario file (default is examples/scenario.yaml or $HOME/.golfsim.yaml)")

	rootCmd.PersistentFlags().Int64("seed", 42, "Base random seed")
	rootCmd.PersistentFlags().Int("runs", 1, "Number of runs per scenario")
	rootCmd.PersistentFlags().String("blocked-policy", models.BlockedPolicyDefer, "What happens to orders for a blocked zone: defer or fail")
	rootCmd.PersistentFlags().String("output", "console", "Output destination: console, json, csv, parquet, kafka, s3 or postgres")
	rootCmd.PersistentFlags().String("output-path", "output", "Base path for file outputs")
	rootCmd.PersistentFlags().String("kafka-broker-list", "", "Kafka broker list")
	rootCmd.PersistentFlags().Int("parallelism", 4, "Runs executed concurrently")
	rootCmd.PersistentFlags().Bool("verbose", false, "Log every simulation event")

	bindFlag("seed", "seed")
	bindFlag("runs", "runs")
	bindFlag("blocked_policy", "blocked-policy")
	bindFlag("output.destination", "output")
	bindFlag("output.path", "output-path")
	bindFlag("output.kafka_broker_list", "kafka-broker-list")
	bindFlag("sweep.parallelism", "parallelism")
	bindFlag("verbose", "verbose")
}

func bindFlag(key, flag string) {
	cobra.CheckErr(viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)))
}

func initConfig() {
	if cfgFile != "" {
		return
	}
	if _, err := os.Stat(filepath.Join("examples", "scenario.yaml")); err == nil {
		return
	}
	home, err := os.UserHomeDir()
	cobra.CheckErr(err)
	if candidate := filepath.Join(home, ".golfsim.yaml"); fileExists(candidate) {
		cfgFile = candidate
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func loadConfig() (*models.Config, error) {
	cfg, err := models.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintln(os.Stderr, "Using config file:", used)
	}
	return cfg, nil
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
