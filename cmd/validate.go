package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a scenario file without simulating it",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "scenario %q is valid: %d zone(s), %d agent(s), %d run(s)\n",
			cfg.Scenario, len(cfg.Course.Zones), cfg.TotalAgents(), cfg.Runs)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
