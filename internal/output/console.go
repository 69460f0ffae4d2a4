package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/chrisdamba/golfsim/internal/metrics"
	"github.com/chrisdamba/golfsim/internal/models"
)

// ConsoleOutput prints the executive report of each run as text.
type ConsoleOutput struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleOutput writes to w, or stdout when w is nil.
func NewConsoleOutput(w io.Writer) *ConsoleOutput {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleOutput{out: w}
}

func (c *ConsoleOutput) WriteRun(_ context.Context, result *models.RunResult, report metrics.Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := RenderReport(c.out, result, report); err != nil {
		return fmt.Errorf("failed to write to stdout: %w", err)
	}
	return nil
}

func (c *ConsoleOutput) Close() error {
	return nil
}

// RenderReport formats one run in the layout of the executive summary.
func RenderReport(w io.Writer, result *models.RunResult, report metrics.Report) error {
	id := report.Identity
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Simulation\t%s\n", id.SimulationID)
	fmt.Fprintf(tw, "Scenario\t%s (run %d, seed %d)\n", id.Scenario, id.RunIndex, id.Seed)
	fmt.Fprintf(tw, "Agents\t%s\n", strings.Join(id.AgentIDs, ", "))
	fmt.Fprintf(tw, "Orders\t%d\n", id.TotalOrders)
	fmt.Fprintf(tw, "Groups\t%d\n", id.TotalGroups)
	fmt.Fprintf(tw, "Rounds\t%d\n", id.Rounds)
	fmt.Fprintf(tw, "Active hours\t%.1f\n", id.ActiveHours)
	fmt.Fprintf(tw, "Delivered / failed\t%d / %d\n", result.SuccessfulOrders, result.FailedOrders)

	fmt.Fprintln(tw, "\nExecutive metrics")
	for i, m := range report.Metrics {
		fmt.Fprintf(tw, "%2d. %s\t%s\n", i+1, m.Label, m.Display)
	}

	if len(report.Zones) > 0 {
		fmt.Fprintln(tw, "\nService time by zone")
		for _, z := range report.Zones {
			fmt.Fprintf(tw, "  Zone %d\t%s\t(%d deliveries)\n", z.ZoneID, z.Display, z.Deliveries)
		}
	}

	fmt.Fprintln(tw, "\nUtilization")
	for _, share := range report.Utilization {
		fmt.Fprintf(tw, "  %s\t%s\n", share.State, share.Display)
	}
	for _, agent := range report.Agents {
		shares := make([]string, 0, len(agent.Shares))
		for _, share := range agent.Shares {
			shares = append(shares, share.State+" "+share.Display)
		}
		fmt.Fprintf(tw, "  %s\t%s\n", agent.AgentID, strings.Join(shares, ", "))
	}

	if len(report.Failures) > 0 {
		fmt.Fprintln(tw, "\nFailures")
		for _, f := range report.Failures {
			fmt.Fprintf(tw, "  %s\t%d\n", f.Reason, f.Count)
		}
	}
	fmt.Fprintln(tw)

	return tw.Flush()
}
