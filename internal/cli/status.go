package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show knowledge base and account status",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	ctx := context.Background()

	stats, err := shell.Client.DocumentStats(ctx)
	if err != nil {
		return fmt.Errorf("fetch document stats: %w", err)
	}

	fmt.Printf("Documents: %d\n", stats.TotalDocuments)
	if stats.LastUpdated != nil {
		fmt.Printf("Last updated: %s\n", stats.LastUpdated.Format(time.RFC3339))
	}

	plan, err := shell.Client.EffectivePlan(ctx)
	if err != nil {
		return fmt.Errorf("fetch effective plan: %w", err)
	}
	planLine := fmt.Sprintf("Plan: %s", plan.Plan)
	if plan.Inherited {
		planLine += " (inherited from team owner)"
	}
	fmt.Println(planLine)

	active, err := shell.Client.ActiveJob(ctx)
	if err != nil {
		return fmt.Errorf("fetch active job: %w", err)
	}
	if active == nil {
		fmt.Println("No active ingestion job.")
		return nil
	}
	fmt.Printf("Active job: %s [%s] %d/%d files (%.0f%%)\n",
		active.ID, active.Status, active.ProcessedFiles, active.TotalFiles, active.Percent())
	return nil
}
