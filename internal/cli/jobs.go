package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/axio-hub/axio-go/internal/store"
)

var jobsHistory bool

var jobsCmd = &cobra.Command{
	Use:   "jobs [job-id]",
	Short: "List or inspect ingestion jobs",
	Long: `List recent ingestion jobs or inspect a specific job by ID.

Examples:
  axio jobs            # Active jobs
  axio jobs --history  # Recent job history
  axio jobs abc123     # Show details for job abc123`,
	Args: cobra.MaximumNArgs(1),
	RunE: runJobs,
}

func init() {
	jobsCmd.Flags().BoolVar(&jobsHistory, "history", false, "show finished jobs too")
	rootCmd.AddCommand(jobsCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	ctx := context.Background()

	if len(args) == 1 {
		return showJob(ctx, args[0])
	}
	return listJobs(ctx)
}

func listJobs(ctx context.Context) error {
	limit := store.ActiveJobLimit
	if jobsHistory {
		limit = store.JobHistoryLimit
	}

	jobs, err := shell.Client.JobHistory(ctx, limit)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}
	if !jobsHistory {
		n := 0
		for _, j := range jobs {
			if j.Status.Active() {
				jobs[n] = j
				n++
			}
		}
		jobs = jobs[:n]
	}

	if len(jobs) == 0 {
		fmt.Println("No jobs found")
		return nil
	}

	fmt.Printf("%-10s %-8s %-12s %-10s %s\n", "ID", "SOURCE", "STATUS", "PROGRESS", "STARTED")
	fmt.Println("------------------------------------------------------------------------")

	for _, job := range jobs {
		progress := ""
		if job.TotalFiles > 0 {
			progress = fmt.Sprintf("%d/%d", job.ProcessedFiles, job.TotalFiles)
		}
		started := job.CreatedAt.Format("15:04:05")
		fmt.Printf("%-10s %-8s %-12s %-10s %s\n", job.ID, job.Provider, job.Status, progress, started)
	}

	return nil
}

func showJob(ctx context.Context, id string) error {
	job, err := shell.Client.Job(ctx, id)
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}

	fmt.Printf("Job: %s\n", job.ID)
	fmt.Printf("  Source: %s\n", job.Provider)
	fmt.Printf("  Status: %s\n", job.Status)
	if job.TotalFiles > 0 {
		fmt.Printf("  Progress: %d/%d (%.0f%%)\n", job.ProcessedFiles, job.TotalFiles, job.Percent())
	}
	fmt.Printf("  Started: %s\n", job.CreatedAt.Format(time.RFC3339))
	if job.Status.Terminal() {
		fmt.Printf("  Finished: %s\n", job.UpdatedAt.Format(time.RFC3339))
		duration := job.UpdatedAt.Sub(job.CreatedAt)
		fmt.Printf("  Duration: %s\n", duration.Round(time.Second))
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		fmt.Printf("  Error: %s\n", *job.ErrorMessage)
	}

	return nil
}
