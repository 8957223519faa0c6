package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/axio-hub/axio-go/internal/usage"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show plan usage and limits",
	Args:  cobra.NoArgs,
	RunE:  runUsage,
}

func init() {
	rootCmd.AddCommand(usageCmd)
}

func runUsage(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	ctx := context.Background()

	snap, err := shell.Client.Usage(ctx)
	if err != nil {
		return fmt.Errorf("get usage: %w", err)
	}

	st := usage.Evaluate(*snap)

	fmt.Printf("Plan: %s\n\n", snap.Plan)

	if st.Overall == usage.Unlimited {
		fmt.Printf("Files:   %d used (%s)\n", snap.Files.Used, severityLabel(st.Files))
		fmt.Printf("Storage: %s used (%s)\n", formatBytes(snap.Storage.Used), severityLabel(st.Storage))
		return nil
	}

	fmt.Printf("Files:   %d / %d (%.0f%%)  %s\n",
		snap.Files.Used, snap.Files.Limit, st.FilesPercent, severityLabel(st.Files))
	fmt.Printf("Storage: %s / %s (%.0f%%)  %s\n",
		formatBytes(snap.Storage.Used), formatBytes(snap.Storage.Limit), st.StoragePercent, severityLabel(st.Storage))

	if st.UploadBlocked() {
		banner := lipgloss.NewStyle().Foreground(defaultTheme.Error).Bold(true)
		fmt.Println()
		fmt.Println(banner.Render("Uploads are blocked. Upgrade your plan or remove documents to continue."))
	}

	return nil
}

func severityLabel(s usage.Severity) string {
	style := lipgloss.NewStyle()
	switch s {
	case usage.Warning:
		style = style.Foreground(lipgloss.Color("#FFAF00"))
	case usage.Critical, usage.Blocked:
		style = style.Foreground(defaultTheme.Error).Bold(true)
	case usage.Healthy:
		style = style.Foreground(defaultTheme.Success)
	case usage.Unlimited:
		style = style.Foreground(defaultTheme.Hint)
	}
	return style.Render(s.String())
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
