package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/axio-hub/axio-go/internal/client"
)

var (
	ingestWait        bool
	ingestNotionToken string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Start an ingestion job",
}

var ingestFileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Upload and ingest a local file",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestFile,
}

var ingestURLCmd = &cobra.Command{
	Use:   "url <url>",
	Short: "Crawl and ingest a web page",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestURL,
}

var ingestNotionCmd = &cobra.Command{
	Use:   "notion <page-id>",
	Short: "Import a Notion page",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestNotion,
}

func init() {
	ingestCmd.PersistentFlags().BoolVarP(&ingestWait, "wait", "w", true,
		"show live progress until the job finishes")
	ingestNotionCmd.Flags().StringVar(&ingestNotionToken, "notion-token", "",
		"Notion integration token (or NOTION_TOKEN env var)")

	ingestCmd.AddCommand(ingestFileCmd)
	ingestCmd.AddCommand(ingestURLCmd)
	ingestCmd.AddCommand(ingestNotionCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runIngestFile(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return submitIngest(client.IngestRequest{
		File:     f,
		Filename: filepath.Base(args[0]),
		Metadata: ingestMetadata(),
	})
}

func runIngestURL(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	return submitIngest(client.IngestRequest{
		URL:      args[0],
		Metadata: ingestMetadata(),
	})
}

func runIngestNotion(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	token := ingestNotionToken
	if token == "" {
		token = os.Getenv("NOTION_TOKEN")
	}
	return submitIngest(client.IngestRequest{
		NotionPageID: args[0],
		NotionToken:  token,
		Metadata:     ingestMetadata(),
	})
}

func ingestMetadata() map[string]any {
	return map[string]any{
		"client":     "axio-cli/" + Version,
		"request_id": uuid.New().String(),
	}
}

func submitIngest(req client.IngestRequest) error {
	ctx := context.Background()

	resp, err := shell.Client.Ingest(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("Ingestion started, job %s\n", resp.JobID)

	if !ingestWait {
		fmt.Printf("Use 'axio jobs %s' to check progress.\n", resp.JobID)
		return nil
	}
	return RunJobProgress(shell, resp.JobID)
}
