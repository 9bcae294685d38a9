package cli

import (
	"fmt"
	"io"

	"curriculum-rag-be/internal/entity"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest every unprocessed document from the bucket",
	Args:  cobra.NoArgs,
	RunE:  runIngest,
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List documents that have not been ingested yet",
	Args:  cobra.NoArgs,
	RunE:  runPending,
}

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent ingestion runs",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 10, "number of runs to show")
	rootCmd.AddCommand(ingestCmd, pendingCmd, runsCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	_, container, err := buildContainer()
	if err != nil {
		return err
	}
	defer container.Close()

	run, err := container.IngestionService.IngestAll(cmd.Context())
	printRun(cmd.OutOrStdout(), run)
	return err
}

func runPending(cmd *cobra.Command, args []string) error {
	_, container, err := buildContainer()
	if err != nil {
		return err
	}
	defer container.Close()

	names, err := container.IngestionService.ListPending(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(names) == 0 {
		success.Fprintln(out, "Nothing to ingest")
		return nil
	}
	headline.Fprintf(out, "%d pending document(s)\n", len(names))
	for _, name := range names {
		fmt.Fprintf(out, "  %s\n", name)
	}
	return nil
}

func runRuns(cmd *cobra.Command, args []string) error {
	_, container, err := buildContainer()
	if err != nil {
		return err
	}
	defer container.Close()

	runs, err := container.IngestionService.RecentRuns(cmd.Context(), runsLimit)
	if err != nil {
		return err
	}
	for _, run := range runs {
		printRun(cmd.OutOrStdout(), run)
	}
	return nil
}

// printRun writes the log lines of a run followed by one line per document.
func printRun(w io.Writer, run *entity.IngestionRun) {
	if run == nil {
		return
	}

	headline.Fprintf(w, "Run %s started %s\n", run.Id, run.StartedAt.Format("2006-01-02 15:04:05"))
	for _, line := range run.Logs {
		faint.Fprintf(w, "  %s\n", line)
	}

	for _, doc := range run.Documents {
		switch doc.State {
		case entity.DocumentDone:
			success.Fprintf(w, "  done     %s (%d/%d chunks)\n", doc.Name, doc.StoredChunks, doc.TotalChunks)
		case entity.DocumentSkipped:
			warning.Fprintf(w, "  skipped  %s: %s\n", doc.Name, doc.Reason)
		default:
			failure.Fprintf(w, "  %-8s %s: %s\n", doc.State, doc.Name, doc.Reason)
		}
	}

	if !run.Success {
		failure.Fprintf(w, "Run failed: %s\n", run.Error)
	}
}
