package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var indexWatch bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the knowledge base from the corpus",
	Long: `Loads every corpus file, chunks and embeds the records, replaces the
document store contents and writes a fresh vector index blob.

With --watch the command keeps running and rebuilds whenever a corpus
file changes.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVarP(&indexWatch, "watch", "w", false, "rebuild on corpus file changes")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if indexerService == nil {
		return errors.New("indexer service not configured")
	}

	ctx := context.Background()

	if err := rebuildOnce(ctx, cmd); err != nil {
		return err
	}

	if !indexWatch {
		return nil
	}
	if corpusLoader == nil {
		return errors.New("corpus loader not configured")
	}

	// Keep rebuilding on corpus changes until interrupted.
	watchCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Println("Watching corpus for changes (Ctrl-C to stop)...")
	err := corpusLoader.Watch(watchCtx, func() {
		if err := rebuildOnce(watchCtx, cmd); err != nil {
			cmd.PrintErrf("Rebuild failed: %v\n", err)
		}
	})
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}

func rebuildOnce(ctx context.Context, cmd *cobra.Command) error {
	cmd.Println("Rebuilding index...")

	report, err := indexerService.Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	cmd.Printf("Indexed %d documents as %d chunks", report.Documents, report.Chunks)
	if report.SkippedChunks > 0 {
		cmd.Printf(" (%d skipped)", report.SkippedChunks)
	}
	cmd.Printf(" in %s.\n", report.Elapsed.Round(time.Millisecond))
	return nil
}
