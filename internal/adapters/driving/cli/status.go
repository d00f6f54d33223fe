package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samtett/IEP-Goal-Generator/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show knowledge base status",
	Long: `Reports document and chunk counts per category, the index size and
model, and whether the persisted index agrees with the document store.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if indexerService == nil {
		return errors.New("indexer service not configured")
	}

	ctx := context.Background()

	// Load the blob so the index side of the report is populated.
	// A missing or mismatched blob still yields a report.
	indexBuilt := true
	if err := indexerService.Open(ctx); err != nil {
		switch {
		case errors.Is(err, domain.ErrIndexNotBuilt):
			indexBuilt = false
		case errors.Is(err, domain.ErrIndexMetadataMismatch):
			// Status reports the disagreement below.
		default:
			return fmt.Errorf("opening index: %w", err)
		}
	}

	status, err := indexerService.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	cmd.Println("Knowledge Base Status")
	cmd.Println("=====================")
	cmd.Println()

	cmd.Println("[Documents]")
	cmd.Printf("  Occupations: %d\n", status.Stats.Documents.Occupations)
	cmd.Printf("  Standards:   %d\n", status.Stats.Documents.Standards)
	cmd.Printf("  Examples:    %d\n", status.Stats.Documents.Examples)
	cmd.Printf("  Total:       %d\n", status.Stats.Documents.Total())
	cmd.Println()

	cmd.Println("[Chunks]")
	cmd.Printf("  Occupations: %d\n", status.Stats.Chunks.Occupations)
	cmd.Printf("  Standards:   %d\n", status.Stats.Chunks.Standards)
	cmd.Printf("  Examples:    %d\n", status.Stats.Chunks.Examples)
	cmd.Printf("  Total:       %d\n", status.Stats.Chunks.Total())
	cmd.Println()

	cmd.Println("[Index]")
	if indexBuilt {
		cmd.Printf("  Vectors:    %d\n", status.IndexSize)
		cmd.Printf("  Dimensions: %d\n", status.Dimensions)
	} else {
		cmd.Println("  Not built - run 'iepgen index'.")
	}
	cmd.Printf("  Model:      %s\n", status.Model)
	cmd.Println()

	if indexBuilt {
		if status.Consistent {
			cmd.Println("Store and index agree.")
		} else {
			cmd.Println("Warning: store and index disagree - run 'iepgen index' to rebuild.")
		}
	}

	return nil
}
