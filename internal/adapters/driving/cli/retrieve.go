package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samtett/IEP-Goal-Generator/internal/core/domain"
)

var retrieveJSON bool

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [interest]",
	Short: "Retrieve grounded context for a career interest",
	Long: `Runs the three category queries (occupational data, employability
standards, example goals) for the given career interest and prints the
grouped context bundle. The index must have been built with
'iepgen index' first.`,
	Args: cobra.ExactArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output the bundle as JSON")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	interest := args[0]

	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}
	if indexerService == nil {
		return errors.New("indexer service not configured")
	}

	ctx := context.Background()

	// Load the persisted index before searching.
	if err := indexerService.Open(ctx); err != nil {
		if errors.Is(err, domain.ErrIndexNotBuilt) {
			return errors.New("no index found - run 'iepgen index' first")
		}
		return fmt.Errorf("opening index: %w", err)
	}

	bundle, err := retrievalService.Retrieve(ctx, interest)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if retrieveJSON {
		return outputBundleJSON(cmd, bundle)
	}
	return outputBundleText(cmd, bundle)
}

func outputBundleJSON(cmd *cobra.Command, bundle *domain.ContextBundle) error {
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal bundle: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputBundleText(cmd *cobra.Command, bundle *domain.ContextBundle) error {
	if bundle.Empty() {
		cmd.Printf("No context found for %q.\n", bundle.Interest)
		return nil
	}

	cmd.Printf("Context for %q (%d chunks):\n", bundle.Interest, bundle.Total())
	printGroup(cmd, "Occupations", bundle.Occupations)
	printGroup(cmd, "Standards", bundle.Standards)
	printGroup(cmd, "Examples", bundle.Examples)
	return nil
}

func printGroup(cmd *cobra.Command, heading string, chunks []domain.RetrievedChunk) {
	cmd.Println()
	if len(chunks) == 0 {
		cmd.Printf("%s: none\n", heading)
		return
	}

	cmd.Printf("%s:\n", heading)
	for i := range chunks {
		// Format: [N] Title - Section (Score)
		label := chunks[i].Provenance.Title
		if chunks[i].Provenance.Section != "" {
			label += " - " + chunks[i].Provenance.Section
		}

		cmd.Printf("  [%d] %s (%.2f)\n", i+1, label, chunks[i].Score)
		if chunks[i].Provenance.Tag != "" {
			cmd.Printf("      Source: %s\n", chunks[i].Provenance.Tag)
		}
		cmd.Printf("      %s\n", chunks[i].Content)
	}
}
