package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	retrieveK        int
	retrieveMinScore float64
	retrieveJSON     bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Show the chunks retrieved for a query",
	Long: `Run retrieval only and print the matching chunks with their scores.

Useful for checking what context a question would be answered from.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().IntVarP(&retrieveK, "top-k", "k", 0, "Maximum chunks to return (0 = configured top_k)")
	retrieveCmd.Flags().Float64Var(&retrieveMinScore, "min-score", -1, "Minimum score (negative = configured min_score)")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(retrieveCmd)
}

// retrievalDefaults returns top_k and min_score from settings, or built-in values.
func retrievalDefaults() (int, float64) {
	k, minScore := 5, 0.1
	if settingsService == nil {
		return k, minScore
	}
	settings, err := settingsService.Get()
	if err != nil {
		return k, minScore
	}
	if settings.Retrieval.TopK > 0 {
		k = settings.Retrieval.TopK
	}
	if settings.Retrieval.MinScore >= 0 {
		minScore = settings.Retrieval.MinScore
	}
	return k, minScore
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	query := strings.TrimSpace(strings.Join(args, " "))
	k, minScore := retrievalDefaults()
	if retrieveK > 0 {
		k = retrieveK
	}
	if retrieveMinScore >= 0 {
		minScore = retrieveMinScore
	}

	result, err := retrievalService.Retrieve(cmd.Context(), query, k, minScore)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if retrieveJSON {
		return printJSON(cmd, result)
	}

	if len(result) == 0 {
		cmd.Println("No matching chunks.")
		return nil
	}

	cmd.Printf("Results: %d\n\n", len(result))
	for i, r := range result {
		cmd.Printf("%d. [%.3f] %s\n", i+1, r.Score, r.Source)
		cmd.Printf("   %s\n\n", snippet(r.Chunk.Content, 200))
	}
	return nil
}

func snippet(s string, maxRunes int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}
