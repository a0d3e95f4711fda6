package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	indexJSON  bool
	indexForce bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect and manage the knowledge base",
	Long:  `Commands for inspecting, persisting and clearing the vector index.`,
	RunE:  runIndexInfo,
}

var indexInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show index statistics",
	RunE:  runIndexInfo,
}

var indexDocumentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List ingested documents",
	RunE:  runIndexDocuments,
}

var indexSaveCmd = &cobra.Command{
	Use:   "save [path]",
	Short: "Persist the index to disk",
	Long:  `Persist the index. Without a path the configured index path is used.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndexSave,
}

var indexLoadCmd = &cobra.Command{
	Use:   "load [path]",
	Short: "Load a persisted index",
	Long: `Replace the in-memory index with a persisted one.

The file must have been built with the same embedding model and dimension.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndexLoad,
}

var indexClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every indexed document",
	RunE:  runIndexClear,
}

func init() {
	indexCmd.PersistentFlags().BoolVar(&indexJSON, "json", false, "Output as JSON")
	indexClearCmd.Flags().BoolVar(&indexForce, "force", false, "Skip confirmation")

	indexCmd.AddCommand(indexInfoCmd)
	indexCmd.AddCommand(indexDocumentsCmd)
	indexCmd.AddCommand(indexSaveCmd)
	indexCmd.AddCommand(indexLoadCmd)
	indexCmd.AddCommand(indexClearCmd)
	rootCmd.AddCommand(indexCmd)
}

func pathArg(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return ""
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func runIndexInfo(cmd *cobra.Command, _ []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge base service not configured")
	}

	info, err := knowledgeService.Info(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get index info: %w", err)
	}
	if indexJSON {
		return printJSON(cmd, info)
	}

	cmd.Println("Knowledge Base")
	cmd.Println("==============")
	cmd.Printf("  Backend:   %s\n", info.Backend)
	cmd.Printf("  Documents: %d\n", info.Documents)
	cmd.Printf("  Chunks:    %d\n", info.Size)
	cmd.Printf("  Dimension: %d\n", info.Dimension)
	if info.Model != "" {
		cmd.Printf("  Model:     %s\n", info.Model)
	}
	return nil
}

func runIndexDocuments(cmd *cobra.Command, _ []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge base service not configured")
	}

	docs, err := knowledgeService.Documents(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if indexJSON {
		return printJSON(cmd, docs)
	}

	if len(docs) == 0 {
		cmd.Println("No documents ingested. Run 'codex ingest <dir>' to add some.")
		return nil
	}
	for _, d := range docs {
		title := d.Title
		if title == "" {
			title = d.URI
		}
		cmd.Printf("  %s  %-5s  %s\n", d.ID, d.Format, title)
	}
	cmd.Printf("\n%d documents\n", len(docs))
	return nil
}

func runIndexSave(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge base service not configured")
	}
	if err := knowledgeService.Save(cmd.Context(), pathArg(args)); err != nil {
		return fmt.Errorf("failed to save index: %w", err)
	}
	cmd.Println("Index saved.")
	return nil
}

func runIndexLoad(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge base service not configured")
	}
	if err := knowledgeService.Load(cmd.Context(), pathArg(args)); err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}
	if info, err := knowledgeService.Info(cmd.Context()); err == nil {
		cmd.Printf("Index loaded: %d chunks from %d documents.\n", info.Size, info.Documents)
	} else {
		cmd.Println("Index loaded.")
	}
	return nil
}

func runIndexClear(cmd *cobra.Command, _ []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge base service not configured")
	}

	if !indexForce {
		cmd.Print("Remove every indexed document? [y/N]: ")
		answer := strings.ToLower(readLine(bufio.NewReader(cmd.InOrStdin())))
		if answer != "y" && answer != "yes" {
			cmd.Println("Cancelled.")
			return nil
		}
	}

	if err := knowledgeService.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}
	cmd.Println("Knowledge base cleared.")
	return nil
}
