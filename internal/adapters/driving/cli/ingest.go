package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

var (
	ingestFormat string
	ingestWatch  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Ingest documents into the knowledge base",
	Long: `Ingest documents so they can be used to answer questions.

Each path may be a file or a directory. Directories are walked recursively
and every supported file is ingested (txt, md, html, pdf, docx).
Re-ingesting a file replaces its previous chunks.

Use --watch with a single directory to keep re-ingesting files as they change.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestFormat, "format", "f", "auto",
		"Format for files given directly: auto, txt, md, html, pdf or docx")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "Watch a directory and re-ingest on change")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	format, err := domain.ParseFormat(ingestFormat)
	if err != nil {
		return fmt.Errorf("%w: format %q", err, ingestFormat)
	}

	if ingestWatch {
		return runIngestWatch(cmd, args)
	}

	ctx := cmd.Context()
	var report domain.IngestReport
	files := make(map[string][]byte)

	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			report.Add(domain.IngestStatus{Path: path, Err: err})
			continue
		}
		if info.IsDir() {
			dirReport, err := ingestService.IngestDirectory(ctx, path)
			if err != nil {
				return fmt.Errorf("failed to ingest %s: %w", path, err)
			}
			report.Statuses = append(report.Statuses, dirReport.Statuses...)
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			report.Add(domain.IngestStatus{Path: path, Err: err})
			continue
		}
		files[path] = data
	}

	if len(files) > 0 {
		fileReport := ingestService.Ingest(ctx, files, format)
		report.Statuses = append(report.Statuses, fileReport.Statuses...)
	}

	printIngestReport(cmd, report)

	if len(report.Statuses) > 0 && len(report.Succeeded()) == 0 {
		return errors.New("no documents were ingested")
	}
	return nil
}

func runIngestWatch(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("--watch takes exactly one directory")
	}
	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, dir)
	}

	report, err := ingestService.IngestDirectory(cmd.Context(), dir)
	if err != nil {
		return fmt.Errorf("failed to ingest %s: %w", dir, err)
	}
	printIngestReport(cmd, report)

	cmd.Printf("Watching %s for changes. Press Ctrl+C to stop.\n", dir)
	err = ingestService.Watch(cmd.Context(), dir, func(r domain.IngestReport) {
		printIngestReport(cmd, r)
	})
	if err != nil && cmd.Context().Err() == nil {
		return err
	}
	return nil
}

func printIngestReport(cmd *cobra.Command, report domain.IngestReport) {
	if len(report.Statuses) == 0 {
		cmd.Println("No supported documents found.")
		return
	}

	for _, s := range report.Statuses {
		name := filepath.Base(s.Path)
		if s.OK() {
			cmd.Printf("  ok    %s (%s, %d chunks)\n", name, s.Format, s.Chunks)
		} else {
			cmd.Printf("  fail  %s: %v\n", name, s.Err)
		}
	}
	cmd.Printf("Ingested %d of %d documents, %d chunks.\n",
		len(report.Succeeded()), len(report.Statuses), report.TotalChunks())
}
