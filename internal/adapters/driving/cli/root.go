// Package cli provides the cobra command tree for the codex binary.
package cli

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/codex-cli/internal/core/ports/driving"
	"github.com/custodia-labs/codex-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services used by the commands. Wired by main through SetServices.
var (
	conversationService driving.ConversationService
	retrievalService    driving.RetrievalService
	ingestService       driving.IngestService
	knowledgeService    driving.KnowledgeBaseService
	settingsService     driving.SettingsService
	metricsHandler      http.Handler
)

var (
	verbose  bool
	jsonLogs bool
)

var rootCmd = &cobra.Command{
	Use:   "codex",
	Short: "Ask questions about a person, answered from their own documents",
	Long: `Codex indexes a personal corpus (resume, notes, essays) and answers
questions about its owner in their voice, citing the documents it used.

Ingest documents first, then ask questions or start a chat:
  codex ingest ~/Documents/about-me
  codex ask "What are your core strengths?"
  codex chat --mode narrative`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
		logger.SetJSON(jsonLogs)
	},
}

// Services groups the driving ports the CLI dispatches to.
type Services struct {
	Conversation driving.ConversationService
	Retrieval    driving.RetrievalService
	Ingest       driving.IngestService
	Knowledge    driving.KnowledgeBaseService
	Settings     driving.SettingsService
	Metrics      http.Handler
}

// SetServices wires the services used by the commands.
func SetServices(s Services) {
	conversationService = s.Conversation
	retrievalService = s.Retrieval
	ingestService = s.Ingest
	knowledgeService = s.Knowledge
	settingsService = s.Settings
	metricsHandler = s.Metrics
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command. Cancelling ctx stops long-running
// commands such as chat, ingest --watch and mcp serve.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Write logs as JSON")
}
