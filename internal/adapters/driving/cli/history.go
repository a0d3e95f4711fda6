package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history [conversation-id]",
	Short: "Show a conversation's history",
	Long:  `Show the questions and answers of a conversation, oldest first.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

var resetCmd = &cobra.Command{
	Use:   "reset [conversation-id]",
	Short: "Clear a conversation's history",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReset,
}

var conversationsCmd = &cobra.Command{
	Use:   "conversations",
	Short: "List conversations",
	Args:  cobra.NoArgs,
	RunE:  runConversations,
}

func init() {
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(conversationsCmd)
}

func conversationArg(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return "default"
}

func runHistory(cmd *cobra.Command, args []string) error {
	if conversationService == nil {
		return errors.New("conversation service not configured")
	}

	id := conversationArg(args)
	turns, err := conversationService.History(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	if historyJSON {
		data, err := json.MarshalIndent(turns, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(turns) == 0 {
		cmd.Printf("Conversation %q is empty.\n", id)
		return nil
	}

	summary, err := conversationService.Summary(cmd.Context(), id)
	if err == nil {
		cmd.Printf("Conversation %q: %d turns, mode %s\n\n", summary.ID, summary.TotalTurns, summary.Mode)
	}
	printTurns(cmd, turns)
	return nil
}

func printTurns(cmd *cobra.Command, turns []domain.Turn) {
	for _, t := range turns {
		switch t.Role {
		case domain.RoleUser:
			cmd.Printf("You: %s\n", t.Text)
		default:
			label := "Codex"
			if t.Mode != "" {
				label = fmt.Sprintf("Codex (%s)", t.Mode)
			}
			cmd.Printf("%s: %s\n", label, t.Text)
			if sources := t.Sources(); len(sources) > 0 {
				cmd.Printf("  Sources: %s\n", strings.Join(sources, ", "))
			}
			cmd.Println()
		}
	}
}

func runReset(cmd *cobra.Command, args []string) error {
	if conversationService == nil {
		return errors.New("conversation service not configured")
	}

	id := conversationArg(args)
	if err := conversationService.Reset(cmd.Context(), id); err != nil {
		return fmt.Errorf("failed to reset conversation: %w", err)
	}
	cmd.Printf("Conversation %q reset.\n", id)
	return nil
}

func runConversations(cmd *cobra.Command, _ []string) error {
	if conversationService == nil {
		return errors.New("conversation service not configured")
	}

	ids, err := conversationService.Conversations(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}
	if len(ids) == 0 {
		cmd.Println("No conversations yet.")
		return nil
	}

	for _, id := range ids {
		summary, err := conversationService.Summary(cmd.Context(), id)
		if err != nil {
			cmd.Printf("  %s\n", id)
			continue
		}
		cmd.Printf("  %s  (%d turns, %s)\n", id, summary.TotalTurns, summary.Mode)
		if n := len(summary.RecentTopics); n > 0 {
			cmd.Printf("    last: %s\n", summary.RecentTopics[n-1])
		}
	}
	return nil
}
