package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

var (
	askMode         string
	askConversation string
	askJSON         bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question",
	Long: `Ask a question about the persona and print the answer with its sources.

The question is answered from the ingested documents using the selected mode.
Consecutive asks in the same conversation share history, so follow-up
questions can refer to earlier answers.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askMode, "mode", "m", "", "Answer mode: interview, narrative or fast_facts")
	askCmd.Flags().StringVarP(&askConversation, "conversation", "c", "default", "Conversation id")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(askCmd)
}

// askResult is the JSON shape printed by ask --json.
type askResult struct {
	ConversationID string            `json:"conversation_id"`
	Answer         string            `json:"answer"`
	Sources        []string          `json:"sources"`
	Citations      []domain.Citation `json:"citations,omitempty"`
	Mode           domain.Mode       `json:"mode"`
	Degraded       bool              `json:"degraded,omitempty"`
	Warning        string            `json:"warning,omitempty"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	if conversationService == nil {
		return errors.New("conversation service not configured")
	}

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	var mode domain.Mode
	if askMode != "" {
		m, err := domain.ParseMode(askMode)
		if err != nil {
			return err
		}
		mode = m
	}

	answer, err := conversationService.SubmitQuery(cmd.Context(), askConversation, question, mode)
	if err != nil && answer.Text == "" {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		out := askResult{
			ConversationID: answer.ConversationID,
			Answer:         answer.Text,
			Sources:        answer.Sources(),
			Citations:      answer.Citations,
			Mode:           answer.Mode,
			Degraded:       answer.Degraded,
		}
		if out.Sources == nil {
			out.Sources = []string{}
		}
		if err != nil {
			out.Warning = err.Error()
		}
		data, jerr := json.MarshalIndent(out, "", "  ")
		if jerr != nil {
			return fmt.Errorf("failed to marshal answer: %w", jerr)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Render())
	if answer.Degraded {
		cmd.Println()
		cmd.Println("(fallback answer: the language model was unavailable)")
	}
	if err != nil {
		cmd.Printf("Warning: %v\n", err)
	}
	return nil
}
