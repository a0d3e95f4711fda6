package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/codex-cli/internal/adapters/driving/tui"
	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

var (
	chatMode         string
	chatConversation string
	chatPlain        bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Start an interactive conversation with the persona.

On a terminal this launches the full-screen chat UI. When input is piped,
or with --plain, a line-based prompt is used instead.

Chat UI controls:
  Enter    - Ask
  Tab      - Cycle answer mode
  Ctrl+R   - Reset the conversation
  Ctrl+O   - Browse ingested documents
  F1       - Help
  Ctrl+C   - Quit

Plain prompt commands:
  /mode <name>  - Switch answer mode
  /reset        - Clear the conversation
  /history      - Show the conversation so far
  /quit         - Exit`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatMode, "mode", "m", "", "Answer mode: interview, narrative or fast_facts")
	chatCmd.Flags().StringVarP(&chatConversation, "conversation", "c", "default", "Conversation id")
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "Use the line-based prompt instead of the chat UI")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if conversationService == nil {
		return errors.New("conversation service not configured")
	}

	var mode domain.Mode
	if chatMode != "" {
		m, err := domain.ParseMode(chatMode)
		if err != nil {
			return err
		}
		mode = m
	}

	if !chatPlain && isTerminal(cmd) {
		return runChatTUI(cmd, mode)
	}
	return runChatREPL(cmd, mode)
}

func isTerminal(cmd *cobra.Command) bool {
	in, ok := cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(in.Fd())) {
		return false
	}
	out, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(out.Fd()))
}

func runChatTUI(cmd *cobra.Command, mode domain.Mode) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	ports := tui.NewPorts(conversationService, knowledgeService)
	ports.ConversationID = chatConversation
	ports.Mode = mode

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func runChatREPL(cmd *cobra.Command, mode domain.Mode) error {
	ctx := cmd.Context()

	if mode != "" {
		if err := conversationService.SetMode(ctx, chatConversation, mode); err != nil {
			return err
		}
	}
	summary, err := conversationService.Summary(ctx, chatConversation)
	if err != nil {
		return fmt.Errorf("failed to load conversation: %w", err)
	}

	cmd.Printf("Codex chat (%s). Type /quit to exit.\n", summary.Mode)
	if summary.TotalTurns > 0 {
		cmd.Printf("Resuming conversation %q with %d turns.\n", summary.ID, summary.TotalTurns)
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			cmd.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			done, err := chatCommand(cmd, line)
			if err != nil {
				cmd.Printf("Error: %v\n", err)
			}
			if done {
				return nil
			}
			continue
		}

		answer, err := conversationService.SubmitQuery(ctx, chatConversation, line, "")
		if err != nil && answer.Text == "" {
			cmd.Printf("Error: %v\n", err)
			continue
		}
		cmd.Println(answer.Render())
		if answer.Degraded {
			cmd.Println("(fallback answer)")
		}
		if err != nil {
			cmd.Printf("Warning: %v\n", err)
		}
		cmd.Println()
	}
}

// chatCommand handles a slash command. It reports whether the chat should end.
func chatCommand(cmd *cobra.Command, line string) (bool, error) {
	ctx := cmd.Context()
	fields := strings.Fields(line)

	switch fields[0] {
	case "/quit", "/exit":
		return true, nil

	case "/reset":
		if err := conversationService.Reset(ctx, chatConversation); err != nil {
			return false, err
		}
		cmd.Println("Conversation reset.")

	case "/mode":
		if len(fields) < 2 {
			summary, err := conversationService.Summary(ctx, chatConversation)
			if err != nil {
				return false, err
			}
			cmd.Printf("Current mode: %s\n", summary.Mode)
			return false, nil
		}
		mode, err := domain.ParseMode(fields[1])
		if err != nil {
			return false, err
		}
		if err := conversationService.SetMode(ctx, chatConversation, mode); err != nil {
			return false, err
		}
		cmd.Println(mode.SwitchMessage())

	case "/history":
		turns, err := conversationService.History(ctx, chatConversation)
		if err != nil {
			return false, err
		}
		printTurns(cmd, turns)

	default:
		return false, fmt.Errorf("unknown command %s", fields[0])
	}
	return false, nil
}
