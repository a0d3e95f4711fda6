package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "List answer modes",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, m := range domain.AllModes() {
			cmd.Printf("  %-11s %s - %s\n", m, m.Name(), m.Description())
		}
	},
}

func init() {
	rootCmd.AddCommand(modesCmd)
}
