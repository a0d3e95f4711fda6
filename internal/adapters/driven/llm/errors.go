package llm

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

// Unavailable wraps a transport or API error as ErrGenerationUnavailable.
func Unavailable(provider string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrGenerationUnavailable, provider, err)
}

// Clean trims a completion and rejects empty output.
func Clean(provider, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", Unavailable(provider, fmt.Errorf("empty completion"))
	}
	return text, nil
}
