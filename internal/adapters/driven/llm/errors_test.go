package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

func TestUnavailable(t *testing.T) {
	cause := errors.New("timeout")
	err := Unavailable("openai", cause)
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "openai")
}

func TestClean(t *testing.T) {
	text, err := Clean("ollama", "  I use Go.\n")
	require.NoError(t, err)
	assert.Equal(t, "I use Go.", text)

	_, err = Clean("ollama", " \n\t")
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
}
