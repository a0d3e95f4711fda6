package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

func TestNewPorts(t *testing.T) {
	conv := &MockConversationService{}
	kb := &MockKnowledgeService{}

	ports := NewPorts(conv, kb)

	require.NotNil(t, ports)
	assert.Equal(t, conv, ports.Conversation)
	assert.Equal(t, kb, ports.Knowledge)
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name  string
		ports *Ports
		want  error
	}{
		{"nil ports", nil, ErrInvalidPorts},
		{"missing conversation", &Ports{Knowledge: &MockKnowledgeService{}}, ErrMissingConversationService},
		{"invalid mode", &Ports{Conversation: &MockConversationService{}, Mode: "poetry"}, ErrInvalidPorts},
		{"conversation only", &Ports{Conversation: &MockConversationService{}}, nil},
		{
			"everything",
			&Ports{
				Conversation:   &MockConversationService{},
				Knowledge:      &MockKnowledgeService{},
				ConversationID: "job-prep",
				Mode:           domain.ModeFastFacts,
			},
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPorts_ConversationID(t *testing.T) {
	assert.Equal(t, "default", (&Ports{}).conversationID())
	assert.Equal(t, "c1", (&Ports{ConversationID: "c1"}).conversationID())
}
