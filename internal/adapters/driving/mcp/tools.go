package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

// defaultRetrieveK is used when the retrieve tool is called without k.
const defaultRetrieveK = 5

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question       string `json:"question" jsonschema:"the question to ask about the persona"`
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"conversation to continue (default: default)"`
	Mode           string `json:"mode,omitempty" jsonschema:"answer style: interview, narrative or fast_facts"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	ConversationID string           `json:"conversation_id"`
	Answer         string           `json:"answer"`
	Mode           string           `json:"mode"`
	Sources        []string         `json:"sources"`
	Citations      []CitationOutput `json:"citations"`
	Degraded       bool             `json:"degraded,omitempty"`
	Warning        string           `json:"warning,omitempty"`
}

// CitationOutput references a chunk used to answer.
type CitationOutput struct {
	DocumentID string  `json:"document_id"`
	ChunkID    string  `json:"chunk_id"`
	Source     string  `json:"source"`
	Score      float64 `json:"score"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query    string  `json:"query" jsonschema:"text to find similar passages for"`
	K        int     `json:"k,omitempty" jsonschema:"maximum number of passages to return (default 5)"`
	MinScore float64 `json:"min_score,omitempty" jsonschema:"minimum cosine similarity (default 0)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Results []RetrievedOutput `json:"results"`
	Count   int               `json:"count"`
}

// RetrievedOutput represents a single retrieved passage.
type RetrievedOutput struct {
	DocumentID string  `json:"document_id"`
	ChunkID    string  `json:"chunk_id"`
	Source     string  `json:"source"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

// ConversationInput names a conversation.
type ConversationInput struct {
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"conversation id (default: default)"`
}

// HistoryOutput is the output schema for the history tool.
type HistoryOutput struct {
	ConversationID string       `json:"conversation_id"`
	Mode           string       `json:"mode"`
	Turns          []TurnOutput `json:"turns"`
}

// TurnOutput is one message in a conversation.
type TurnOutput struct {
	Role    string   `json:"role"`
	Text    string   `json:"text"`
	Mode    string   `json:"mode,omitempty"`
	Sources []string `json:"sources,omitempty"`
}

// ResetOutput is the output schema for the reset tool.
type ResetOutput struct {
	ConversationID string `json:"conversation_id"`
	Cleared        bool   `json:"cleared"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Ask a question about the persona, answered from the indexed personal documents",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Find the indexed passages most similar to a query",
	}, s.handleRetrieve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "history",
		Description: "Show the turns of a conversation",
	}, s.handleHistory)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reset",
		Description: "Clear the history of a conversation",
	}, s.handleReset)
}

// handleAsk handles the ask tool invocation.
// Timeouts and generation failures still produce an answer, reported as a warning.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	var mode domain.Mode
	if input.Mode != "" {
		m, err := domain.ParseMode(input.Mode)
		if err != nil {
			return nil, AskOutput{}, err
		}
		mode = m
	}

	answer, err := s.ports.Conversation.SubmitQuery(ctx, input.ConversationID, input.Question, mode)
	if err != nil && answer.Text == "" {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		ConversationID: answer.ConversationID,
		Answer:         answer.Text,
		Mode:           answer.Mode.String(),
		Sources:        answer.Sources(),
		Citations:      make([]CitationOutput, len(answer.Citations)),
		Degraded:       answer.Degraded,
	}
	if output.Sources == nil {
		output.Sources = []string{}
	}
	for i, c := range answer.Citations {
		output.Citations[i] = CitationOutput{
			DocumentID: c.DocumentID,
			ChunkID:    c.ChunkID,
			Source:     c.Source,
			Score:      c.Score,
		}
	}
	if err != nil {
		output.Warning = err.Error()
	}
	return nil, output, nil
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	k := input.K
	if k <= 0 {
		k = defaultRetrieveK
	}

	results, err := s.ports.Retrieval.Retrieve(ctx, input.Query, k, input.MinScore)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Results: make([]RetrievedOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		output.Results[i] = RetrievedOutput{
			DocumentID: results[i].Chunk.DocumentID,
			ChunkID:    results[i].Chunk.ID,
			Source:     results[i].Source,
			Score:      results[i].Score,
			Content:    results[i].Chunk.Content,
		}
	}
	return nil, output, nil
}

// handleHistory handles the history tool invocation.
func (s *Server) handleHistory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ConversationInput,
) (*mcp.CallToolResult, HistoryOutput, error) {
	summary, err := s.ports.Conversation.Summary(ctx, input.ConversationID)
	if err != nil {
		return nil, HistoryOutput{}, fmt.Errorf("summarising conversation: %w", err)
	}
	turns, err := s.ports.Conversation.History(ctx, summary.ID)
	if err != nil {
		return nil, HistoryOutput{}, fmt.Errorf("loading history: %w", err)
	}

	output := HistoryOutput{
		ConversationID: summary.ID,
		Mode:           summary.Mode.String(),
		Turns:          make([]TurnOutput, len(turns)),
	}
	for i := range turns {
		output.Turns[i] = TurnOutput{
			Role:    string(turns[i].Role),
			Text:    turns[i].Text,
			Mode:    turns[i].Mode.String(),
			Sources: turns[i].Sources(),
		}
	}
	return nil, output, nil
}

// handleReset handles the reset tool invocation.
func (s *Server) handleReset(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ConversationInput,
) (*mcp.CallToolResult, ResetOutput, error) {
	id := input.ConversationID
	if id == "" {
		id = "default"
	}
	if err := s.ports.Conversation.Reset(ctx, id); err != nil {
		if errors.Is(err, domain.ErrBusy) {
			return nil, ResetOutput{}, fmt.Errorf("conversation %s is answering a question: %w", id, err)
		}
		return nil, ResetOutput{}, err
	}
	return nil, ResetOutput{ConversationID: id, Cleared: true}, nil
}
