package mcp

import (
	"context"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

// mockConversationService is a mock implementation of driving.ConversationService.
type mockConversationService struct {
	answer   domain.Answer
	err      error
	turns    []domain.Turn
	summary  domain.ConversationSummary
	resetErr error

	lastID   string
	lastText string
	lastMode domain.Mode
	resetIDs []string
}

func (m *mockConversationService) SubmitQuery(
	_ context.Context,
	conversationID, text string,
	mode domain.Mode,
) (domain.Answer, error) {
	m.lastID = conversationID
	m.lastText = text
	m.lastMode = mode
	return m.answer, m.err
}

func (m *mockConversationService) History(_ context.Context, _ string) ([]domain.Turn, error) {
	return m.turns, m.err
}

func (m *mockConversationService) Reset(_ context.Context, conversationID string) error {
	m.resetIDs = append(m.resetIDs, conversationID)
	return m.resetErr
}

func (m *mockConversationService) SetMode(_ context.Context, _ string, _ domain.Mode) error {
	return m.err
}

func (m *mockConversationService) Summary(_ context.Context, conversationID string) (domain.ConversationSummary, error) {
	s := m.summary
	if s.ID == "" {
		s.ID = conversationID
	}
	return s, m.err
}

func (m *mockConversationService) Conversations(_ context.Context) ([]string, error) {
	return nil, m.err
}

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	results  domain.RetrievalResult
	err      error
	lastK    int
	lastMin  float64
	lastText string
}

func (m *mockRetrievalService) Retrieve(
	_ context.Context,
	query string,
	k int,
	minScore float64,
) (domain.RetrievalResult, error) {
	m.lastText = query
	m.lastK = k
	m.lastMin = minScore
	return m.results, m.err
}

// mockKnowledgeService is a mock implementation of driving.KnowledgeBaseService.
type mockKnowledgeService struct {
	info      domain.IndexInfo
	documents []domain.Document
	err       error
}

func (m *mockKnowledgeService) Info(_ context.Context) (domain.IndexInfo, error) {
	return m.info, m.err
}

func (m *mockKnowledgeService) Documents(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockKnowledgeService) Save(_ context.Context, _ string) error { return m.err }

func (m *mockKnowledgeService) Load(_ context.Context, _ string) error { return m.err }

func (m *mockKnowledgeService) Clear(_ context.Context) error { return m.err }

func newTestPorts() (*Ports, *mockConversationService, *mockRetrievalService) {
	conv := &mockConversationService{}
	ret := &mockRetrievalService{}
	return &Ports{Conversation: conv, Retrieval: ret}, conv, ret
}
