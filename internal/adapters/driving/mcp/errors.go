// Package mcp provides an MCP (Model Context Protocol) server adapter for Codex.
// It lets AI assistants ask questions about the persona and query the
// indexed corpus directly.
package mcp

import "errors"

var (
	// ErrMissingConversationService is returned when the conversation service is not provided.
	ErrMissingConversationService = errors.New("mcp: conversation service is required")

	// ErrMissingRetrievalService is returned when the retrieval service is not provided.
	ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
)
