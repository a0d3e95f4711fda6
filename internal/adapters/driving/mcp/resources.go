package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for Codex resources.
	uriScheme = "codex://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "index",
		Name:        "index",
		Description: "Vector index statistics",
		MIMEType:    "application/json",
	}, s.handleIndexResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "Documents ingested into the knowledge base",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "conversations/{conversationId}",
		Name:        "conversation",
		Description: "Summary of a conversation",
		MIMEType:    "application/json",
	}, s.handleConversationResource)
}

// handleIndexResource returns index statistics.
func (s *Server) handleIndexResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Knowledge == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	info, err := s.ports.Knowledge.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading index info: %w", err)
	}

	return jsonResource(req.Params.URI, struct {
		Backend   string `json:"backend"`
		Size      int    `json:"size"`
		Dimension int    `json:"dimension"`
		Model     string `json:"model"`
		Documents int    `json:"documents"`
	}{
		Backend:   info.Backend,
		Size:      info.Size,
		Dimension: info.Dimension,
		Model:     info.Model,
		Documents: info.Documents,
	})
}

// handleDocumentsResource lists ingested documents.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Knowledge == nil {
		return jsonResource(req.Params.URI, []struct{}{})
	}

	docs, err := s.ports.Knowledge.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	type docInfo struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		URI    string `json:"uri"`
		Format string `json:"format"`
	}

	infos := make([]docInfo, len(docs))
	for i := range docs {
		infos[i] = docInfo{
			ID:     docs[i].ID,
			Title:  docs[i].Title,
			URI:    docs[i].URI,
			Format: string(docs[i].Format),
		}
	}
	return jsonResource(req.Params.URI, infos)
}

// handleConversationResource returns a conversation summary.
func (s *Server) handleConversationResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := extractConversationID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	summary, err := s.ports.Conversation.Summary(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("summarising conversation: %w", err)
	}

	topics := summary.RecentTopics
	if topics == nil {
		topics = []string{}
	}
	return jsonResource(req.Params.URI, struct {
		ID           string   `json:"id"`
		TotalTurns   int      `json:"total_turns"`
		Mode         string   `json:"mode"`
		RecentTopics []string `json:"recent_topics"`
	}{
		ID:           summary.ID,
		TotalTurns:   summary.TotalTurns,
		Mode:         summary.Mode.String(),
		RecentTopics: topics,
	})
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractConversationID extracts the id from a URI like codex://conversations/{conversationId}.
func extractConversationID(uri string) string {
	const prefix = uriScheme + "conversations/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	return strings.TrimPrefix(uri, prefix)
}
