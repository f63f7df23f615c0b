package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	uriScheme = "recall://"

	// historyLimit bounds the exchanges listed by the history resource.
	historyLimit = 50
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "sources",
		Name:        "sources",
		Description: "Chunk and fingerprint counts for each source",
		MIMEType:    "application/json",
	}, s.handleSourcesResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "history",
		Name:        "history",
		Description: "Recent questions and answers, newest first",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)
}

// handleSourcesResource returns the per-kind source stats.
func (s *Server) handleSourcesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	stats, err := s.ports.Ingest.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading source stats: %w", err)
	}
	return jsonResource(req.Params.URI, statsOutput(stats))
}

// historyEntry is the JSON shape of one exchange.
type historyEntry struct {
	Query   string `json:"query"`
	Answer  string `json:"answer"`
	Origin  string `json:"origin,omitempty"`
	Failed  bool   `json:"failed"`
	AskedAt string `json:"asked_at"`
}

// handleHistoryResource returns recent exchanges.
func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	entries, err := s.ports.Answer.History(ctx, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	out := make([]historyEntry, len(entries))
	for i, e := range entries {
		out[i] = historyEntry{
			Query:   e.Query,
			Answer:  e.Answer,
			Origin:  string(e.Origin),
			Failed:  e.Failed,
			AskedAt: e.AskedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
	}
	return jsonResource(req.Params.URI, out)
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
