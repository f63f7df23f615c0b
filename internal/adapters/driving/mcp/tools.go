package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Query string `json:"query" jsonschema:"the question to answer from ingested sources"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer string        `json:"answer"`
	Origin string        `json:"origin,omitempty"`
	Failed bool          `json:"failed"`
	Chunks []ChunkOutput `json:"chunks,omitempty"`
}

// ChunkOutput is a context chunk used for an answer.
type ChunkOutput struct {
	Kind     string  `json:"kind"`
	SourceID string  `json:"source_id"`
	Distance float64 `json:"distance"`
	Text     string  `json:"text"`
}

// IngestInput is the input schema for the ingest_url and ingest_youtube tools.
type IngestInput struct {
	URL string `json:"url" jsonschema:"the http(s) URL to ingest"`
}

// IngestOutput is the output schema for the ingest tools.
type IngestOutput struct {
	Message     string `json:"message"`
	State       string `json:"state"`
	Kind        string `json:"kind"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Chunks      int    `json:"chunks"`
	Error       string `json:"error,omitempty"`
}

// StatsInput is the (empty) input schema for the source_stats tool.
type StatsInput struct{}

// StatsOutput is the output schema for the source_stats tool.
type StatsOutput struct {
	Sources []SourceStatsOutput `json:"sources"`
}

// SourceStatsOutput describes one source kind.
type SourceStatsOutput struct {
	Kind         string `json:"kind"`
	IndexExists  bool   `json:"index_exists"`
	Chunks       int    `json:"chunks"`
	Fingerprints int    `json:"fingerprints"`
	Model        string `json:"model,omitempty"`
	Dimensions   int    `json:"dimensions,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "ask",
		Description: "Answer a question from uploaded documents, scraped websites and " +
			"ingested videos, in that order, falling back to live internet search",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_url",
		Description: "Scrape the visible text of a web page and add it to the scraped source",
	}, s.handleIngestURL)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_youtube",
		Description: "Download, transcribe and add a YouTube video to the video source",
	}, s.handleIngestYouTube)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "source_stats",
		Description: "Report chunk and fingerprint counts for each source",
	}, s.handleSourceStats)
}

// handleAsk handles the ask tool invocation. A labelled failure is returned
// as a tool error result rather than a protocol error.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, AskOutput{}, errors.New("query is required")
	}

	answer := s.ports.Answer.Ask(ctx, input.Query)

	output := AskOutput{
		Answer: answer.Text,
		Origin: string(answer.Origin),
		Failed: answer.Failed(),
		Chunks: make([]ChunkOutput, len(answer.Chunks)),
	}
	for i, sc := range answer.Chunks {
		output.Chunks[i] = ChunkOutput{
			Kind:     string(sc.Chunk.Kind),
			SourceID: sc.Chunk.SourceID,
			Distance: sc.Distance,
			Text:     sc.Chunk.Content,
		}
	}

	if answer.Failed() {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: answer.Text}},
		}, output, nil
	}
	return nil, output, nil
}

// handleIngestURL handles the ingest_url tool invocation.
func (s *Server) handleIngestURL(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	return ingestResult(s.ports.Ingest.IngestURL(ctx, input.URL))
}

// handleIngestYouTube handles the ingest_youtube tool invocation.
func (s *Server) handleIngestYouTube(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	return ingestResult(s.ports.Ingest.IngestYouTube(ctx, input.URL))
}

func ingestResult(out *domain.IngestOutcome) (*mcp.CallToolResult, IngestOutput, error) {
	output := IngestOutput{
		Message:     out.Message(),
		State:       string(out.State),
		Kind:        string(out.Kind),
		Fingerprint: string(out.Fingerprint),
		Chunks:      out.Chunks,
	}
	if out.Err != nil {
		output.Error = out.Err.Error()
	}

	if out.Succeeded() || out.Duplicate() {
		return nil, output, nil
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: output.Message}},
	}, output, nil
}

// handleSourceStats handles the source_stats tool invocation.
func (s *Server) handleSourceStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, StatsOutput, error) {
	stats, err := s.ports.Ingest.Stats(ctx)
	if err != nil {
		return nil, StatsOutput{}, err
	}
	return nil, StatsOutput{Sources: statsOutput(stats)}, nil
}

func statsOutput(stats []domain.SourceStats) []SourceStatsOutput {
	out := make([]SourceStatsOutput, len(stats))
	for i, st := range stats {
		out[i] = SourceStatsOutput{
			Kind:         string(st.Kind),
			IndexExists:  st.IndexExists,
			Chunks:       st.Chunks,
			Fingerprints: st.Fingerprints,
			Model:        st.Stamp.Model,
			Dimensions:   st.Stamp.Dimensions,
		}
	}
	return out
}
