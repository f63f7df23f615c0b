// Package mcp provides an MCP (Model Context Protocol) server adapter for recall.
// It lets AI assistants ask questions against ingested sources and add new
// web pages and YouTube videos.
package mcp

import "errors"

var (
	// ErrMissingAnswerService is returned when the answer service is not provided.
	ErrMissingAnswerService = errors.New("mcp: answer service is required")

	// ErrMissingIngestionService is returned when the ingestion service is not provided.
	ErrMissingIngestionService = errors.New("mcp: ingestion service is required")
)
