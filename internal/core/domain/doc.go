// Package domain defines the core business entities for recall.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SourceKind: One of the independent ingestion namespaces (documents, scraped, video)
//   - Fingerprint: Deterministic content hash used for deduplication
//   - Chunk: A bounded slice of source text, the unit of embedding and retrieval
//   - RetrievalResult: Ranked chunks returned by a source index
//   - IngestOutcome / Answer: Typed results handed to the presentation layer
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
