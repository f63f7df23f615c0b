package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates no normaliser can extract text from the input.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrConfigNotFound indicates a required setting is missing.
	ErrConfigNotFound = errors.New("configuration not found")

	// Ingestion Errors.

	// ErrEmptyContent indicates the acquired text is empty or below the
	// minimum meaningful length for its source kind.
	ErrEmptyContent = errors.New("empty content")

	// ErrDuplicateContent indicates the fingerprint is already in the ledger.
	// It is a skip outcome rather than a failure.
	ErrDuplicateContent = errors.New("duplicate content")

	// ErrExtraction indicates text could not be extracted from a document.
	ErrExtraction = errors.New("text extraction failed")

	// ErrFetch indicates a web page could not be fetched.
	ErrFetch = errors.New("fetch failed")

	// ErrDownload indicates remote audio could not be downloaded.
	ErrDownload = errors.New("download failed")

	// ErrTranscription indicates speech-to-text failed.
	ErrTranscription = errors.New("transcription failed")

	// ErrPersistence indicates the vector index or ledger could not be written.
	ErrPersistence = errors.New("persistence failed")

	// Index Errors.

	// ErrIndexNotFound indicates nothing has been ingested for a source kind yet.
	// Queries treat this as an expected state.
	ErrIndexNotFound = errors.New("index not found")

	// ErrEmbeddingMismatch indicates an index was built with a different
	// embedding model or dimension than the one in use.
	ErrEmbeddingMismatch = errors.New("embedding mismatch")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured or failed.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Answer Errors.

	// ErrNoContext indicates no source kind produced admissible chunks.
	ErrNoContext = errors.New("no admissible context")

	// ErrGeneration indicates the language model call failed.
	ErrGeneration = errors.New("generation failed")

	// ErrSearchFallback indicates the live internet search fallback failed.
	ErrSearchFallback = errors.New("internet search fallback failed")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)
