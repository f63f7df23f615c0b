package domain

// Document is the text extracted from a raw input, ready for ingestion.
type Document struct {
	// URI is the original location (file path or URL).
	URI string

	// Title is the human-readable title.
	Title string

	// Content is the full extracted text before chunking.
	Content string

	// Metadata contains normaliser-specific key-value pairs.
	Metadata map[string]any
}

// Provenance records where a chunk came from.
type Provenance struct {
	// SourceID is the file name, URL or video reference of the content item.
	SourceID string

	// Title is the human-readable title, if known.
	Title string
}

// Chunk is a contiguous, bounded slice of a content item's text.
// Chunks are immutable once created.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// Kind is the source kind whose index holds the chunk.
	Kind SourceKind

	// SourceID is the file name, URL or video reference the chunk came from.
	SourceID string

	// Fingerprint is the fingerprint of the content item.
	Fingerprint Fingerprint

	// Position is the 0-based window index within the content item.
	Position int

	// Sequence is the per-index insertion order, assigned on persist.
	Sequence int64

	// Content is the chunk text.
	Content string

	// Embedding is the vector representation. Empty until embedded.
	Embedding []float32
}

// ScoredChunk pairs a chunk with its distance to a query.
type ScoredChunk struct {
	Chunk Chunk

	// Distance is the squared Euclidean distance. Lower is more similar.
	Distance float64
}

// RetrievalResult is a sequence of chunks ordered by ascending distance.
type RetrievalResult []ScoredChunk

// Contents returns the chunk texts in ranked order.
func (r RetrievalResult) Contents() []string {
	out := make([]string, len(r))
	for i := range r {
		out[i] = r[i].Chunk.Content
	}
	return out
}
