package domain

import "strconv"

// SourceKind identifies an independent ingestion and retrieval namespace.
// Each kind owns exactly one dedup ledger and one vector index.
type SourceKind string

// Available source kinds.
const (
	// SourceDocuments holds uploaded files (PDF, DOCX, PPTX, text).
	SourceDocuments SourceKind = "documents"

	// SourceScraped holds visible text scraped from web pages.
	SourceScraped SourceKind = "scraped"

	// SourceVideo holds transcripts of uploaded videos and YouTube videos.
	SourceVideo SourceKind = "video"
)

// CascadeOrder returns the source kinds in retrieval priority order.
func CascadeOrder() []SourceKind {
	return []SourceKind{SourceDocuments, SourceScraped, SourceVideo}
}

// IsValid returns true if the source kind is recognised.
func (k SourceKind) IsValid() bool {
	switch k {
	case SourceDocuments, SourceScraped, SourceVideo:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k SourceKind) String() string {
	return string(k)
}

// AnswerTag returns the provenance label prefixed to answers from this kind.
func (k SourceKind) AnswerTag() string {
	switch k {
	case SourceDocuments:
		return "📄 Answer (from uploaded documents)"
	case SourceScraped:
		return "🌐 Answer (from scraped websites)"
	case SourceVideo:
		return "🎬 Answer (from ingested videos)"
	default:
		return "Answer"
	}
}

// MinContentLength returns the minimum trimmed text length accepted for ingestion.
func (k SourceKind) MinContentLength() int {
	if k == SourceVideo {
		return 30
	}
	return 20
}

// Origin identifies where an answer came from. It is a source kind
// or the internet fallback.
type Origin string

// OriginInternet tags answers produced by the live search fallback.
const OriginInternet Origin = "internet"

// OriginOf converts a source kind to an answer origin.
func OriginOf(kind SourceKind) Origin {
	return Origin(kind)
}

// InternetAnswerTag labels answers produced by the live search fallback.
const InternetAnswerTag = "🌐 **Answer (via Internet Search):**"

// EmbeddingStamp identifies the embedding function an index was built with.
// All vectors in one index share the same stamp.
type EmbeddingStamp struct {
	// Model is the embedding model name.
	Model string

	// Dimensions is the vector size.
	Dimensions int
}

// Matches reports whether two stamps describe the same embedding space.
// A zero Dimensions on either side matches any dimension.
func (s EmbeddingStamp) Matches(other EmbeddingStamp) bool {
	if s.Model != other.Model {
		return false
	}
	if s.Dimensions == 0 || other.Dimensions == 0 {
		return true
	}
	return s.Dimensions == other.Dimensions
}

// String returns "model/dimensions".
func (s EmbeddingStamp) String() string {
	return s.Model + "/" + strconv.Itoa(s.Dimensions)
}

// SourceStats summarises the persisted state of one source kind.
type SourceStats struct {
	// Kind is the source kind.
	Kind SourceKind

	// IndexExists is false until the first successful ingestion.
	IndexExists bool

	// Chunks is the number of chunks in the vector index.
	Chunks int

	// Fingerprints is the number of ledger entries.
	Fingerprints int

	// Stamp is the embedding stamp recorded at index creation.
	Stamp EmbeddingStamp
}
