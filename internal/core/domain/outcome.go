package domain

import (
	"errors"
	"fmt"
	"time"
)

// IngestState is a stage of the ingestion state machine.
type IngestState string

// Ingestion states in pipeline order. Rejected and SkippedDuplicate are
// terminal short-circuits; Failed covers external capability errors.
const (
	StateReceived         IngestState = "received"
	StateValidated        IngestState = "validated"
	StateDeduplicated     IngestState = "deduplicated"
	StateChunked          IngestState = "chunked"
	StateEmbedded         IngestState = "embedded"
	StatePersisted        IngestState = "persisted"
	StateRejected         IngestState = "rejected"
	StateSkippedDuplicate IngestState = "skipped_duplicate"
	StateFailed           IngestState = "failed"
)

// IngestVia identifies which pipeline produced an outcome.
type IngestVia string

// Pipelines.
const (
	ViaDocument IngestVia = "document"
	ViaURL      IngestVia = "url"
	ViaVideo    IngestVia = "video"
	ViaYouTube  IngestVia = "youtube"
)

// Kind returns the source kind the pipeline ingests into.
func (v IngestVia) Kind() SourceKind {
	switch v {
	case ViaURL:
		return SourceScraped
	case ViaVideo, ViaYouTube:
		return SourceVideo
	default:
		return SourceDocuments
	}
}

// IngestOutcome is the typed result of one ingestion request.
// Pipelines never return raw errors; failures are carried in Err.
type IngestOutcome struct {
	// Via is the pipeline that handled the request.
	Via IngestVia

	// Kind is the target source kind.
	Kind SourceKind

	// SourceID is the file name, URL or video reference.
	SourceID string

	// State is the final state reached.
	State IngestState

	// Fingerprint is set once computed.
	Fingerprint Fingerprint

	// Chunks is the number of chunks persisted.
	Chunks int

	// Err is the cause for Rejected and Failed outcomes.
	Err error

	// Duration is the wall-clock time spent.
	Duration time.Duration
}

// Succeeded reports whether the content was persisted.
func (o *IngestOutcome) Succeeded() bool {
	return o.State == StatePersisted
}

// Duplicate reports whether the content was skipped as already ingested.
func (o *IngestOutcome) Duplicate() bool {
	return o.State == StateSkippedDuplicate
}

// Message returns the user-facing status line.
func (o *IngestOutcome) Message() string {
	switch o.State {
	case StatePersisted:
		return o.successMessage()
	case StateSkippedDuplicate:
		return o.duplicateMessage()
	case StateRejected:
		return o.rejectedMessage()
	default:
		return o.failedMessage()
	}
}

func (o *IngestOutcome) successMessage() string {
	switch o.Via {
	case ViaURL:
		return "✅ Website scraped and embedded successfully."
	case ViaVideo:
		return "✅ Video successfully transcribed and embedded."
	case ViaYouTube:
		return "✅ YouTube video successfully transcribed and indexed."
	default:
		return "✅ Document successfully embedded and saved."
	}
}

func (o *IngestOutcome) duplicateMessage() string {
	switch o.Via {
	case ViaURL:
		return "⚠️ URL already ingested (duplicate detected)."
	case ViaVideo, ViaYouTube:
		return "⚠️ Video already ingested (duplicate detected)."
	default:
		return "⚠️ File already ingested (duplicate detected)."
	}
}

func (o *IngestOutcome) rejectedMessage() string {
	if errors.Is(o.Err, ErrInvalidInput) {
		if o.Via == ViaURL {
			return "❌ Invalid URL"
		}
		return fmt.Sprintf("❌ Invalid input: %v", o.Err)
	}
	switch o.Via {
	case ViaURL:
		return "❌ No readable content found on the page."
	case ViaVideo:
		return "❌ No valid transcription found in video."
	case ViaYouTube:
		return "❌ Transcription failed or no speech detected."
	default:
		return "❌ No readable content found in the file."
	}
}

func (o *IngestOutcome) failedMessage() string {
	switch {
	case errors.Is(o.Err, ErrFetch):
		return fmt.Sprintf("❌ Failed to scrape URL: %v", o.Err)
	case o.Via == ViaYouTube:
		return fmt.Sprintf("❌ Failed to process YouTube video: %v", o.Err)
	case errors.Is(o.Err, ErrExtraction), errors.Is(o.Err, ErrUnsupportedFormat):
		return fmt.Sprintf("❌ Extraction failed: %v", o.Err)
	case errors.Is(o.Err, ErrTranscription):
		return fmt.Sprintf("❌ Transcription failed: %v", o.Err)
	case errors.Is(o.Err, ErrEmbeddingMismatch), errors.Is(o.Err, ErrEmbeddingUnavailable):
		return fmt.Sprintf("❌ Embedding failed: %v", o.Err)
	case errors.Is(o.Err, ErrPersistence):
		return fmt.Sprintf("❌ Persistence failed: %v", o.Err)
	default:
		return fmt.Sprintf("❌ Ingestion failed: %v", o.Err)
	}
}
