package domain

import "time"

// Retrieval is the output of the retrieval cascade.
// Exactly one of Context (with Chunks) or WebAnswer is populated.
type Retrieval struct {
	// Origin is the winning source kind, or OriginInternet.
	Origin Origin

	// Context is the admitted chunk texts joined by blank lines.
	Context string

	// Chunks are the admitted chunks in ranked order.
	Chunks RetrievalResult

	// WebAnswer is the live search output when no source was admissible.
	WebAnswer string

	// Skipped lists sources passed over and why.
	Skipped []SourceSkip
}

// SourceSkip records why the cascade moved past a source kind.
type SourceSkip struct {
	Kind   SourceKind
	Reason error
}

// Answer is the rendered result of a query.
type Answer struct {
	// Query is the user question.
	Query string

	// Origin is where the answer came from. Empty when the query failed
	// before any source was chosen.
	Origin Origin

	// Text is the display text: a tagged answer or a labelled failure.
	Text string

	// Chunks are the chunks used as context, if any.
	Chunks RetrievalResult

	// Err is the terminal error, if any.
	Err error

	// AskedAt is when the query was received.
	AskedAt time.Time
}

// Failed reports whether the answer is a labelled failure.
func (a *Answer) Failed() bool {
	return a.Err != nil
}

// HistoryEntry is a persisted question/answer exchange.
type HistoryEntry struct {
	ID       int64
	Query    string
	Answer   string
	Origin   Origin
	Failed   bool
	AskedAt  time.Time
	Duration time.Duration
}

// IngestRecord is a persisted ingestion attempt.
type IngestRecord struct {
	ID          int64
	Via         IngestVia
	Kind        SourceKind
	SourceID    string
	State       IngestState
	Fingerprint Fingerprint
	Chunks      int
	Message     string
	CreatedAt   time.Time
}
