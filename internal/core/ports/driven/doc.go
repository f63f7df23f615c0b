// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - VectorStore / VectorIndex: Per-source-kind on-disk nearest-neighbour index
//   - DedupLedger: Persisted fingerprint set, one per source kind
//   - Locker: Per-source-kind write serialisation
//   - EmbeddingService: Generates vector embeddings
//   - ChunkSplitter: Fixed-window text splitting
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the matching pipeline or stage reports a typed failure:
//
//   - TextExtractor: Document text extraction. Without it, document ingestion fails.
//   - PageFetcher: Web page fetching. Without it, URL ingestion fails.
//   - Transcriber / AudioDownloader: Video and YouTube ingestion.
//   - LLMService: Answer generation. Without it, answers from stored content fail.
//   - WebSearcher: Live search fallback. Without it, unanswerable queries fail.
//   - HistoryStore: Question and ingestion history.
//   - UploadStore: Keeps copies of ingested files.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
