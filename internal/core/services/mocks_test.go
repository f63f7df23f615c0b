package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/recall/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/postprocessors/chunker"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Texts containing a key of vectors embed to that vector; everything
// else embeds to fallback.
type mockEmbeddingService struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	fallback []float32
	model    string
	embedErr error
	batches  int
}

func (m *mockEmbeddingService) vectorFor(text string) []float32 {
	for key, v := range m.vectors {
		if strings.Contains(text, key) {
			return v
		}
	}
	if m.fallback != nil {
		return m.fallback
	}
	return []float32{10, 10, 10}
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vectorFor(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batches++
	m.mu.Unlock()
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i, t := range texts {
		result[i] = m.vectorFor(t)
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int { return 3 }

func (m *mockEmbeddingService) ModelName() string {
	if m.model != "" {
		return m.model
	}
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }

func (m *mockEmbeddingService) Close() error { return nil }

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	response string
	err      error
	prompts  []string
	opts     []driven.GenerateOptions
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLMService) ModelName() string { return "mock-llm" }

func (m *mockLLMService) Ping(_ context.Context) error { return nil }

func (m *mockLLMService) Close() error { return nil }

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// mockWebSearcher implements driven.WebSearcher for testing.
type mockWebSearcher struct {
	answer  string
	err     error
	queries []string
}

func (m *mockWebSearcher) Search(_ context.Context, query string) (string, error) {
	m.queries = append(m.queries, query)
	return m.answer, m.err
}

// mockRetriever implements Retriever for testing.
type mockRetriever struct {
	kind  domain.SourceKind
	hits  domain.RetrievalResult
	err   error
	calls int
}

func (m *mockRetriever) Kind() domain.SourceKind { return m.kind }

func (m *mockRetriever) Query(_ context.Context, _ string, _ int, threshold float64) (domain.RetrievalResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	var out domain.RetrievalResult
	for _, h := range m.hits {
		if h.Distance < threshold {
			out = append(out, h)
		}
	}
	return out, nil
}

// mockExtractor implements driven.TextExtractor for testing.
type mockExtractor struct {
	text  string
	err   error
	calls int
}

func (m *mockExtractor) Extract(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	text := m.text
	if text == "" {
		text = string(raw.Content)
	}
	return &domain.Document{URI: raw.URI, Content: text}, nil
}

// mockFetcher implements driven.PageFetcher for testing.
type mockFetcher struct {
	pages map[string]string
	err   error
	calls int
}

func (m *mockFetcher) FetchVisibleText(_ context.Context, url string) (*domain.Document, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Document{URI: url, Title: "page", Content: m.pages[url]}, nil
}

// mockTranscriber implements driven.Transcriber for testing.
type mockTranscriber struct {
	text  string
	err   error
	paths []string
}

func (m *mockTranscriber) Transcribe(_ context.Context, path string) (string, error) {
	m.paths = append(m.paths, path)
	return m.text, m.err
}

// mockDownloader implements driven.AudioDownloader for testing.
// Like yt-dlp it writes into dir and, on failure, leaves a partial file
// behind and returns no path.
type mockDownloader struct {
	err     error
	written []string
	calls   int
}

func (m *mockDownloader) DownloadAudio(_ context.Context, _ string, dir string) (string, error) {
	m.calls++
	name := "audio.mp3"
	if m.err != nil {
		name = "audio.webm.part"
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("audio"), 0o600); err != nil {
		return "", err
	}
	m.written = append(m.written, path)
	if m.err != nil {
		return "", m.err
	}
	return path, nil
}

// mockUploadStore implements driven.UploadStore for testing.
type mockUploadStore struct {
	dir  string
	kept []string
}

func (m *mockUploadStore) Keep(_ context.Context, _ domain.SourceKind, path string) (string, error) {
	m.kept = append(m.kept, path)
	return path, nil
}

func (m *mockUploadStore) ScratchDir() (string, error) {
	return m.dir, nil
}

// failingLedger implements driven.DedupLedger with configurable failures.
type failingLedger struct {
	*memory.Ledger
	containsErr error
	addErr      error
}

func (f *failingLedger) Contains(ctx context.Context, fp domain.Fingerprint) (bool, error) {
	if f.containsErr != nil {
		return false, f.containsErr
	}
	return f.Ledger.Contains(ctx, fp)
}

func (f *failingLedger) Add(ctx context.Context, fp domain.Fingerprint) error {
	if f.addErr != nil {
		return f.addErr
	}
	return f.Ledger.Add(ctx, fp)
}

// failingVectorStore wraps a memory store and fails every Add.
type failingVectorStore struct {
	*memory.VectorStore
	addErr error
}

func (f *failingVectorStore) Open(ctx context.Context, kind domain.SourceKind) (driven.VectorIndex, error) {
	idx, err := f.VectorStore.Open(ctx, kind)
	if err != nil {
		return nil, err
	}
	return &failingIndex{VectorIndex: idx, addErr: f.addErr}, nil
}

func (f *failingVectorStore) Create(
	ctx context.Context, kind domain.SourceKind, stamp domain.EmbeddingStamp,
) (driven.VectorIndex, error) {
	idx, err := f.VectorStore.Create(ctx, kind, stamp)
	if err != nil {
		return nil, err
	}
	return &failingIndex{VectorIndex: idx, addErr: f.addErr}, nil
}

type failingIndex struct {
	driven.VectorIndex
	addErr error
}

func (f *failingIndex) Add(_ context.Context, _ []domain.Chunk) error {
	return f.addErr
}

// --- Fixtures ---

// testIndex builds a SourceIndex over in-memory adapters.
func testIndex(kind domain.SourceKind, embedder driven.EmbeddingService) (*SourceIndex, *memory.VectorStore, *memory.Ledger) {
	store := memory.NewVectorStore()
	ledger := memory.NewLedger()
	return NewSourceIndex(kind, store, ledger, embedder, chunker.New(), memory.NewLocker()), store, ledger
}
