package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// IngestionService runs the four ingestion pipelines. Each pipeline
// validates its input, fingerprints it, skips duplicates, acquires text
// and hands it to the SourceIndex for its kind.
type IngestionService struct {
	indexes     map[domain.SourceKind]*SourceIndex
	hasher      *ContentHasher
	extractor   driven.TextExtractor
	fetcher     driven.PageFetcher
	transcriber driven.Transcriber
	downloader  driven.AudioDownloader
	uploads     driven.UploadStore
	history     driven.HistoryStore
	now         func() time.Time
}

// NewIngestionService creates an ingestion service over the given indexes.
// Capabilities are attached with the Set methods; a pipeline whose
// capability is missing fails with a descriptive error.
func NewIngestionService(indexes ...*SourceIndex) *IngestionService {
	m := make(map[domain.SourceKind]*SourceIndex, len(indexes))
	for _, idx := range indexes {
		m[idx.Kind()] = idx
	}
	return &IngestionService{
		indexes: m,
		hasher:  NewContentHasher(),
		now:     time.Now,
	}
}

// SetExtractor sets the document text extractor.
func (s *IngestionService) SetExtractor(e driven.TextExtractor) { s.extractor = e }

// SetFetcher sets the web page fetcher.
func (s *IngestionService) SetFetcher(f driven.PageFetcher) { s.fetcher = f }

// SetTranscriber sets the speech-to-text backend.
func (s *IngestionService) SetTranscriber(t driven.Transcriber) { s.transcriber = t }

// SetDownloader sets the YouTube audio downloader.
func (s *IngestionService) SetDownloader(d driven.AudioDownloader) { s.downloader = d }

// SetUploadStore sets where uploaded files are kept.
func (s *IngestionService) SetUploadStore(u driven.UploadStore) { s.uploads = u }

// SetHistoryStore sets where ingestion records are written.
func (s *IngestionService) SetHistoryStore(h driven.HistoryStore) { s.history = h }

// IngestDocument ingests a local document file.
func (s *IngestionService) IngestDocument(ctx context.Context, path string) *domain.IngestOutcome {
	out, idx := s.begin(ctx, domain.ViaDocument, path)
	defer s.finish(ctx, out, s.now())
	if idx == nil {
		return out
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return reject(out, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
	}
	if s.extractor == nil {
		return fail(out, fmt.Errorf("%w: no text extractor configured", domain.ErrExtraction))
	}

	out.Fingerprint = s.hasher.HashBytes(content)
	if s.skipDuplicate(ctx, out, idx) {
		return out
	}

	stored := s.keep(ctx, out.Kind, path)
	doc, err := s.extractor.Extract(ctx, &domain.RawDocument{URI: stored, Content: content})
	if err != nil {
		if !errors.Is(err, domain.ErrUnsupportedFormat) && !errors.Is(err, domain.ErrExtraction) {
			err = fmt.Errorf("%w: %w", domain.ErrExtraction, err)
		}
		return fail(out, err)
	}

	title := doc.Title
	if title == "" {
		title = filepath.Base(path)
	}
	return s.store(ctx, out, idx, doc.Content, domain.Provenance{SourceID: out.SourceID, Title: title})
}

// IngestURL scrapes a web page and ingests its visible text.
func (s *IngestionService) IngestURL(ctx context.Context, rawURL string) *domain.IngestOutcome {
	rawURL = strings.TrimSpace(rawURL)
	out, idx := s.begin(ctx, domain.ViaURL, rawURL)
	defer s.finish(ctx, out, s.now())
	if idx == nil {
		return out
	}

	if !validWebURL(rawURL) {
		return reject(out, fmt.Errorf("%w: %q is not an http(s) URL", domain.ErrInvalidInput, rawURL))
	}
	if s.fetcher == nil {
		return fail(out, fmt.Errorf("%w: no page fetcher configured", domain.ErrFetch))
	}

	doc, err := s.fetcher.FetchVisibleText(ctx, rawURL)
	if err != nil {
		if !errors.Is(err, domain.ErrFetch) {
			err = fmt.Errorf("%w: %w", domain.ErrFetch, err)
		}
		return fail(out, err)
	}
	if !idx.Acceptable(doc.Content) {
		return reject(out, domain.ErrEmptyContent)
	}
	out.State = domain.StateValidated

	// Pages are fingerprinted on their visible text, so cosmetic markup
	// changes do not defeat deduplication.
	out.Fingerprint = s.hasher.HashText(doc.Content)
	if s.skipDuplicate(ctx, out, idx) {
		return out
	}

	return s.store(ctx, out, idx, doc.Content, domain.Provenance{SourceID: rawURL, Title: doc.Title})
}

// IngestVideo transcribes a local video or audio file and ingests the transcript.
func (s *IngestionService) IngestVideo(ctx context.Context, path string) *domain.IngestOutcome {
	out, idx := s.begin(ctx, domain.ViaVideo, path)
	defer s.finish(ctx, out, s.now())
	if idx == nil {
		return out
	}

	fp, err := s.hasher.HashFile(path)
	if err != nil {
		return reject(out, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
	}
	if s.transcriber == nil {
		return fail(out, fmt.Errorf("%w: no transcriber configured", domain.ErrTranscription))
	}

	out.Fingerprint = fp
	if s.skipDuplicate(ctx, out, idx) {
		return out
	}

	stored := s.keep(ctx, out.Kind, path)
	transcript, err := s.transcribe(ctx, stored)
	if err != nil {
		return fail(out, err)
	}
	return s.store(ctx, out, idx, transcript, domain.Provenance{SourceID: out.SourceID, Title: filepath.Base(path)})
}

// IngestYouTube downloads the audio track of a YouTube video, transcribes
// it and ingests the transcript. The downloaded audio is always removed.
func (s *IngestionService) IngestYouTube(ctx context.Context, rawURL string) *domain.IngestOutcome {
	rawURL = strings.TrimSpace(rawURL)
	out, idx := s.begin(ctx, domain.ViaYouTube, rawURL)
	defer s.finish(ctx, out, s.now())
	if idx == nil {
		return out
	}

	id, ok := YouTubeID(rawURL)
	if !ok {
		return reject(out, fmt.Errorf("%w: %q is not a YouTube video URL", domain.ErrInvalidInput, rawURL))
	}
	if s.downloader == nil {
		return fail(out, fmt.Errorf("%w: no audio downloader configured", domain.ErrDownload))
	}
	if s.transcriber == nil {
		return fail(out, fmt.Errorf("%w: no transcriber configured", domain.ErrTranscription))
	}

	// Fingerprinted by video id so a re-submission is caught before downloading.
	out.Fingerprint = s.hasher.HashReference("youtube", id)
	if s.skipDuplicate(ctx, out, idx) {
		return out
	}

	scratch := os.TempDir()
	if s.uploads != nil {
		if d, err := s.uploads.ScratchDir(); err == nil {
			scratch = d
		} else {
			logger.Warn("Falling back to temp dir for download: %v", err)
		}
	}

	// yt-dlp leaves partial and pre-conversion files behind on failure, so
	// each download gets its own directory and the whole directory goes.
	dir, err := os.MkdirTemp(scratch, "yt-*")
	if err != nil {
		return fail(out, fmt.Errorf("%w: creating download dir: %w", domain.ErrDownload, err))
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			logger.Warn("Failed to remove download dir %s: %v", dir, rmErr)
		}
	}()

	audio, err := s.downloader.DownloadAudio(ctx, rawURL, dir)
	if err != nil {
		if !errors.Is(err, domain.ErrDownload) {
			err = fmt.Errorf("%w: %w", domain.ErrDownload, err)
		}
		return fail(out, err)
	}

	transcript, err := s.transcribe(ctx, audio)
	if err != nil {
		return fail(out, err)
	}
	return s.store(ctx, out, idx, transcript, domain.Provenance{SourceID: "youtube:" + id, Title: rawURL})
}

// Stats reports the state of every source index in cascade order.
func (s *IngestionService) Stats(ctx context.Context) ([]domain.SourceStats, error) {
	stats := make([]domain.SourceStats, 0, len(s.indexes))
	for _, kind := range domain.CascadeOrder() {
		idx, ok := s.indexes[kind]
		if !ok {
			continue
		}
		st, err := idx.Stats(ctx)
		if err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	return stats, nil
}

func (s *IngestionService) begin(
	_ context.Context, via domain.IngestVia, sourceID string,
) (*domain.IngestOutcome, *SourceIndex) {
	out := &domain.IngestOutcome{
		Via:      via,
		Kind:     via.Kind(),
		SourceID: sourceID,
		State:    domain.StateReceived,
	}
	if via == domain.ViaDocument || via == domain.ViaVideo {
		out.SourceID = filepath.Base(sourceID)
	}

	logger.Section("Ingest " + string(via))
	logger.Debug("Source: %s", sourceID)

	idx, ok := s.indexes[out.Kind]
	if !ok {
		fail(out, fmt.Errorf("no index configured for %s", out.Kind))
		return out, nil
	}
	return out, idx
}

func (s *IngestionService) finish(ctx context.Context, out *domain.IngestOutcome, start time.Time) {
	out.Duration = s.now().Sub(start)
	switch out.State {
	case domain.StatePersisted:
		logger.Info("Ingested %s: %d chunks into %s", out.SourceID, out.Chunks, out.Kind)
	case domain.StateSkippedDuplicate:
		logger.Info("Skipped duplicate %s (%s)", out.SourceID, out.Fingerprint.Short())
	default:
		logger.Warn("Ingest of %s ended %s: %v", out.SourceID, out.State, out.Err)
	}

	if s.history == nil {
		return
	}
	_, err := s.history.SaveIngest(ctx, domain.IngestRecord{
		Via:         out.Via,
		Kind:        out.Kind,
		SourceID:    out.SourceID,
		State:       out.State,
		Fingerprint: out.Fingerprint,
		Chunks:      out.Chunks,
		Message:     out.Message(),
		CreatedAt:   s.now(),
	})
	if err != nil {
		logger.Warn("Failed to save ingest record: %v", err)
	}
}

// skipDuplicate marks the outcome as a duplicate when the ledger already
// has its fingerprint. Ledger read errors fail the outcome.
func (s *IngestionService) skipDuplicate(ctx context.Context, out *domain.IngestOutcome, idx *SourceIndex) bool {
	dup, err := idx.IsDuplicate(ctx, out.Fingerprint)
	if err != nil {
		fail(out, err)
		return true
	}
	if dup {
		out.State = domain.StateSkippedDuplicate
		return true
	}
	out.State = domain.StateDeduplicated
	return false
}

func (s *IngestionService) store(
	ctx context.Context, out *domain.IngestOutcome, idx *SourceIndex, text string, prov domain.Provenance,
) *domain.IngestOutcome {
	if !idx.Acceptable(text) {
		return reject(out, domain.ErrEmptyContent)
	}

	n, err := idx.Ingest(ctx, text, prov, out.Fingerprint)
	switch {
	case errors.Is(err, domain.ErrDuplicateContent):
		out.State = domain.StateSkippedDuplicate
	case errors.Is(err, domain.ErrEmptyContent):
		return reject(out, err)
	case err != nil:
		out.Chunks = n
		return fail(out, err)
	default:
		out.State = domain.StatePersisted
		out.Chunks = n
	}
	return out
}

func (s *IngestionService) transcribe(ctx context.Context, path string) (string, error) {
	text, err := s.transcriber.Transcribe(ctx, path)
	if err != nil {
		if !errors.Is(err, domain.ErrTranscription) {
			err = fmt.Errorf("%w: %w", domain.ErrTranscription, err)
		}
		return "", err
	}
	return text, nil
}

// keep copies an uploaded file into managed storage and returns the path
// to read from. Storage failures are logged and the original path is used.
func (s *IngestionService) keep(ctx context.Context, kind domain.SourceKind, path string) string {
	if s.uploads == nil {
		return path
	}
	stored, err := s.uploads.Keep(ctx, kind, path)
	if err != nil {
		logger.Warn("Failed to keep upload %s: %v", path, err)
		return path
	}
	return stored
}

func reject(out *domain.IngestOutcome, err error) *domain.IngestOutcome {
	out.State = domain.StateRejected
	out.Err = err
	return out
}

func fail(out *domain.IngestOutcome, err error) *domain.IngestOutcome {
	out.State = domain.StateFailed
	out.Err = err
	return out
}

func validWebURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

var youTubeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// YouTubeID extracts the video id from the common YouTube URL shapes:
// watch?v=, youtu.be/, /shorts/, /embed/ and /live/.
func YouTubeID(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	path := strings.Trim(u.Path, "/")

	var id string
	switch host {
	case "youtu.be":
		id, _, _ = strings.Cut(path, "/")
	case "youtube.com", "music.youtube.com", "youtube-nocookie.com":
		if path == "watch" {
			id = u.Query().Get("v")
			break
		}
		prefix, rest, ok := strings.Cut(path, "/")
		if ok && (prefix == "shorts" || prefix == "embed" || prefix == "live" || prefix == "v") {
			id, _, _ = strings.Cut(rest, "/")
		}
	}

	if !youTubeIDPattern.MatchString(id) {
		return "", false
	}
	return id, true
}
