package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/recall/internal/core/domain"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
	maxJSONBody         = 1 << 20
)

type urlRequest struct {
	URL string `json:"url"`
}

type askRequest struct {
	Query string `json:"query"`
}

// OutcomeResponse is the JSON shape of an ingestion outcome.
type OutcomeResponse struct {
	Message     string  `json:"message"`
	Via         string  `json:"via"`
	Kind        string  `json:"kind"`
	SourceID    string  `json:"source_id"`
	State       string  `json:"state"`
	Fingerprint string  `json:"fingerprint,omitempty"`
	Chunks      int     `json:"chunks"`
	Error       string  `json:"error,omitempty"`
	DurationMS  float64 `json:"duration_ms"`
}

// ChunkResponse is one context chunk of an answer.
type ChunkResponse struct {
	Kind     string  `json:"kind"`
	SourceID string  `json:"source_id"`
	Distance float64 `json:"distance"`
	Content  string  `json:"content"`
}

// AnswerResponse is the JSON shape of an answer.
type AnswerResponse struct {
	Query  string          `json:"query"`
	Answer string          `json:"answer"`
	Origin string          `json:"origin,omitempty"`
	Failed bool            `json:"failed"`
	Error  string          `json:"error,omitempty"`
	Chunks []ChunkResponse `json:"chunks"`
}

func (s *Server) handleIngestDocument(w http.ResponseWriter, r *http.Request) {
	s.handleUpload(w, r, s.ports.Ingest.IngestDocument)
}

func (s *Server) handleIngestVideo(w http.ResponseWriter, r *http.Request) {
	s.handleUpload(w, r, s.ports.Ingest.IngestVideo)
}

// handleUpload stages the multipart "file" part under its original name so
// the outcome's source ID is the uploaded file name.
func (s *Server) handleUpload(
	w http.ResponseWriter,
	r *http.Request,
	ingest func(ctx context.Context, path string) *domain.IngestOutcome,
) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("multipart field \"file\" is required: %v", err))
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		writeError(w, http.StatusBadRequest, "uploaded file has no name")
		return
	}

	dir, err := os.MkdirTemp("", "recall-upload-*")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to stage upload")
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, name)
	if err := stage(path, file); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to stage upload: %v", err))
		return
	}

	writeOutcome(w, ingest(r.Context(), path))
}

func stage(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func (s *Server) handleIngestURL(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if !decode(w, r, &req) {
		return
	}
	writeOutcome(w, s.ports.Ingest.IngestURL(r.Context(), req.URL))
}

func (s *Server) handleIngestYouTube(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if !decode(w, r, &req) {
		return
	}
	writeOutcome(w, s.ports.Ingest.IngestYouTube(r.Context(), req.URL))
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	answer := s.ports.Answer.Ask(r.Context(), req.Query)

	resp := AnswerResponse{
		Query:  answer.Query,
		Answer: answer.Text,
		Origin: string(answer.Origin),
		Failed: answer.Failed(),
		Chunks: make([]ChunkResponse, len(answer.Chunks)),
	}
	if answer.Err != nil {
		resp.Error = answer.Err.Error()
	}
	for i, sc := range answer.Chunks {
		resp.Chunks[i] = ChunkResponse{
			Kind:     string(sc.Chunk.Kind),
			SourceID: sc.Chunk.SourceID,
			Distance: sc.Distance,
			Content:  sc.Chunk.Content,
		}
	}

	status := http.StatusOK
	if answer.Failed() {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	entries, err := s.ports.Answer.History(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read history: %v", err))
		return
	}

	type entry struct {
		Query      string    `json:"query"`
		Answer     string    `json:"answer"`
		Origin     string    `json:"origin,omitempty"`
		Failed     bool      `json:"failed"`
		AskedAt    time.Time `json:"asked_at"`
		DurationMS float64   `json:"duration_ms"`
	}
	out := make([]entry, len(entries))
	for i, e := range entries {
		out[i] = entry{
			Query:      e.Query,
			Answer:     e.Answer,
			Origin:     string(e.Origin),
			Failed:     e.Failed,
			AskedAt:    e.AskedAt,
			DurationMS: float64(e.Duration) / float64(time.Millisecond),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (s *Server) handleIngestHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	records, err := s.ports.Answer.IngestHistory(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read ingestion log: %v", err))
		return
	}

	type record struct {
		Via         string    `json:"via"`
		Kind        string    `json:"kind"`
		SourceID    string    `json:"source_id"`
		State       string    `json:"state"`
		Fingerprint string    `json:"fingerprint,omitempty"`
		Chunks      int       `json:"chunks"`
		Message     string    `json:"message"`
		CreatedAt   time.Time `json:"created_at"`
	}
	out := make([]record, len(records))
	for i, rec := range records {
		out[i] = record{
			Via:         string(rec.Via),
			Kind:        string(rec.Kind),
			SourceID:    rec.SourceID,
			State:       string(rec.State),
			Fingerprint: string(rec.Fingerprint),
			Chunks:      rec.Chunks,
			Message:     rec.Message,
			CreatedAt:   rec.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ports.Ingest.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read source stats: %v", err))
		return
	}

	type source struct {
		Kind         string `json:"kind"`
		IndexExists  bool   `json:"index_exists"`
		Chunks       int    `json:"chunks"`
		Fingerprints int    `json:"fingerprints"`
		Model        string `json:"model,omitempty"`
		Dimensions   int    `json:"dimensions,omitempty"`
	}
	out := make([]source, len(stats))
	for i, st := range stats {
		out[i] = source{
			Kind:         string(st.Kind),
			IndexExists:  st.IndexExists,
			Chunks:       st.Chunks,
			Fingerprints: st.Fingerprints,
			Model:        st.Stamp.Model,
			Dimensions:   st.Stamp.Dimensions,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

// outcomeStatus maps an ingestion state to an HTTP status.
func outcomeStatus(out *domain.IngestOutcome) int {
	switch out.State {
	case domain.StatePersisted:
		return http.StatusCreated
	case domain.StateSkippedDuplicate:
		return http.StatusOK
	case domain.StateRejected:
		if errors.Is(out.Err, domain.ErrInvalidInput) {
			return http.StatusBadRequest
		}
		return http.StatusUnprocessableEntity
	default:
		if errors.Is(out.Err, domain.ErrUnsupportedFormat) {
			return http.StatusUnsupportedMediaType
		}
		if errors.Is(out.Err, domain.ErrPersistence) {
			return http.StatusInternalServerError
		}
		return http.StatusBadGateway
	}
}

func writeOutcome(w http.ResponseWriter, out *domain.IngestOutcome) {
	resp := OutcomeResponse{
		Message:     out.Message(),
		Via:         string(out.Via),
		Kind:        string(out.Kind),
		SourceID:    out.SourceID,
		State:       string(out.State),
		Fingerprint: string(out.Fingerprint),
		Chunks:      out.Chunks,
		DurationMS:  float64(out.Duration) / float64(time.Millisecond),
	}
	if out.Err != nil {
		resp.Error = out.Err.Error()
	}
	writeJSON(w, outcomeStatus(out), resp)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultHistoryLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > maxHistoryLimit {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxHistoryLimit))
		return 0, false
	}
	return limit, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
