package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// AnswerService answers questions from the cascade and keeps a history.
type AnswerService struct {
	cascade  *RetrievalCascade
	composer *AnswerComposer
	history  driven.HistoryStore
	now      func() time.Time
}

// NewAnswerService creates an answer service. The history store may be nil.
func NewAnswerService(cascade *RetrievalCascade, composer *AnswerComposer, history driven.HistoryStore) *AnswerService {
	return &AnswerService{
		cascade:  cascade,
		composer: composer,
		history:  history,
		now:      time.Now,
	}
}

// Ask answers a question. Failures are reported inside the answer so
// callers always have something to display.
func (s *AnswerService) Ask(ctx context.Context, query string) *domain.Answer {
	start := s.now()
	answer := &domain.Answer{Query: strings.TrimSpace(query), AskedAt: start}

	if answer.Query == "" {
		answer.Err = domain.ErrInvalidInput
		answer.Text = "❌ Please enter a question."
		return answer
	}

	s.answer(ctx, answer)
	s.record(ctx, answer, s.now().Sub(start))
	return answer
}

func (s *AnswerService) answer(ctx context.Context, answer *domain.Answer) {
	retrieval, err := s.cascade.Retrieve(ctx, answer.Query)
	if err != nil {
		answer.Err = err
		switch {
		case errors.Is(err, domain.ErrSearchFallback):
			answer.Text = "❌ Internet fallback failed: " + causeOf(err, domain.ErrSearchFallback)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			answer.Text = "❌ Question cancelled: " + err.Error()
		default:
			answer.Text = "❌ Failed to answer: " + err.Error()
		}
		return
	}

	answer.Origin = retrieval.Origin
	answer.Chunks = retrieval.Chunks

	if retrieval.Origin == domain.OriginInternet {
		answer.Text = InternetAnswer(retrieval.WebAnswer)
		return
	}

	tag := domain.SourceKind(retrieval.Origin).AnswerTag()
	text, err := s.composer.Compose(ctx, answer.Query, retrieval.Context, tag)
	if err != nil {
		logger.Warn("Answer generation failed: %v", err)
		answer.Err = err
		answer.Text = "❌ Failed to generate answer: " + causeOf(err, domain.ErrGeneration)
		return
	}
	answer.Text = text
}

func (s *AnswerService) record(ctx context.Context, answer *domain.Answer, took time.Duration) {
	if s.history == nil {
		return
	}
	_, err := s.history.SaveAnswer(ctx, domain.HistoryEntry{
		Query:    answer.Query,
		Answer:   answer.Text,
		Origin:   answer.Origin,
		Failed:   answer.Failed(),
		AskedAt:  answer.AskedAt,
		Duration: took,
	})
	if err != nil {
		logger.Warn("Failed to save answer history: %v", err)
	}
}

// History returns the most recent answers, newest first.
func (s *AnswerService) History(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.ListAnswers(ctx, limit)
}

// IngestHistory returns the most recent ingestion records, newest first.
func (s *AnswerService) IngestHistory(ctx context.Context, limit int) ([]domain.IngestRecord, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.ListIngests(ctx, limit)
}

// causeOf renders err without the sentinel's own prefix.
func causeOf(err, sentinel error) string {
	msg := err.Error()
	if errors.Is(err, sentinel) {
		msg = strings.TrimPrefix(msg, sentinel.Error()+": ")
	}
	return msg
}
