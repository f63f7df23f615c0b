package ask

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall/internal/core/domain"
)

// fakeAnswerService implements driving.AnswerService for testing.
type fakeAnswerService struct {
	answer     *domain.Answer
	history    []domain.HistoryEntry
	historyErr error
	asked      []string
}

func (f *fakeAnswerService) Ask(_ context.Context, query string) *domain.Answer {
	f.asked = append(f.asked, query)
	return f.answer
}

func (f *fakeAnswerService) History(_ context.Context, _ int) ([]domain.HistoryEntry, error) {
	return f.history, f.historyErr
}

func (f *fakeAnswerService) IngestHistory(_ context.Context, _ int) ([]domain.IngestRecord, error) {
	return nil, nil
}

func typeText(v *View, text string) {
	for _, r := range text {
		v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func newReadyView(svc *fakeAnswerService) *View {
	v := NewView(nil, nil, svc)
	v.SetDimensions(100, 30)
	return v
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil, nil)

	require.NotNil(t, v)
	assert.False(t, v.ready)
	assert.Equal(t, 0, v.Exchanges())
	assert.Equal(t, "Initialising...", v.View())
}

func TestView_Init_LoadsHistoryOnce(t *testing.T) {
	svc := &fakeAnswerService{history: []domain.HistoryEntry{
		{Query: "second", Answer: "B", Origin: domain.OriginInternet},
		{Query: "first", Answer: "A", Origin: domain.OriginOf(domain.SourceDocuments)},
	}}
	v := newReadyView(svc)

	msg := v.loadHistory()()
	loaded, ok := msg.(messages.HistoryLoaded)
	require.True(t, ok)
	v.Update(loaded)

	require.Equal(t, 2, v.Exchanges())
	assert.Equal(t, "first", v.exchanges[0].query, "oldest first")
	assert.Equal(t, "second", v.exchanges[1].query)
	assert.True(t, v.historyLoaded)
	assert.NotNil(t, v.Init())
}

func TestView_HistoryError(t *testing.T) {
	v := newReadyView(&fakeAnswerService{historyErr: errors.New("db locked")})

	v.Update(v.loadHistory()())

	assert.Equal(t, status.StateError, v.StatusBar().State())
	assert.Contains(t, v.StatusBar().Message(), "db locked")
}

func TestView_SubmitAndAnswer(t *testing.T) {
	answer := &domain.Answer{
		Query:  "what grew?",
		Origin: domain.OriginOf(domain.SourceDocuments),
		Text:   "📄 **Answer (from documents):**\nRevenue grew.",
		Chunks: domain.RetrievalResult{
			{Chunk: domain.Chunk{Kind: domain.SourceDocuments, SourceID: "report.pdf", Content: "Revenue grew by 12%."}, Distance: 0.21},
		},
		AskedAt: time.Now(),
	}
	svc := &fakeAnswerService{answer: answer}
	v := newReadyView(svc)

	typeText(v, "what grew?")
	assert.Equal(t, "what grew?", v.Query())

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, v.Pending())
	assert.Equal(t, "", v.Query(), "prompt is cleared")
	assert.Equal(t, status.StateWorking, v.StatusBar().State())

	// A second submit while pending is ignored.
	typeText(v, "again")
	_, again := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, again)

	v.Update(cmd())

	assert.False(t, v.Pending())
	assert.Equal(t, []string{"what grew?"}, svc.asked)
	assert.Equal(t, status.StateAnswered, v.StatusBar().State())
	assert.Equal(t, answer.Origin, v.StatusBar().Origin())
	assert.Contains(t, v.View(), "Revenue grew.")

	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.True(t, v.showContext)
	assert.Contains(t, v.renderTranscript(), "report.pdf")
}

func TestView_FailedAnswer(t *testing.T) {
	svc := &fakeAnswerService{answer: &domain.Answer{
		Query: "q",
		Text:  "❌ No answer could be produced.",
		Err:   domain.ErrSearchFallback,
	}}
	v := newReadyView(svc)

	typeText(v, "q")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v.Update(cmd())

	assert.True(t, v.exchanges[0].failed)
	assert.Equal(t, status.StateError, v.StatusBar().State())
	assert.Contains(t, v.StatusBar().Message(), "internet search fallback failed")
}

func TestView_NoService(t *testing.T) {
	v := NewView(nil, nil, nil)
	v.SetDimensions(80, 24)

	typeText(v, "hello")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	msg := cmd()

	received, ok := msg.(messages.AnswerReceived)
	require.True(t, ok)
	assert.ErrorIs(t, received.Answer.Err, ErrNoAnswerService)

	loaded, ok := v.loadHistory()().(messages.HistoryLoaded)
	require.True(t, ok)
	assert.ErrorIs(t, loaded.Err, ErrNoAnswerService)
}

func TestView_EmptySubmitIgnored(t *testing.T) {
	v := newReadyView(&fakeAnswerService{})

	typeText(v, "   ")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Equal(t, 0, v.Exchanges())
}

func TestView_EscapeReturnsToMenu(t *testing.T) {
	v := newReadyView(&fakeAnswerService{})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)

	changed, ok := cmd().(messages.ViewChanged)
	require.True(t, ok)
	assert.Equal(t, messages.ViewMenu, changed.View)
}

func TestView_ErrorOccurred(t *testing.T) {
	v := newReadyView(&fakeAnswerService{})

	v.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.Equal(t, status.StateError, v.StatusBar().State())
	assert.Equal(t, "boom", v.StatusBar().Message())
}

func TestView_SetDimensions(t *testing.T) {
	v := NewView(nil, nil, nil)

	v.SetDimensions(120, 40)

	assert.True(t, v.ready)
	assert.Equal(t, 120, v.transcript.Width)
	assert.Equal(t, 31, v.transcript.Height)

	v.SetDimensions(40, 5)
	assert.Equal(t, 3, v.transcript.Height, "minimum height")
}

func TestView_Reset(t *testing.T) {
	v := newReadyView(&fakeAnswerService{})
	v.StatusBar().SetState(status.StateError)
	typeText(v, "draft")

	v.Reset()

	assert.Equal(t, "", v.Query())
	assert.Equal(t, status.StateReady, v.StatusBar().State())
}
