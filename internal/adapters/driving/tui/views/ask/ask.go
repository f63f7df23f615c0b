// Package ask provides the question and answer view for the TUI.
package ask

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// ErrNoAnswerService is returned when the view has no answer service.
var ErrNoAnswerService = errors.New("answer service not available")

// historyLimit bounds the exchanges loaded into the transcript on start.
const historyLimit = 20

// previewLen bounds each context chunk preview.
const previewLen = 80

type exchange struct {
	query   string
	text    string
	origin  domain.Origin
	failed  bool
	pending bool
	chunks  domain.RetrievalResult
}

// View is a scrolling transcript with a question prompt underneath.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.PromptInput
	transcript viewport.Model
	statusbar  *status.Bar

	answerService driving.AnswerService
	ctx           context.Context

	exchanges     []exchange
	historyLoaded bool
	showContext   bool

	width  int
	height int
	ready  bool
}

// NewView creates a new ask view.
func NewView(s *styles.Styles, km *keymap.KeyMap, answerService driving.AnswerService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:        s,
		keymap:        km,
		input:         input.NewPromptInput(s, "Ask", "Ask about your documents, pages or videos..."),
		transcript:    viewport.New(80, 14),
		statusbar:     status.NewBar(s, km),
		answerService: answerService,
		ctx:           context.Background(),
		width:         80,
		height:        24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init focuses the prompt and loads recent history once.
func (v *View) Init() tea.Cmd {
	if v.historyLoaded {
		return v.input.Init()
	}
	return tea.Batch(v.input.Init(), v.loadHistory())
}

func (v *View) loadHistory() tea.Cmd {
	return func() tea.Msg {
		if v.answerService == nil {
			return messages.HistoryLoaded{Err: ErrNoAnswerService}
		}
		entries, err := v.answerService.History(v.ctx, historyLimit)
		return messages.HistoryLoaded{Entries: entries, Err: err}
	}
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.HistoryLoaded:
		v.handleHistoryLoaded(msg)
		return v, nil

	case messages.AnswerReceived:
		v.handleAnswer(msg.Answer)
		return v, nil

	case messages.ErrorOccurred:
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyEsc:
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case msg.Type == tea.KeyEnter:
		return v, v.submit()
	case msg.Type == tea.KeyTab:
		v.showContext = !v.showContext
		v.refresh()
		return v, nil
	case keymap.Matches(msg.String(), v.keymap.ScrollUp):
		v.transcript.SetYOffset(v.transcript.YOffset - v.transcript.Height)
		return v, nil
	case keymap.Matches(msg.String(), v.keymap.ScrollDown):
		v.transcript.SetYOffset(v.transcript.YOffset + v.transcript.Height)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit sends the prompt as a question. One question is in flight at a time.
func (v *View) submit() tea.Cmd {
	query := strings.TrimSpace(v.input.Value())
	if query == "" || v.Pending() {
		return nil
	}

	v.exchanges = append(v.exchanges, exchange{query: query, pending: true})
	v.input.Reset()
	v.statusbar.SetState(status.StateWorking)
	v.statusbar.SetMessage("Thinking...")
	v.refresh()

	return func() tea.Msg {
		if v.answerService == nil {
			return messages.AnswerReceived{Answer: &domain.Answer{
				Query: query,
				Text:  "❌ " + ErrNoAnswerService.Error(),
				Err:   ErrNoAnswerService,
			}}
		}
		return messages.AnswerReceived{Answer: v.answerService.Ask(v.ctx, query)}
	}
}

func (v *View) handleAnswer(answer *domain.Answer) {
	if answer == nil {
		return
	}
	for i := len(v.exchanges) - 1; i >= 0; i-- {
		if !v.exchanges[i].pending {
			continue
		}
		v.exchanges[i] = exchange{
			query:  v.exchanges[i].query,
			text:   answer.Text,
			origin: answer.Origin,
			failed: answer.Failed(),
			chunks: answer.Chunks,
		}
		break
	}

	v.statusbar.SetMessage("")
	if answer.Failed() {
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(answer.Err.Error())
	} else {
		v.statusbar.SetAnswered(answer.Origin, len(answer.Chunks))
	}
	v.refresh()
}

func (v *View) handleHistoryLoaded(msg messages.HistoryLoaded) {
	v.historyLoaded = true
	if msg.Err != nil {
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage("history: " + msg.Err.Error())
		return
	}

	// Entries arrive newest first; the transcript reads oldest first.
	past := make([]exchange, 0, len(msg.Entries))
	for i := len(msg.Entries) - 1; i >= 0; i-- {
		e := msg.Entries[i]
		past = append(past, exchange{query: e.Query, text: e.Answer, origin: e.Origin, failed: e.Failed})
	}
	v.exchanges = append(past, v.exchanges...)
	v.refresh()
}

// refresh re-renders the transcript and keeps the newest exchange in view.
func (v *View) refresh() {
	v.transcript.SetContent(v.renderTranscript())
	v.transcript.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.exchanges) == 0 {
		return v.styles.Muted.Render("No questions yet. Answers come from documents, then pages, then videos, then the internet.")
	}

	wrap := lipgloss.NewStyle().Width(max(v.width-2, 20))
	var b strings.Builder
	for i, ex := range v.exchanges {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(v.styles.Subtitle.Render("You: "))
		b.WriteString(wrap.Render(ex.query))
		b.WriteString("\n")

		switch {
		case ex.pending:
			b.WriteString(v.styles.Muted.Render("…thinking"))
		case ex.failed:
			b.WriteString(v.styles.Error.Render(wrap.Render(ex.text)))
		default:
			b.WriteString(v.renderAnswer(ex, wrap))
		}
		b.WriteString("\n")

		if v.showContext && len(ex.chunks) > 0 {
			b.WriteString(v.renderContext(ex.chunks))
		}
	}
	return b.String()
}

// renderAnswer colours the provenance tag on the first line by origin.
func (v *View) renderAnswer(ex exchange, wrap lipgloss.Style) string {
	tag, body, ok := strings.Cut(ex.text, "\n")
	if !ok {
		return v.styles.Normal.Render(wrap.Render(ex.text))
	}
	return v.styles.Origin(ex.origin).Render(tag) + "\n" + v.styles.Normal.Render(wrap.Render(body))
}

func (v *View) renderContext(chunks domain.RetrievalResult) string {
	lines := make([]string, 0, len(chunks))
	for _, sc := range chunks {
		preview := strings.Join(strings.Fields(sc.Chunk.Content), " ")
		if r := []rune(preview); len(r) > previewLen {
			preview = string(r[:previewLen]) + "…"
		}
		lines = append(lines, fmt.Sprintf("[%s %s d=%.3f] %s", sc.Chunk.Kind, sc.Chunk.SourceID, sc.Distance, preview))
	}
	return v.styles.Context.Render(strings.Join(lines, "\n")) + "\n"
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{
		v.styles.Title.Render("Ask"),
		"",
		v.transcript.View(),
		"",
		v.input.View(),
		v.styles.Help.Render("[tab] toggle context  [pgup/pgdn] scroll  [esc] back"),
		v.statusbar.View(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	// Reserve space for header, prompt, help and status lines.
	v.transcript.Width = width
	v.transcript.Height = max(height-9, 3)
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.refresh()
}

// Reset focuses the prompt, keeping the transcript.
func (v *View) Reset() {
	v.input.Reset()
	v.input.Focus()
	if !v.Pending() {
		v.statusbar.Clear()
	}
}

// Pending reports whether a question is awaiting its answer.
func (v *View) Pending() bool {
	return len(v.exchanges) > 0 && v.exchanges[len(v.exchanges)-1].pending
}

// Exchanges returns the number of exchanges in the transcript.
func (v *View) Exchanges() int {
	return len(v.exchanges)
}

// Query returns the current prompt text.
func (v *View) Query() string {
	return v.input.Value()
}

// StatusBar exposes the status bar for inspection.
func (v *View) StatusBar() *status.Bar {
	return v.statusbar
}
