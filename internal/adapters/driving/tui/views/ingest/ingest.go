// Package ingest provides the ingestion form for the TUI.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// ErrNoIngestionService is returned when the view has no ingestion service.
var ErrNoIngestionService = errors.New("ingestion service not available")

// maxOutcomes bounds the outcomes listed under the form.
const maxOutcomes = 8

// Option is one ingestion pipeline offered by the form.
type Option struct {
	Label       string
	Via         domain.IngestVia
	Prompt      string
	Placeholder string
}

// Options lists the pipelines in menu order.
func Options() []Option {
	return []Option{
		{Label: "Document (PDF, DOCX, PPTX, HTML, Markdown, text)", Via: domain.ViaDocument,
			Prompt: "Path", Placeholder: "~/reports/q3.pdf"},
		{Label: "Web page", Via: domain.ViaURL, Prompt: "URL", Placeholder: "https://example.com/article"},
		{Label: "Video file", Via: domain.ViaVideo, Prompt: "Path", Placeholder: "~/videos/talk.mp4"},
		{Label: "YouTube video", Via: domain.ViaYouTube, Prompt: "URL",
			Placeholder: "https://www.youtube.com/watch?v=..."},
	}
}

// View lets the user pick a pipeline and submit a path or URL.
type View struct {
	styles        *styles.Styles
	ingestService driving.IngestionService
	ctx           context.Context

	options  []Option
	selected int
	editing  bool
	running  bool
	input    *input.PromptInput
	spinner  spinner.Model
	outcomes []*domain.IngestOutcome

	width  int
	height int
	ready  bool
}

// NewView creates a new ingest view.
func NewView(s *styles.Styles, ingestService driving.IngestionService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	in := input.NewPromptInput(s, "Path", "")
	in.Blur()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = s.Subtitle

	return &View{
		styles:        s,
		ingestService: ingestService,
		ctx:           context.Background(),
		options:       Options(),
		input:         in,
		spinner:       sp,
		width:         80,
		height:        24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the ingest view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.IngestCompleted:
		v.running = false
		if msg.Outcome != nil {
			v.outcomes = append([]*domain.IngestOutcome{msg.Outcome}, v.outcomes...)
			if len(v.outcomes) > maxOutcomes {
				v.outcomes = v.outcomes[:maxOutcomes]
			}
		}
		return v, nil

	case spinner.TickMsg:
		if !v.running {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case tea.KeyMsg:
		if v.editing {
			return v.handleInputKeys(msg)
		}
		return v.handleListKeys(msg)
	}

	return v, nil
}

func (v *View) handleListKeys(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(v.options)-1 {
			v.selected++
		}
	case "enter":
		opt := v.options[v.selected]
		v.editing = true
		v.input.SetLabel(opt.Prompt, opt.Placeholder)
		v.input.Reset()
		return v, v.input.Focus()
	}
	return v, nil
}

func (v *View) handleInputKeys(msg tea.KeyMsg) (*View, tea.Cmd) {
	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyEsc:
		v.editing = false
		v.input.Blur()
		return v, nil
	case tea.KeyEnter:
		target := strings.TrimSpace(v.input.Value())
		if target == "" || v.running {
			return v, nil
		}
		v.running = true
		v.input.Reset()
		return v, tea.Batch(v.spinner.Tick, v.ingest(v.options[v.selected].Via, target))
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// ingest runs the pipeline for via off the update loop.
func (v *View) ingest(via domain.IngestVia, target string) tea.Cmd {
	return func() tea.Msg {
		if v.ingestService == nil {
			return messages.IngestCompleted{Outcome: &domain.IngestOutcome{
				Via:      via,
				Kind:     via.Kind(),
				SourceID: target,
				State:    domain.StateFailed,
				Err:      ErrNoIngestionService,
			}}
		}

		var outcome *domain.IngestOutcome
		switch via {
		case domain.ViaURL:
			outcome = v.ingestService.IngestURL(v.ctx, target)
		case domain.ViaYouTube:
			outcome = v.ingestService.IngestYouTube(v.ctx, target)
		case domain.ViaVideo:
			outcome = v.ingestService.IngestVideo(v.ctx, expandHome(target))
		default:
			outcome = v.ingestService.IngestDocument(v.ctx, expandHome(target))
		}
		return messages.IngestCompleted{Outcome: outcome}
	}
}

// expandHome resolves a leading "~/" against the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// View renders the ingest view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Ingest"))
	b.WriteString("\n\n")

	for i, opt := range v.options {
		indicator := "  "
		line := opt.Label
		if i == v.selected {
			indicator = "> "
			b.WriteString(v.styles.Selected.Render(indicator + line))
		} else {
			b.WriteString(v.styles.Normal.Render(indicator + line))
		}
		b.WriteString("\n")
	}

	if v.editing {
		b.WriteString("\n")
		b.WriteString(v.input.View())
		b.WriteString("\n")
	}

	if v.running {
		b.WriteString("\n")
		b.WriteString(v.spinner.View())
		b.WriteString(v.styles.Muted.Render(" Ingesting... large files and videos can take a while"))
		b.WriteString("\n")
	}

	if len(v.outcomes) > 0 {
		b.WriteString("\n")
		b.WriteString(v.styles.Subtitle.Render("Recent"))
		b.WriteString("\n")
		for _, o := range v.outcomes {
			b.WriteString(v.renderOutcome(o))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if v.editing {
		b.WriteString(v.styles.Help.Render("[enter] ingest  [esc] choose another type"))
	} else {
		b.WriteString(v.styles.Help.Render("[j/k] navigate  [enter] select  [esc] back"))
	}
	return b.String()
}

func (v *View) renderOutcome(o *domain.IngestOutcome) string {
	detail := fmt.Sprintf("    %s → %s", o.SourceID, o.Kind)
	if o.Succeeded() {
		detail += fmt.Sprintf(", %d chunks, %s", o.Chunks, o.Fingerprint.Short())
	}

	style := v.styles.Error
	switch {
	case o.Succeeded():
		style = v.styles.Success
	case o.Duplicate():
		style = v.styles.Warning
	}
	return style.Render(o.Message()) + "\n" + v.styles.Muted.Render(detail)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.input.SetWidth(width)
}

// Reset returns to the pipeline list, keeping recent outcomes.
func (v *View) Reset() {
	v.editing = false
	v.input.Reset()
	v.input.Blur()
}

// Running reports whether an ingestion is in flight.
func (v *View) Running() bool {
	return v.running
}

// Outcomes returns recent outcomes, newest first.
func (v *View) Outcomes() []*domain.IngestOutcome {
	return v.outcomes
}
