// Package sources provides the source statistics view for the TUI.
package sources

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// ErrNoIngestionService is returned when the view has no ingestion service.
var ErrNoIngestionService = errors.New("ingestion service not available")

// View shows one row per source kind in cascade order.
type View struct {
	styles        *styles.Styles
	ingestService driving.IngestionService
	ctx           context.Context

	table   table.Model
	stats   []domain.SourceStats
	err     error
	loading bool

	width  int
	height int
	ready  bool
}

// NewView creates a new sources view.
func NewView(s *styles.Styles, ingestService driving.IngestionService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	t := table.New(
		table.WithColumns(columns(80)),
		table.WithHeight(len(domain.CascadeOrder())+3),
		table.WithFocused(true),
	)
	ts := table.DefaultStyles()
	ts.Header = ts.Header.Foreground(s.Theme().Secondary).Bold(true)
	ts.Selected = s.Selected
	t.SetStyles(ts)

	return &View{
		styles:        s,
		ingestService: ingestService,
		ctx:           context.Background(),
		table:         t,
		width:         80,
		height:        24,
	}
}

func columns(width int) []table.Column {
	stamp := max(width-52, 16)
	return []table.Column{
		{Title: "Source", Width: 10},
		{Title: "Index", Width: 8},
		{Title: "Chunks", Width: 8},
		{Title: "Ingested", Width: 9},
		{Title: "Embedding", Width: stamp},
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads source statistics.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.loadStats()
}

func (v *View) loadStats() tea.Cmd {
	return func() tea.Msg {
		if v.ingestService == nil {
			return messages.StatsLoaded{Err: ErrNoIngestionService}
		}
		stats, err := v.ingestService.Stats(v.ctx)
		return messages.StatsLoaded{Stats: stats, Err: err}
	}
}

// Update handles messages for the sources view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.StatsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.SetStats(msg.Stats)
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		case "r":
			v.loading = true
			return v, v.loadStats()
		}
		var cmd tea.Cmd
		v.table, cmd = v.table.Update(msg)
		return v, cmd
	}

	return v, nil
}

// SetStats replaces the rows shown.
func (v *View) SetStats(stats []domain.SourceStats) {
	v.stats = stats
	rows := make([]table.Row, 0, len(stats))
	for _, st := range stats {
		index := "missing"
		embedding := "-"
		if st.IndexExists {
			index = "ready"
			embedding = st.Stamp.String()
		}
		rows = append(rows, table.Row{
			string(st.Kind),
			index,
			strconv.Itoa(st.Chunks),
			strconv.Itoa(st.Fingerprints),
			embedding,
		})
	}
	v.table.SetRows(rows)
}

// View renders the sources view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Sources"))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render("Questions are answered from the first source with a close enough match."))
	b.WriteString("\n\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n")
	case v.loading && len(v.stats) == 0:
		b.WriteString(v.styles.Muted.Render("Loading sources..."))
		b.WriteString("\n")
	default:
		b.WriteString(v.table.View())
		b.WriteString("\n\n")
		b.WriteString(v.renderTotals())
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] navigate  [r] refresh  [esc] back"))
	return b.String()
}

func (v *View) renderTotals() string {
	var chunks, ingested int
	for _, st := range v.stats {
		chunks += st.Chunks
		ingested += st.Fingerprints
	}
	return v.styles.Normal.Render(fmt.Sprintf("%d chunks from %d ingested items", chunks, ingested))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.table.SetColumns(columns(width))
	v.table.SetWidth(width)
}

// Stats returns the statistics currently shown.
func (v *View) Stats() []domain.SourceStats {
	return v.stats
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
