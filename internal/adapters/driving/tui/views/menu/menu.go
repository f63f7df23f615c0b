// Package menu provides the main navigation menu for the TUI.
package menu

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/recall/internal/core/domain"
)

// Item is one menu entry. Quit items end the program instead of switching view.
type Item struct {
	Label string
	Hint  string
	View  messages.ViewType
	Quit  bool
}

// Items returns the menu entries in display order.
func Items() []Item {
	return []Item{
		{Label: "Ask", Hint: "question your sources, or the web when they have no answer", View: messages.ViewAsk},
		{Label: "Ingest", Hint: "add a document, web page, video or YouTube link", View: messages.ViewIngest},
		{Label: "Sources", Hint: "chunks, fingerprints and embedding model per source", View: messages.ViewSources},
		{Label: "Settings", Hint: "providers, API keys and retrieval tuning", View: messages.ViewSettings},
		{Label: "Help", Hint: "key bindings", View: messages.ViewHelp},
		{Label: "Quit", Quit: true},
	}
}

// View is the main menu.
type View struct {
	styles   *styles.Styles
	items    []Item
	selected int
	width    int
	height   int
	ready    bool
}

// NewView creates the menu.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		items:  Items(),
		width:  80,
		height: 24,
	}
}

// Init initialises the menu view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles navigation. Digits jump straight to the matching entry.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "up", "k":
			if v.selected > 0 {
				v.selected--
			}
			return v, nil
		case "down", "j":
			if v.selected < len(v.items)-1 {
				v.selected++
			}
			return v, nil
		case "enter":
			return v, v.choose()
		case "q":
			return v, tea.Quit
		}

		if len(key) == 1 && key[0] >= '1' && int(key[0]-'1') < len(v.items) {
			v.selected = int(key[0] - '1')
			return v, v.choose()
		}
	}
	return v, nil
}

func (v *View) choose() tea.Cmd {
	item := v.items[v.selected]
	if item.Quit {
		return tea.Quit
	}
	return func() tea.Msg {
		return messages.ViewChanged{View: item.View}
	}
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Recall"))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render("Answers from your documents, pages and videos"))
	b.WriteString("\n")
	b.WriteString(v.renderCascade())
	b.WriteString("\n\n")

	for i, item := range v.items {
		line := fmt.Sprintf("%d. %s", i+1, item.Label)
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render("> " + line))
			if item.Hint != "" {
				b.WriteString("  ")
				b.WriteString(v.styles.Muted.Render(item.Hint))
			}
		} else {
			b.WriteString(v.styles.Normal.Render("  " + line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] navigate  [1-6] jump  [enter] select  [q] quit"))
	return b.String()
}

// renderCascade shows the order sources are consulted in, in their answer colours.
func (v *View) renderCascade() string {
	parts := make([]string, 0, len(domain.CascadeOrder())+1)
	for _, kind := range domain.CascadeOrder() {
		parts = append(parts, v.styles.Origin(domain.OriginOf(kind)).Render(string(kind)))
	}
	parts = append(parts, v.styles.Origin(domain.OriginInternet).Render(string(domain.OriginInternet)))
	return v.styles.Muted.Render("Search order: ") + strings.Join(parts, v.styles.Muted.Render(" → "))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected returns the currently selected index.
func (v *View) Selected() int {
	return v.selected
}
