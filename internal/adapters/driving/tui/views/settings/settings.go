// Package settings provides the settings view for the TUI.
//
// Every row maps to a key accepted by SettingsService.Set, the same keys
// "recall settings set" takes. Provider rows cycle through their valid
// providers; all other rows open an inline editor.
package settings

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// Mode tracks what the keyboard is driving.
type Mode int

const (
	// ModeBrowse moves between rows.
	ModeBrowse Mode = iota
	// ModeChoose cycles through the providers of a provider row.
	ModeChoose
	// ModeEdit types a new value into the editor.
	ModeEdit
)

const (
	keyUp    = "up"
	keyDown  = "down"
	keyEnter = "enter"
	keyEsc   = "esc"
)

// Field is one editable setting.
type Field struct {
	Group  string
	Label  string
	Key    string
	Secret bool
	// Choices is set for provider rows.
	Choices []domain.AIProvider
	Value   func(s *domain.AppSettings) string
}

// Fields returns the rows shown by the view, grouped as in config.toml.
func Fields() []Field {
	return []Field{
		{Group: "Retrieval", Label: "Chunks per source (k)", Key: "retrieval.k",
			Value: func(s *domain.AppSettings) string { return strconv.Itoa(s.Retrieval.K) }},
		{Group: "Retrieval", Label: "Distance threshold", Key: "retrieval.threshold",
			Value: func(s *domain.AppSettings) string { return formatFloat(s.Retrieval.Threshold) }},
		{Group: "Retrieval", Label: "Chunk size", Key: "retrieval.chunk_size",
			Value: func(s *domain.AppSettings) string { return strconv.Itoa(s.Retrieval.ChunkSize) }},

		{Group: "Embedding", Label: "Provider", Key: "embedding.provider", Choices: domain.AllEmbeddingProviders(),
			Value: func(s *domain.AppSettings) string { return string(s.Embedding.Provider) }},
		{Group: "Embedding", Label: "Model", Key: "embedding.model",
			Value: func(s *domain.AppSettings) string { return s.Embedding.Model }},
		{Group: "Embedding", Label: "API key", Key: "embedding.api_key", Secret: true,
			Value: func(s *domain.AppSettings) string { return s.Embedding.APIKey }},

		{Group: "LLM", Label: "Provider", Key: "llm.provider", Choices: domain.AllLLMProviders(),
			Value: func(s *domain.AppSettings) string { return string(s.LLM.Provider) }},
		{Group: "LLM", Label: "Model", Key: "llm.model",
			Value: func(s *domain.AppSettings) string { return s.LLM.Model }},
		{Group: "LLM", Label: "API key", Key: "llm.api_key", Secret: true,
			Value: func(s *domain.AppSettings) string { return s.LLM.APIKey }},
		{Group: "LLM", Label: "Temperature", Key: "llm.temperature",
			Value: func(s *domain.AppSettings) string { return formatFloat(s.LLM.Temperature) }},

		{Group: "Transcription", Label: "Provider", Key: "transcription.provider",
			Choices: []domain.AIProvider{domain.AIProviderWhisper, domain.AIProviderOpenAI},
			Value:   func(s *domain.AppSettings) string { return string(s.Transcription.Provider) }},
		{Group: "Transcription", Label: "Model", Key: "transcription.model",
			Value: func(s *domain.AppSettings) string { return s.Transcription.Model }},
		{Group: "Transcription", Label: "API key", Key: "transcription.api_key", Secret: true,
			Value: func(s *domain.AppSettings) string { return s.Transcription.APIKey }},

		{Group: "Web search", Label: "Tavily API key", Key: "web_search.api_key", Secret: true,
			Value: func(s *domain.AppSettings) string { return s.WebSearch.APIKey }},
		{Group: "Web search", Label: "Max results", Key: "web_search.max_results",
			Value: func(s *domain.AppSettings) string { return strconv.Itoa(s.WebSearch.MaxResults) }},
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// View is the settings view.
type View struct {
	styles          *styles.Styles
	settingsService driving.SettingsService

	settings *domain.AppSettings
	err      error
	notice   string

	fields   []Field
	selected int
	mode     Mode
	choice   int
	editor   textinput.Model

	width  int
	height int
	ready  bool
}

// NewView creates a new settings view.
func NewView(s *styles.Styles, settingsService driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	editor := textinput.New()
	editor.CharLimit = 256

	return &View{
		styles:          s,
		settingsService: settingsService,
		fields:          Fields(),
		editor:          editor,
	}
}

// Init loads settings.
func (v *View) Init() tea.Cmd {
	return v.loadSettings()
}

func (v *View) loadSettings() tea.Cmd {
	svc := v.settingsService
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsLoaded{Err: fmt.Errorf("settings service not available")}
		}
		settings, err := svc.Get()
		return messages.SettingsLoaded{Settings: settings, Err: err}
	}
}

// save writes one key. The view state is only touched in Update.
func (v *View) save(key, value string) tea.Cmd {
	svc := v.settingsService
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsSaved{Err: fmt.Errorf("settings service not available")}
		}
		return messages.SettingsSaved{Err: svc.Set(key, value)}
	}
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SettingsLoaded:
		v.err = msg.Err
		if msg.Err == nil {
			v.settings = msg.Settings
		}
		return v, nil

	case messages.SettingsSaved:
		if msg.Err != nil {
			v.err = msg.Err
			v.notice = ""
			return v, nil
		}
		v.err = nil
		v.notice = fmt.Sprintf("Saved %s. Restart recall to apply.", v.fields[v.selected].Key)
		v.mode = ModeBrowse
		v.editor.Blur()
		v.editor.SetValue("")
		return v, v.loadSettings()

	case tea.KeyMsg:
		return v.handleKey(msg)
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch v.mode {
	case ModeChoose:
		return v.handleChooseKey(msg)
	case ModeEdit:
		return v.handleEditKey(msg)
	default:
		return v.handleBrowseKey(msg)
	}
}

func (v *View) handleBrowseKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case keyEsc:
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
	case keyUp, "k":
		if v.selected > 0 {
			v.selected--
		}
	case keyDown, "j":
		if v.selected < len(v.fields)-1 {
			v.selected++
		}
	case keyEnter:
		if v.settings == nil {
			return v, nil
		}
		return v, v.open(v.fields[v.selected])
	}
	return v, nil
}

// open starts editing f, preselecting its current value.
func (v *View) open(f Field) tea.Cmd {
	v.err = nil
	v.notice = ""
	if len(f.Choices) > 0 {
		v.mode = ModeChoose
		v.choice = 0
		current := f.Value(v.settings)
		for i, p := range f.Choices {
			if string(p) == current {
				v.choice = i
			}
		}
		return nil
	}

	v.mode = ModeEdit
	v.editor.Placeholder = f.Label
	if f.Secret {
		v.editor.EchoMode = textinput.EchoPassword
		v.editor.SetValue("")
	} else {
		v.editor.EchoMode = textinput.EchoNormal
		v.editor.SetValue(f.Value(v.settings))
	}
	v.editor.CursorEnd()
	return v.editor.Focus()
}

func (v *View) handleChooseKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	choices := v.fields[v.selected].Choices
	switch msg.String() {
	case keyEsc:
		v.mode = ModeBrowse
	case keyUp, "k":
		if v.choice > 0 {
			v.choice--
		}
	case keyDown, "j":
		if v.choice < len(choices)-1 {
			v.choice++
		}
	case keyEnter:
		return v, v.save(v.fields[v.selected].Key, string(choices[v.choice]))
	}
	return v, nil
}

func (v *View) handleEditKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case keyEsc:
		v.mode = ModeBrowse
		v.editor.Blur()
		v.editor.SetValue("")
		return v, nil
	case keyEnter:
		value := strings.TrimSpace(v.editor.Value())
		if value == "" {
			v.err = fmt.Errorf("%s cannot be empty", v.fields[v.selected].Key)
			return v, nil
		}
		return v, v.save(v.fields[v.selected].Key, value)
	}
	var cmd tea.Cmd
	v.editor, cmd = v.editor.Update(msg)
	return v, cmd
}

// View renders the settings view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Settings"))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	} else if v.notice != "" {
		b.WriteString(v.styles.Success.Render(v.notice))
		b.WriteString("\n\n")
	}

	if v.settings == nil {
		b.WriteString(v.styles.Muted.Render("Loading settings..."))
		return b.String()
	}

	b.WriteString(v.renderFields())
	b.WriteString("\n")
	b.WriteString(v.renderStatus())
	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderFields() string {
	var b strings.Builder
	group := ""
	for i, f := range v.fields {
		if f.Group != group {
			if group != "" {
				b.WriteString("\n")
			}
			group = f.Group
			b.WriteString(v.styles.Subtitle.Render(group))
			b.WriteString("\n")
		}

		line := fmt.Sprintf("  %-22s %s", f.Label, v.display(f))
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render("> " + strings.TrimPrefix(line, "  ")))
		} else {
			b.WriteString(v.styles.Normal.Render(line))
		}
		b.WriteString("\n")

		if i == v.selected {
			b.WriteString(v.renderEditor(f))
		}
	}
	return b.String()
}

// display renders a field's current value. Secrets only show whether they are set.
func (v *View) display(f Field) string {
	value := f.Value(v.settings)
	switch {
	case f.Secret && value != "":
		return "••••••••"
	case f.Secret, value == "":
		return v.styles.Muted.Render("not set")
	default:
		return value
	}
}

func (v *View) renderEditor(f Field) string {
	switch v.mode {
	case ModeChoose:
		var b strings.Builder
		for i, p := range f.Choices {
			marker := "    ( ) "
			if i == v.choice {
				marker = "    (•) "
			}
			b.WriteString(v.styles.Normal.Render(marker + p.Description()))
			b.WriteString("\n")
		}
		return b.String()
	case ModeEdit:
		return "    " + v.editor.View() + "\n"
	default:
		return ""
	}
}

func (v *View) renderStatus() string {
	if v.settingsService == nil {
		return ""
	}
	if err := v.settingsService.Validate(); err != nil {
		return v.styles.Warning.Render("Warning: " + err.Error())
	}
	return v.styles.Success.Render("Configuration is valid")
}

func (v *View) renderHelp() string {
	switch v.mode {
	case ModeChoose:
		return v.styles.Help.Render("[j/k] choose  [enter] save  [esc] cancel")
	case ModeEdit:
		return v.styles.Help.Render("[enter] save  [esc] cancel")
	default:
		return v.styles.Help.Render("[j/k] navigate  [enter] edit  [esc] back")
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Reset returns the view to browsing with nothing pending.
func (v *View) Reset() {
	v.mode = ModeBrowse
	v.selected = 0
	v.choice = 0
	v.err = nil
	v.notice = ""
	v.editor.Blur()
	v.editor.SetValue("")
}
