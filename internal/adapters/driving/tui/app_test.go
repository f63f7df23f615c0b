package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall/internal/core/domain"
)

func newTestPorts() *Ports {
	return &Ports{
		Answer: &MockAnswerService{},
		Ingest: &MockIngestionService{},
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	app, err := NewApp(newTestPorts())
	require.NoError(t, err)
	app.SetDimensions(100, 30)
	return app
}

func TestNewApp_Success(t *testing.T) {
	app, err := NewApp(newTestPorts())

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{Ingest: &MockIngestionService{}})
	assert.ErrorIs(t, err, ErrMissingAnswerService)
	assert.Nil(t, app)

	app, err = NewApp(nil)
	assert.ErrorIs(t, err, ErrInvalidPorts)
	assert.Nil(t, app)
}

func TestApp_WithContext(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")

	assert.Equal(t, app, app.WithContext(ctx))
}

func TestApp_Init(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	assert.NotNil(t, app.Init())
}

func TestApp_Update_WindowSize(t *testing.T) {
	app, _ := NewApp(newTestPorts())
	assert.Equal(t, "Initialising...", app.View())

	model, cmd := app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	assert.Equal(t, app, model)
	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
}

func TestApp_Update_CtrlC(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_Update_Quit(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.Update(messages.Quit{})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_MenuNavigatesToAsk(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	changed, ok := cmd().(messages.ViewChanged)
	require.True(t, ok)
	assert.Equal(t, messages.ViewAsk, changed.View)

	app.Update(changed)
	assert.Equal(t, messages.ViewAsk, app.CurrentView())
	assert.Contains(t, app.View(), "Ask")
}

func TestApp_AskRoundTrip(t *testing.T) {
	var asked string
	ports := newTestPorts()
	ports.Answer = &MockAnswerService{AskFunc: func(_ context.Context, q string) *domain.Answer {
		asked = q
		return &domain.Answer{Query: q, Origin: domain.OriginOf(domain.SourceVideo), Text: "From the talk."}
	}}
	app, err := NewApp(ports)
	require.NoError(t, err)
	app.SetDimensions(100, 30)
	app.Update(messages.ViewChanged{View: messages.ViewAsk})

	for _, r := range "who spoke?" {
		app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, "who spoke?", asked)
	assert.Contains(t, app.View(), "From the talk.")
}

func TestApp_BackgroundResultsReachOwningView(t *testing.T) {
	app := newTestApp(t)
	app.Update(messages.ViewChanged{View: messages.ViewSources})
	app.Update(messages.ViewChanged{View: messages.ViewMenu})

	app.Update(messages.StatsLoaded{Stats: []domain.SourceStats{{Kind: domain.SourceDocuments, Chunks: 7}}})
	app.Update(messages.IngestCompleted{Outcome: &domain.IngestOutcome{Via: domain.ViaURL, State: domain.StatePersisted}})

	assert.Len(t, app.sourcesView.Stats(), 1)
	assert.Len(t, app.ingestView.Outcomes(), 1)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_ViewChanged_InitialisesViews(t *testing.T) {
	tests := []struct {
		view    messages.ViewType
		wantCmd bool
		render  string
	}{
		{messages.ViewAsk, true, "Ask"},
		{messages.ViewIngest, false, "Ingest"},
		{messages.ViewSources, true, "Sources"},
		{messages.ViewSettings, true, "Settings"},
		{messages.ViewHelp, false, "Help"},
		{messages.ViewMenu, false, "Recall"},
	}

	for _, tt := range tests {
		t.Run(tt.view.String(), func(t *testing.T) {
			app := newTestApp(t)

			_, cmd := app.Update(messages.ViewChanged{View: tt.view})

			assert.Equal(t, tt.view, app.CurrentView())
			assert.Equal(t, tt.wantCmd, cmd != nil)
			assert.Contains(t, app.View(), tt.render)
		})
	}
}

func TestApp_HelpEscapeReturnsToMenu(t *testing.T) {
	app := newTestApp(t)
	app.Update(messages.ViewChanged{View: messages.ViewHelp})

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	assert.Equal(t, messages.ViewHelp, app.CurrentView())

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t)
	app.Update(messages.ViewChanged{View: messages.ViewAsk})

	app.Update(messages.ErrorOccurred{Err: assert.AnError})

	assert.ErrorIs(t, app.Err(), assert.AnError)
}
