package messages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
)

func TestViewType_String(t *testing.T) {
	tests := []struct {
		name     string
		view     ViewType
		expected string
	}{
		{"ViewMenu", ViewMenu, "menu"},
		{"ViewAsk", ViewAsk, "ask"},
		{"ViewIngest", ViewIngest, "ingest"},
		{"ViewSources", ViewSources, "sources"},
		{"ViewSettings", ViewSettings, "settings"},
		{"ViewHelp", ViewHelp, "help"},
		{"UnknownView", ViewType(99), "unknown"},
		{"NegativeView", ViewType(-1), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.view.String())
		})
	}
}

func TestAnswerReceived(t *testing.T) {
	t.Run("local answer", func(t *testing.T) {
		msg := AnswerReceived{Answer: &domain.Answer{
			Query:  "what changed?",
			Origin: domain.OriginOf(domain.SourceDocuments),
			Text:   "Revenue grew.",
		}}
		require.NotNil(t, msg.Answer)
		assert.False(t, msg.Answer.Failed())
	})

	t.Run("failed answer", func(t *testing.T) {
		msg := AnswerReceived{Answer: &domain.Answer{Err: domain.ErrSearchFallback}}
		assert.True(t, msg.Answer.Failed())
	})
}

func TestIngestCompleted(t *testing.T) {
	msg := IngestCompleted{Outcome: &domain.IngestOutcome{Via: domain.ViaURL, State: domain.StatePersisted}}

	assert.True(t, msg.Outcome.Succeeded())
	assert.Equal(t, domain.SourceScraped, msg.Outcome.Via.Kind())
}

func TestStatsLoaded(t *testing.T) {
	t.Run("with stats", func(t *testing.T) {
		msg := StatsLoaded{Stats: []domain.SourceStats{{Kind: domain.SourceVideo, Chunks: 4}}}
		require.Len(t, msg.Stats, 1)
		assert.NoError(t, msg.Err)
	})

	t.Run("with error", func(t *testing.T) {
		msg := StatsLoaded{Err: errors.New("disk unavailable")}
		assert.Empty(t, msg.Stats)
		assert.Error(t, msg.Err)
	})
}

func TestErrorOccurred(t *testing.T) {
	baseErr := errors.New("base error")
	msg := ErrorOccurred{Err: errors.Join(baseErr, errors.New("additional context"))}

	assert.ErrorIs(t, msg.Err, baseErr)
}

func TestSettingsMessages(t *testing.T) {
	settings := domain.DefaultAppSettings()
	loaded := SettingsLoaded{Settings: &settings}
	assert.Equal(t, domain.DefaultK, loaded.Settings.Retrieval.K)

	saved := SettingsSaved{Err: errors.New("write failed")}
	assert.EqualError(t, saved.Err, "write failed")
}
