// Package whisper transcribes media with a locally installed whisper CLI.
package whisper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure Transcriber implements the interface.
var _ driven.Transcriber = (*Transcriber)(nil)

// Default configuration values.
const (
	DefaultCommand = "whisper"
	DefaultModel   = "base"
)

// Config holds configuration for the local transcriber.
type Config struct {
	// Command is the whisper executable (default: whisper).
	Command string

	// Model is the whisper model size (default: base).
	Model string
}

// Transcriber runs whisper and reads the text file it writes.
type Transcriber struct {
	runner  driven.CommandRunner
	command string
	model   string
}

// NewTranscriber creates a local transcriber.
func NewTranscriber(runner driven.CommandRunner, cfg Config) *Transcriber {
	if cfg.Command == "" {
		cfg.Command = DefaultCommand
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Transcriber{runner: runner, command: cfg.Command, model: cfg.Model}
}

// Transcribe writes the transcript into a temporary directory, returns its
// text and removes the directory.
func (t *Transcriber) Transcribe(ctx context.Context, mediaPath string) (string, error) {
	if _, err := os.Stat(mediaPath); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrTranscription, err)
	}

	outDir, err := os.MkdirTemp("", "recall-whisper-*")
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrTranscription, err)
	}
	defer os.RemoveAll(outDir)

	_, err = t.runner.Run(ctx, t.command, mediaPath,
		"--model", t.model,
		"--output_format", "txt",
		"--output_dir", outDir,
		"--fp16", "False",
		"--verbose", "False",
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrTranscription, err)
	}

	base := strings.TrimSuffix(filepath.Base(mediaPath), filepath.Ext(mediaPath))
	text, err := os.ReadFile(filepath.Join(outDir, base+".txt"))
	if err != nil {
		return "", fmt.Errorf("%w: reading transcript: %w", domain.ErrTranscription, err)
	}
	return strings.TrimSpace(string(text)), nil
}
