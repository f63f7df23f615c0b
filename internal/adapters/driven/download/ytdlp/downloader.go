// Package ytdlp downloads the audio track of remote videos with yt-dlp.
package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// DefaultCommand is the yt-dlp executable name.
const DefaultCommand = "yt-dlp"

// Ensure Downloader implements the interface.
var _ driven.AudioDownloader = (*Downloader)(nil)

// Downloader extracts best-quality audio as mp3.
type Downloader struct {
	runner  driven.CommandRunner
	command string
}

// NewDownloader creates a downloader. An empty command uses yt-dlp.
func NewDownloader(runner driven.CommandRunner, command string) *Downloader {
	if command == "" {
		command = DefaultCommand
	}
	return &Downloader{runner: runner, command: command}
}

// DownloadAudio saves the audio of videoURL into dir and returns the file path.
// The caller removes the file.
func (d *Downloader) DownloadAudio(ctx context.Context, videoURL, dir string) (string, error) {
	out, err := d.runner.Run(ctx, d.command,
		"-f", "bestaudio/best",
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "192K",
		"-o", filepath.Join(dir, "%(id)s.%(ext)s"),
		"--print", "after_move:filepath",
		"--no-playlist",
		"-q",
		videoURL,
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrDownload, err)
	}

	path := lastLine(string(out))
	if path == "" {
		return "", fmt.Errorf("%w: yt-dlp did not report an output file", domain.ErrDownload)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: output file %s missing", domain.ErrDownload, path)
		}
		return "", fmt.Errorf("%w: %w", domain.ErrDownload, err)
	}
	return path, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
