// Command recall answers questions from ingested documents, web pages and
// videos, falling back to live internet search.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/recall/internal/adapters/driven/ai"
	"github.com/custodia-labs/recall/internal/adapters/driven/command"
	"github.com/custodia-labs/recall/internal/adapters/driven/config/file"
	"github.com/custodia-labs/recall/internal/adapters/driven/download/ytdlp"
	"github.com/custodia-labs/recall/internal/adapters/driven/fetch"
	"github.com/custodia-labs/recall/internal/adapters/driven/ledger"
	"github.com/custodia-labs/recall/internal/adapters/driven/lock"
	"github.com/custodia-labs/recall/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/recall/internal/adapters/driven/uploads"
	"github.com/custodia-labs/recall/internal/adapters/driven/vectorstore"
	"github.com/custodia-labs/recall/internal/adapters/driven/websearch/tavily"
	"github.com/custodia-labs/recall/internal/adapters/driving/cli"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/services"
	"github.com/custodia-labs/recall/internal/logger"
	"github.com/custodia-labs/recall/internal/normalisers"
	"github.com/custodia-labs/recall/internal/postprocessors"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; keys can come from config or the environment.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	cli.SetSettingsService(settingsService)
	cli.SetVersion(version)

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	base := settings.Storage.BaseDir

	if err := logger.EnableFile(filepath.Join(base, "logs", "recall.log")); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: file logging disabled: %v\n", err)
	}
	defer logger.Close()

	runner := command.NewRunner()
	aiServices := ai.Build(settings, runner)
	defer aiServices.Close()
	for _, w := range aiServices.Warnings {
		logger.Warn("%s", w)
	}

	splitter, err := postprocessors.NewDefaultSplitter(settings.Retrieval.ChunkSize)
	if err != nil {
		return fmt.Errorf("building chunker: %w", err)
	}

	store := vectorstore.NewStore(base)
	ledgers := ledger.NewProvider(base)
	locker := lock.NewFileLocker(base)

	order := domain.CascadeOrder()
	indexes := make([]*services.SourceIndex, 0, len(order))
	retrievers := make([]services.Retriever, 0, len(order))
	for _, kind := range order {
		l, err := ledgers.Ledger(kind)
		if err != nil {
			return fmt.Errorf("opening %s ledger: %w", kind, err)
		}
		idx := services.NewSourceIndex(kind, store, l, aiServices.Embedding, splitter, locker)
		indexes = append(indexes, idx)
		retrievers = append(retrievers, idx)
	}

	metadata, err := sqlite.NewStore(base)
	if err != nil {
		return fmt.Errorf("opening metadata database: %w", err)
	}
	defer metadata.Close()
	history := metadata.HistoryStore()

	ingestService := services.NewIngestionService(indexes...)
	ingestService.SetExtractor(normalisers.Default(runner))
	ingestService.SetFetcher(fetch.NewFetcher(fetch.Config{
		UserAgent:         settings.Scraper.UserAgent,
		Timeout:           settings.Scraper.Timeout,
		RequestsPerSecond: settings.Scraper.RequestsPerSecond,
	}))
	ingestService.SetTranscriber(aiServices.Transcriber)
	ingestService.SetDownloader(ytdlp.NewDownloader(runner, ""))
	ingestService.SetUploadStore(uploads.NewStore(base, settings.Storage.KeepUploads))
	ingestService.SetHistoryStore(history)
	cli.SetIngestionService(ingestService)

	cascade := services.NewRetrievalCascade(retrievers, webSearcher(settings),
		services.WithK(settings.Retrieval.K),
		services.WithThreshold(settings.Retrieval.Threshold),
	)

	var promptStore driven.PromptStore
	if prompts, err := file.NewPromptStore(""); err != nil {
		logger.Warn("using built-in prompts: %v", err)
	} else {
		promptStore = prompts
	}
	composer := services.NewAnswerComposer(aiServices.LLM, promptStore)
	composer.SetTemperature(settings.LLM.Temperature)
	cli.SetAnswerService(services.NewAnswerService(cascade, composer, history))

	err = cli.Execute(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// webSearcher returns the internet fallback, or nil when it has no key.
func webSearcher(settings *domain.AppSettings) driven.WebSearcher {
	if !settings.WebSearch.IsConfigured() {
		logger.Warn("internet search fallback disabled: no Tavily API key")
		return nil
	}
	s, err := tavily.NewSearcher(tavily.Config{
		APIKey:     settings.WebSearch.APIKey,
		MaxResults: settings.WebSearch.MaxResults,
	})
	if err != nil {
		logger.Warn("internet search fallback disabled: %v", err)
		return nil
	}
	return s
}
