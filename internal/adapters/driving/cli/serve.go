package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/adapters/driving/httpapi"
)

var (
	serveAddr      string
	serveMaxUpload int64
	serveTimeout   time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start a JSON HTTP API exposing ingestion, questions, history and
source statistics.

Endpoints:
  POST /v1/ingest/document   multipart upload (field "file")
  POST /v1/ingest/video      multipart upload (field "file")
  POST /v1/ingest/url        {"url": "..."}
  POST /v1/ingest/youtube    {"url": "..."}
  POST /v1/ask               {"query": "..."}
  GET  /v1/history           ?limit=N
  GET  /v1/ingestions        ?limit=N
  GET  /v1/sources`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "listen address")
	serveCmd.Flags().Int64Var(&serveMaxUpload, "max-upload", httpapi.DefaultMaxUpload, "maximum upload size in bytes")
	serveCmd.Flags().DurationVar(&serveTimeout, "timeout", 0, "per-request timeout (0 = none)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	server, err := httpapi.NewServer(&httpapi.Ports{
		Answer: answerService,
		Ingest: ingestService,
	}, httpapi.Config{
		MaxUpload:      serveMaxUpload,
		RequestTimeout: serveTimeout,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "HTTP API listening on http://%s\n", serveAddr)
	return server.Run(cmd.Context(), serveAddr)
}
