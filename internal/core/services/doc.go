// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Ingestion flows through IngestionService into one SourceIndex per
// source kind. Questions flow through AnswerService, which runs the
// RetrievalCascade and hands its context to the AnswerComposer.
//
// Services are pure Go with no CGO or external dependencies.
package services
