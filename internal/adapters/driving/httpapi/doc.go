// Package httpapi serves recall over HTTP: the four ingestion forms, question
// answering, history and source stats, as JSON endpoints on a chi router.
package httpapi
