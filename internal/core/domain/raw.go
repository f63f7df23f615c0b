package domain

// RawDocument is the opaque input of a normaliser: bytes plus a content type.
type RawDocument struct {
	// URI is the original location (file path, URL, etc).
	URI string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata contains caller-provided key-value pairs.
	Metadata map[string]any
}
