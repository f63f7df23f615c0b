package driven

// ChunkSplitter deterministically splits text into ordered windows.
// Concatenating the windows reproduces the input exactly.
type ChunkSplitter interface {
	// Name returns the splitter name for logging and configuration.
	Name() string

	// Split returns the windows in order. Empty input yields no windows.
	Split(text string) []string
}
