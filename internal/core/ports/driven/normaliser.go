package driven

import "iter"

// Normaliser cleans captured content before chunking.
// It is selected by the capture client's extraction method.
type Normaliser interface {
	// Normalise transforms raw captured content into clean text
	Normalise(content string) string

	// Methods returns the extraction methods this normaliser handles.
	// Entries ending in "*" match by prefix, "*x*" by substring and "*" alone
	// matches everything.
	Methods() []string

	// Priority returns the normaliser priority (higher = more specific).
	// Priority ranges:
	//   50-100: Source-specific (e.g., Google Docs mobile view)
	//   1-49:   Generic fallbacks (whitespace cleanup)
	Priority() int
}

// NormaliserRegistry manages content normalisers.
// When multiple normalisers match a method, the highest priority one is used.
type NormaliserRegistry interface {
	// Get retrieves the best-matching normaliser for an extraction method.
	// Returns nil if no normaliser is registered for the method.
	Get(method string) Normaliser

	// GetAll retrieves all normalisers that match a method, sorted by priority (highest first).
	GetAll(method string) []Normaliser

	// Register registers a normaliser.
	Register(normaliser Normaliser)

	// List returns all registered methods.
	List() []string
}

// PostProcessor transforms a lazy sequence of content windows.
// Processors form a pipeline: Chunker -> InputLimiter.
type PostProcessor interface {
	// Process consumes the previous stage lazily.
	// The first processor (Chunker) receives a single chunk with the full content.
	Process(in iter.Seq[Chunk]) iter.Seq[Chunk]

	// Name returns the processor name for logging/debugging.
	Name() string

	// Order returns the processor order in the pipeline (lower = earlier).
	Order() int
}

// Chunk represents a piece of document content for processing.
type Chunk struct {
	// Content is the text content of the chunk
	Content string

	// StartOffset is the rune offset from document start
	StartOffset int

	// EndOffset is the rune offset for chunk end (exclusive)
	EndOffset int
}

// PostProcessorPipeline chains multiple post-processors in order.
type PostProcessorPipeline interface {
	// Process returns the ordinal-numbered chunks of content.
	// The sequence is lazy and may be ranged over more than once.
	Process(content string) iter.Seq2[int, Chunk]

	// Add adds a processor to the pipeline.
	// Processors are sorted by Order() before processing.
	Add(processor PostProcessor)

	// List returns processor names in order.
	List() []string
}
