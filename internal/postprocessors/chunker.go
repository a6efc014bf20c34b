package postprocessors

import (
	"iter"
	"unicode/utf8"

	"github.com/custodia-labs/localmind-core/internal/core/ports/driven"
)

// ChunkConfig configures the chunker behavior.
// Sizes are counted in characters (runes), not bytes.
type ChunkConfig struct {
	// MaxChunkSize is the window size W
	MaxChunkSize int

	// Overlap is the number of characters O shared by consecutive windows
	Overlap int

	// MaxInputChars is the embedding backend's input limit
	MaxInputChars int
}

// DefaultChunkConfig returns sensible defaults.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChunkSize:  500,
		Overlap:       50,
		MaxInputChars: 2048,
	}
}

// Chunker splits content into fixed-size overlapping windows.
// This is the first processor in the pipeline (Order = 0).
type Chunker struct {
	size    int
	overlap int
}

// Verify interface compliance
var _ driven.PostProcessor = (*Chunker)(nil)

// NewChunker creates a new chunker with the given config.
// An overlap that would stall the window is clamped to size-1.
func NewChunker(config ChunkConfig) *Chunker {
	size := max(config.MaxChunkSize, 1)
	overlap := min(max(config.Overlap, 0), size-1)
	return &Chunker{size: size, overlap: overlap}
}

// Process windows every incoming chunk.
func (c *Chunker) Process(in iter.Seq[driven.Chunk]) iter.Seq[driven.Chunk] {
	return func(yield func(driven.Chunk) bool) {
		for chunk := range in {
			if !window(chunk, c.size, c.overlap, yield) {
				return
			}
		}
	}
}

// Name returns the processor name.
func (c *Chunker) Name() string {
	return "chunker"
}

// Order returns 0 - chunker should be first.
func (c *Chunker) Order() int {
	return 0
}

// InputLimiter sub-splits windows longer than the embedding input limit.
type InputLimiter struct {
	limit   int
	overlap int
}

// Verify interface compliance
var _ driven.PostProcessor = (*InputLimiter)(nil)

// NewInputLimiter creates an InputLimiter. A non-positive limit disables it.
func NewInputLimiter(limit, overlap int) *InputLimiter {
	if limit > 0 {
		overlap = min(max(overlap, 0), limit-1)
	}
	return &InputLimiter{limit: limit, overlap: overlap}
}

// Process passes windows through, splitting the oversized ones.
func (l *InputLimiter) Process(in iter.Seq[driven.Chunk]) iter.Seq[driven.Chunk] {
	return func(yield func(driven.Chunk) bool) {
		for chunk := range in {
			if l.limit <= 0 || chunk.EndOffset-chunk.StartOffset <= l.limit {
				if !yield(chunk) {
					return
				}
				continue
			}
			if !window(chunk, l.limit, l.overlap, yield) {
				return
			}
		}
	}
}

// Name returns the processor name.
func (l *InputLimiter) Name() string {
	return "input-limiter"
}

// Order returns 10 - runs after the chunker.
func (l *InputLimiter) Order() int {
	return 10
}

// window yields size-rune windows of chunk stepping by size-overlap.
// Returns false when the consumer stopped early.
func window(chunk driven.Chunk, size, overlap int, yield func(driven.Chunk) bool) bool {
	if chunk.Content == "" {
		return true
	}

	runes := []rune(chunk.Content)
	n := len(runes)
	step := size - overlap

	for start := 0; ; start += step {
		end := min(start+size, n)
		ok := yield(driven.Chunk{
			Content:     string(runes[start:end]),
			StartOffset: chunk.StartOffset + start,
			EndOffset:   chunk.StartOffset + end,
		})
		if !ok {
			return false
		}
		if end == n {
			return true
		}
	}
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
