package postprocessors

import (
	"iter"
	"sort"
	"sync"

	"github.com/custodia-labs/localmind-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline implements PostProcessorPipeline.
// It chains multiple post-processors in order, starting with a Chunker.
type Pipeline struct {
	mu         sync.RWMutex
	processors []driven.PostProcessor
	sorted     bool
}

// NewPipeline creates a new post-processor pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{
		processors: make([]driven.PostProcessor, 0),
	}
}

// Add adds a processor to the pipeline.
// Processors are sorted by Order() before processing.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processors = append(p.processors, processor)
	p.sorted = false
}

// Process returns the ordinal-numbered chunks of content.
// Nothing is computed until the sequence is ranged over, and each range
// starts over from the first window. Empty content yields no chunks.
func (p *Pipeline) Process(content string) iter.Seq2[int, driven.Chunk] {
	processors := p.snapshot()

	return func(yield func(int, driven.Chunk) bool) {
		if content == "" {
			return
		}

		var seq iter.Seq[driven.Chunk] = func(yield func(driven.Chunk) bool) {
			yield(driven.Chunk{
				Content:     content,
				StartOffset: 0,
				EndOffset:   runeLen(content),
			})
		}
		for _, proc := range processors {
			seq = proc.Process(seq)
		}

		ordinal := 0
		for chunk := range seq {
			if !yield(ordinal, chunk) {
				return
			}
			ordinal++
		}
	}
}

// Collect materializes the chunks of content.
func (p *Pipeline) Collect(content string) []driven.Chunk {
	var chunks []driven.Chunk
	for _, c := range p.Process(content) {
		chunks = append(chunks, c)
	}
	return chunks
}

// List returns processor names in order.
func (p *Pipeline) List() []string {
	processors := p.snapshot()

	names := make([]string, len(processors))
	for i, proc := range processors {
		names[i] = proc.Name()
	}
	return names
}

func (p *Pipeline) snapshot() []driven.PostProcessor {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.sorted {
		sort.SliceStable(p.processors, func(i, j int) bool {
			return p.processors[i].Order() < p.processors[j].Order()
		})
		p.sorted = true
	}

	processors := make([]driven.PostProcessor, len(p.processors))
	copy(processors, p.processors)
	return processors
}

// DefaultPipeline creates a pipeline that windows content and keeps every
// window within the embedding backend's input limit.
func DefaultPipeline(config ChunkConfig) *Pipeline {
	p := NewPipeline()
	p.Add(NewChunker(config))
	p.Add(NewInputLimiter(config.MaxInputChars, config.Overlap))
	return p
}
