package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
	"github.com/custodia-labs/localmind-core/internal/core/ports/driven"
	"github.com/custodia-labs/localmind-core/internal/core/ports/driving"
	"github.com/custodia-labs/localmind-core/internal/postprocessors"
	"github.com/custodia-labs/localmind-core/internal/runtime"
	"github.com/custodia-labs/localmind-core/internal/telemetry"
	"github.com/custodia-labs/localmind-core/internal/worker"
)

// Ensure Engine implements every driving port
var (
	_ driving.EngineService    = (*Engine)(nil)
	_ driving.DocumentService  = (*Engine)(nil)
	_ driving.SearchService    = (*Engine)(nil)
	_ driving.ExclusionService = (*Engine)(nil)
	_ driving.CaptureService   = (*Engine)(nil)
	_ driving.BookmarkService  = (*Engine)(nil)
)

// EngineLockName is the distributed lock held while an engine owns the store
const EngineLockName = "engine"

const (
	// DefaultTranscriptTimeout bounds a transcript fetch during capture
	DefaultTranscriptTimeout = 30 * time.Second

	// DefaultPageTimeout bounds a page fetch during bookmark ingestion
	DefaultPageTimeout = 10 * time.Second
)

// Engine is the retrieval engine shared by the HTTP server and the CLI.
//
// Searches and reads run concurrently under the read lock. Ingest, edit,
// delete and exclusion sweeps hold the write lock only while they mutate the
// store and the vector index, so a search sees either the whole old state or
// the whole new state. Chunking and embedding happen before the write lock.
type Engine struct {
	mu sync.RWMutex

	lifecycle *runtime.Lifecycle
	cfg       domain.EngineConfig
	logger    *slog.Logger

	documents   driven.DocumentStore
	chunks      driven.ChunkStore
	rules       driven.ExclusionStore
	index       driven.VectorIndex
	embedder    driven.EmbeddingService
	queryCache  driven.QueryCache
	bookmarks   driven.BookmarkSource
	transcripts driven.TranscriptFetcher
	pages       driven.PageFetcher
	normalisers driven.NormaliserRegistry
	pipeline    driven.PostProcessorPipeline
	lock        driven.DistributedLock
	keeper      *worker.LockKeeper

	transcriptTimeout time.Duration
	pageTimeout       time.Duration

	// matcher is swapped under the write lock and read without it
	matcher atomic.Pointer[domain.ExclusionMatcher]

	// candidates maps a query string to its ranked candidate hits.
	// Purged by every write.
	candidates *lru.Cache
}

// EngineOptions holds dependencies for Engine.
// Documents, Chunks, Rules, Index and Embedder are required.
type EngineOptions struct {
	Documents   driven.DocumentStore
	Chunks      driven.ChunkStore
	Rules       driven.ExclusionStore
	Index       driven.VectorIndex
	Embedder    driven.EmbeddingService
	QueryCache  driven.QueryCache            // optional
	Bookmarks   driven.BookmarkSource        // optional, enables folder rules
	Transcripts driven.TranscriptFetcher     // optional, enables video transcripts
	Pages       driven.PageFetcher           // optional, enables bookmark ingestion
	Normalisers driven.NormaliserRegistry    // optional
	Pipeline    driven.PostProcessorPipeline // defaults to postprocessors.DefaultPipeline
	Lock        driven.DistributedLock       // optional single-owner lock

	Config            domain.EngineConfig
	TranscriptTimeout time.Duration
	PageTimeout       time.Duration
	Logger            *slog.Logger
}

// NewEngine creates an uninitialized engine. Call Initialize before use.
func NewEngine(opts EngineOptions) (*Engine, error) {
	if opts.Documents == nil || opts.Chunks == nil || opts.Rules == nil || opts.Index == nil || opts.Embedder == nil {
		return nil, fmt.Errorf("%w: engine requires document, chunk and rule stores, an index and an embedder", domain.ErrConfiguration)
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pipeline := opts.Pipeline
	if pipeline == nil {
		pipeline = postprocessors.DefaultPipeline(postprocessors.ChunkConfig{
			MaxChunkSize:  opts.Config.ChunkSize,
			Overlap:       opts.Config.ChunkOverlap,
			MaxInputChars: opts.Config.MaxInputChars,
		})
	}

	size := opts.Config.CandidateCacheSize
	if size <= 0 {
		size = domain.DefaultEngineConfig().CandidateCacheSize
	}
	candidates, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("%w: candidate cache: %v", domain.ErrConfiguration, err)
	}

	timeout := opts.TranscriptTimeout
	if timeout <= 0 {
		timeout = DefaultTranscriptTimeout
	}
	pageTimeout := opts.PageTimeout
	if pageTimeout <= 0 {
		pageTimeout = DefaultPageTimeout
	}

	return &Engine{
		lifecycle:         runtime.NewLifecycle(),
		cfg:               opts.Config,
		logger:            logger,
		documents:         opts.Documents,
		chunks:            opts.Chunks,
		rules:             opts.Rules,
		index:             opts.Index,
		embedder:          opts.Embedder,
		queryCache:        opts.QueryCache,
		bookmarks:         opts.Bookmarks,
		transcripts:       opts.Transcripts,
		pages:             opts.Pages,
		normalisers:       opts.Normalisers,
		pipeline:          pipeline,
		lock:              opts.Lock,
		transcriptTimeout: timeout,
		pageTimeout:       pageTimeout,
		candidates:        candidates,
	}, nil
}

// Initialize takes the engine lock, loads the exclusion rules and rebuilds
// the vector index from the store. Any failure moves the engine to the
// terminal error state.
func (e *Engine) Initialize(ctx context.Context) error {
	if err := e.lifecycle.Begin(); err != nil {
		return err
	}

	start := time.Now()
	e.logger.Info("engine initializing")

	if err := e.initialize(ctx); err != nil {
		e.logger.Error("engine initialization failed", "error", err)
		if e.keeper != nil {
			e.keeper.Stop()
			e.keeper = nil
			if rerr := e.lock.Release(context.WithoutCancel(ctx), EngineLockName); rerr != nil {
				e.logger.Warn("failed to release engine lock", "error", rerr)
			}
		}
		_ = e.lifecycle.Fail(err)
		return err
	}

	if err := e.lifecycle.Ready(); err != nil {
		return err
	}
	e.logger.Info("engine ready",
		"chunks", e.index.Len(),
		"duration", time.Since(start),
	)
	return nil
}

func (e *Engine) initialize(ctx context.Context) error {
	if e.lock != nil {
		acquired, err := e.lock.Acquire(ctx, EngineLockName, e.cfg.LockTTL)
		if err != nil {
			return fmt.Errorf("acquire engine lock: %w", err)
		}
		if !acquired {
			return fmt.Errorf("%w: another process owns the store", domain.ErrConfiguration)
		}
		e.keeper = worker.NewLockKeeper(worker.LockKeeperConfig{
			Lock:   e.lock,
			Name:   EngineLockName,
			TTL:    e.cfg.LockTTL,
			Logger: e.logger,
		})
		e.keeper.Start(context.WithoutCancel(ctx))
	}

	rules, err := e.rules.GetRules(ctx)
	if err != nil {
		return fmt.Errorf("load exclusion rules: %w", err)
	}
	matcher, err := domain.NewExclusionMatcher(rules)
	if err != nil {
		return fmt.Errorf("%w: stored exclusion rules: %v", domain.ErrConfiguration, err)
	}
	e.matcher.Store(matcher)

	if err := e.embedder.HealthCheck(ctx); err != nil {
		// The backend may still be loading its model
		e.logger.Warn("embedding backend not healthy yet", "error", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.index.Reset()
	dims := e.embedder.Dimensions()
	err = e.chunks.ScanEmbeddings(ctx, func(c *domain.Chunk) error {
		if len(c.Embedding) != dims {
			e.logger.Error("stored embedding dimension mismatch",
				"chunk_id", c.ID,
				"document_id", c.DocumentID,
				"expected", dims,
				"actual", len(c.Embedding),
			)
			return fmt.Errorf("%w: chunk %d has %d dimensions, backend has %d",
				domain.ErrConfiguration, c.ID, len(c.Embedding), dims)
		}
		return e.index.Add(driven.IndexEntry{
			ChunkID:    c.ID,
			DocumentID: c.DocumentID,
			Vector:     c.Embedding,
		})
	})
	if err != nil {
		e.index.Reset()
		return fmt.Errorf("rebuild vector index: %w", err)
	}

	telemetry.IndexedChunks.Set(float64(e.index.Len()))
	return nil
}

// State returns the current lifecycle state
func (e *Engine) State() domain.EngineState {
	return e.lifecycle.State()
}

// Stats returns corpus size and lifecycle state. Counts are only reported
// once the engine is ready.
func (e *Engine) Stats(ctx context.Context) (*domain.EngineStats, error) {
	stats := &domain.EngineStats{
		State:      e.lifecycle.State(),
		Dimensions: e.embedder.Dimensions(),
		Model:      e.embedder.Model(),
	}
	if stats.State != domain.EngineReady {
		return stats, nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	count, err := e.documents.Count(ctx)
	if err != nil {
		return nil, err
	}
	stats.Documents = count
	stats.IndexedChunks = e.index.Len()
	return stats, nil
}

// Close stops the lock keeper, releases the engine lock and closes the embedder.
func (e *Engine) Close(ctx context.Context) error {
	var errs []error
	if e.keeper != nil {
		e.keeper.Stop()
	}
	if e.lock != nil && e.keeper != nil {
		if err := e.lock.Release(ctx, EngineLockName); err != nil {
			errs = append(errs, fmt.Errorf("release engine lock: %w", err))
		}
	}
	if err := e.embedder.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close embedder: %w", err))
	}
	return errors.Join(errs...)
}

// write runs fn inside the exclusive write window. The caller's
// cancellation is detached so an abandoned request cannot leave the store
// and the index half-applied. Candidate sets are purged afterwards.
func (e *Engine) write(ctx context.Context, fn func(ctx context.Context) error) error {
	wctx := context.WithoutCancel(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()

	err := fn(wctx)
	e.candidates.Purge()
	telemetry.IndexedChunks.Set(float64(e.index.Len()))
	return err
}
