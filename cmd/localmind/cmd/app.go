package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/localmind-core/internal/adapters/driven/ai"
	"github.com/custodia-labs/localmind-core/internal/adapters/driven/bookmarks"
	"github.com/custodia-labs/localmind-core/internal/adapters/driven/fetcher"
	"github.com/custodia-labs/localmind-core/internal/adapters/driven/memory"
	"github.com/custodia-labs/localmind-core/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/localmind-core/internal/adapters/driven/redis"
	"github.com/custodia-labs/localmind-core/internal/adapters/driven/transcript"
	"github.com/custodia-labs/localmind-core/internal/config"
	"github.com/custodia-labs/localmind-core/internal/core/ports/driven"
	"github.com/custodia-labs/localmind-core/internal/core/services"
	"github.com/custodia-labs/localmind-core/internal/normalisers"
	"github.com/custodia-labs/localmind-core/internal/postprocessors"
)

// app holds the wired engine and the connections it owns
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	engine *services.Engine
	db     *postgres.DB
	lock   *redisadapter.Lock // nil without redis

	closers []func() error
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler
	if cfg.LogJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// buildApp connects the stores and wires the engine. The engine is
// returned uninitialized.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	a := &app{cfg: cfg, logger: logger}

	// ===== PostgreSQL =====
	log.Println("Connecting to PostgreSQL...")
	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, db.Close)

	if err := db.InitSchema(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	log.Println("PostgreSQL connected and schema initialized")

	// ===== Redis (optional) =====
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		log.Println("Connecting to Redis...")
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		redisClient = redis.NewClient(opts)
		a.closers = append(a.closers, redisClient.Close)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		log.Println("Redis connected")
	}

	// ===== Query cache and engine lock (Redis if available) =====
	var queryCache driven.QueryCache
	var lock driven.DistributedLock
	if redisClient != nil {
		queryCache = redisadapter.NewQueryCache(redisClient, cfg.QueryCacheTTL, logger)
		a.lock = redisadapter.NewLock(redisClient)
		lock = a.lock
		log.Println("Using Redis query cache and engine lock")
	} else {
		memCache, err := memory.NewQueryCache(cfg.QueryCacheSize)
		if err != nil {
			a.Close()
			return nil, err
		}
		queryCache = memCache
		lock = postgres.NewAdvisoryLock(db)
		log.Println("Using in-process query cache and PostgreSQL advisory lock")
	}

	// ===== Embedding backend =====
	backoff := ai.DefaultBackoff()
	backoff.Base = cfg.EmbedBaseDelay
	backoff.Max = cfg.EmbedMaxDelay
	backoff.MaxRetries = cfg.EmbedMaxRetries
	embedder, err := ai.NewLocalEmbedding(ai.LocalEmbeddingConfig{
		BaseURL:    cfg.EmbeddingURL,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDims,
		Timeout:    cfg.EmbeddingTimeout,
		Backoff:    backoff,
		Logger:     logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	// ===== Collaborators =====
	var transcripts driven.TranscriptFetcher
	if cfg.TranscriptURL != "" {
		transcripts = transcript.NewClient(cfg.TranscriptURL, cfg.TranscriptTimeout)
	}

	var bookmarkSource driven.BookmarkSource
	bookmarksPath := cfg.BookmarksPath
	if bookmarksPath == "" {
		bookmarksPath = bookmarks.DefaultPath()
	}
	if bookmarksPath != "" {
		bookmarkSource = bookmarks.NewChromeSource(bookmarksPath)
	}

	engine, err := services.NewEngine(services.EngineOptions{
		Documents:   postgres.NewDocumentStore(db),
		Chunks:      postgres.NewChunkStore(db, cfg.EmbeddingDims),
		Rules:       postgres.NewExclusionStore(db),
		Index:       memory.NewVectorIndex(cfg.EmbeddingDims),
		Embedder:    embedder,
		QueryCache:  queryCache,
		Bookmarks:   bookmarkSource,
		Transcripts: transcripts,
		Pages:       fetcher.NewWebFetcher(cfg.PageTimeout),
		Normalisers: normalisers.DefaultRegistry(),
		Pipeline: postprocessors.DefaultPipeline(postprocessors.ChunkConfig{
			MaxChunkSize:  cfg.Engine.ChunkSize,
			Overlap:       cfg.Engine.ChunkOverlap,
			MaxInputChars: cfg.Engine.MaxInputChars,
		}),
		Lock:              lock,
		Config:            cfg.Engine,
		TranscriptTimeout: cfg.TranscriptTimeout,
		PageTimeout:       cfg.PageTimeout,
		Logger:            logger,
	})
	if err != nil {
		_ = embedder.Close()
		a.Close()
		return nil, err
	}
	a.engine = engine

	return a, nil
}

// openEngine builds the app and initializes the engine synchronously
func openEngine(ctx context.Context) (*app, error) {
	a, err := buildApp(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.engine.Initialize(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases the engine lock and closes every connection
func (a *app) Close() error {
	var errs []error
	if a.engine != nil {
		errs = append(errs, a.engine.Close(context.Background()))
		a.engine = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
