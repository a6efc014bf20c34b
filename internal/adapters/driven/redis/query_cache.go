package redis

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"log/slog"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/localmind-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.QueryCache = (*QueryCache)(nil)

const queryPrefix = "localmind:query:"

// DefaultQueryTTL bounds how long a query embedding is kept
const DefaultQueryTTL = 24 * time.Hour

// QueryCache stores query embeddings in Redis so they survive restarts.
// Entries expire after the TTL; Redis errors degrade to cache misses.
type QueryCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewQueryCache creates a Redis-backed query cache
func NewQueryCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *QueryCache {
	if ttl <= 0 {
		ttl = DefaultQueryTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryCache{client: client, ttl: ttl, logger: logger}
}

func queryKey(query string) string {
	sum := sha256.Sum256([]byte(query))
	return queryPrefix + hex.EncodeToString(sum[:])
}

func (c *QueryCache) Get(ctx context.Context, query string) ([]float32, bool) {
	data, err := c.client.Get(ctx, queryKey(query)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("query cache read failed", "error", err)
		return nil, false
	}
	if len(data)%4 != 0 {
		return nil, false
	}

	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return vec, true
}

func (c *QueryCache) Put(ctx context.Context, query string, vector []float32) {
	data := make([]byte, 4*len(vector))
	for i, x := range vector {
		binary.LittleEndian.PutUint32(data[4*i:], math.Float32bits(x))
	}
	if err := c.client.Set(ctx, queryKey(query), data, c.ttl).Err(); err != nil {
		c.logger.Warn("query cache write failed", "error", err)
	}
}

// Len counts cached queries with a key scan
func (c *QueryCache) Len() int {
	ctx := context.Background()
	n := 0
	iter := c.client.Scan(ctx, 0, queryPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	return n
}
