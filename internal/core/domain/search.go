package domain

import (
	"math"
	"sort"
	"time"
)

// SearchOptions configures a search request
type SearchOptions struct {
	// Cutoff is an explicit minimum score. Nil selects the adaptive threshold.
	Cutoff *float64 `json:"cutoff,omitempty"`
}

// SearchHit is the best-scoring chunk of one document
type SearchHit struct {
	DocumentID int64     `json:"document_id"`
	ChunkID    int64     `json:"chunk_id"`
	Title      string    `json:"title"`
	URL        string    `json:"url,omitempty"`
	Snippet    string    `json:"snippet"`
	Score      float64   `json:"score"`
	CreatedAt  time.Time `json:"created_at"`
}

// SearchResult represents the result of a search query
type SearchResult struct {
	Query      string        `json:"query"`
	Cutoff     float64       `json:"cutoff"`
	Adaptive   bool          `json:"adaptive"`
	Hits       []SearchHit   `json:"hits"`
	Candidates int           `json:"candidates"`
	HasMore    bool          `json:"has_more"`
	Took       time.Duration `json:"took" swaggertype:"integer" example:"1500000"`
}

// AdaptiveThreshold computes the cutoff from the score distribution of a query.
// It targets a result window of min(8, max(5, n/10)), takes the score at that
// rank, floors it to two decimals and never returns less than minimum.
func AdaptiveThreshold(scores []float64, minimum float64) float64 {
	n := len(scores)
	if n == 0 {
		return minimum
	}

	sorted := make([]float64, n)
	copy(sorted, scores)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	target := min(8, max(5, n/10))
	rank := min(target, n)

	threshold := FloorScore(sorted[rank-1])
	if threshold < minimum {
		return minimum
	}
	return threshold
}

// FloorScore floors a score to two decimals. Scores are first rounded to six
// decimals so float32 artifacts like 0.69999999 floor to 0.69 only when real.
func FloorScore(score float64) float64 {
	micro := math.Round(score * 1e6)
	return math.Floor(micro/1e4) / 100
}

// LowerCutoff returns the cutoff for a load-more step, never below zero.
func LowerCutoff(current, step float64) float64 {
	next := math.Round((current-step)*100) / 100
	if next < 0 {
		return 0
	}
	return next
}
