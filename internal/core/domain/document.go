package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Source kinds
const (
	SourceBookmark = "bookmark"
	SourceNote     = "note"
	SourceCapture  = "chrome_extension"
)

// SubjectToRules reports whether documents of this source kind are filtered
// by exclusion rules. Notes carry no bookmark origin and are never excluded.
func SubjectToRules(source string) bool {
	return source == SourceBookmark || source == SourceCapture
}

// Document is a durable record of ingested content
type Document struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	URL       string    `json:"url,omitempty"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	Deleted   bool      `json:"deleted,omitempty"`
}

// Chunk is a bounded substring of a document, the unit of embedding and ranking
type Chunk struct {
	ID         int64     `json:"id"`
	DocumentID int64     `json:"document_id"`
	Ordinal    int       `json:"ordinal"`
	Content    string    `json:"content"`
	StartChar  int       `json:"start_char"` // rune offset
	EndChar    int       `json:"end_char"`
	Embedding  []float32 `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// DocumentSummary is the list view of a document
type DocumentSummary struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Snippet   string    `json:"snippet"`
	URL       string    `json:"url,omitempty"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary builds a list view with a snippet of at most n characters.
func (d *Document) Summary(n int) DocumentSummary {
	return DocumentSummary{
		ID:        d.ID,
		Title:     d.Title,
		Snippet:   Snippet(d.Content, n),
		URL:       d.URL,
		Source:    d.Source,
		CreatedAt: d.CreatedAt,
	}
}

// Snippet collapses whitespace and truncates text to n characters.
func Snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:n])) + "..."
}

// IngestRequest is the input to the retrieval engine's ingest operation
type IngestRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url,omitempty"`
	Source  string `json:"source"`
}

// UpdateDocumentRequest replaces a document's title and content
type UpdateDocumentRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CaptureRequest is the payload sent by the browser capture client
type CaptureRequest struct {
	Title            string `json:"title"`
	Content          string `json:"content"`
	URL              string `json:"url,omitempty"`
	ExtractionMethod string `json:"extractionMethod,omitempty"`
}

// DefaultExtractionMethod is echoed when the capture client sends none
const DefaultExtractionMethod = "dom"

// CaptureResult acknowledges a captured document
type CaptureResult struct {
	DocumentID       int64  `json:"id"`
	Message          string `json:"message"`
	ExtractionMethod string `json:"extractionMethod"`
}

// EngineStats reports corpus size and lifecycle state
type EngineStats struct {
	State         EngineState `json:"state"`
	Documents     int         `json:"documents"`
	IndexedChunks int         `json:"indexed_chunks"`
	Dimensions    int         `json:"dimensions"`
	Model         string      `json:"model"`
}
