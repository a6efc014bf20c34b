package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
)

// CaptureMessage acknowledges a captured document
const CaptureMessage = "Document added successfully."

// Capture normalises a browser capture by extraction method, substitutes
// a video transcript when one can be fetched and ingests the result.
func (e *Engine) Capture(ctx context.Context, req domain.CaptureRequest) (*domain.CaptureResult, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("%w: title and content are required", domain.ErrValidation)
	}
	if err := e.lifecycle.CheckReady(); err != nil {
		return nil, err
	}

	method := req.ExtractionMethod
	if method == "" {
		method = domain.DefaultExtractionMethod
	}
	title, content := req.Title, req.Content

	if e.normalisers != nil {
		if n := e.normalisers.Get(method); n != nil {
			before := len(content)
			content = n.Normalise(content)
			e.logger.Debug("capture normalised",
				"method", method,
				"chars_before", before,
				"chars_after", len(content),
			)
		}
	}

	if req.URL != "" && domain.IsVideoURL(req.URL) {
		title = domain.CleanVideoTitle(title)
		if transcript := e.fetchTranscript(ctx, req.URL); transcript != "" {
			content = transcript
			method = domain.ExtractionTranscript
		}
	}

	e.logger.Info("processing capture",
		"title", domain.Snippet(title, titleFromContent),
		"url", req.URL,
		"extraction_method", method,
	)

	id, err := e.Ingest(ctx, domain.IngestRequest{
		Title:   title,
		Content: content,
		URL:     req.URL,
		Source:  domain.SourceCapture,
	})
	if err != nil {
		return nil, err
	}

	return &domain.CaptureResult{
		DocumentID:       id,
		Message:          CaptureMessage,
		ExtractionMethod: method,
	}, nil
}

// fetchTranscript returns the transcript of a video URL, or "" when none is
// available within the transcript timeout.
func (e *Engine) fetchTranscript(ctx context.Context, url string) string {
	if e.transcripts == nil {
		return ""
	}

	tctx, cancel := context.WithTimeout(ctx, e.transcriptTimeout)
	defer cancel()

	transcript, err := e.transcripts.Fetch(tctx, url)
	if err != nil {
		e.logger.Warn("transcript fetch failed, using captured content",
			"url", url,
			"error", err,
		)
		return ""
	}
	if strings.TrimSpace(transcript) == "" {
		e.logger.Info("no transcript available, using captured content", "url", url)
		return ""
	}
	return transcript
}
