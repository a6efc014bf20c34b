package driven

import "context"

// TranscriptFetcher retrieves the transcript of a video URL.
// Returns "" with a nil error when the video has no transcript.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoURL string) (string, error)
}
