package extractor

import (
	"context"
	"errors"
	"log/slog"

	"gistify/internal/urls"
)

// Extractor reduces the resource behind a validated URL to plain text.
type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

var errCandidatesExhausted = errors.New("every candidate was skipped")

// firstSuccess calls try for each candidate in order and returns the first
// success along with the candidate that produced it. Errors for which skip
// reports true move on to the next candidate; any other error ends the scan.
func firstSuccess[T any](
	candidates []string,
	try func(candidate string) (T, error),
	skip func(err error) bool,
) (T, string, error) {
	var zero T

	for _, candidate := range candidates {
		v, err := try(candidate)
		if err == nil {
			return v, candidate, nil
		}

		if !skip(err) {
			return zero, candidate, err
		}
	}

	return zero, "", errCandidatesExhausted
}

// Router dispatches by URL shape: YouTube URLs go to the transcript
// extractor, everything else to the webpage extractor.
type Router struct {
	transcript Extractor
	webpage    Extractor
	log        *slog.Logger
}

func NewRouter(transcript Extractor, webpage Extractor, log *slog.Logger) *Router {
	return &Router{
		transcript: transcript,
		webpage:    webpage,
		log:        log,
	}
}

func (r *Router) Extract(ctx context.Context, url string) (string, error) {
	source := urls.Route(url)

	r.log.InfoContext(ctx, "Content source is chosen",
		"url", url,
		"source", source.String())

	if source == urls.SourceTranscript {
		return r.transcript.Extract(ctx, url)
	}

	return r.webpage.Extract(ctx, url)
}
