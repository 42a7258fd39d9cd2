package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gistify/internal/apperr"
	"gistify/internal/urls"
	"gistify/internal/youtube"
)

const subtitlesDisabledMessage = "Subtitles disabled for this video"

// TranscriptLanguages is scanned in order; the first language with a
// transcript wins.
//
//nolint:gochecknoglobals // Read-only preference list.
var TranscriptLanguages = []string{"en", "en-US", "en-GB", "en-IN"}

// TranscriptSource reads the caption track list of a video once per
// extraction. List must wrap youtube.ErrTranscriptsDisabled when the video
// has no captions at all.
type TranscriptSource interface {
	List(ctx context.Context, videoID string) (TranscriptList, error)
}

type TranscriptList interface {
	// Fetch must wrap youtube.ErrNoTranscript when lang has no track.
	Fetch(ctx context.Context, lang string) ([]youtube.Segment, error)
	Languages() []string
}

type youtubeSource struct {
	client *youtube.Client
}

// YouTubeSource adapts a youtube.Client to TranscriptSource.
func YouTubeSource(client *youtube.Client) TranscriptSource {
	return youtubeSource{client: client}
}

func (s youtubeSource) List(ctx context.Context, videoID string) (TranscriptList, error) {
	list, err := s.client.List(ctx, videoID)
	if err != nil {
		return nil, err
	}

	return list, nil
}

type Transcript struct {
	source TranscriptSource
	log    *slog.Logger
}

func NewTranscript(source TranscriptSource, log *slog.Logger) *Transcript {
	return &Transcript{
		source: source,
		log:    log,
	}
}

func (t *Transcript) Extract(ctx context.Context, url string) (string, error) {
	videoID := urls.VideoID(url)

	list, err := t.source.List(ctx, videoID)
	if err != nil {
		return "", t.failure(ctx, videoID, err)
	}

	segments, lang, err := firstSuccess(
		TranscriptLanguages,
		func(lang string) ([]youtube.Segment, error) {
			return list.Fetch(ctx, lang)
		},
		func(err error) bool {
			return errors.Is(err, youtube.ErrNoTranscript)
		},
	)
	if err == nil {
		content := joinSegments(segments)

		t.log.InfoContext(ctx, "Transcript is found",
			"videoID", videoID,
			"language", lang,
			"chars", len([]rune(content)))

		return content, nil
	}

	if errors.Is(err, errCandidatesExhausted) {
		return "", t.noPreferredLanguage(ctx, videoID, list.Languages())
	}

	return "", t.failure(ctx, videoID, err)
}

func (t *Transcript) noPreferredLanguage(ctx context.Context, videoID string, available []string) error {
	message := fmt.Sprintf("No English transcript found. Available languages: %q", available)

	t.log.ErrorContext(ctx, "No transcript in preferred languages",
		"videoID", videoID,
		"preferred", TranscriptLanguages,
		"available", available)

	return apperr.Extraction(message, nil)
}

func (t *Transcript) failure(ctx context.Context, videoID string, err error) error {
	if errors.Is(err, youtube.ErrTranscriptsDisabled) {
		t.log.ErrorContext(ctx, "Subtitles are disabled",
			"videoID", videoID)

		return apperr.Extraction(subtitlesDisabledMessage, err)
	}

	t.log.ErrorContext(ctx, "Failed to get transcript",
		"error", err,
		"videoID", videoID)

	return apperr.Extraction("Could not process YouTube video: "+err.Error(), err)
}

func joinSegments(segments []youtube.Segment) string {
	texts := make([]string, 0, len(segments))
	for _, s := range segments {
		texts = append(texts, s.Text)
	}

	return strings.Join(texts, " ")
}
