// Package pipeline sequences validation, extraction and summarization for a
// single request.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"gistify/internal/apperr"
	"gistify/internal/domain"
	"gistify/internal/urls"
)

type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, content string, level int) (string, error)
}

type Pipeline struct {
	extractor  Extractor
	summarizer Summarizer
	log        *slog.Logger
}

func New(extractor Extractor, summarizer Summarizer, log *slog.Logger) *Pipeline {
	return &Pipeline{
		extractor:  extractor,
		summarizer: summarizer,
		log:        log,
	}
}

// Run returns either a result or an *apperr.Error, never both. Untagged
// errors and panics from a stage come back as KindInternal.
func (p *Pipeline) Run(
	ctx context.Context,
	req domain.SummaryRequest,
) (result domain.SummaryResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered panic: %v", r)
		}

		if err != nil {
			appErr := apperr.From(err)

			p.log.ErrorContext(ctx, "Request failed",
				"url", req.URL,
				"kind", appErr.Kind.String(),
				"message", appErr.Message,
				"error", appErr.Err)

			result, err = domain.SummaryResult{}, appErr
		}
	}()

	p.log.InfoContext(ctx, "Request is received",
		"url", req.URL,
		"level", req.Level)

	if !domain.ValidLevel(req.Level) {
		return domain.SummaryResult{}, apperr.Validation(
			fmt.Sprintf("Level must be between %d and %d", domain.MinLevel, domain.MaxLevel))
	}

	url, err := urls.Validate(req.URL)
	if err != nil {
		return domain.SummaryResult{}, err
	}

	p.log.InfoContext(ctx, "Request is validated",
		"url", url)

	content, err := p.extractor.Extract(ctx, url)
	if err != nil {
		return domain.SummaryResult{}, fmt.Errorf("extract content: %w", err)
	}

	p.log.InfoContext(ctx, "Content is extracted",
		"url", url,
		"chars", len([]rune(content)))

	summary, err := p.summarizer.Summarize(ctx, content, req.Level)
	if err != nil {
		return domain.SummaryResult{}, fmt.Errorf("summarize content: %w", err)
	}

	p.log.InfoContext(ctx, "Summary is generated",
		"url", url,
		"chars", len([]rune(summary)))

	return domain.SummaryResult{Summary: summary}, nil
}
