package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gistify/internal/apperr"
)

const (
	// MaxContentChars caps what reaches the backend. Anything past it is
	// dropped without an error.
	MaxContentChars = 3000

	bulletBase = 3

	unavailableMessage = "AI service unavailable"
	failedMessage      = "Could not generate summary"
)

// Generator sends a finished prompt to the inference backend and returns
// the generated text. A non-2xx backend reply must come back as
// *StatusError.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// StatusError carries the backend's reply for logs. It never reaches the
// caller-facing message.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend replied with status %d: %s", e.StatusCode, e.Body)
}

type Summarizer struct {
	generator Generator
	log       *slog.Logger
}

func New(generator Generator, log *slog.Logger) *Summarizer {
	return &Summarizer{
		generator: generator,
		log:       log,
	}
}

// Summarize asks the backend for BulletCount(level) bullet points about
// content.
func (s *Summarizer) Summarize(ctx context.Context, content string, level int) (string, error) {
	truncated, dropped := truncate(content, MaxContentChars)

	if dropped > 0 {
		s.log.DebugContext(ctx, "Content is truncated",
			"originalChars", MaxContentChars+dropped,
			"droppedChars", dropped)
	}

	s.log.InfoContext(ctx, "Generating summary",
		"level", level,
		"bullets", BulletCount(level))

	summary, err := s.generator.Generate(ctx, BuildPrompt(truncated, level))
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			s.log.ErrorContext(ctx, "AI service error",
				"status", statusErr.StatusCode,
				"body", statusErr.Body)

			return "", apperr.Generation(unavailableMessage, err)
		}

		s.log.ErrorContext(ctx, "Summarization failed",
			"error", err)

		return "", apperr.Generation(failedMessage, err)
	}

	return summary, nil
}

func BulletCount(level int) int {
	return bulletBase + level
}

// BuildPrompt expects content to be truncated already.
func BuildPrompt(content string, level int) string {
	return fmt.Sprintf("Create %d bullet points summarizing this, no header or footer:\n%s",
		BulletCount(level), content)
}

// truncate keeps the first limit characters of s and reports how many were
// dropped.
func truncate(s string, limit int) (string, int) {
	count := 0
	for i := range s {
		if count == limit {
			return s[:i], len([]rune(s[i:]))
		}
		count++
	}

	return s, 0
}
