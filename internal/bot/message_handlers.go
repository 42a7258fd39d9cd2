package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"mvdan.cc/xurls/v2"

	"gistify/internal/apperr"
	"gistify/internal/domain"
	"gistify/internal/markdown"
)

const welcomeText = `🤖 *Welcome to Gistify\!*

Send me a link to an article or a YouTube video and I will reply with a short bullet summary\.

Add a number from 1 to 5 to change the detail level \(default 3\), e\.g\.
` + "`https://go.dev/blog 5`"

const usageText = `✖️ Send me an http or https link, optionally followed by a level from 1 to 5\.`

func (b *Bot) handleMessage(ctx context.Context, chatID int64, text string) error {
	req, ok, err := parseRequest(text)
	if err != nil {
		return fmt.Errorf("parse request: %w", err)
	}

	if !ok {
		if err = b.sendMarkdown(ctx, chatID, usageText); err != nil {
			return fmt.Errorf("send usage message: %w", err)
		}

		return nil
	}

	b.log.InfoContext(ctx, "Summary is requested",
		"chatID", chatID,
		"url", req.URL,
		"level", req.Level)

	reply := b.withSpinner(ctx, chatID, func() string {
		return replyText(b.runner.Run(ctx, req))
	})

	if err = b.sendMarkdown(ctx, chatID, reply); err != nil {
		return fmt.Errorf("send summary: %w", err)
	}

	return nil
}

// parseRequest takes the first http(s) URL in text and the first standalone
// integer around it as the level. Range checking is left to the pipeline.
func parseRequest(text string) (domain.SummaryRequest, bool, error) {
	httpURLRe, err := xurls.StrictMatchingScheme("https?://")
	if err != nil {
		return domain.SummaryRequest{}, false, fmt.Errorf("create regexp: %w", err)
	}

	loc := httpURLRe.FindStringIndex(text)
	if loc == nil {
		return domain.SummaryRequest{}, false, nil
	}

	url := text[loc[0]:loc[1]]

	req := domain.SummaryRequest{
		URL:   url,
		Level: domain.DefaultLevel,
	}

	rest := text[:loc[0]] + " " + text[loc[1]:]
	for _, field := range strings.Fields(rest) {
		if level, err := strconv.Atoi(field); err == nil {
			req.Level = level
			break
		}
	}

	return req, true, nil
}

func replyText(result domain.SummaryResult, err error) string {
	if err != nil {
		return "❌ " + markdown.EscapeV2(apperr.From(err).Message)
	}

	summary := markdown.Bullets(result.Summary)
	if summary == "" {
		return "✖️ The summary came back empty\\."
	}

	return summary
}
