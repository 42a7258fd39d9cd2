package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"gistify/internal/apperr"
)

const nonContentSelector = "script, style, template, noscript"

type Webpage struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	log       *slog.Logger
}

// NewWebpage expects client to carry the fetch timeout. Redirects follow the
// client's policy.
func NewWebpage(client *http.Client, userAgent string, maxBytes int64, log *slog.Logger) *Webpage {
	return &Webpage{
		client:    client,
		userAgent: userAgent,
		maxBytes:  maxBytes,
		log:       log,
	}
}

func (w *Webpage) Extract(ctx context.Context, url string) (string, error) {
	content, err := w.extract(ctx, url)
	if err != nil {
		w.log.ErrorContext(ctx, "Content extraction failed",
			"error", err,
			"url", url)

		return "", apperr.Extraction("Could not process content: "+err.Error(), err)
	}

	w.log.InfoContext(ctx, "Webpage is fetched",
		"url", url,
		"chars", len([]rune(content)))

	return content, nil
}

func (w *Webpage) extract(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", w.userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			w.log.WarnContext(ctx, "Failed to close response body",
				"error", closeErr,
				"url", url)
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, w.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	parser := readability.NewParser()

	article, err := parser.Parse(bytes.NewReader(body), resp.Request.URL)
	if err != nil {
		return "", fmt.Errorf("extract readable content: %w", err)
	}

	return htmlToText(article.Content)
}

// htmlToText keeps every non-blank text node, trimmed, one per line.
func htmlToText(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("parse readable content: %w", err)
	}

	doc.Find(nonContentSelector).Remove()

	var lines []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if line := strings.TrimSpace(n.Data); line != "" {
				lines = append(lines, line)
			}

			return
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, n := range doc.Nodes {
		walk(n)
	}

	return strings.Join(lines, "\n"), nil
}
