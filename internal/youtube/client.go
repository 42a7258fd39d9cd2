package youtube

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	defaultBaseURL = "https://www.youtube.com"

	maxWatchPageBytes = 6 << 20
	maxTimedTextBytes = 2 << 20

	playerResponseMarker = "ytInitialPlayerResponse = "
	asrKind              = "asr"
)

var (
	ErrNoTranscript        = errors.New("no transcript found")
	ErrTranscriptsDisabled = errors.New("transcripts are disabled")
)

// Segment is one timed caption entry.
type Segment struct {
	Text     string
	Start    string
	Duration string
}

type track struct {
	baseURL  string
	language string
	kind     string
}

type timedText struct {
	Lines []struct {
		Start    string `xml:"start,attr"`
		Duration string `xml:"dur,attr"`
		Text     string `xml:",chardata"`
	} `xml:"text"`
}

// Client reads caption tracks from the player response embedded in the
// public watch page, so no API key is needed.
type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	log        *slog.Logger
}

func NewClient(httpClient *http.Client, userAgent string, log *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		userAgent:  userAgent,
		baseURL:    defaultBaseURL,
		log:        log,
	}
}

// TrackList is the caption track list of one video, read from a single
// watch page download.
type TrackList struct {
	client  *Client
	videoID string
	tracks  []track
}

// List downloads the watch page once and returns its caption tracks.
func (c *Client) List(ctx context.Context, videoID string) (*TrackList, error) {
	tracks, err := c.tracks(ctx, videoID)
	if err != nil {
		return nil, err
	}

	return &TrackList{
		client:  c,
		videoID: videoID,
		tracks:  tracks,
	}, nil
}

// Fetch returns the segments of the track in exactly lang, preferring a
// manually created track over an auto-generated one.
func (l *TrackList) Fetch(ctx context.Context, lang string) ([]Segment, error) {
	t, ok := pickTrack(l.tracks, lang)
	if !ok {
		return nil, fmt.Errorf("%w for language %s", ErrNoTranscript, lang)
	}

	l.client.log.DebugContext(ctx, "Caption track is selected",
		"videoID", l.videoID,
		"language", t.language,
		"kind", t.kind)

	return l.client.fetchTimedText(ctx, t.baseURL)
}

// Languages lists distinct caption language codes in the order YouTube
// reports them.
func (l *TrackList) Languages() []string {
	languages := make([]string, 0, len(l.tracks))
	seen := make(map[string]struct{}, len(l.tracks))

	for _, t := range l.tracks {
		if _, ok := seen[t.language]; ok {
			continue
		}

		seen[t.language] = struct{}{}
		languages = append(languages, t.language)
	}

	return languages
}

func pickTrack(tracks []track, lang string) (track, bool) {
	var generated *track

	for i := range tracks {
		if tracks[i].language != lang {
			continue
		}

		if tracks[i].kind != asrKind {
			return tracks[i], true
		}

		if generated == nil {
			generated = &tracks[i]
		}
	}

	if generated != nil {
		return *generated, true
	}

	return track{}, false
}

func (c *Client) tracks(ctx context.Context, videoID string) ([]track, error) {
	if strings.TrimSpace(videoID) == "" {
		return nil, errors.New("video ID is empty")
	}

	watchURL := c.baseURL + "/watch?v=" + url.QueryEscape(videoID)

	body, err := c.get(ctx, watchURL, maxWatchPageBytes)
	if err != nil {
		return nil, fmt.Errorf("fetch watch page: %w", err)
	}

	idx := strings.Index(body, playerResponseMarker)
	if idx < 0 {
		return nil, errors.New("player response is not found in watch page")
	}

	player := cutJSONObject(body[idx+len(playerResponseMarker):])
	if player == "" || !gjson.Valid(player) {
		return nil, errors.New("player response is malformed")
	}

	status := gjson.Get(player, "playabilityStatus.status").String()
	if status != "" && status != "OK" {
		reason := gjson.Get(player, "playabilityStatus.reason").String()

		return nil, fmt.Errorf("video is unplayable (status = %s): %s", status, reason)
	}

	captionTracks := gjson.Get(player, "captions.playerCaptionsTracklistRenderer.captionTracks").Array()
	if len(captionTracks) == 0 {
		return nil, ErrTranscriptsDisabled
	}

	tracks := make([]track, 0, len(captionTracks))
	for _, ct := range captionTracks {
		tracks = append(tracks, track{
			baseURL:  ct.Get("baseUrl").String(),
			language: ct.Get("languageCode").String(),
			kind:     ct.Get("kind").String(),
		})
	}

	return tracks, nil
}

func (c *Client) fetchTimedText(ctx context.Context, baseURL string) ([]Segment, error) {
	body, err := c.get(ctx, baseURL, maxTimedTextBytes)
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}

	var tt timedText
	if err = xml.Unmarshal([]byte(body), &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext: %w", err)
	}

	segments := make([]Segment, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		text := strings.TrimSpace(html.UnescapeString(line.Text))
		if text == "" {
			continue
		}

		segments = append(segments, Segment{
			Text:     text,
			Start:    line.Start,
			Duration: line.Duration,
		})
	}

	if len(segments) == 0 {
		return nil, errors.New("timedtext has no segments")
	}

	return segments, nil
}

func (c *Client) get(ctx context.Context, rawURL string, limit int64) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.log.WarnContext(ctx, "Failed to close response body",
				"error", closeErr,
				"url", rawURL)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	return string(body), nil
}

// cutJSONObject returns the balanced object at the start of s, or "" when s
// does not start with one.
func cutJSONObject(s string) string {
	if s == "" || s[0] != '{' {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := range len(s) {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}

			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}

	return ""
}
