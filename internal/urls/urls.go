package urls

import (
	"net/url"
	"strings"

	"gistify/internal/apperr"
)

type Source int

const (
	SourceWebpage Source = iota
	SourceTranscript
)

func (s Source) String() string {
	if s == SourceTranscript {
		return "transcript"
	}

	return "webpage"
}

var youtubeHosts = []string{"youtube.com", "youtu.be"}

// Validate decodes raw once, checks that it is an absolute http(s) URL and
// trims a single trailing slash. It never touches the network.
func Validate(raw string) (string, error) {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		decoded = raw
	}

	u, err := url.Parse(decoded)
	if err != nil {
		decoded = escapeStrayPercents(decoded)

		if u, err = url.Parse(decoded); err != nil {
			return "", apperr.Validation("Invalid URL format")
		}
	}

	switch {
	case u.Scheme == "":
		return "", apperr.Validation("URL must include http:// or https://")
	case u.Host == "":
		return "", apperr.Validation("Invalid domain format")
	case u.Scheme != "http" && u.Scheme != "https":
		return "", apperr.Validation("Only HTTP/HTTPS URLs are supported")
	}

	return strings.TrimSuffix(decoded, "/"), nil
}

// escapeStrayPercents rewrites every "%" that does not start a valid escape
// as "%25", so a literal percent left by decoding parses again.
func escapeStrayPercents(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] == '%' && (i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2])) {
			b.WriteString("%25")
			continue
		}

		b.WriteByte(s[i])
	}

	return b.String()
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func Route(u string) Source {
	for _, host := range youtubeHosts {
		if strings.Contains(u, host) {
			return SourceTranscript
		}
	}

	return SourceWebpage
}

// VideoID takes whatever follows the last "v=" up to the next "&", falling
// back to the last path segment. Shortened, playlist and embed URLs are not
// normalised.
func VideoID(u string) string {
	if idx := strings.LastIndex(u, "v="); idx >= 0 {
		id, _, _ := strings.Cut(u[idx+len("v="):], "&")

		return id
	}

	return u[strings.LastIndex(u, "/")+1:]
}
