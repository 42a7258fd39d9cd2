package urls

import (
	"errors"
	"testing"

	"gistify/internal/apperr"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr string
	}{
		{
			name: "plain https",
			raw:  "https://example.com/article",
			want: "https://example.com/article",
		},
		{
			name: "single trailing slash trimmed",
			raw:  "https://example.com/article/",
			want: "https://example.com/article",
		},
		{
			name: "only one trailing slash trimmed",
			raw:  "https://example.com/a//",
			want: "https://example.com/a/",
		},
		{
			name: "percent encoding decoded once",
			raw:  "https%3A%2F%2Fexample.com%2Fa%2520b",
			want: "https://example.com/a%20b",
		},
		{
			name: "malformed escape left undecoded",
			raw:  "https://example.com/?q=100%",
			want: "https://example.com/?q=100%",
		},
		{
			name: "stray percent in path is re-escaped",
			raw:  "https://example.com/100%",
			want: "https://example.com/100%25",
		},
		{
			name: "encoded percent survives decoding",
			raw:  "https://example.com/100%25-off",
			want: "https://example.com/100%25-off",
		},
		{
			name: "invalid escape is re-escaped",
			raw:  "https://example.com/a%zzb",
			want: "https://example.com/a%25zzb",
		},
		{
			name: "valid escape kept next to stray percent",
			raw:  "https://example.com/a%2520%",
			want: "https://example.com/a%2520%25",
		},
		{
			name:    "no scheme",
			raw:     "not-a-url",
			wantErr: "URL must include http:// or https://",
		},
		{
			name:    "no host",
			raw:     "https:///path",
			wantErr: "Invalid domain format",
		},
		{
			name:    "opaque url has no host",
			raw:     "mailto:someone@example.com",
			wantErr: "Invalid domain format",
		},
		{
			name:    "ftp scheme",
			raw:     "ftp://example.com/file",
			wantErr: "Only HTTP/HTTPS URLs are supported",
		},
		{
			name:    "unparseable",
			raw:     "http://[::1",
			wantErr: "Invalid URL format",
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: "URL must include http:// or https://",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(tt.raw)

			if tt.wantErr != "" {
				var appErr *apperr.Error
				if !errors.As(err, &appErr) {
					t.Fatalf("expected *apperr.Error, got %v", err)
				}
				if appErr.Kind != apperr.KindValidation {
					t.Fatalf("unexpected kind: %s", appErr.Kind)
				}
				if appErr.Message != tt.wantErr {
					t.Fatalf("message = %q, want %q", appErr.Message, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Validate(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestRoute(t *testing.T) {
	tests := []struct {
		url  string
		want Source
	}{
		{"https://www.youtube.com/watch?v=abc", SourceTranscript},
		{"https://youtu.be/abc", SourceTranscript},
		{"https://m.youtube.com/watch?v=abc&t=1", SourceTranscript},
		{"https://example.com/article", SourceWebpage},
		{"https://example.com/?ref=youtube.com", SourceTranscript},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := Route(tt.url); got != tt.want {
				t.Fatalf("Route(%q) = %s, want %s", tt.url, got, tt.want)
			}
		})
	}
}

func TestVideoID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ?si=xyz", "dQw4w9WgXcQ?si=xyz"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := VideoID(tt.url); got != tt.want {
				t.Fatalf("VideoID(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
