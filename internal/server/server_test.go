package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gistify/internal/apperr"
	"gistify/internal/domain"
	"gistify/internal/server"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubRunner struct {
	mu       sync.Mutex
	requests []domain.SummaryRequest
	result   domain.SummaryResult
	err      error
}

func (r *stubRunner) Run(_ context.Context, req domain.SummaryRequest) (domain.SummaryResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.requests = append(r.requests, req)

	return r.result, r.err
}

func (r *stubRunner) calls() []domain.SummaryRequest {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]domain.SummaryRequest(nil), r.requests...)
}

func newTestServer(t *testing.T, runner *stubRunner) *httptest.Server {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>gistify</h1>"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o600))

	srv := httptest.NewServer(server.New(":0", dir, runner, discard).Handler())
	t.Cleanup(srv.Close)

	return srv
}

func postJSON(t *testing.T, url string, body string) (*http.Response, map[string]any) {
	t.Helper()

	resp, err := http.Post(url+"/summarize", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))

	return resp, decoded
}

func TestSummarizeSuccess(t *testing.T) {
	runner := &stubRunner{result: domain.SummaryResult{Summary: "- a\n- b"}}
	srv := newTestServer(t, runner)

	resp, body := postJSON(t, srv.URL, `{"url": "https://example.com/article", "level": 5}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "- a\n- b", body["summary"])
	assert.Equal(t, []domain.SummaryRequest{{URL: "https://example.com/article", Level: 5}}, runner.calls())
}

func TestSummarizeDefaultsLevel(t *testing.T) {
	runner := &stubRunner{result: domain.SummaryResult{Summary: "ok"}}
	srv := newTestServer(t, runner)

	resp, _ := postJSON(t, srv.URL, `{"url": "https://example.com"}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.DefaultLevel, runner.calls()[0].Level)
}

func TestSummarizePassesExplicitZeroLevel(t *testing.T) {
	runner := &stubRunner{err: apperr.Validation("Level must be between 1 and 5")}
	srv := newTestServer(t, runner)

	resp, body := postJSON(t, srv.URL, `{"url": "https://example.com", "level": 0}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Level must be between 1 and 5", body["detail"])
	assert.Equal(t, 0, runner.calls()[0].Level)
}

func TestSummarizeFailureStatuses(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"validation", apperr.Validation("Invalid URL format"), http.StatusBadRequest, "Invalid URL format"},
		{"extraction", apperr.Extraction("Subtitles disabled for this video", nil), http.StatusUnprocessableEntity, "Subtitles disabled for this video"},
		{"generation", apperr.Generation("AI service unavailable", errors.New("503 body")), http.StatusUnprocessableEntity, "AI service unavailable"},
		{"untagged", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &stubRunner{err: tt.err})

			resp, body := postJSON(t, srv.URL, `{"url": "https://example.com"}`)

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, map[string]any{"detail": tt.detail}, body)
		})
	}
}

func TestSummarizeRejectsBadBodies(t *testing.T) {
	for _, body := range []string{`not json`, `{}`, `{"url": 42}`, `{"url": "https://example.com", "level": "high"}`} {
		t.Run(body, func(t *testing.T) {
			runner := &stubRunner{}
			srv := newTestServer(t, runner)

			resp, decoded := postJSON(t, srv.URL, body)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, decoded["detail"])
			assert.Empty(t, runner.calls())
		})
	}
}

func TestSummarizeRejectsOtherMethods(t *testing.T) {
	srv := newTestServer(t, &stubRunner{})

	resp, err := http.Get(srv.URL + "/summarize")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, &stubRunner{})

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/summarize", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://elsewhere.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Methods"))
}

func TestStaticFiles(t *testing.T) {
	srv := newTestServer(t, &stubRunner{})

	for path, want := range map[string]string{
		"/":              "<h1>gistify</h1>",
		"/web_ui/app.js": "console.log(1)",
	} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)

		got, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, want, string(got), path)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"), path)
	}

	resp, err := http.Get(srv.URL + "/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- server.New("127.0.0.1:0", t.TempDir(), &stubRunner{}, discard).Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
