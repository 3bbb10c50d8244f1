package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_MissingConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	opts := Opts{
		Config: "non-existent-config.yml",
	}

	err := run(ctx, opts)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load config")
}

func TestRun_InvalidConfig(t *testing.T) {
	tbl := []struct {
		name    string
		content string
	}{
		{name: "broken yaml", content: "invalid: yaml: content: ["},
		{name: "no sources", content: "llm:\n  endpoint: http://localhost:11434/v1\n"},
		{name: "bad weights", content: `
sources:
  - name: blog
    type: feed
    url: http://localhost/feed
llm:
  endpoint: http://localhost:11434/v1
scoring:
  weights: {recency: 0.5, source: 0.4, keyword: 0.2}
`},
	}

	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
			defer cancel()
			err := run(ctx, Opts{Config: path})
			require.Error(t, err)
			require.Contains(t, err.Error(), "failed to load config")
		})
	}
}

// testBackends starts a feed with two fresh articles and an OpenAI-compatible endpoint
func testBackends(t *testing.T) (feedURL, llmURL string, llmCalls *atomic.Int32) {
	t.Helper()
	pub := time.Now().Add(-time.Hour).Format(time.RFC1123Z)
	feed := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
	<title>Go blog</title>
	<link>https://go.dev/blog</link>
	<item>
		<title>Go 1.24 released</title>
		<link>https://go.dev/blog/go1.24?utm_source=rss</link>
		<description>Go 1.24 brings generic type aliases and a faster map implementation.</description>
		<pubDate>%[1]s</pubDate>
	</item>
	<item>
		<title>Range over function types</title>
		<link>https://go.dev/blog/range-functions</link>
		<description>How iterators work with range over func.</description>
		<pubDate>%[1]s</pubDate>
	</item>
</channel>
</rss>`, pub)

	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(feed))
	}))
	t.Cleanup(feedSrv.Close)

	llmCalls = &atomic.Int32{}
	llmSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		llmCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		resp := openai.ChatCompletionResponse{ID: "chatcmpl-1", Object: "chat.completion", Model: "test",
			Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleAssistant, Content: "A short summary of the article."},
				FinishReason: openai.FinishReasonStop}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(llmSrv.Close)

	return feedSrv.URL, llmSrv.URL, llmCalls
}

func writeConfig(t *testing.T, dir, feedURL, llmURL, extra string) string {
	t.Helper()
	cfg := fmt.Sprintf(`
sources:
  - name: go-blog
    type: feed
    url: %s
    weight: 0.8
llm:
  endpoint: %s
  api_key: secret-key
  retry:
    attempts: 1
fetch:
  retry:
    attempts: 1
database:
  dsn: file:%s?mode=rwc&_txlock=immediate
assembly:
  rss:
    path: %s
%s`, feedURL, llmURL, filepath.Join(dir, "test.db"), filepath.Join(dir, "digest.xml"), extra)
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

func TestRun_Once(t *testing.T) {
	feedURL, llmURL, llmCalls := testBackends(t)
	dir := t.TempDir()
	path := writeConfig(t, dir, feedURL, llmURL, "")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, run(ctx, Opts{Config: path, Once: true}))
	assert.Equal(t, int32(2), llmCalls.Load())

	digest, err := os.ReadFile(filepath.Join(dir, "digest.xml")) //nolint:gosec // test file
	require.NoError(t, err)
	assert.Contains(t, string(digest), "Go 1.24 released")
	assert.Contains(t, string(digest), "Range over function types")
	assert.Contains(t, string(digest), "A short summary of the article.")

	t.Run("second run skips delivered items", func(t *testing.T) {
		require.NoError(t, run(ctx, Opts{Config: path, Once: true}))
		assert.Equal(t, int32(2), llmCalls.Load(), "no new llm calls")
		digest, err := os.ReadFile(filepath.Join(dir, "digest.xml")) //nolint:gosec // test file
		require.NoError(t, err)
		assert.NotContains(t, string(digest), "Go 1.24 released")
	})
}

func TestRun_OnceFails(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()
	_, llmURL, _ := testBackends(t)
	path := writeConfig(t, t.TempDir(), down.URL, llmURL, "")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := run(ctx, Opts{Config: path, Once: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline run failed")
}

func TestRun_ServerStartStop(t *testing.T) {
	feedURL, llmURL, _ := testBackends(t)

	// find free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	dir := t.TempDir()
	path := writeConfig(t, dir, feedURL, llmURL, fmt.Sprintf("server:\n  listen: 127.0.0.1:%d\n", port))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	serverErr := make(chan error, 1)
	go func() { serverErr <- run(ctx, Opts{Config: path}) }()

	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/ping")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Post(base+"/api/v1/run", "application/json", http.NoBody)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/rss")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond, "digest served after the requested run")

	cancel()
	select {
	case err := <-serverErr:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server didn't stop")
	}
}

func TestRun_StatusAfterRestart(t *testing.T) {
	feedURL, llmURL, _ := testBackends(t)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	dir := t.TempDir()
	path := writeConfig(t, dir, feedURL, llmURL, fmt.Sprintf("server:\n  listen: 127.0.0.1:%d\n", port))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, run(ctx, Opts{Config: path, Once: true}))

	serverErr := make(chan error, 1)
	go func() { serverErr <- run(ctx, Opts{Config: path}) }()

	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	var status struct {
		State     string `json:"state"`
		Delivered int64  `json:"delivered"`
		LastRun   *struct {
			ID     string `json:"id"`
			Status string `json:"status"`
			Kept   int    `json:"kept"`
		} `json:"last_run"`
	}
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/api/v1/status")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK && json.NewDecoder(resp.Body).Decode(&status) == nil
	}, 5*time.Second, 20*time.Millisecond)

	assert.Equal(t, "idle", status.State, "no run in this process yet")
	require.NotNil(t, status.LastRun, "report of the previous process")
	assert.NotEmpty(t, status.LastRun.ID)
	assert.Equal(t, "done", status.LastRun.Status)
	assert.Equal(t, 2, status.LastRun.Kept)
	assert.Equal(t, int64(2), status.Delivered)

	cancel()
	select {
	case err := <-serverErr:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server didn't stop")
	}
}
