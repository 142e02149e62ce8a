package streamclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// compatServer 同时模拟流式端点与 OpenAI 兼容端点的网关。
// 流式路径默认回 JSON（不支持 SSE），chat completion 路径
// 把最后一条用户消息加 "fr:" 前缀返回。
type compatServer struct {
	Server *httptest.Server

	mu sync.Mutex
	// StreamStatus 流式路径返回的非 200 状态码（0 表示 200 + JSON）
	StreamStatus int
	streamCalls  int
	chatCalls    int
}

func newCompatServer(t *testing.T) *compatServer {
	t.Helper()
	s := &compatServer{}

	mux := http.NewServeMux()
	mux.HandleFunc("/stream", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.streamCalls++
		status := s.StreamStatus
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if status != 0 {
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error": "denied"}`)
			return
		}
		fmt.Fprint(w, `{"error": "streaming unsupported"}`)
	})
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.chatCalls++
		s.mu.Unlock()

		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		user := req.Messages[len(req.Messages)-1].Content

		content, _ := json.Marshal("fr:" + user)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w,
			`{"choices": [{"index": 0, "message": {"role": "assistant", "content": %s}, "finish_reason": "stop"}]}`,
			content)
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Server.Close)
	return s
}

func (s *compatServer) StreamCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamCalls
}

func (s *compatServer) ChatCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatCalls
}

func newCompatClient(srv *compatServer) *CompatClient {
	cfg := DefaultConfig()
	cfg.Endpoint = srv.Server.URL + "/stream"
	cfg.TargetLang = "French"
	cfg.Retry = fastRetry()

	fallback := NewFallback(FallbackConfig{
		BaseURL:    srv.Server.URL,
		Model:      "test-model",
		TargetLang: "French",
	}, nil)
	return NewCompat(New(cfg, nil), fallback, nil)
}

// 端点不讲 SSE：整批降级为逐条 chat completion，且降级是粘性的，
// 后续批次不再探测流式通道
func TestCompatFallsBackWhenNotEventStream(t *testing.T) {
	srv := newCompatServer(t)
	client := newCompatClient(srv)

	results := make(map[int]string)
	err := client.TranslateBatch(context.Background(), []string{"alpha", "beta"}, func(i int, s string) {
		results[i] = s
	})

	require.NoError(t, err)
	assert.Equal(t, map[int]string{0: "fr:alpha", 1: "fr:beta"}, results)
	assert.True(t, client.Degraded())
	assert.Equal(t, 1, srv.StreamCalls())
	assert.Equal(t, 2, srv.ChatCalls())

	err = client.TranslateBatch(context.Background(), []string{"gamma"}, func(int, string) {})
	require.NoError(t, err)
	assert.Equal(t, 1, srv.StreamCalls(), "degraded client must not probe the stream again")
	assert.Equal(t, 3, srv.ChatCalls())
}

// 流式通道的普通失败（这里是 401）原样透传，不触发降级
func TestCompatStreamErrorsDoNotDegrade(t *testing.T) {
	srv := newCompatServer(t)
	srv.StreamStatus = http.StatusUnauthorized
	client := newCompatClient(srv)

	err := client.TranslateBatch(context.Background(), []string{"alpha"}, func(int, string) {
		t.Fatal("no result expected on auth failure")
	})

	require.Error(t, err)
	assert.Equal(t, CategoryAuthFailure, CategoryOf(err))
	assert.False(t, client.Degraded())
	assert.Equal(t, 0, srv.ChatCalls())
}

func TestCompatTranslateText(t *testing.T) {
	srv := newCompatServer(t)
	client := newCompatClient(srv)

	got, err := client.TranslateText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "fr:hello", got)
	assert.True(t, client.Degraded())
}

// 后备客户端直连 OpenAI 兼容端点
func TestFallbackTranslateText(t *testing.T) {
	srv := newCompatServer(t)
	fallback := NewFallback(FallbackConfig{
		BaseURL:    srv.Server.URL,
		Model:      "test-model",
		TargetLang: "French",
	}, nil)

	got, err := fallback.TranslateText(context.Background(), "bonjour please")
	require.NoError(t, err)
	assert.Equal(t, "fr:bonjour please", got)
	assert.Equal(t, 1, srv.ChatCalls())
}
