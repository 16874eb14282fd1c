package handlers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Conceptual-Machines/magda-jam/internal/lyria"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type proxyRecorder struct {
	mu       sync.Mutex
	sessions int
	frames   int64
	err      error
}

func (p *proxyRecorder) RecordProxySession(_ context.Context, _ time.Duration, frames int64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions++
	p.frames = frames
	p.err = err
}

func (p *proxyRecorder) snapshot() (int, int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessions, p.frames, p.err
}

type staticEndpoint struct {
	url string
	err error
}

func (s staticEndpoint) Endpoint() (string, error) { return s.url, s.err }

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

// echoUpstream answers every frame with "echo:" + frame and reports the API key it saw
func echoUpstream(t *testing.T, keys chan<- string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys <- r.URL.Query().Get("key")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, append([]byte("echo:"), data...)); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func proxyServer(t *testing.T, h *LyriaProxyHandler) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws/lyria", h.Proxy)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestLyriaProxyRelaysFrames(t *testing.T) {
	keys := make(chan string, 1)
	upstream := echoUpstream(t, keys)
	rec := &proxyRecorder{}
	srv := proxyServer(t, NewLyriaProxyHandler(lyria.NewWebSocketDialer(wsURL(upstream.URL), "secret-key", ""), rec))

	client, _, err := websocket.DefaultDialer.Dial(wsURL(srv.URL)+"/ws/lyria", nil)
	require.NoError(t, err)

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"setup":{"model":"models/lyria-realtime-exp"}}`)))
	_, data, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, `echo:{"setup":{"model":"models/lyria-realtime-exp"}}`, string(data))
	assert.Equal(t, "secret-key", <-keys)

	require.NoError(t, client.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	client.Close()

	require.Eventually(t, func() bool {
		n, _, _ := rec.snapshot()
		return n == 1
	}, 2*time.Second, 10*time.Millisecond)
	_, frames, recErr := rec.snapshot()
	assert.Equal(t, int64(2), frames)
	assert.NoError(t, recErr)
}

func TestLyriaProxyUpstreamClosesClient(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad key"))
		_, _, _ = conn.ReadMessage()
	}))
	defer upstream.Close()

	srv := proxyServer(t, NewLyriaProxyHandler(staticEndpoint{url: wsURL(upstream.URL)}, nil))

	client, _, err := websocket.DefaultDialer.Dial(wsURL(srv.URL)+"/ws/lyria", nil)
	require.NoError(t, err)
	defer client.Close()

	_, _, err = client.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
}

func TestLyriaProxyFailsBeforeUpgrade(t *testing.T) {
	tests := []struct {
		name     string
		endpoint staticEndpoint
		status   int
	}{
		{name: "bad endpoint", endpoint: staticEndpoint{err: errors.New("invalid music endpoint")}, status: http.StatusInternalServerError},
		{name: "unreachable upstream", endpoint: staticEndpoint{url: "ws://127.0.0.1:1/unreachable"}, status: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &proxyRecorder{}
			gin.SetMode(gin.TestMode)
			router := gin.New()
			router.GET("/ws/lyria", NewLyriaProxyHandler(tt.endpoint, rec).Proxy)

			w, body := doJSON(t, router, http.MethodGet, "/ws/lyria", "")

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, false, body["success"])
			n, _, _ := rec.snapshot()
			assert.Zero(t, n)
		})
	}
}

func TestForwardableCode(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{in: websocket.CloseNormalClosure, want: websocket.CloseNormalClosure},
		{in: websocket.ClosePolicyViolation, want: websocket.ClosePolicyViolation},
		{in: websocket.CloseNoStatusReceived, want: websocket.CloseNormalClosure},
		{in: websocket.CloseAbnormalClosure, want: websocket.CloseNormalClosure},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, forwardableCode(tt.in))
	}
}

func TestIsCleanClose(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", want: true},
		{name: "closed conn", err: net.ErrClosed, want: true},
		{name: "normal close", err: &websocket.CloseError{Code: websocket.CloseNormalClosure}, want: true},
		{name: "going away", err: &websocket.CloseError{Code: websocket.CloseGoingAway}, want: true},
		{name: "policy violation", err: &websocket.CloseError{Code: websocket.ClosePolicyViolation}, want: false},
		{name: "other", err: errors.New("boom"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isCleanClose(tt.err))
		})
	}
}
