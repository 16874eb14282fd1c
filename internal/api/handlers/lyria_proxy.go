package handlers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/Conceptual-Machines/magda-jam/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

const (
	proxyDialTimeout     = 10 * time.Second
	proxyWriteTimeout    = 5 * time.Second
	maxProxyMessageBytes = 4 << 20
)

// UpstreamEndpoint resolves the music service URL, API key included.
// *lyria.WebSocketDialer implements it.
type UpstreamEndpoint interface {
	Endpoint() (string, error)
}

// ProxyRecorder receives one call per finished proxy session
type ProxyRecorder interface {
	RecordProxySession(ctx context.Context, duration time.Duration, frames int64, err error)
}

// LyriaProxyHandler relays a browser WebSocket to the music service so the
// API key never leaves the server.
type LyriaProxyHandler struct {
	upstream UpstreamEndpoint
	metrics  ProxyRecorder
	dialer   *websocket.Dialer
	upgrader websocket.Upgrader
}

// NewLyriaProxyHandler creates the proxy. metrics may be nil.
func NewLyriaProxyHandler(upstream UpstreamEndpoint, metrics ProxyRecorder) *LyriaProxyHandler {
	return &LyriaProxyHandler{
		upstream: upstream,
		metrics:  metrics,
		dialer:   websocket.DefaultDialer,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			ReadBufferSize:   4096,
			WriteBufferSize:  4096,
			CheckOrigin:      func(*http.Request) bool { return true },
		},
	}
}

// Proxy handles GET /ws/lyria. The upstream is dialled before the upgrade so
// a failure can still be reported as a JSON error.
func (h *LyriaProxyHandler) Proxy(c *gin.Context) {
	endpoint, err := h.upstream.Endpoint()
	if err != nil {
		logger.Error("Invalid music service endpoint", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   errInternal,
			"message": "music service endpoint is not configured",
		})
		return
	}

	dialCtx, cancel := context.WithTimeout(c.Request.Context(), proxyDialTimeout)
	upstream, resp, err := h.dialer.DialContext(dialCtx, endpoint, nil)
	cancel()
	if err != nil {
		fields := logger.WithContext(c)
		if resp != nil {
			fields["upstream_status"] = resp.StatusCode
		}
		logger.Error("Failed to connect to music service", err, fields)
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   "Bad Gateway",
			"message": "failed to connect to music service",
		})
		return
	}

	client, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already written the HTTP error
		upstream.Close()
		return
	}
	client.SetReadLimit(maxProxyMessageBytes)
	upstream.SetReadLimit(maxProxyMessageBytes)

	fields := logger.WithContext(c)
	logger.Info("Music proxy session opened", fields)

	start := time.Now()
	frames, err := relay(c.Request.Context(), client, upstream)
	duration := time.Since(start)

	fields["duration_ms"] = duration.Milliseconds()
	fields["frames"] = frames
	if err != nil {
		logger.Warn("Music proxy session ended with error", withError(fields, err))
	} else {
		logger.Info("Music proxy session closed", fields)
	}

	if h.metrics != nil {
		h.metrics.RecordProxySession(c.Request.Context(), duration, frames, err)
	}
}

// relay pumps frames both ways until either side goes away, then closes both.
// A clean close from either side is not an error.
func relay(ctx context.Context, client, upstream *websocket.Conn) (int64, error) {
	var frames atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return pump(upstream, client, &frames) })
	g.Go(func() error { return pump(client, upstream, &frames) })
	g.Go(func() error {
		<-gctx.Done()
		client.Close()
		upstream.Close()
		return nil
	})

	err := g.Wait()
	if isCleanClose(err) {
		err = nil
	}
	return frames.Load(), err
}

// pump copies messages from src to dst. It only returns on failure, forwarding
// a close frame to dst first when src was closed by its peer.
func pump(dst, src *websocket.Conn, frames *atomic.Int64) error {
	for {
		messageType, data, err := src.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				msg := websocket.FormatCloseMessage(forwardableCode(closeErr.Code), closeErr.Text)
				_ = dst.WriteControl(websocket.CloseMessage, msg, time.Now().Add(proxyWriteTimeout))
			}
			return err
		}

		frames.Add(1)
		_ = dst.SetWriteDeadline(time.Now().Add(proxyWriteTimeout))
		if err := dst.WriteMessage(messageType, data); err != nil {
			return err
		}
	}
}

// forwardableCode maps codes that must not appear on the wire to a normal close
func forwardableCode(code int) int {
	switch code {
	case websocket.CloseNoStatusReceived, websocket.CloseAbnormalClosure, websocket.CloseTLSHandshake:
		return websocket.CloseNormalClosure
	}
	return code
}

func isCleanClose(err error) bool {
	if err == nil || errors.Is(err, net.ErrClosed) || errors.Is(err, context.Canceled) {
		return true
	}
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived)
}

func withError(fields logger.Fields, err error) logger.Fields {
	fields["error"] = err.Error()
	return fields
}
