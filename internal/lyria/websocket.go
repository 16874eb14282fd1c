package lyria

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Conceptual-Machines/magda-jam/internal/logger"
	"github.com/Conceptual-Machines/magda-jam/internal/models"
	"github.com/gorilla/websocket"
)

const (
	// DefaultURL is the BidiGenerateMusic streaming endpoint
	DefaultURL = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1alpha.GenerativeService.BidiGenerateMusic"
	// DefaultModel is the realtime music model
	DefaultModel = "lyria-realtime-exp"

	defaultSetupTimeout = 10 * time.Second
	writeTimeout        = 5 * time.Second
	closeGracePeriod    = time.Second

	controlPlay  = "PLAY"
	controlPause = "PAUSE"
	controlStop  = "STOP"
)

type clientMessage struct {
	Setup                 *setupMessage     `json:"setup,omitempty"`
	ClientContent         *clientContent    `json:"clientContent,omitempty"`
	MusicGenerationConfig *generationConfig `json:"musicGenerationConfig,omitempty"`
	PlaybackControl       string            `json:"playbackControl,omitempty"`
}

type setupMessage struct {
	Model string `json:"model"`
}

type clientContent struct {
	WeightedPrompts []models.WeightedPrompt `json:"weightedPrompts"`
}

type generationConfig struct {
	BPM                 *int                   `json:"bpm,omitempty"`
	Density             *float64               `json:"density,omitempty"`
	Brightness          *float64               `json:"brightness,omitempty"`
	Temperature         *float64               `json:"temperature,omitempty"`
	Guidance            *float64               `json:"guidance,omitempty"`
	Scale               *models.Scale          `json:"scale,omitempty"`
	MuteBass            *bool                  `json:"muteBass,omitempty"`
	MuteDrums           *bool                  `json:"muteDrums,omitempty"`
	OnlyBassAndDrums    *bool                  `json:"onlyBassAndDrums,omitempty"`
	MusicGenerationMode *models.GenerationMode `json:"musicGenerationMode,omitempty"`
	TopK                *int                   `json:"topK,omitempty"`
	Seed                *int                   `json:"seed,omitempty"`
}

func toGenerationConfig(c models.MusicConfig) *generationConfig {
	return &generationConfig{
		BPM:                 c.BPM,
		Density:             c.Density,
		Brightness:          c.Brightness,
		Temperature:         c.Temperature,
		Guidance:            c.Guidance,
		Scale:               c.Scale,
		MuteBass:            c.MuteBass,
		MuteDrums:           c.MuteDrums,
		OnlyBassAndDrums:    c.OnlyBassAndDrums,
		MusicGenerationMode: c.MusicGenerationMode,
		TopK:                c.TopK,
		Seed:                c.Seed,
	}
}

type serverMessage struct {
	SetupComplete  json.RawMessage `json:"setupComplete,omitempty"`
	FilteredPrompt *FilteredPrompt `json:"filteredPrompt,omitempty"`
	ServerContent  *struct {
		AudioChunks []AudioChunk `json:"audioChunks,omitempty"`
	} `json:"serverContent,omitempty"`
}

// WebSocketDialer opens music sessions over the BidiGenerateMusic WebSocket
type WebSocketDialer struct {
	URL          string
	APIKey       string
	Model        string
	SetupTimeout time.Duration
	Dialer       *websocket.Dialer
}

// NewWebSocketDialer returns a dialer with defaults filled in for empty values
func NewWebSocketDialer(endpoint, apiKey, model string) *WebSocketDialer {
	if endpoint == "" {
		endpoint = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &WebSocketDialer{
		URL:          endpoint,
		APIKey:       apiKey,
		Model:        model,
		SetupTimeout: defaultSetupTimeout,
		Dialer:       websocket.DefaultDialer,
	}
}

// Endpoint returns the URL with the API key attached
func (d *WebSocketDialer) Endpoint() (string, error) {
	u, err := url.Parse(d.URL)
	if err != nil {
		return "", fmt.Errorf("invalid music endpoint: %w", err)
	}
	if d.APIKey != "" {
		q := u.Query()
		q.Set("key", d.APIKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Dial connects, performs setup and waits for the server to acknowledge it.
func (d *WebSocketDialer) Dial(ctx context.Context, h Handler) (Session, error) {
	endpoint, err := d.Endpoint()
	if err != nil {
		return nil, invalid("dial", err)
	}

	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("%w (status %d)", err, resp.StatusCode)
		}
		return nil, fatal("dial", err)
	}

	s := &wsSession{conn: conn, h: h}
	setup := clientMessage{Setup: &setupMessage{Model: "models/" + d.Model}}
	if err := s.write(ctx, setup); err != nil {
		conn.Close()
		return nil, fatal("setup", err)
	}

	if err := s.awaitSetup(ctx, d.setupTimeout()); err != nil {
		conn.Close()
		return nil, fatal("setup", err)
	}

	logger.Debug("Music session established", logger.Fields{"model": d.Model})
	go s.readLoop()
	return s, nil
}

func (d *WebSocketDialer) setupTimeout() time.Duration {
	if d.SetupTimeout <= 0 {
		return defaultSetupTimeout
	}
	return d.SetupTimeout
}

type wsSession struct {
	conn    *websocket.Conn
	h       Handler
	writeMu sync.Mutex
	closing atomic.Bool
}

func (s *wsSession) awaitSetup(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return err
	}
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("waiting for setup: %w", err)
		}
		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if len(msg.SetupComplete) > 0 {
			return s.conn.SetReadDeadline(time.Time{})
		}
		s.dispatch(msg)
	}
}

func (s *wsSession) readLoop() {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.closing.Swap(true) {
				return
			}
			s.conn.Close()
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				s.h.HandleClose(fatal("read", fmt.Errorf("%w: %v", ErrConnectionClosed, err)))
			} else {
				s.h.HandleClose(fatal("read", err))
			}
			return
		}

		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warn("Dropping undecodable server message", logger.Fields{"error": err.Error(), "bytes": len(data)})
			continue
		}
		s.dispatch(msg)
	}
}

func (s *wsSession) dispatch(msg serverMessage) {
	if msg.FilteredPrompt != nil {
		s.h.HandleFiltered(*msg.FilteredPrompt)
	}
	if msg.ServerContent != nil && len(msg.ServerContent.AudioChunks) > 0 {
		s.h.HandleAudio(msg.ServerContent.AudioChunks)
	}
}

func (s *wsSession) write(ctx context.Context, msg clientMessage) error {
	if s.closing.Load() {
		return transient("write", ErrSessionClosed)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return classifyWriteError(err)
	}
	if err := s.conn.WriteJSON(msg); err != nil {
		return classifyWriteError(err)
	}
	return nil
}

func classifyWriteError(err error) error {
	var ne net.Error
	switch {
	case errors.Is(err, websocket.ErrCloseSent), errors.Is(err, net.ErrClosed):
		return transient("write", fmt.Errorf("%w: %v", ErrSessionClosed, err))
	case errors.As(err, &ne) && ne.Timeout():
		return transient("write", err)
	default:
		return fatal("write", err)
	}
}

func (s *wsSession) Send(ctx context.Context, req Request) error {
	if err := s.write(ctx, clientMessage{
		ClientContent: &clientContent{WeightedPrompts: req.Prompts},
	}); err != nil {
		return err
	}
	if req.Config.IsEmpty() {
		return nil
	}
	return s.write(ctx, clientMessage{MusicGenerationConfig: toGenerationConfig(req.Config)})
}

func (s *wsSession) Play(ctx context.Context) error {
	return s.write(ctx, clientMessage{PlaybackControl: controlPlay})
}

func (s *wsSession) Pause(ctx context.Context) error {
	return s.write(ctx, clientMessage{PlaybackControl: controlPause})
}

func (s *wsSession) Stop(ctx context.Context) error {
	return s.write(ctx, clientMessage{PlaybackControl: controlStop})
}

// Close sends a close frame and tears the connection down. HandleClose is
// not called for a session closed this way.
func (s *wsSession) Close() error {
	if s.closing.Swap(true) {
		return nil
	}

	s.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
	s.writeMu.Unlock()

	return s.conn.Close()
}
