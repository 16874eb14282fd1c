package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Conceptual-Machines/magda-jam/internal/llm"
	"github.com/Conceptual-Machines/magda-jam/internal/models"
	"github.com/Conceptual-Machines/magda-jam/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockInterpreter struct {
	mu    sync.Mutex
	calls []models.InterpretOptions
	fn    func(transcript string, opts models.InterpretOptions) (*llm.Interpretation, error)
}

func (m *mockInterpreter) Name() string { return "mock" }

func (m *mockInterpreter) Interpret(_ context.Context, transcript string, opts models.InterpretOptions) (*llm.Interpretation, error) {
	m.mu.Lock()
	m.calls = append(m.calls, opts)
	m.mu.Unlock()
	if m.fn != nil {
		return m.fn(transcript, opts)
	}
	bpm := 128
	return &llm.Interpretation{
		Provider: "mock",
		Model:    "mock-1",
		Result: models.InterpretationResult{
			WeightedPrompts: []models.WeightedPrompt{{Text: "Deep house groove", Weight: 1.5}},
			Config:          models.MusicConfig{BPM: &bpm},
			ActionType:      models.ActionStart,
		},
	}, nil
}

type memoryHistory struct {
	mu       sync.Mutex
	records  []*models.CommandRecord
	err      error
	stats    *services.HistoryStats
	lastSess string
	lastN    int
}

func (m *memoryHistory) Record(_ context.Context, r *models.CommandRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return m.err
}

func (m *memoryHistory) Recent(_ context.Context, sessionID string, limit int) ([]models.CommandRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSess, m.lastN = sessionID, limit
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.CommandRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, *r)
	}
	return out, nil
}

func (m *memoryHistory) Stats(_ context.Context, sessionID string) (*services.HistoryStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSess = sessionID
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

func setupTestRouter(interp llm.Interpreter, history *memoryHistory) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Session-ID"); id != "" {
			c.Set("session_id", id)
		}
		c.Next()
	})

	var recorder CommandRecorder
	var reader HistoryReader
	if history != nil {
		recorder, reader = history, history
	}

	h := NewInterpretHandler(interp, recorder)
	router.POST("/api/interpret", h.Interpret)
	router.POST("/api/interpret/first", h.InterpretFirst)
	router.POST("/api/interpret/modify", h.InterpretModify)

	hist := NewHistoryHandler(reader)
	router.GET("/api/history", hist.List)
	router.GET("/api/history/stats", hist.Stats)

	router.GET("/api/health", NewHealthHandler(nil).HealthCheck)
	router.GET("/api/metrics", NewMetricsHandler("test", "mock", reader).GetMetrics)
	router.NoRoute(NotFound)
	return router
}

func doJSON(t *testing.T, router http.Handler, method, path, body string, headers ...string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestInterpretValidation(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		body    string
		message string
	}{
		{name: "missing transcript", path: "/api/interpret", body: `{"isFirstCommand":true}`, message: msgTranscriptRequired},
		{name: "empty transcript", path: "/api/interpret", body: `{"transcript":"","isFirstCommand":true}`, message: msgTranscriptRequired},
		{name: "numeric transcript", path: "/api/interpret", body: `{"transcript":42,"isFirstCommand":true}`, message: msgTranscriptRequired},
		{name: "missing first flag", path: "/api/interpret", body: `{"transcript":"play jazz"}`, message: msgFirstFlagRequired},
		{name: "string first flag", path: "/api/interpret", body: `{"transcript":"play jazz","isFirstCommand":"yes"}`, message: msgFirstFlagRequired},
		{name: "string bpm", path: "/api/interpret", body: `{"transcript":"faster","isFirstCommand":false,"currentBpm":"fast"}`, message: msgBPMNotNumber},
		{name: "first without transcript", path: "/api/interpret/first", body: `{}`, message: msgTranscriptRequired},
		{name: "modify without bpm", path: "/api/interpret/modify", body: `{"transcript":"faster"}`, message: msgBPMRequired},
		{name: "modify zero bpm", path: "/api/interpret/modify", body: `{"transcript":"faster","currentBpm":0}`, message: msgBPMRequired},
		{name: "modify string bpm", path: "/api/interpret/modify", body: `{"transcript":"faster","currentBpm":"120"}`, message: msgBPMRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			interp := &mockInterpreter{}
			router := setupTestRouter(interp, nil)

			w, body := doJSON(t, router, http.MethodPost, tt.path, tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, errBadRequest, body["error"])
			assert.Equal(t, tt.message, body["message"])
			assert.Empty(t, interp.calls)
		})
	}
}

func TestInterpretMalformedBody(t *testing.T) {
	router := setupTestRouter(&mockInterpreter{}, nil)

	w, body := doJSON(t, router, http.MethodPost, "/api/interpret", `{"transcript":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["message"], "invalid request body")
}

func TestInterpretOptions(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		body    string
		isFirst bool
		bpm     *int
		prompts []string
	}{
		{
			name:    "generic first",
			path:    "/api/interpret",
			body:    `{"transcript":"play some jazz","isFirstCommand":true}`,
			isFirst: true,
		},
		{
			name:    "generic modify with state",
			path:    "/api/interpret",
			body:    `{"transcript":"add drums","isFirstCommand":false,"currentBpm":119.6,"currentPrompts":["Smooth jazz"]}`,
			bpm:     intPtr(120),
			prompts: []string{"Smooth jazz"},
		},
		{
			name:    "first endpoint",
			path:    "/api/interpret/first",
			body:    `{"transcript":"lofi beats","isFirstCommand":false,"currentBpm":90}`,
			isFirst: true,
		},
		{
			name:    "modify endpoint defaults prompts",
			path:    "/api/interpret/modify",
			body:    `{"transcript":"faster","currentBpm":100}`,
			bpm:     intPtr(100),
			prompts: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			interp := &mockInterpreter{}
			router := setupTestRouter(interp, nil)

			w, body := doJSON(t, router, http.MethodPost, tt.path, tt.body)

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, true, body["success"])
			require.Len(t, interp.calls, 1)
			opts := interp.calls[0]
			assert.Equal(t, tt.isFirst, opts.IsFirstCommand)
			assert.Equal(t, tt.bpm, opts.CurrentBPM)
			assert.Equal(t, tt.prompts, opts.CurrentPrompts)
		})
	}
}

func TestInterpretResponseShape(t *testing.T) {
	router := setupTestRouter(&mockInterpreter{}, nil)

	w, body := doJSON(t, router, http.MethodPost, "/api/interpret/first", `{"transcript":"deep house"}`)

	require.Equal(t, http.StatusOK, w.Code)
	result, ok := body["result"].(map[string]interface{})
	require.True(t, ok)
	prompts := result["weighted_prompts"].([]interface{})
	require.Len(t, prompts, 1)
	assert.Equal(t, "Deep house groove", prompts[0].(map[string]interface{})["text"])
	assert.Equal(t, float64(128), result["config"].(map[string]interface{})["bpm"])
	assert.Equal(t, models.ActionStart, result["action_type"])
}

func TestInterpretFailures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{name: "upstream failure", err: errors.New("gemini API call failed: quota"), status: http.StatusInternalServerError, message: "gemini API call failed: quota"},
		{name: "parse failure", err: llm.ErrParseResult, status: http.StatusInternalServerError, message: llm.ErrParseResult.Error()},
		{name: "empty transcript", err: llm.ErrEmptyTranscript, status: http.StatusBadRequest, message: msgTranscriptRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			interp := &mockInterpreter{fn: func(string, models.InterpretOptions) (*llm.Interpretation, error) {
				return nil, tt.err
			}}
			router := setupTestRouter(interp, nil)

			w, body := doJSON(t, router, http.MethodPost, "/api/interpret/first", `{"transcript":"play"}`)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["message"])
		})
	}
}

func TestInterpretRecordsHistory(t *testing.T) {
	history := &memoryHistory{}
	router := setupTestRouter(&mockInterpreter{}, history)

	w, _ := doJSON(t, router, http.MethodPost, "/api/interpret/first", `{"transcript":"deep house"}`, "X-Session-ID", "jam-1")
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, history.records, 1)
	rec := history.records[0]
	assert.Equal(t, "jam-1", rec.SessionID)
	assert.Equal(t, "deep house", rec.Transcript)
	assert.True(t, rec.IsFirstCommand)
	assert.Equal(t, "mock", rec.Provider)
	assert.JSONEq(t, `[{"text":"Deep house groove","weight":1.5}]`, rec.Prompts)
}

func TestInterpretHistoryFailureIsNotFatal(t *testing.T) {
	history := &memoryHistory{err: errors.New("db down")}
	router := setupTestRouter(&mockInterpreter{}, history)

	w, body := doJSON(t, router, http.MethodPost, "/api/interpret/first", `{"transcript":"deep house"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	require.Len(t, history.records, 1)
	assert.Equal(t, defaultSessionID, history.records[0].SessionID)
}

func TestHistoryEndpoints(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		router := setupTestRouter(&mockInterpreter{}, nil)
		for _, path := range []string{"/api/history", "/api/history/stats"} {
			w, body := doJSON(t, router, http.MethodGet, path, "")
			assert.Equal(t, http.StatusServiceUnavailable, w.Code)
			assert.Equal(t, errUnavailable, body["error"])
		}
	})

	t.Run("list", func(t *testing.T) {
		history := &memoryHistory{records: []*models.CommandRecord{{SessionID: "jam-1", Transcript: "faster"}}}
		router := setupTestRouter(&mockInterpreter{}, history)

		w, body := doJSON(t, router, http.MethodGet, "/api/history?limit=5", "", "X-Session-ID", "jam-1")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(1), body["count"])
		assert.Equal(t, "jam-1", history.lastSess)
		assert.Equal(t, 5, history.lastN)
	})

	t.Run("query session wins and limit is capped", func(t *testing.T) {
		history := &memoryHistory{}
		router := setupTestRouter(&mockInterpreter{}, history)

		w, _ := doJSON(t, router, http.MethodGet, "/api/history?session_id=other&limit=100000", "", "X-Session-ID", "jam-1")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "other", history.lastSess)
		assert.Equal(t, services.MaxHistoryLimit, history.lastN)
	})

	t.Run("bad limit", func(t *testing.T) {
		router := setupTestRouter(&mockInterpreter{}, &memoryHistory{})
		w, _ := doJSON(t, router, http.MethodGet, "/api/history?limit=-1", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("stats", func(t *testing.T) {
		history := &memoryHistory{stats: &services.HistoryStats{TotalCommands: 4, Resets: 1}}
		router := setupTestRouter(&mockInterpreter{}, history)

		w, body := doJSON(t, router, http.MethodGet, "/api/history/stats", "")

		require.Equal(t, http.StatusOK, w.Code)
		stats := body["stats"].(map[string]interface{})
		assert.Equal(t, float64(4), stats["total_commands"])
		assert.Equal(t, float64(1), stats["resets"])
	})

	t.Run("store failure", func(t *testing.T) {
		router := setupTestRouter(&mockInterpreter{}, &memoryHistory{err: errors.New("db down")})
		w, body := doJSON(t, router, http.MethodGet, "/api/history", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Failed to load command history", body["message"])
	})
}

func TestHealthCheck(t *testing.T) {
	router := setupTestRouter(&mockInterpreter{}, nil)

	w, body := doJSON(t, router, http.MethodGet, "/api/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, healthMessage, body["message"])
	assert.NotEmpty(t, body["timestamp"])
	assert.NotContains(t, body, "database")
}

func TestGetMetrics(t *testing.T) {
	tests := []struct {
		name      string
		history   *memoryHistory
		wantHist  bool
		wantStats bool
	}{
		{name: "history disabled", history: nil},
		{name: "with stats", history: &memoryHistory{stats: &services.HistoryStats{TotalCommands: 7, Resets: 2}}, wantHist: true, wantStats: true},
		{name: "stats unavailable", history: &memoryHistory{err: errors.New("db down")}, wantHist: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter(&mockInterpreter{}, tt.history)

			w, body := doJSON(t, router, http.MethodGet, "/api/metrics", "")

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "healthy", body["status"])
			assert.Equal(t, "test", body["version"])
			assert.Equal(t, "mock", body["interpreter"])
			assert.NotEmpty(t, body["uptime"])
			assert.Contains(t, body["runtime"], "goroutines")

			commands := body["commands"].(map[string]interface{})
			assert.Equal(t, tt.wantHist, commands["history"])
			if !tt.wantStats {
				assert.NotContains(t, commands, "stats")
				return
			}
			stats := commands["stats"].(map[string]interface{})
			assert.EqualValues(t, 7, stats["total_commands"])
			assert.EqualValues(t, 2, stats["resets"])
			assert.Equal(t, "", tt.history.lastSess, "metrics aggregate every session")
		})
	}
}

func TestNotFound(t *testing.T) {
	router := setupTestRouter(&mockInterpreter{}, nil)

	w, body := doJSON(t, router, http.MethodDelete, "/api/nowhere", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, errNotFound, body["error"])
	assert.Equal(t, "Route DELETE /api/nowhere not found", body["message"])
}

func TestBPMValue(t *testing.T) {
	tests := []struct {
		in   any
		want int
		ok   bool
	}{
		{in: float64(120), want: 120, ok: true},
		{in: 99.5, want: 100, ok: true},
		{in: "120", ok: false},
		{in: nil, ok: false},
		{in: true, ok: false},
	}
	for _, tt := range tests {
		got, ok := bpmValue(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}

func intPtr(v int) *int { return &v }
