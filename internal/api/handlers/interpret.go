package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/Conceptual-Machines/magda-jam/internal/llm"
	"github.com/Conceptual-Machines/magda-jam/internal/logger"
	"github.com/Conceptual-Machines/magda-jam/internal/models"
	"github.com/Conceptual-Machines/magda-jam/internal/observability"
	"github.com/Conceptual-Machines/magda-jam/internal/services"
	"github.com/gin-gonic/gin"
)

// CommandRecorder persists interpreted commands
type CommandRecorder interface {
	Record(ctx context.Context, record *models.CommandRecord) error
}

type InterpretHandler struct {
	interpreter llm.Interpreter
	history     CommandRecorder
}

// NewInterpretHandler creates the interpret endpoints. history may be nil.
func NewInterpretHandler(interpreter llm.Interpreter, history CommandRecorder) *InterpretHandler {
	return &InterpretHandler{
		interpreter: interpreter,
		history:     history,
	}
}

// Fields are untyped so a wrong JSON type gets the matching validation message
// instead of a generic bind error.
type InterpretRequest struct {
	Transcript     any                 `json:"transcript"`
	IsFirstCommand any                 `json:"isFirstCommand"`
	CurrentBPM     any                 `json:"currentBpm"`
	CurrentPrompts []string            `json:"currentPrompts"`
	CurrentConfig  *models.MusicConfig `json:"currentConfig"`
}

type InterpretResponse struct {
	Success bool                        `json:"success"`
	Result  models.InterpretationResult `json:"result"`
}

// Interpret handles POST /api/interpret
func (h *InterpretHandler) Interpret(c *gin.Context) {
	req, ok := bindInterpretRequest(c)
	if !ok {
		return
	}

	transcript, ok := requireTranscript(c, req)
	if !ok {
		return
	}

	isFirst, ok := req.IsFirstCommand.(bool)
	if !ok {
		badRequest(c, msgFirstFlagRequired)
		return
	}

	opts := models.InterpretOptions{
		IsFirstCommand: isFirst,
		CurrentPrompts: req.CurrentPrompts,
		CurrentConfig:  req.CurrentConfig,
	}
	if req.CurrentBPM != nil {
		bpm, ok := bpmValue(req.CurrentBPM)
		if !ok {
			badRequest(c, msgBPMNotNumber)
			return
		}
		opts.CurrentBPM = &bpm
	}

	h.respond(c, transcript, opts)
}

// InterpretFirst handles POST /api/interpret/first
func (h *InterpretHandler) InterpretFirst(c *gin.Context) {
	req, ok := bindInterpretRequest(c)
	if !ok {
		return
	}

	transcript, ok := requireTranscript(c, req)
	if !ok {
		return
	}

	h.respond(c, transcript, models.InterpretOptions{IsFirstCommand: true})
}

// InterpretModify handles POST /api/interpret/modify
func (h *InterpretHandler) InterpretModify(c *gin.Context) {
	req, ok := bindInterpretRequest(c)
	if !ok {
		return
	}

	transcript, ok := requireTranscript(c, req)
	if !ok {
		return
	}

	bpm, ok := bpmValue(req.CurrentBPM)
	if !ok || bpm == 0 {
		badRequest(c, msgBPMRequired)
		return
	}

	prompts := req.CurrentPrompts
	if prompts == nil {
		prompts = []string{}
	}

	h.respond(c, transcript, models.InterpretOptions{
		IsFirstCommand: false,
		CurrentBPM:     &bpm,
		CurrentPrompts: prompts,
	})
}

func (h *InterpretHandler) respond(c *gin.Context, transcript string, opts models.InterpretOptions) {
	sessionID := c.GetString("session_id")
	if sessionID == "" {
		sessionID = defaultSessionID
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), interpretTimeout)
	defer cancel()
	ctx = observability.WithSessionID(ctx, sessionID)

	start := time.Now()
	out, err := h.interpreter.Interpret(ctx, transcript, opts)
	h.record(ctx, sessionID, transcript, opts, out, time.Since(start), err)

	if err != nil {
		fields := logger.WithContext(c)
		fields["provider"] = h.interpreter.Name()
		fields["is_first_command"] = opts.IsFirstCommand
		logger.Error("Error interpreting voice command", err, fields)

		if errors.Is(err, llm.ErrEmptyTranscript) {
			badRequest(c, msgTranscriptRequired)
			return
		}
		message := err.Error()
		if message == "" {
			message = msgInterpretFailed
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   errInternal,
			"message": message,
		})
		return
	}

	c.JSON(http.StatusOK, InterpretResponse{
		Success: true,
		Result:  out.Result,
	})
}

func (h *InterpretHandler) record(ctx context.Context, sessionID, transcript string, opts models.InterpretOptions, out *llm.Interpretation, d time.Duration, err error) {
	if h.history == nil {
		return
	}
	rec := services.NewCommandRecord(sessionID, transcript, opts, out, d, err)
	if recErr := h.history.Record(ctx, rec); recErr != nil {
		logger.Warn("Failed to record command", logger.Fields{"session_id": sessionID, "error": recErr.Error()})
	}
}

func bindInterpretRequest(c *gin.Context) (*InterpretRequest, bool) {
	var req InterpretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return nil, false
	}
	return &req, true
}

func requireTranscript(c *gin.Context, req *InterpretRequest) (string, bool) {
	transcript, ok := req.Transcript.(string)
	if !ok || strings.TrimSpace(transcript) == "" {
		badRequest(c, msgTranscriptRequired)
		return "", false
	}
	return transcript, true
}

// bpmValue accepts any JSON number and rounds it to whole beats
func bpmValue(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Round(f)), true
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   errBadRequest,
		"message": message,
	})
}

// NotFound answers every unmatched route
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"success": false,
		"error":   errNotFound,
		"message": "Route " + c.Request.Method + " " + c.Request.URL.Path + " not found",
	})
}
