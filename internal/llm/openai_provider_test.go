package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Conceptual-Machines/magda-jam/internal/models"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIInterpreter(t *testing.T) {
	interp := NewOpenAIInterpreter("test-api-key", "")
	require.NotNil(t, interp)
	assert.Equal(t, "openai", interp.Name())
	assert.Equal(t, defaultOpenAIModel, interp.model)
	assert.NotNil(t, interp.client)
}

func TestOpenAIInterpreter_BuildParams(t *testing.T) {
	tests := []struct {
		name          string
		model         string
		opts          models.InterpretOptions
		wantReasoning bool
		wantInstr     string
	}{
		{
			name:          "first command on a reasoning model",
			model:         "gpt-5-mini",
			opts:          models.InterpretOptions{IsFirstCommand: true},
			wantReasoning: true,
			wantInstr:     "FIRST TIME",
		},
		{
			name:      "modify on a non-reasoning model",
			model:     "gpt-4.1-mini",
			opts:      models.InterpretOptions{CurrentBPM: models.Ptr(120), CurrentPrompts: []string{"Jazz"}},
			wantInstr: "- BPM: 120",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			interp := NewOpenAIInterpreter("test-key", tt.model)
			params := interp.buildParams("add some drums", tt.opts)

			assert.Equal(t, tt.model, params.Model)
			assert.Contains(t, params.Instructions.Value, tt.wantInstr)
			assert.Contains(t, params.Instructions.Value, "Catalog:")
			assert.Contains(t, params.Instructions.Value, "Drums with dynamic rhythmic patterns")
			assert.Len(t, params.Input.OfInputItemList, 1)
			assert.Equal(t, tt.wantReasoning, params.Reasoning.Effort != "")

			require.NotNil(t, params.Text.Format.OfJSONSchema)
			assert.Equal(t, interpretationSchemaName, params.Text.Format.OfJSONSchema.Name)
			assert.True(t, params.Text.Format.OfJSONSchema.Strict.Value)
		})
	}
}

func TestOpenAIInterpreter_Interpret(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/responses", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)

		answer := `{"weighted_prompts":[{"text":"Dynamic drums with crisp hits","weight":1.5}],"config":{"bpm":null,"density":null,"brightness":null,"temperature":null},"requires_reset":false,"action_type":"add_instrument"}`
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":         "resp_1",
			"object":     "response",
			"created_at": 1700000000,
			"model":      "gpt-5-mini",
			"status":     "completed",
			"output": []any{map[string]any{
				"type":   "message",
				"id":     "msg_1",
				"role":   "assistant",
				"status": "completed",
				"content": []any{map[string]any{
					"type":        "output_text",
					"text":        answer,
					"annotations": []any{},
				}},
			}},
			"usage": map[string]any{
				"input_tokens":          120,
				"output_tokens":         30,
				"total_tokens":          150,
				"input_tokens_details":  map[string]any{"cached_tokens": 0},
				"output_tokens_details": map[string]any{"reasoning_tokens": 0},
			},
		})
	}))
	defer srv.Close()

	interp := NewOpenAIInterpreter("test-key", "gpt-5-mini", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	out, err := interp.Interpret(context.Background(), "add some drums", models.InterpretOptions{CurrentBPM: models.Ptr(100)})
	require.NoError(t, err)

	assert.Equal(t, "openai", out.Provider)
	assert.Equal(t, Usage{InputTokens: 120, OutputTokens: 30, TotalTokens: 150}, out.Usage)
	require.Len(t, out.Result.WeightedPrompts, 1)
	assert.Equal(t, models.WeightedPrompt{Text: "Dynamic drums with crisp hits", Weight: 1.5}, out.Result.WeightedPrompts[0])
	assert.True(t, out.Result.Config.IsEmpty())
	assert.Equal(t, models.ActionAddInstrument, out.Result.ActionType)

	require.NotNil(t, captured)
	assert.Equal(t, "gpt-5-mini", captured["model"])
	text, ok := captured["text"].(map[string]any)
	require.True(t, ok)
	format, ok := text["format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_schema", format["type"])
	assert.Equal(t, interpretationSchemaName, format["name"])
}

func TestOpenAIInterpreter_RequestFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	interp := NewOpenAIInterpreter("bad-key", "gpt-5-mini", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	_, err := interp.Interpret(context.Background(), "faster", models.InterpretOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai request failed")
}

func TestInterpretationSchema(t *testing.T) {
	schema := interpretationSchema()
	assert.Equal(t, false, schema["additionalProperties"])
	assert.ElementsMatch(t, []string{"weighted_prompts", "config", "requires_reset", "action_type"}, schema["required"])

	props := schema["properties"].(map[string]any)
	config := props["config"].(map[string]any)
	configProps := config["properties"].(map[string]any)
	assert.Len(t, config["required"], len(configProps))
	assert.Equal(t, []string{"integer", "null"}, configProps["bpm"].(map[string]any)["type"])
}
