package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Conceptual-Machines/magda-jam/internal/logger"
	"github.com/Conceptual-Machines/magda-jam/internal/models"
	"github.com/getsentry/sentry-go"
	"google.golang.org/genai"
)

const (
	providerNameGemini = "gemini"
	defaultGeminiModel = "gemini-2.0-flash-exp"
	geminiUserRole     = "user"
	geminiModelRole    = "model"
	maxToolTurns       = 8
)

// contentGenerator is the slice of the genai Models service the interpreter uses
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiInterpreter interprets commands with Gemini, resolving catalog
// lookups and value calculations through function calls.
type GeminiInterpreter struct {
	models contentGenerator
	model  string
}

// NewGeminiInterpreter creates a new Gemini interpreter
func NewGeminiInterpreter(ctx context.Context, apiKey, model string) (*GeminiInterpreter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return newGeminiInterpreter(client.Models, model), nil
}

func newGeminiInterpreter(gen contentGenerator, model string) *GeminiInterpreter {
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiInterpreter{models: gen, model: model}
}

// Name returns the provider name
func (g *GeminiInterpreter) Name() string {
	return providerNameGemini
}

// Interpret runs the function-calling loop until the model answers with JSON
func (g *GeminiInterpreter) Interpret(ctx context.Context, transcript string, opts models.InterpretOptions) (*Interpretation, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, ErrEmptyTranscript
	}
	startTime := time.Now()

	transaction := sentry.StartTransaction(ctx, "gemini.interpret")
	defer transaction.Finish()
	transaction.SetTag("model", g.model)
	transaction.SetTag("provider", providerNameGemini)
	transaction.SetTag("first_command", fmt.Sprintf("%t", opts.IsFirstCommand))

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt(transcript, opts, true)}},
		},
		Tools: []*genai.Tool{{FunctionDeclarations: functionDeclarations()}},
	}
	contents := []*genai.Content{{
		Role:  geminiUserRole,
		Parts: []*genai.Part{{Text: userPrompt(transcript)}},
	}}

	out := &Interpretation{Provider: providerNameGemini, Model: g.model}
	for turn := 0; ; turn++ {
		if turn == maxToolTurns {
			transaction.SetTag("success", "false")
			return nil, ErrToolLoop
		}

		span := transaction.StartChild("gemini.api_call")
		result, err := g.models.GenerateContent(ctx, g.model, contents, config)
		span.Finish()
		if err != nil {
			transaction.SetTag("success", "false")
			sentry.CaptureException(err)
			return nil, fmt.Errorf("gemini request failed: %w", err)
		}
		addGeminiUsage(&out.Usage, result.UsageMetadata)

		calls := result.FunctionCalls()
		if len(calls) == 0 {
			out.RawOutput = result.Text()
			break
		}

		if len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
			contents = append(contents, result.Candidates[0].Content)
		} else {
			contents = append(contents, callContent(calls))
		}
		responses := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			out.ToolCalls = append(out.ToolCalls, call.Name)
			responses = append(responses, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       call.ID,
					Name:     call.Name,
					Response: callTool(call.Name, call.Args),
				},
			})
		}
		contents = append(contents, &genai.Content{Role: geminiUserRole, Parts: responses})
		logger.Debug("Gemini tool calls resolved", logger.Fields{"turn": turn, "calls": len(calls)})
	}

	parsed, err := parseResult(out.RawOutput)
	if err != nil {
		transaction.SetTag("success", "false")
		logger.Warn("Failed to parse Gemini response", logger.Fields{"output": truncate(out.RawOutput, maxPreviewChars)})
		return nil, err
	}
	out.Result = parsed
	out.Duration = time.Since(startTime)

	transaction.SetTag("success", "true")
	logger.LogInterpretation(ctx, providerNameGemini, g.model, out.Duration, out.Usage.Map(), logger.Fields{
		"tool_calls": len(out.ToolCalls),
		"prompts":    len(parsed.WeightedPrompts),
	})
	return out, nil
}

// functionDeclarations converts the music tools to Gemini declarations
func functionDeclarations() []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(musicTools))
	for _, t := range musicTools {
		schema := &genai.Schema{
			Type:       genai.TypeObject,
			Properties: make(map[string]*genai.Schema, len(t.params)),
		}
		for _, p := range t.params {
			prop := &genai.Schema{Type: genai.TypeString, Description: p.description}
			if p.kind == paramNumber {
				prop.Type = genai.TypeNumber
			}
			if p.nullable {
				prop.Nullable = genai.Ptr(true)
			}
			schema.Properties[p.name] = prop
			if p.required {
				schema.Required = append(schema.Required, p.name)
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.name,
			Description: t.description,
			Parameters:  schema,
		})
	}
	return decls
}

func callContent(calls []*genai.FunctionCall) *genai.Content {
	parts := make([]*genai.Part, 0, len(calls))
	for _, call := range calls {
		parts = append(parts, &genai.Part{FunctionCall: call})
	}
	return &genai.Content{Role: geminiModelRole, Parts: parts}
}

func addGeminiUsage(u *Usage, meta *genai.GenerateContentResponseUsageMetadata) {
	if meta == nil {
		return
	}
	u.InputTokens += int64(meta.PromptTokenCount)
	u.OutputTokens += int64(meta.CandidatesTokenCount)
	u.TotalTokens += int64(meta.TotalTokenCount)
}

// truncate truncates a string to maxLen characters
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
