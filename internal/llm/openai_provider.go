package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Conceptual-Machines/magda-jam/internal/logger"
	"github.com/Conceptual-Machines/magda-jam/internal/models"
	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

const (
	providerNameOpenAI = "openai"
	defaultOpenAIModel = "gpt-5-mini"

	interpretationSchemaName = "music_interpretation"

	// Logging limits
	maxPreviewChars = 200
)

// reasoningModels accept the reasoning parameter. Others (gpt-4.1-mini etc.) reject it.
var reasoningModels = map[string]bool{
	"gpt-5":        true,
	"gpt-5-mini":   true,
	"gpt-5-nano":   true,
	"gpt-5.1":      true,
	"gpt-5.1-mini": true,
	"gpt-5.2":      true,
	"gpt-5.2-mini": true,
}

// OpenAIInterpreter interprets commands with the Responses API and a strict
// JSON schema. Catalog lookups are resolved up front and inlined in the
// instructions instead of being offered as tools.
type OpenAIInterpreter struct {
	client *openai.Client
	model  string
}

// NewOpenAIInterpreter creates a new OpenAI interpreter
func NewOpenAIInterpreter(apiKey, model string, opts ...option.RequestOption) *OpenAIInterpreter {
	if model == "" {
		model = defaultOpenAIModel
	}
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &OpenAIInterpreter{
		client: &client,
		model:  model,
	}
}

// Name returns the provider name
func (p *OpenAIInterpreter) Name() string {
	return providerNameOpenAI
}

// Interpret sends one request and parses the structured output
func (p *OpenAIInterpreter) Interpret(ctx context.Context, transcript string, opts models.InterpretOptions) (*Interpretation, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, ErrEmptyTranscript
	}
	startTime := time.Now()

	transaction := sentry.StartTransaction(ctx, "openai.interpret")
	defer transaction.Finish()
	transaction.SetTag("model", p.model)
	transaction.SetTag("provider", providerNameOpenAI)
	transaction.SetTag("first_command", fmt.Sprintf("%t", opts.IsFirstCommand))

	params := p.buildParams(transcript, opts)

	span := transaction.StartChild("openai.api_call")
	resp, err := p.client.Responses.New(ctx, params)
	span.Finish()
	if err != nil {
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	out := &Interpretation{
		Provider:  providerNameOpenAI,
		Model:     p.model,
		RawOutput: resp.OutputText(),
		Usage: Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}

	parsed, err := parseResult(out.RawOutput)
	if err != nil {
		transaction.SetTag("success", "false")
		logger.Warn("Failed to parse OpenAI response", logger.Fields{"output": truncate(out.RawOutput, maxPreviewChars)})
		return nil, err
	}
	out.Result = parsed
	out.Duration = time.Since(startTime)

	transaction.SetTag("success", "true")
	logger.LogInterpretation(ctx, providerNameOpenAI, p.model, out.Duration, out.Usage.Map(), logger.Fields{
		"prompts": len(parsed.WeightedPrompts),
	})
	return out, nil
}

func (p *OpenAIInterpreter) buildParams(transcript string, opts models.InterpretOptions) responses.ResponseNewParams {
	params := responses.ResponseNewParams{
		Model: p.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfMessage(userPrompt(transcript), responses.EasyInputMessageRoleUser),
			},
		},
		Instructions: openai.String(systemPrompt(transcript, opts, false)),
	}

	if reasoningModels[p.model] {
		params.Reasoning = shared.ReasoningParam{
			Effort: responses.ReasoningEffortLow,
		}
	}

	format := responses.ResponseFormatTextConfigParamOfJSONSchema(interpretationSchemaName, interpretationSchema())
	if format.OfJSONSchema != nil {
		format.OfJSONSchema.Strict = openai.Bool(true)
	}
	params.Text = responses.ResponseTextConfigParam{Format: format}
	return params
}
