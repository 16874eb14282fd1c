package llm

import (
	"context"
	"fmt"
	"strings"
)

// InterpreterFactory creates interpreters based on model name or explicit provider choice
type InterpreterFactory struct {
	googleAPIKey string
	openaiAPIKey string
}

// NewInterpreterFactory creates a new interpreter factory
func NewInterpreterFactory(googleAPIKey, openaiAPIKey string) *InterpreterFactory {
	return &InterpreterFactory{
		googleAPIKey: googleAPIKey,
		openaiAPIKey: openaiAPIKey,
	}
}

// GetInterpreter returns the interpreter for the given provider name, or infers
// it from the model name when providerName is empty.
func (f *InterpreterFactory) GetInterpreter(ctx context.Context, providerName, model string) (Interpreter, error) {
	if providerName == "" {
		providerName = providerForModel(model)
	}

	switch strings.ToLower(providerName) {
	case providerNameGemini:
		if f.googleAPIKey == "" {
			return nil, fmt.Errorf("gemini API key not configured")
		}
		return NewGeminiInterpreter(ctx, f.googleAPIKey, model)

	case providerNameOpenAI:
		if f.openaiAPIKey == "" {
			return nil, fmt.Errorf("openai API key not configured")
		}
		return NewOpenAIInterpreter(f.openaiAPIKey, model), nil

	default:
		return nil, fmt.Errorf("unknown provider: %s (allowed: gemini, openai)", providerName)
	}
}

// providerForModel infers the provider from a model name, defaulting to Gemini
func providerForModel(model string) string {
	if strings.HasPrefix(strings.ToLower(model), "gpt-") {
		return providerNameOpenAI
	}
	return providerNameGemini
}
