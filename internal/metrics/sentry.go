package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Conceptual-Machines/magda-jam/internal/llm"
	"github.com/Conceptual-Machines/magda-jam/internal/logger"
	"github.com/getsentry/sentry-go"
)

const (
	// HTTP status code threshold for considering a request successful
	successStatusCodeThreshold = http.StatusBadRequest

	sessionErrorEvent = "error"
)

// SentryMetrics records spans for requests, interpretations and sessions
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a new Sentry metrics client
func NewSentryMetrics() *SentryMetrics {
	return &SentryMetrics{
		enabled: true, // no-ops in the SDK when Sentry is not initialised
	}
}

// RecordAPIRequest records API request metrics
func (m *SentryMetrics) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "api.request")
	defer span.Finish()

	span.SetTag("endpoint", endpoint)
	span.SetTag("status_code", fmt.Sprintf("%d", statusCode))
	span.SetTag("success", fmt.Sprintf("%t", statusCode < successStatusCodeThreshold))

	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("endpoint", endpoint)
	span.SetData("status_code", statusCode)

	if statusCode < successStatusCodeThreshold {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}
	span.Description = fmt.Sprintf("API Request: %s", endpoint)
}

// RecordTokenUsage tags the current transaction with token usage and adds a child span
func (m *SentryMetrics) RecordTokenUsage(ctx context.Context, provider, model string, usage llm.Usage) {
	if !m.enabled {
		return
	}

	if transaction := sentry.TransactionFromContext(ctx); transaction != nil {
		transaction.SetTag("llm.provider", provider)
		transaction.SetTag("llm.model", model)
		transaction.SetData("llm.total_tokens", usage.TotalTokens)
		transaction.SetData("llm.input_tokens", usage.InputTokens)
		transaction.SetData("llm.output_tokens", usage.OutputTokens)
	}

	span := sentry.StartSpan(ctx, "llm.token_usage")
	defer span.Finish()

	span.SetTag("provider", provider)
	span.SetTag("model", model)
	span.SetData("total_tokens", usage.TotalTokens)
	span.SetData("input_tokens", usage.InputTokens)
	span.SetData("output_tokens", usage.OutputTokens)

	span.Status = sentry.SpanStatusOK
	span.Description = fmt.Sprintf("Token Usage: %s", model)
}

// RecordInterpretation records how long an interpretation took and whether it succeeded
func (m *SentryMetrics) RecordInterpretation(ctx context.Context, provider string, duration time.Duration, success bool) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "interpretation.request")
	defer span.Finish()

	span.SetTag("provider", provider)
	span.SetTag("success", fmt.Sprintf("%t", success))
	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("success", success)

	if success {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}
	span.Description = fmt.Sprintf("Interpretation: %s", provider)
}

// RecordSessionEvent leaves a breadcrumb for a playback session event
func (m *SentryMetrics) RecordSessionEvent(event string, data map[string]interface{}) {
	if !m.enabled {
		return
	}

	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Category: "lyria.session",
		Message:  event,
		Data:     data,
		Level:    sentry.LevelInfo,
	})

	// session errors surface as events, not only as breadcrumbs
	if event == sessionErrorEvent {
		logger.LogToSentry(sentry.LevelWarning, "Music session error", logger.Fields(data))
	}
}

// RecordProxySession records one proxied WebSocket session
func (m *SentryMetrics) RecordProxySession(ctx context.Context, duration time.Duration, frames int64, err error) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "lyria.proxy")
	defer span.Finish()

	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("frames", frames)
	if err != nil {
		span.SetData("error", err.Error())
		span.Status = sentry.SpanStatusInternalError
	} else {
		span.Status = sentry.SpanStatusOK
	}
	span.Description = "Lyria proxy session"
}
