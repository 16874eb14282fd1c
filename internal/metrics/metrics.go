package metrics

import (
	"context"
	"time"

	"github.com/Conceptual-Machines/magda-jam/internal/llm"
	"github.com/Conceptual-Machines/magda-jam/internal/lyria"
	"github.com/Conceptual-Machines/magda-jam/internal/models"
)

// Recorder fans every metric out to Sentry and, in production, CloudWatch
type Recorder struct {
	sentry     *SentryMetrics
	cloudwatch *Client
}

// NewRecorder combines the two backends. cloudwatch may be nil.
func NewRecorder(cloudwatch *Client) *Recorder {
	if cloudwatch == nil {
		cloudwatch = &Client{}
	}
	return &Recorder{
		sentry:     NewSentryMetrics(),
		cloudwatch: cloudwatch,
	}
}

// RecordAPIRequest records one HTTP request
func (r *Recorder) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	r.sentry.RecordAPIRequest(ctx, endpoint, statusCode, duration)
	r.cloudwatch.RecordAPIRequest(endpoint, statusCode, duration)
}

// ObserveInterpretation implements llm.Observer
func (r *Recorder) ObserveInterpretation(ctx context.Context, _ string, _ models.InterpretOptions, out *llm.Interpretation, err error) {
	if err != nil || out == nil {
		r.sentry.RecordInterpretation(ctx, "unknown", 0, false)
		r.cloudwatch.RecordInterpretation("unknown", 0, false)
		return
	}
	r.sentry.RecordInterpretation(ctx, out.Provider, out.Duration, true)
	r.sentry.RecordTokenUsage(ctx, out.Provider, out.Model, out.Usage)
	r.cloudwatch.RecordInterpretation(out.Provider, out.Duration, true)
	r.cloudwatch.RecordTokenUsage(out.Provider, out.Model, out.Usage)
}

// SessionListener returns a lyria listener that counts state changes, errors
// and filtered prompts. Time updates are ignored.
func (r *Recorder) SessionListener() lyria.Listener {
	return func(e lyria.Event) {
		var data map[string]interface{}
		switch e.Type {
		case lyria.EventTimeUpdated:
			return
		case lyria.EventStateChanged:
			data = map[string]interface{}{"state": string(e.State)}
		case lyria.EventError:
			data = map[string]interface{}{"message": e.Message}
		case lyria.EventFiltered:
			data = map[string]interface{}{"text": e.Text, "reason": e.Reason}
		}
		r.sentry.RecordSessionEvent(e.Type.String(), data)
		r.cloudwatch.RecordSessionEvent(e.Type.String())
	}
}

// RecordProxySession records one proxied WebSocket session
func (r *Recorder) RecordProxySession(ctx context.Context, duration time.Duration, frames int64, err error) {
	r.sentry.RecordProxySession(ctx, duration, frames, err)
	r.cloudwatch.RecordProxySession(duration, frames, err != nil)
}
