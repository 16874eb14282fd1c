package observability

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/Conceptual-Machines/magda-jam/internal/config"
	"github.com/Conceptual-Machines/magda-jam/internal/llm"
	"github.com/Conceptual-Machines/magda-jam/internal/models"
	langfuse "github.com/henomis/langfuse-go"
	"github.com/henomis/langfuse-go/model"
)

const (
	traceName      = "music-interpretation"
	levelError     = "ERROR"
	sessionIDField = "session_id"
)

type sessionIDKey struct{}

// WithSessionID tags ctx so traces from the same jam session can be grouped
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

func sessionIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey{}).(string)
	return id
}

// langfuseAPI is the part of the Langfuse SDK the tracer uses
type langfuseAPI interface {
	Trace(t *model.Trace) (*model.Trace, error)
	Generation(g *model.Generation, parentID *string) (*model.Generation, error)
	GenerationEnd(g *model.Generation) (*model.Generation, error)
	Flush(ctx context.Context)
}

// Tracer records every interpretation as a Langfuse trace with one generation
type Tracer struct {
	client  langfuseAPI
	enabled bool
}

// NewTracer creates a tracer from config. The SDK reads its keys and host
// from the environment.
func NewTracer(ctx context.Context, cfg *config.Config) *Tracer {
	if !cfg.LangfuseEnabled || cfg.LangfuseSecretKey == "" {
		log.Println("⚠️  Langfuse not configured (LANGFUSE_ENABLED=false or LANGFUSE_SECRET_KEY not set)")
		return &Tracer{enabled: false}
	}

	lf := langfuse.New(ctx)
	log.Printf("✅ Langfuse initialized (host: %s)", cfg.LangfuseHost)
	log.Printf("🔍 Langfuse: Public key set: %v, Secret key set: %v",
		os.Getenv("LANGFUSE_PUBLIC_KEY") != "",
		os.Getenv("LANGFUSE_SECRET_KEY") != "")
	return newTracer(lf)
}

func newTracer(client langfuseAPI) *Tracer {
	return &Tracer{client: client, enabled: true}
}

// IsEnabled returns whether Langfuse is enabled
func (t *Tracer) IsEnabled() bool {
	return t.enabled && t.client != nil
}

// ObserveInterpretation implements llm.Observer
func (t *Tracer) ObserveInterpretation(ctx context.Context, transcript string, opts models.InterpretOptions, out *llm.Interpretation, err error) {
	if !t.IsEnabled() {
		return
	}

	metadata := map[string]interface{}{
		"is_first_command": opts.IsFirstCommand,
	}
	if id := sessionIDFrom(ctx); id != "" {
		metadata[sessionIDField] = id
	}

	trace, traceErr := t.client.Trace(&model.Trace{
		Name:     traceName,
		Metadata: metadata,
	})
	if traceErr != nil {
		log.Printf("⚠️  Failed to create Langfuse trace: %v", traceErr)
		return
	}

	start := time.Now()
	if out != nil {
		start = start.Add(-out.Duration)
	}
	gen, genErr := t.client.Generation(&model.Generation{
		TraceID:   trace.ID,
		Name:      "interpret",
		StartTime: &start,
		Input: map[string]interface{}{
			"transcript": transcript,
			"options":    opts,
		},
	}, nil)
	if genErr != nil {
		log.Printf("⚠️  Failed to create Langfuse generation: %v", genErr)
		return
	}

	if err != nil {
		gen.Level = model.ObservationLevel(levelError)
		gen.Metadata = map[string]interface{}{"error": err.Error()}
	} else if out != nil {
		cost := CalculateCost(out.Model, out.Usage)
		gen.Model = out.Model
		gen.Output = out.Result
		gen.Usage = model.Usage{
			Input:     int(out.Usage.InputTokens),
			Output:    int(out.Usage.OutputTokens),
			Total:     int(out.Usage.TotalTokens),
			Unit:      model.ModelUsageUnitTokens,
			TotalCost: cost,
		}
		gen.Metadata = map[string]interface{}{
			"provider":   out.Provider,
			"tool_calls": out.ToolCalls,
			"cost_usd":   FormatCost(cost),
		}
	}

	end := time.Now()
	gen.EndTime = &end
	if _, err := t.client.GenerationEnd(gen); err != nil {
		log.Printf("⚠️  Failed to end Langfuse generation: %v", err)
	}
}

// Flush sends all queued events; call it before exit
func (t *Tracer) Flush(ctx context.Context) {
	if t.IsEnabled() {
		t.client.Flush(ctx)
	}
}
