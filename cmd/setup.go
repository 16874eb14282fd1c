package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Conceptual-Machines/magda-jam/internal/config"
	"github.com/Conceptual-Machines/magda-jam/internal/database"
	"github.com/Conceptual-Machines/magda-jam/internal/llm"
	"github.com/Conceptual-Machines/magda-jam/internal/metrics"
	"github.com/Conceptual-Machines/magda-jam/internal/observability"
	"github.com/Conceptual-Machines/magda-jam/internal/services"
	"github.com/getsentry/sentry-go"
	"gorm.io/gorm"
)

const (
	sentryFlushTimeout    = 2 * time.Second
	environmentProduction = "production"
)

// initSentry initialises error reporting and returns the flush to defer
func initSentry(cfg *config.Config) func() {
	if cfg.SentryDSN == "" {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
		return func() {}
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		Release:          "magda-jam@" + releaseVersion,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
		EnableLogs:       true,
		Debug:            cfg.Environment != environmentProduction,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			if event.Request != nil {
				event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
				event.Request.QueryString = redactQueryKey(event.Request.QueryString)
			}
			return event
		},
	}); err != nil {
		log.Printf("Failed to initialize Sentry: %v", err)
		return func() {}
	}

	log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
	return func() { sentry.Flush(sentryFlushTimeout) }
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization":  true,
		"cookie":         true,
		"x-api-key":      true,
		"x-goog-api-key": true,
	}

	for k, v := range headers {
		if sensitiveKeys[strings.ToLower(k)] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}

// redactQueryKey hides the music service key, which travels as ?key=
func redactQueryKey(query string) string {
	parts := strings.Split(query, "&")
	for i, p := range parts {
		if strings.HasPrefix(p, "key=") {
			parts[i] = "key=[REDACTED]"
		}
	}
	return strings.Join(parts, "&")
}

// telemetry bundles the metric and tracing sinks shared by serve and jam
type telemetry struct {
	metrics *metrics.Recorder
	tracer  *observability.Tracer
}

func newTelemetry(ctx context.Context, cfg *config.Config) *telemetry {
	cw, err := metrics.NewClient(ctx, cfg.Environment, cfg.CloudWatchNamespace)
	if err != nil {
		log.Printf("⚠️  CloudWatch metrics unavailable: %v", err)
	}
	return &telemetry{
		metrics: metrics.NewRecorder(cw),
		tracer:  observability.NewTracer(ctx, cfg),
	}
}

func (t *telemetry) flush(ctx context.Context) {
	t.tracer.Flush(ctx)
}

// newInterpreter builds the configured provider wrapped with metrics and tracing.
// provider overrides INTERPRETER_PROVIDER when set.
func newInterpreter(ctx context.Context, cfg *config.Config, t *telemetry, provider string) (llm.Interpreter, error) {
	if provider == "" {
		provider = cfg.InterpreterProvider
	}

	model := cfg.GeminiModel
	if provider == "openai" {
		model = cfg.OpenAIModel
	}

	factory := llm.NewInterpreterFactory(cfg.GoogleAPIKey, cfg.OpenAIAPIKey)
	interp, err := factory.GetInterpreter(ctx, provider, model)
	if err != nil {
		return nil, fmt.Errorf("failed to create interpreter: %w", err)
	}

	log.Printf("🧠 Interpreter: %s (model: %s)", interp.Name(), model)
	return llm.Observed(interp, t.metrics, t.tracer), nil
}

// openHistory connects and migrates the history database when DATABASE_URL is
// set. Both return values are nil without one.
func openHistory(cfg *config.Config) (*gorm.DB, *services.HistoryService, error) {
	if !cfg.HasDatabase() {
		log.Println("⚠️  Command history disabled (DATABASE_URL not set)")
		return nil, nil, nil
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, services.NewHistoryService(db), nil
}
