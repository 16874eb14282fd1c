package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration
// The music session and the interpreters only need API keys; the database is optional
// and command history is disabled without it.
type Config struct {
	// Environment
	Environment string
	Port        string
	LogLevel    string
	LogFormat   string

	// LLM API Keys
	GoogleAPIKey string // Google AI key, used for both Gemini and the realtime music model
	OpenAIAPIKey string // OpenAI API key for GPT models

	// Interpreter
	InterpreterProvider string // "gemini" or "openai"
	GeminiModel         string
	OpenAIModel         string

	// Realtime music session
	LyriaModel  string
	LyriaURL    string
	BufferLead  time.Duration
	AudioBuffer time.Duration

	// Storage (optional)
	DatabaseURL string

	// Observability
	SentryDSN           string // Sentry DSN for error tracking
	LangfusePublicKey   string // Langfuse public key
	LangfuseSecretKey   string // Langfuse secret key
	LangfuseHost        string // Langfuse host URL (cloud or self-hosted)
	LangfuseEnabled     bool   // Feature flag for Langfuse
	CloudWatchNamespace string

	// HTTP
	CORSAllowedOrigins []string
}

func Load() *Config {
	return &Config{
		Environment:         getEnv("ENVIRONMENT", "development"),
		Port:                getEnv("PORT", "8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
		GoogleAPIKey:        getEnv("GOOGLE_API_KEY", getEnv("GEMINI_API_KEY", "")),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		InterpreterProvider: strings.ToLower(getEnv("INTERPRETER_PROVIDER", "gemini")),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.0-flash-exp"),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-5-mini"),
		LyriaModel:          getEnv("LYRIA_MODEL", "lyria-realtime-exp"),
		LyriaURL:            getEnv("LYRIA_URL", ""),
		BufferLead:          getSeconds("LYRIA_BUFFER_SECONDS", 2*time.Second),
		AudioBuffer:         getSeconds("AUDIO_BUFFER_SECONDS", 100*time.Millisecond),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		SentryDSN:           getEnv("SENTRY_DSN", ""),
		LangfusePublicKey:   getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey:   getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:        getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:     getEnv("LANGFUSE_ENABLED", "false") == "true",
		CloudWatchNamespace: getEnv("CLOUDWATCH_NAMESPACE", "MAGDA/Jam"),
		CORSAllowedOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

// getSeconds parses a fractional number of seconds, falling back on bad input
func getSeconds(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	secs, err := strconv.ParseFloat(value, 64)
	if err != nil || secs <= 0 {
		return defaultValue
	}
	return time.Duration(secs * float64(time.Second))
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsProduction returns true when running in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HasDatabase returns true when command history should be persisted
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}
