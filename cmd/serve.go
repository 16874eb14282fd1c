package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/Conceptual-Machines/magda-jam/internal/api"
	"github.com/Conceptual-Machines/magda-jam/internal/lyria"
	"github.com/caarlos0/ctrlc"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API:

  GET  /api/health
  GET  /api/metrics
  POST /api/interpret
  POST /api/interpret/first
  POST /api/interpret/modify
  GET  /api/history, /api/history/stats   (needs DATABASE_URL)
  GET  /ws/lyria                          (WebSocket proxy to the music model)`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "listen port (overrides PORT)")
	serveCmd.Flags().String("provider", "", "interpreter provider: gemini or openai (overrides INTERPRETER_PROVIDER)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	flush := initSentry(cfg)
	defer flush()

	t := newTelemetry(ctx, cfg)
	defer t.flush(context.Background())

	provider, _ := cmd.Flags().GetString("provider")
	interp, err := newInterpreter(ctx, cfg, t, provider)
	if err != nil {
		sentry.CaptureException(err)
		return err
	}

	db, history, err := openHistory(cfg)
	if err != nil {
		sentry.CaptureException(err)
		return err
	}

	deps := api.Dependencies{
		Interpreter: interp,
		Metrics:     t.metrics,
		DB:          db,
		History:     history,
	}
	if cfg.GoogleAPIKey != "" {
		deps.Upstream = lyria.NewWebSocketDialer(cfg.LyriaURL, cfg.GoogleAPIKey, cfg.LyriaModel)
	} else {
		log.Println("⚠️  Music proxy disabled (GOOGLE_API_KEY not set)")
	}

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.SetupRouter(cfg, deps, releaseVersion)

	port := cfg.Port
	if p, _ := cmd.Flags().GetString("port"); p != "" {
		port = p
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("🎵 MAGDA Jam API running on http://localhost:%s", port)
	log.Println("📡 API endpoints:")
	log.Println("   GET  /api/health")
	log.Println("   POST /api/interpret")
	log.Println("   POST /api/interpret/first")
	log.Println("   POST /api/interpret/modify")

	err = ctrlc.Default.Run(ctx, func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	var sig ctrlc.ErrorCtrlC
	if errors.As(err, &sig) {
		log.Printf("🛑 %v, shutting down", err)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
	if err != nil {
		sentry.CaptureException(err)
		log.Printf("Failed to start server: %v", err)
	}
	return err
}
