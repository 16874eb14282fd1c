package cmd

import (
	"context"
	"log"
	"os"

	"github.com/Conceptual-Machines/magda-jam/internal/config"
	"github.com/Conceptual-Machines/magda-jam/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// releaseVersion is set by main from the build ldflags
var releaseVersion = "dev"

// cfg is loaded once before any command runs
var cfg *config.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "magda-jam",
	Short: "Voice-driven realtime music sessions",
	Long: `magda-jam steers a realtime generative music stream with spoken or typed
commands.

  serve   runs the HTTP API (command interpretation, history, WebSocket proxy)
  jam     plays music locally and reads commands from the terminal`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		// Load environment variables
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, using environment variables")
		}
		cfg = config.Load()

		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.LogLevel = level
		}
		logger.Configure(cfg.LogLevel, cfg.LogFormat)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(version string) {
	if version != "" {
		releaseVersion = version
	}
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "override LOG_LEVEL (debug, info, warn, error)")
}
