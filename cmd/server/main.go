package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/developia-II/feedback-analyzer-backend/internal/config"
)

var (
	portFlag          string
	resetAdminFlag    bool
	envFileFlag       string
	modelsTimeoutFlag = defaultModelsTimeout
)

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Multilingual customer feedback analyzer API",
	Long: `Runs the feedback analyzer HTTP API.

Incoming feedback is translated to English and classified as positive,
negative or neutral by a language model, then stored for the admin
dashboard.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (default)",
	RunE:  runServe,
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models offered by the configured AI provider",
	RunE:  runModels,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", ".env", "dotenv file to load before reading the environment")
	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().StringVar(&portFlag, "port", "", "listen port (overrides PORT)")
		cmd.Flags().BoolVar(&resetAdminFlag, "reset-admin-password", false, "overwrite the admin password with ADMIN_PASSWORD")
	}
	modelsCmd.Flags().DurationVar(&modelsTimeoutFlag, "timeout", defaultModelsTimeout, "provider request timeout")

	rootCmd.AddCommand(serveCmd, modelsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig applies the command line overrides. The models command only
// needs the provider settings, so validation errors are fatal for serve only.
func loadConfig(strict bool) (*config.Config, error) {
	cfg, err := config.Load(envFileFlag)
	if err != nil && (strict || cfg == nil) {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if portFlag != "" {
		cfg.Port = portFlag
	}
	if resetAdminFlag {
		cfg.AdminForceReset = true
	}
	return cfg, nil
}

// newLogger builds the process logger from LOG_FORMAT and LOG_LEVEL.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
