package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/0xcro3dile/redline-go/internal/adapters/llm"
	"github.com/0xcro3dile/redline-go/internal/adapters/store"
	"github.com/0xcro3dile/redline-go/internal/domain/usecases"
	"github.com/0xcro3dile/redline-go/internal/infrastructure/config"
	"github.com/0xcro3dile/redline-go/internal/infrastructure/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "redline",
	Short: "RedLineAI - whole-context M&A due diligence",
	Long: `RedLineAI sends an entire virtual data room to Gemini in a single request
and returns a structured diligence report: top risks, detailed findings,
amendment resolution and questions for counsel.

Run "redline serve" for the web dashboard, "redline analyze" for a one-off
report, or "redline watch" to re-analyze a folder whenever it changes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Logging.Level, cfg.Logging.Format, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, analyzeCmd, watchCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// newAnalyzer wires the Gemini adapter and the in-memory store from cfg.
func newAnalyzer() (*usecases.AnalyzeUseCase, error) {
	model, err := llm.NewGeminiAdapter(llm.Config{
		APIKey:      cfg.Gemini.APIKey,
		Model:       cfg.Gemini.Model,
		BaseURL:     cfg.Gemini.BaseURL,
		APIVersion:  cfg.Gemini.APIVersion,
		Temperature: cfg.Gemini.Temperature,
		Timeout:     cfg.Gemini.Timeout.Std(),
	}, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Gemini.APIKey == "" {
		logger.Warn("no Gemini API key configured; analyses will fail",
			zap.String("env", config.EnvAPIKey))
	}

	return usecases.NewAnalyzeUseCase(model, store.NewInMemoryStore(cfg.Server.MaxAnalyses), usecases.AnalyzeOptions{
		Timeout:        cfg.Server.AnalysisTimeout.Std(),
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Logger:         logger,
	}), nil
}
