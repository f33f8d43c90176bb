// Package cmd provides the CLI commands for askdoc.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/askdoc/askdoc/internal/config"
	"github.com/askdoc/askdoc/internal/embed"
	aderrors "github.com/askdoc/askdoc/internal/errors"
	"github.com/askdoc/askdoc/internal/extract"
	"github.com/askdoc/askdoc/internal/generate"
	"github.com/askdoc/askdoc/internal/logging"
	"github.com/askdoc/askdoc/internal/profiling"
	"github.com/askdoc/askdoc/internal/rag"
	"github.com/askdoc/askdoc/internal/ui"
	"github.com/askdoc/askdoc/pkg/version"
)

// Profiling flags
var (
	profileCPU   string
	profileMem   string
	profileTrace string
	profSession  *profiling.Session
)

// NewRootCmd creates the root command for the askdoc CLI.
func NewRootCmd() *cobra.Command {
	var configPath string
	var dataDir string
	var debugMode bool

	cmd := &cobra.Command{
		Use:   "askdoc",
		Short: "Ask questions about a PDF document",
		Long: `askdoc answers questions about a PDF document.

It splits the document into paragraphs, embeds them, and retrieves the
closest passages for each question to ground an OpenAI chat completion.
The index persists under the data directory, so a processed document
survives restarts.

Run 'askdoc' in a terminal to start an interactive session.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return cmd.Help()
			}
			return runSession(configPath, dataDir, debugMode)
		},
	}

	cmd.SetVersionTemplate("askdoc version {{.Version}}\n")

	cmd.Flags().StringVar(&configPath, "config", "", "Path to a config file (replaces ./askdoc.yaml)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory for the persisted index")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.askdoc/logs/")

	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileTrace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startProfiling
	cmd.PersistentPostRunE = stopProfiling

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// startProfiling begins the profiles requested via flags.
func startProfiling(_ *cobra.Command, _ []string) error {
	s, err := profiling.Start(profileCPU, profileTrace, profileMem)
	if err != nil {
		return err
	}
	profSession = s
	return nil
}

// stopProfiling ends the profiles and writes the heap snapshot.
func stopProfiling(_ *cobra.Command, _ []string) error {
	if profSession == nil {
		return nil
	}
	err := profSession.Stop()
	profSession = nil
	return err
}

// Execute runs the root command and prints failures in CLI form.
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprint(os.Stderr, aderrors.FormatForCLI(err))
		return err
	}
	return nil
}

// runSession wires configuration, logging, and the engine, then hands
// the terminal to the interactive session.
func runSession(configPath, dataDir string, debugMode bool) error {
	if !ui.IsTTY(os.Stdout) {
		return fmt.Errorf("askdoc needs an interactive terminal; run it directly in a TTY")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
	}

	logCfg := logging.DefaultConfig()
	if debugMode {
		logCfg = logging.DebugConfig()
	} else if cfg.Logging.Level != "" {
		logCfg.Level = cfg.Logging.Level
	}
	if cfg.Logging.File != "" {
		logCfg.FilePath = cfg.Logging.File
	}

	// The TUI owns the terminal, so logs only go to the file.
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer cleanup()
	slog.SetDefault(logger)

	logger.Info("session starting",
		slog.String("version", version.Version),
		slog.String("data_dir", cfg.DataDir))

	key, source := cfg.ResolveAPIKey()

	var svc ui.Service
	if key != "" {
		engine, err := buildEngine(cfg, key, logger)
		if err != nil {
			return err
		}
		svc = engine
	}

	return ui.Run(ui.ModelConfig{
		Service: svc,
		Build:   newEngineBuilder(cfg, logger),
		KeyNote: keyNote(cfg, source),
		NoColor: ui.DetectNoColor() || ui.DetectCI(),
	})
}

// buildEngine constructs the embedder, generator, and engine from the
// loaded configuration and a resolved API key.
func buildEngine(cfg *config.Config, apiKey string, logger *slog.Logger) (*rag.Engine, error) {
	embedder, err := embed.NewEmbedder(embed.Options{
		Provider:   cfg.Embedder.Provider,
		Model:      cfg.Embedder.Model,
		Dimensions: cfg.Embedder.Dimensions,
		BaseURL:    cfg.Embedder.BaseURL,
		APIKey:     apiKey,
		Timeout:    time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
		CacheSize:  cfg.Embedder.CacheSize,
	})
	if err != nil {
		return nil, err
	}

	generator, err := generate.NewOpenAIGenerator(generate.OpenAIConfig{
		APIKey:      apiKey,
		Model:       cfg.Generator.Model,
		Temperature: cfg.Generator.Temperature,
		MaxTokens:   cfg.Generator.MaxTokens,
		BaseURL:     cfg.Generator.BaseURL,
		Timeout:     time.Duration(cfg.Generator.TimeoutSecs) * time.Second,
	})
	if err != nil {
		_ = embedder.Close()
		return nil, err
	}

	engine, err := rag.New(rag.Config{
		IndexPath:  cfg.IndexPath(),
		ChunksPath: cfg.ChunksPath(),
		TopK:       cfg.Query.TopK,
	}, embedder, generator, extract.NewPDFExtractor(), logger)
	if err != nil {
		_ = embedder.Close()
		return nil, err
	}
	return engine, nil
}

// newEngineBuilder returns the builder the session uses when the key
// arrives interactively. A working key is saved to the secrets file so
// the next session skips the prompt.
func newEngineBuilder(cfg *config.Config, logger *slog.Logger) ui.EngineBuilder {
	return func(apiKey string) (ui.Service, error) {
		engine, err := buildEngine(cfg, apiKey, logger)
		if err != nil {
			return nil, err
		}
		if err := config.SaveAPIKey(apiKey); err != nil {
			logger.Warn("failed to save API key",
				slog.String("path", config.SecretsPath()),
				slog.String("error", err.Error()))
		} else {
			logger.Info("API key saved", slog.String("path", config.SecretsPath()))
		}
		return engine, nil
	}
}

// keyNote describes the key source for the session header.
func keyNote(cfg *config.Config, source config.KeySource) string {
	switch source {
	case config.KeySourceSecrets:
		return "secrets file"
	case config.KeySourceEnv:
		return "env " + cfg.APIKeyEnv
	}
	return ""
}
