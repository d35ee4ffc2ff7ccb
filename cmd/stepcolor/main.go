package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/philipparndt/stepcolor/internal/config"
	"github.com/philipparndt/stepcolor/internal/logging"
	"github.com/philipparndt/stepcolor/internal/session"
	"github.com/philipparndt/stepcolor/pkg/kernel/brep"
	"github.com/philipparndt/stepcolor/version"
)

var (
	configPath string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "stepcolor",
	Short: "Color the faces of STEP solids by the direction they face",
	Long: `stepcolor reads a solid from a STEP file, turns it into a working orientation
and colors every face by the direction of its normal: top faces red, bottom
faces green, faces toward X blue, faces toward Y yellow and everything else gray.
The result is written next to the input with the AP214 schema.`,
	Version: version.GetFullVersion(),
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (console, json)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies the persistent flags
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = logFormat
	}
	return cfg
}

// validate checks cfg after flag overrides
func validate(cfg *config.Config) {
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	return log
}

func newController(cfg *config.Config, log *zap.Logger) *session.Controller {
	return session.New(brep.New(), log, session.Options{
		Suffix:  cfg.Suffix,
		Workers: cfg.Workers,
	})
}
