// Package cmd implements the CLI commands for wallthemes.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jmylchreest/wallthemes/internal/config"
	"github.com/jmylchreest/wallthemes/internal/observability"
	"github.com/jmylchreest/wallthemes/internal/report"
	"github.com/jmylchreest/wallthemes/internal/version"
)

// cfgFile holds the config file path from CLI flag.
var cfgFile string

// configErr holds the error from reading the config file, if any.
var configErr error

// collector accumulates the errors reported during one execution.
var collector = report.NewCollector()

// rootCmd represents the base command when called without any subcommands.
// Without a subcommand it processes the private packages.
var rootCmd = &cobra.Command{
	Use:     "wallthemes",
	Short:   "Validate and catalog dynamic wallpaper theme packages",
	Version: version.Short(),
	Long: `wallthemes validates themed wallpaper packages (.ddw archives) declared in
the theme source lists and maintains the theme catalog along with its
thumbnail and preview images.

Every problem found is printed as a "::error" annotation on stdout and the
exit status is the number of problems reported.`,
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runPrivate,
	// PersistentPreRunE is set in init() to avoid initialization cycle
}

// Execute runs the command line and returns the process exit status.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx, os.Args[1:], os.Stdout)
}

// execute runs rootCmd with args and writes the collected errors to out.
func execute(ctx context.Context, args []string, out io.Writer) int {
	collector = report.NewCollector()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		collector.Errorf("%v", err)
	}
	if err := collector.Emit(out); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return collector.ExitCode()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Set PersistentPreRunE here to avoid initialization cycle
	// (initLogging references rootCmd.PersistentFlags)
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		return initLogging()
	}

	// --log-level and --log-format are NOT bound to viper so that an unset
	// flag cannot mask env or config values. The remaining flags are bound.
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./.wallthemes.yaml or $HOME/.wallthemes.yaml)")
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.String("catalog", "", "theme catalog file (default theme-db.json)")
	flags.String("workspace", "", "scratch directory, wiped per theme (default temp)")
	flags.String("thumbnails-dir", "", "thumbnail output directory (default out/thumbnails)")

	mustBindPFlag("catalog.path", flags.Lookup("catalog"))
	mustBindPFlag("workspace.dir", flags.Lookup("workspace"))
	mustBindPFlag("output.thumbnails_dir", flags.Lookup("thumbnails-dir"))
}

// initConfig reads in config file and ENV variables if set. A read error is
// kept for loadConfig so that it is reported by the command being run.
func initConfig() {
	configErr = config.Configure(viper.GetViper(), cfgFile)
	if configErr == nil && viper.ConfigFileUsed() != "" {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// initLogging configures the default slog logger.
//
// Priority order (highest to lowest):
//  1. CLI flags (--log-level, --log-format) - only if explicitly provided
//  2. Environment variables (WALLTHEMES_LOGGING_LEVEL, WALLTHEMES_LOGGING_FORMAT)
//  3. Config file values
//  4. Built-in defaults (info, text)
func initLogging() error {
	level := viper.GetString("logging.level")
	format := viper.GetString("logging.format")

	if rootCmd.PersistentFlags().Changed("log-level") {
		level, _ = rootCmd.PersistentFlags().GetString("log-level")
	}
	if rootCmd.PersistentFlags().Changed("log-format") {
		format, _ = rootCmd.PersistentFlags().GetString("log-format")
	}

	if level == "" {
		level = "info"
	}
	if format == "" {
		format = "text"
	}

	logCfg := config.LoggingConfig{
		Level:      strings.ToLower(level),
		Format:     strings.ToLower(format),
		AddSource:  viper.GetBool("logging.add_source"),
		TimeFormat: viper.GetString("logging.time_format"),
	}

	// Handle "warning" as an alias for "warn"
	if logCfg.Level == "warning" {
		logCfg.Level = "warn"
	}

	logger := observability.NewLogger(logCfg)
	logger = observability.WithCorrelationID(logger, observability.NewRunID())
	observability.SetDefault(logger)

	return nil
}

// loadConfig decodes and validates the configuration assembled by initConfig.
func loadConfig() (*config.Config, error) {
	if configErr != nil {
		return nil, fmt.Errorf("loading configuration: %w", configErr)
	}
	cfg, err := config.Unmarshal(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}

// mustBindPFlag binds a viper key to a cobra flag and panics if binding fails.
func mustBindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("failed to bind flag %q to key %q: %v", flag.Name, key, err))
	}
}
