package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/wallthemes/internal/observability"
	"github.com/jmylchreest/wallthemes/internal/service"
)

var validateCmd = &cobra.Command{
	Use:     "validate",
	Aliases: []string{"pull_request"},
	Short:   "Validate new or changed themes without publishing them",
	Long: `Validate downloads every theme whose id is new or whose primary URL changed
since the catalog was last written, and checks its manifest, file set and
images. Nothing is written.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMode(cmd.Context(), "validate", (*service.ThemeService).Validate)
	},
}

var publishCmd = &cobra.Command{
	Use:     "publish",
	Aliases: []string{"push"},
	Short:   "Publish new or changed themes to the catalog",
	Long: `Publish downloads every theme whose id is new or whose primary URL changed,
renders its thumbnails and previews and records it in the catalog.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMode(cmd.Context(), "publish", (*service.ThemeService).Publish)
	},
}

var privateCmd = &cobra.Command{
	Use:   "private",
	Short: "Catalog pre-downloaded private theme packages",
	Long: `Private catalogs the packages found below the private directory. No network
access takes place; thumbnails are rendered straight from each archive and
no previews are generated. This is also what runs without a subcommand.`,
	Args: cobra.NoArgs,
	RunE: runPrivate,
}

func init() {
	rootCmd.AddCommand(validateCmd, publishCmd, privateCmd)

	publishCmd.Flags().String("previews-dir", "", "preview output directory (default out/previews)")
	validateCmd.Flags().Bool("check-brightness", true, "check the order of the brightest and darkest frames")
	privateCmd.Flags().String("private-dir", "", "directory searched for packages (default private)")

	mustBindPFlag("output.previews_dir", publishCmd.Flags().Lookup("previews-dir"))
	mustBindPFlag("validation.check_brightness", validateCmd.Flags().Lookup("check-brightness"))
	mustBindPFlag("private.dir", privateCmd.Flags().Lookup("private-dir"))
}

func runPrivate(cmd *cobra.Command, _ []string) error {
	return runMode(cmd.Context(), "private", (*service.ThemeService).Private)
}

// runMode builds the theme service from configuration and runs one mode.
func runMode(ctx context.Context, mode string, run func(*service.ThemeService, context.Context) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := observability.WithComponent(slog.Default(), mode)
	svc, err := service.NewFromConfig(cfg, collector, logger)
	if err != nil {
		return err
	}
	svc.WithOutputFile(os.Getenv("GITHUB_OUTPUT"))

	return run(svc, ctx)
}
