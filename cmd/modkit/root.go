// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"modkit-cli/internal/config"
	"modkit-cli/internal/issue"
	"modkit-cli/internal/registry"
	"modkit-cli/internal/validator"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug-level output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string
	// modulesDirFlag overrides the configured module root
	modulesDirFlag string

	// cfg is the loaded configuration, resolved by initRootConfig.
	cfg config.Config

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "modkit",
		Short: "A registry for pluggable testing modules",
		Long: TitleStyle.Render("modkit") + SubtitleStyle.Render(" - A registry for pluggable testing modules") + `

modkit manages bash, python, and JSON tab-definition modules: it reads
their metadata (embedded legacy blocks or structured sidecar files),
validates their content, and scaffolds new modules from templates.

` + SubtitleStyle.Render("Examples:") + `
  modkit module list              List all registered modules
  modkit module show scan.sh      Show one module with its metadata
  modkit module convert scan.sh   Convert legacy metadata to a sidecar
  modkit template list            List available templates
  modkit validate --all           Validate every module in the registry`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/modkit/modkit.yaml)")
	rootCmd.PersistentFlags().StringVar(&modulesDirFlag, "modules-dir", "", "module root directory (overrides configuration)")

	// Add subcommands
	rootCmd.AddCommand(moduleCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

// initRootConfig reads in config file and ENV variables if set, then
// installs the styled slog handler at the resolved verbosity.
func initRootConfig() {
	loaded, err := config.NewProvider().Load(context.Background(), config.LoadOptions{
		ConfigFilePath: cfgFile,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
		defaults := config.DefaultConfig()
		loaded = &defaults
	}
	cfg = *loaded

	// Flags win over config file and env.
	if modulesDirFlag != "" {
		cfg.ModulesDir = modulesDirFlag
	}
	if !verbose {
		verbose = cfg.Verbose
	}

	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: false,
	})
	slog.SetDefault(slog.New(handler))
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// newRegistry builds the module registry from the resolved configuration.
func newRegistry() (*registry.Registry, error) {
	return registry.New(registry.Options{
		ModulesDir:   cfg.ModulesDir,
		TemplatesDir: cfg.TemplatesDir,
		Validator:    validator.New(validator.WithTimeout(cfg.SyntaxCheckTimeout)),
	})
}
