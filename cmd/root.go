package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/marcus/adminui/internal/config"
	"github.com/marcus/adminui/internal/logging"
)

var (
	version string
	baseDir string
	cfg     *config.Config
)

// SetVersion sets the version string
func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "adminui",
	Short: "Terminal console for admin entity forms",
	Long: `adminui - A terminal console for admin entity forms.

Pages are declared in YAML: tabbed forms, dependent-field rules, lookup
candidates and the links that open stacked modals. The console runs the
page rules as you edit and loads linked fragments from the admin server,
or from the page definition itself when no server is configured.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "console", Title: "Console Commands:"},
		&cobra.Group{ID: "system", Title: "System Commands:"},
	)
	rootCmd.PersistentFlags().StringVarP(&baseDir, "dir", "C", "", "Base directory holding .adminui/config.json (default: working directory)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides config)")
	rootCmd.PersistentFlags().String("log-file", "", "Write logs to this file (overrides config)")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Print the version",
	GroupID: "system",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "adminui %s\n", versionString())
	},
}

func versionString() string {
	if version == "" {
		return "dev"
	}
	return version
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("cannot determine working directory: %w", err)
		}
		baseDir = wd
	}
	loaded, err := config.Load(baseDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		loaded.LogLevel = level
	}
	if file, _ := cmd.Flags().GetString("log-file"); file != "" {
		loaded.LogFile = file
	}
	cfg = loaded
	return nil
}

// getBaseDir returns the base directory for the project
func getBaseDir() string {
	return baseDir
}

// newLogger builds the command logger. Logs go to the configured file; with
// none, a full-screen command discards them and other commands write to
// stderr. The returned func closes the file.
func newLogger(fullScreen bool) (*slog.Logger, func(), error) {
	level := logging.ParseLevel(cfg.LogLevel)
	if cfg.LogFile == "" {
		if fullScreen {
			return logging.Discard(), func() {}, nil
		}
		return logging.NewLogger(os.Stderr, level), func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return logging.NewLogger(f, level), func() { _ = f.Close() }, nil
}
