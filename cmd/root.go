package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/inovacc/gitmon/internal/application"
	"github.com/inovacc/gitmon/internal/cli"
	"github.com/inovacc/gitmon/internal/git"
	"github.com/inovacc/gitmon/internal/model"
	"github.com/inovacc/gitmon/internal/monitor"
)

var (
	flagConfig  string
	flagVerbose bool
	flagDebug   bool

	cfg        model.Config
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   application.AppName,
	Short: "A terminal dashboard for local git repositories",
	Long: `Gitmon watches directories full of git repositories and shows their
working tree status, branch, and sync state against upstream in one view.

Running gitmon without a subcommand opens the interactive dashboard.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	RunE: runDashboard,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log at info level")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Log at debug level")

	// Config fields use snake_case; accept the same spelling on the CLI
	rootCmd.PersistentFlags().SetNormalizeFunc(normalizeFlag)
}

func normalizeFlag(f *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// setup loads the configuration and installs the default logger. The
// dashboard logs to a file so log lines never tear the rendered screen;
// every other command logs to stderr.
func setup(cmd *cobra.Command) error {
	var err error

	configPath = flagConfig
	if configPath == "" {
		if configPath, err = model.ConfigPath(); err != nil {
			return err
		}
	}

	// init and path must not auto-create the config file they report on
	switch cmd.Name() {
	case "init", "path":
	default:
		if cfg, err = model.LoadConfig(configPath); err != nil {
			return err
		}
	}

	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelInfo
	}

	if flagDebug {
		level = slog.LevelDebug
	}

	var out io.Writer = os.Stderr

	if cmd.Name() == application.AppName {
		if f := openLogFile(); f != nil {
			out = f
		} else {
			out = io.Discard
		}
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))

	return nil
}

func openLogFile() *os.File {
	dir, err := application.LogDirectory()
	if err != nil {
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil
	}

	f, err := os.OpenFile(filepath.Join(dir, application.AppName+".log"),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil
	}

	return f
}

func runDashboard(cmd *cobra.Command, args []string) error {
	mon := monitor.New(cfg, git.NewClient())
	mon.Start(cmd.Context())

	defer mon.Close()

	if err := cli.Run(mon, configPath); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}

	return nil
}
