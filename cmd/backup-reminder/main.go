// Package main is the entrypoint for the backup reminder dialog.
package main

import (
	"fmt"
	"os"
	"runtime"

	"backup-reminder/internal/app"
	"backup-reminder/internal/config"
	"backup-reminder/internal/logger"

	"github.com/spf13/cobra"
)

// Build-time variables set via ldflags.
var (
	Version = app.AppVersion
	Commit  = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	logLevel   string
	logFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "backup-reminder",
		Short: "Remind the user to run a backup and run it on request",
		Long: `backup-reminder shows a small dialog asking whether to run a backup now.
When confirmed it suspends the screensaver, runs the configured backup
command and reports whether it finished successfully.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ~/.config/backup-reminder/config.yml)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&opts.logFile, "log-file", "", "also write JSON logs to this file")

	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("backup-reminder %s\n", Version)
			fmt.Printf("  Commit:     %s\n", Commit)
			fmt.Printf("  Go version: %s\n", runtime.Version())
		},
	}
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.Load(opts.configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.logFile != "" {
		cfg.Log.File = opts.logFile
	}
	return cfg, nil
}

func run(opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	log, closer, err := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}

	application, err := app.NewApplication(cfg, log.With("pid", os.Getpid()), closer)
	if err != nil {
		closer.Close()
		return fmt.Errorf("initialize application: %w", err)
	}

	return application.Run()
}
