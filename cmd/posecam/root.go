package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-posecam/internal/config"
	"github.com/teslashibe/go-posecam/internal/log"
)

// Version is the application version.
const Version = "0.1.0"

// options is shared by every subcommand. cfg is filled in PersistentPreRunE.
type options struct {
	cfg       config.Config
	logLevel  string
	detectURL string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "posecam",
		Short:         "Camera client for a pose detection service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = opts.logLevel
			}
			if cmd.Flags().Changed("detect-url") {
				cfg.DetectURL = opts.detectURL
			}
			if problems := cfg.Validate(); len(problems) > 0 {
				return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
			}

			log.Init(cfg.LogLevel)
			opts.cfg = cfg
			return nil
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error (env LOG_LEVEL)")
	root.PersistentFlags().StringVar(&opts.detectURL, "detect-url", config.DefaultDetectURL, "pose detection service base URL (env POSECAM_DETECT_URL)")

	root.AddCommand(
		newServeCmd(opts),
		newSnapCmd(opts),
		newHealthCmd(opts),
		newWatchCmd(opts),
	)
	return root
}

// Execute runs the root command until it finishes or the process is signalled.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
