// Package commands contains the Cobra commands of the ntfy CLI.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/coregx/ntfy"
	"github.com/coregx/ntfy/cmd/ntfy/internal/config"
)

// errReported marks failures whose details were already printed.
var errReported = errors.New("reported")

// app carries state shared by all commands of one invocation.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *slog.Logger
	stderr io.Writer
}

// NewRootCommand constructs the ntfy root command with all subcommands.
func NewRootCommand() *cobra.Command {
	a := &app{stderr: os.Stderr}

	root := &cobra.Command{
		Use:   "ntfy",
		Short: "Publish and subscribe to ntfy topics",
		Long: `ntfy publishes messages to and subscribes to topics on ntfy servers.

Servers are read from the YAML file given by --config or $NTFY_CONFIG:

  servers:
    - name: home
      base_url: https://ntfy.example.com
      token: tk_xxxxxxxx
      topics: [alerts, backups]

Without a config file a single server named "default" is built from
NTFY_BASE_URL (default https://ntfy.sh), NTFY_TOKEN or NTFY_USER and
NTFY_PASSWORD, and NTFY_TOPICS.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.stderr = cmd.ErrOrStderr()
			return a.init()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default $NTFY_CONFIG)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug|info|warn|error")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format: text|json")

	root.AddCommand(
		newPublishCommand(a),
		newSubscribeCommand(a),
		newServersCommand(a),
		newWatermarksCommand(a),
	)

	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	root := NewRootCommand()
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			_, _ = fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		}
		return 1
	}
	return 0
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if err := cfg.Log.Validate(); err != nil {
		return fmt.Errorf("invalid log flags: %w", err)
	}

	a.cfg = cfg
	a.logger = newLogger(a.stderr, cfg.Log)
	return nil
}

// newLogger builds the slog logger: coloured console output via tint, or JSON.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "2006-01-02 15:04:05",
	}))
}

// newRegistry builds clients for all configured servers.
func (a *app) newRegistry(extra ...ntfy.Option) (*ntfy.Registry, error) {
	logger := ntfy.NewSlogLogger(a.logger)
	opts := []ntfy.Option{
		ntfy.WithLogger(logger),
		ntfy.WithObserver(ntfy.NewLoggingObserver(logger)),
		ntfy.WithKeepaliveTimeout(a.cfg.Keepalive),
	}
	return ntfy.NewRegistry(a.cfg.Servers, append(opts, extra...)...)
}
