package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	zaplogfmt "github.com/jsternberg/zap-logfmt"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/cosmos/ics20-harness/internal/harnessmetrics"
)

const appName = "ics20-harness"

var defaultHome = filepath.Join(os.Getenv("HOME"), ".ics20-harness")

// NewRootCmd returns the root command of the harness.
// If log is nil, a logger is built from the --log-format and --debug flags before any subcommand runs.
func NewRootCmd(log *zap.Logger) *cobra.Command {
	a := &appState{
		Viper: viper.New(),
	}

	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Drive an IBC relayer between two local chains for ics20 contract tests",
		Long: strings.TrimSpace(`ics20-harness creates clients, a connection and an ics20-1 channel between two
local chains through the rly relayer, then relays packets and acknowledgements between them.

Every subcommand reads its settings from <home>/config/config.yaml, falling back to
defaults matching the local test chains when the file is absent.`),
	}

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		home, err := homedir.Expand(a.Viper.GetString(flagHome))
		if err != nil {
			return fmt.Errorf("failed to expand home path: %w", err)
		}
		a.HomePath = home
		a.Debug = a.Viper.GetBool(flagDebug)

		if err := a.loadConfig(); err != nil {
			return err
		}

		// The config file format applies only when --log-format was not given.
		if log == nil {
			format := a.Viper.GetString(flagLogFormat)
			if !cmd.Flags().Changed(flagLogFormat) && a.Config.Global.LogFormat != "" {
				format = a.Config.Global.LogFormat
			}
			log, err = newRootLogger(format, a.Debug)
			if err != nil {
				return err
			}
		}
		a.Log = log
		a.Metrics = harnessmetrics.New()
		return nil
	}

	rootCmd.PersistentPostRun = func(cmd *cobra.Command, _ []string) {
		// Errors from syncing stderr are not actionable.
		_ = a.Log.Sync()
	}

	rootCmd.PersistentFlags().StringVar(&a.HomePath, flagHome, defaultHome, "set home directory")
	if err := a.Viper.BindPFlag(flagHome, rootCmd.PersistentFlags().Lookup(flagHome)); err != nil {
		panic(err)
	}

	rootCmd.PersistentFlags().BoolVarP(&a.Debug, flagDebug, "d", false, "debug output")
	if err := a.Viper.BindPFlag(flagDebug, rootCmd.PersistentFlags().Lookup(flagDebug)); err != nil {
		panic(err)
	}

	rootCmd.PersistentFlags().String(flagLogFormat, "auto", "log output format (auto, logfmt, json, or console)")
	if err := a.Viper.BindPFlag(flagLogFormat, rootCmd.PersistentFlags().Lookup(flagLogFormat)); err != nil {
		panic(err)
	}

	a.Viper.SetEnvPrefix("ICS20_HARNESS")
	a.Viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.Viper.AutomaticEnv()

	rootCmd.AddCommand(
		configCmd(a),
		denomCmd(a),
		keysCmd(a),
		waitCmd(a),
		linkCmd(a),
		relayCmd(a),
		upCmd(a),
		versionCmd(a),
	)

	return rootCmd
}

// Execute runs the root command until it returns or the process receives SIGINT or SIGTERM.
// This is called by main.main().
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd := NewRootCmd(nil)
	rootCmd.SilenceUsage = true

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cancel()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootLogger(format string, debug bool) (*zap.Logger, error) {
	config := zap.NewProductionEncoderConfig()
	config.EncodeTime = func(ts time.Time, encoder zapcore.PrimitiveArrayEncoder) {
		encoder.AppendString(ts.UTC().Format("2006-01-02T15:04:05.000000Z07:00"))
	}
	config.LevelKey = "lvl"

	var enc zapcore.Encoder
	switch format {
	case "json":
		enc = zapcore.NewJSONEncoder(config)
	case "console":
		enc = zapcore.NewConsoleEncoder(config)
	case "logfmt":
		enc = zaplogfmt.NewEncoder(config)
	case "auto":
		if term.IsTerminal(int(os.Stderr.Fd())) {
			config.EncodeLevel = zapcore.CapitalColorLevelEncoder
			enc = zapcore.NewConsoleEncoder(config)
		} else {
			enc = zaplogfmt.NewEncoder(config)
		}
	default:
		return nil, fmt.Errorf("unrecognized log format %q", format)
	}

	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}
	return zap.New(zapcore.NewCore(enc, os.Stderr, level)), nil
}
