package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/salt-ha/salt-ha/internal/master"
	"github.com/salt-ha/salt-ha/internal/metadata"
	"github.com/salt-ha/salt-ha/internal/minion"
	"github.com/salt-ha/salt-ha/internal/utils"
)

// Design notes:
// - `register` makes sure the key of this minion is accepted on every reachable master
// - `orchestrate-heat` and `orchestrate-vra` run a pattern orchestration on one reachable master, chosen at random
// - Credentials come from the command line, the config file, the environment or, as a last resort, the metadata endpoint
//
// Orchestration sequence:
// 1. Push the stack pillar file through the companion service (optional)
// 2. Inject the pattern sys state (heat only)
// 3. Refresh the stack pillar
// 4. Trigger the orchestration hook
//
// The master runs the reactors behind steps 1-3 asynchronously and does not tell when they are done.
// Every step is followed by a fixed `--sleep-time` pause.

var rootCmd = &cobra.Command{
	Use:   "salt-ha",
	Short: "Register minions and run orchestrations against highly available Salt masters",
	Long: `salt-ha talks to the salt-api of one or more Salt masters.

The masters and the minion id are read from the minion configuration.
Unreachable masters are skipped.`,
	Args:              cobra.ArbitraryArgs,
	SilenceUsage:      true,
	PersistentPreRunE: RootCmdPersistentPreRunE,
	RunE:              RootCmdRunE,
}

// RootCmdRunE prints the help. Anything left on the command line is an unknown function.
func RootCmdRunE(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	cmd.Println("Try again...")
	_ = cmd.Help()
	return &UsageError{Function: args[0]}
}

// UsageError is returned when an unknown function is requested.
type UsageError struct {
	Function string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("unknown function: %s", e.Function)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
		fmt.Fprintln(os.Stderr, "Unable to read config file:", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		os.Exit(2)
	}
	os.Exit(1)
}

var (
	validLogLevels = map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	validLogLevelsStr = strings.Join(utils.GetKeys(validLogLevels), "|")

	validLogFormats = map[string]struct{}{"auto": {}, "json": {}, "text": {}}
)

func init() {
	SetupRootCmdFlags(rootCmd)

	viper.AddConfigPath("/etc/salt-ha/")
	viper.AddConfigPath("./")
	viper.SetConfigName("salt-ha")

	viper.SetEnvPrefix("SALT_HA")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(orchestrateHeatCmd)
	rootCmd.AddCommand(orchestrateVRACmd)
}

func SetupRootCmdFlags(command *cobra.Command) {
	flags := command.PersistentFlags()

	flags.StringP("logLevel", "l", "info", fmt.Sprintf("set log level (%s)", validLogLevelsStr))
	flags.String("log-format", "auto", "set log format (auto|json|text)")
	flags.String("username", "", "The REST API endpoint authentication username")
	flags.String("password", "", "The REST API endpoint authentication password")
	flags.IntP("port", "d", 8000, "The REST API endpoint port to use")
	flags.IntP("flask-port", "b", 5000, "The companion application port")
	flags.Float64P("sleep-time", "z", 60, "How much time to sleep between server-side steps (in seconds)")
	flags.Bool("insecure", true, "Skip TLS certificate verification of the REST API endpoint")
	flags.Duration("timeout", defaultTimeout, "Timeout of a single HTTP request")
	flags.Duration("probe-timeout", master.DefaultProbeTimeout, "Timeout of the TCP reachability probe of a master")
	flags.Int("retry-count", 0, "Number of retries on network errors")
	flags.String("eauth", "pam", "The salt-api external authentication backend")
	flags.String("minion-config", minion.DefaultPath, "The minion configuration to read the masters and the minion id from")
	flags.StringSlice("master", nil, "Master to use instead of the ones in the minion configuration (repeatable, comma or space separated)")
	flags.String("minion-id", "", "Minion id to use instead of the one in the minion configuration")
	flags.String("metadata-url", metadata.DefaultURL, "Metadata document holding fallback credentials")
	flags.String("metrics-file", "", "Write run metrics to this file in the Prometheus text format")

	for _, name := range []string{
		"logLevel", "log-format", "username", "password", "port", "flask-port", "sleep-time", "insecure",
		"timeout", "probe-timeout", "retry-count", "eauth", "minion-config", "master", "minion-id",
		"metadata-url", "metrics-file",
	} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			slog.Error(ErrorBindingFlag, "flag", name, "error", err)
		}
	}
}

func RootCmdPersistentPreRunE(cmd *cobra.Command, args []string) error {
	logLevelArg := viper.GetString("logLevel")
	logFormatArg := viper.GetString("log-format")
	if err := setLogLevel(logLevelArg, logFormatArg, os.Stdout); err != nil {
		return err
	}

	runID := uuid.New()
	slog.SetDefault(slog.Default().With("run", runID.String()))
	cmd.SetContext(context.WithValue(cmd.Context(), RunIDKey, runID))

	slog.Debug("Application initialized", "logLevel", logLevelArg, "logFormat", logFormatArg)

	return nil
}

// setLogLevel sets the log level and format
func setLogLevel(logLevel, logFormat string, out *os.File) error {
	level, exists := validLogLevels[logLevel]
	if !exists {
		return fmt.Errorf("invalid log level: %s. Valid log levels are: %s", logLevel, validLogLevelsStr)
	}

	if _, exists := validLogFormats[logFormat]; !exists {
		return fmt.Errorf("invalid log format: %s. Valid log formats are: auto|json|text", logFormat)
	}

	if logFormat == "auto" {
		logFormat = "json"
		if isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd()) {
			logFormat = "text"
		}
	}

	slog.SetDefault(slog.New(newHandler(logFormat, out, level)))

	return nil
}

func newHandler(format string, out io.Writer, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "text" {
		return slog.NewTextHandler(out, opts)
	}
	return slog.NewJSONHandler(out, opts)
}
