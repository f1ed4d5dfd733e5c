package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/specialistvlad/chainrunner/internal/app"
)

// EnvPrefix prefixes the environment variables that supply flag defaults.
const EnvPrefix = "CHAINRUNNER_"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func envString(name, def string) string {
	if v, ok := os.LookupEnv(EnvPrefix + name); ok {
		return v
	}
	return def
}

func envInt(name string, def int) (int, error) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s%s: %q is not a whole number", EnvPrefix, name, v)
	}
	return n, nil
}

func envBool(name string, def bool) (bool, error) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s%s: %q is not a boolean", EnvPrefix, name, v)
	}
	return b, nil
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
// Flags take precedence over CHAINRUNNER_* environment variables.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("chainrunner", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
chainrunner - Runs agents made of retried module chains.

Usage:
  chainrunner [options] [CONFIG_PATH]

Arguments:
  CONFIG_PATH
    Path to a single .hcl, .yaml or .yml file, or a directory containing them.

Every option can also be set through an environment variable named
CHAINRUNNER_<OPTION>, e.g. CHAINRUNNER_LOG_LEVEL=debug.

Options:
`)
		flagSet.PrintDefaults()
	}

	healthPort, err := envInt("HEALTHCHECK_PORT", 0)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	workers, err := envInt("WORKERS", 0)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	otelInsecure, err := envBool("OTEL_INSECURE", false)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	configFlag := flagSet.String("config", envString("CONFIG", ""), "Path to the agent configuration file or directory.")
	cFlag := flagSet.String("c", "", "Path to the agent configuration file or directory (shorthand).")
	healthPortFlag := flagSet.Int("healthcheck-port", healthPort, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", envString("LOG_FORMAT", "text"), "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", envString("LOG_LEVEL", "info"), "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", workers, "Maximum number of agents running at once. 0 is unbounded.")
	redisURLFlag := flagSet.String("redis-url", envString("REDIS_URL", ""), "Redis URL outcomes are also published to. Empty is disabled.")
	redisKeyFlag := flagSet.String("redis-key", envString("REDIS_KEY", ""), "Redis list key for outcomes.")
	otelEndpointFlag := flagSet.String("otel-endpoint", envString("OTEL_ENDPOINT", ""), "OTLP/HTTP collector endpoint (host:port). Empty is disabled.")
	otelInsecureFlag := flagSet.Bool("otel-insecure", otelInsecure, "Use plain HTTP for the OTLP collector.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *cFlag != "" {
		path = *cFlag
	} else if *configFlag != "" {
		path = *configFlag
	}
	if flagSet.NArg() > 0 {
		if path != "" && flagSet.Arg(0) != path {
			return nil, false, &ExitError{Code: 2, Message: "configuration path given both as flag and argument"}
		}
		path = flagSet.Arg(0)
	}
	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unexpected arguments: %s", strings.Join(flagSet.Args()[1:], " "))}
	}
	slog.Debug("Configuration path determined.", "path", path)

	if path == "" {
		slog.Debug("No configuration path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ConfigPath:      path,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		HealthcheckPort: *healthPortFlag,
		WorkerCount:     *workersFlag,
		RedisURL:        *redisURLFlag,
		RedisKey:        *redisKeyFlag,
		OTelEndpoint:    *otelEndpointFlag,
		OTelInsecure:    *otelInsecureFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
