// Package cmd provides the command-line interface for akitaio.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/akitaio/config"
)

type rootOptions struct {
	envFile     string
	logLevel    string
	logJSON     bool
	logEvents   bool
	monitor     bool
	monitorPort int
	openBrowser bool
	traceDB     string
	trace       bool
	lang        string
}

var rootOpts rootOptions

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "akitaio",
	Short: "akitaio runs simulations bridged to real serial, CAN and UDP media.",
	Long: `akitaio runs a discrete event simulation whose port models ` +
		`exchange payloads with real media. Received payloads enter the ` +
		`simulation once per period and appear on the port output a delta ` +
		`later. Payloads sent to a port are written to the medium right away.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := setupLogging(cmd.ErrOrStderr(), rootOpts); err != nil {
			return err
		}

		return config.LoadEnv(rootOpts.envFile)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootOpts.envFile, "env-file", "",
		"Environment file loaded before reading the configuration (default .env if present)")
	flags.StringVar(&rootOpts.logLevel, "log-level", "info",
		"Log level: debug, info, warn or error")
	flags.BoolVar(&rootOpts.logJSON, "log-json", false,
		"Write logs as JSON")
	flags.BoolVar(&rootOpts.logEvents, "log-events", false,
		"Log every simulation event at debug level")
	flags.BoolVar(&rootOpts.monitor, "monitor", false,
		"Serve the monitoring API while the simulation runs")
	flags.IntVar(&rootOpts.monitorPort, "monitor-port", 0,
		"Port of the monitoring API, 0 picks a free one")
	flags.BoolVar(&rootOpts.openBrowser, "open-browser", false,
		"Open the monitoring API in a browser")
	flags.BoolVar(&rootOpts.trace, "trace", false,
		"Record every payload into a SQLite database")
	flags.StringVar(&rootOpts.traceDB, "trace-db", "",
		"Path of the trace database, without extension (implies --trace)")
	flags.StringVar(&rootOpts.lang, "lang", "en-US",
		"Language of the summary")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func setupLogging(w io.Writer, opts rootOptions) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(opts.logLevel))); err != nil {
		return fmt.Errorf("invalid log level %q", opts.logLevel)
	}

	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(w, handlerOpts)
	if opts.logJSON {
		handler = slog.NewJSONHandler(w, handlerOpts)
	}

	// Also routes the log package through the handler.
	slog.SetDefault(slog.New(handler))

	return nil
}
