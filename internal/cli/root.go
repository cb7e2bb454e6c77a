package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/VictoriaMetrics/metrics"
	"github.com/spf13/cobra"

	"github.com/roach88/contactos/internal/config"
	"github.com/roach88/contactos/internal/logging"
	"github.com/roach88/contactos/internal/store"
)

// RootOptions holds global flags for all commands, plus the state resolved
// from them before a subcommand runs.
type RootOptions struct {
	Verbose   bool
	Format    string // "text" | "json" | "yaml"
	Database  string
	LogLevel  string
	LogFormat string
	Metrics   bool
	MaxBatch  int

	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Set
}

// NewRootCommand creates the root command for the contactos CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "contactos",
		Short: "Local contact register",
		Long: `A local, single-user contact register backed by an embedded SQLite file.

Contacts are identified by a store-assigned id and each email may belong
to at most one contact. Settings can also come from CONTACTOS_* environment
variables or a .env file (e.g. CONTACTOS_DB=./contacts.db).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.Database, config.KeyDatabase, config.DefaultDatabase, "path to SQLite database")
	cmd.PersistentFlags().StringVar(&opts.Format, config.KeyFormat, "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, config.KeyVerbose, "v", false, "verbose output (debug logging)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, config.KeyLogLevel, "warn", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, config.KeyLogFormat, "text", "log format (text|json)")
	cmd.PersistentFlags().BoolVar(&opts.Metrics, config.KeyMetrics, false, "write operation counters to stderr on exit")
	cmd.PersistentFlags().IntVar(&opts.MaxBatch, config.KeyMaxBatch, 0, "maximum records accepted by one import (0 = unbounded)")

	// Add subcommands
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))

	return cmd
}

// setup resolves configuration and builds the logger and metrics set.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	level := cfg.LogLevel
	if cfg.Verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Options{Level: level, Format: cfg.LogFormat}, cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid logging configuration", err)
	}
	slog.SetDefault(logger)

	o.cfg = cfg
	o.logger = logger
	o.metrics = metrics.NewSet()
	return nil
}

// openStore opens the configured database. The caller closes it.
func (o *RootOptions) openStore() (*store.Store, error) {
	o.logger.Debug("opening database", "path", o.cfg.Database)
	st, err := store.Open(o.cfg.Database, store.WithLogger(o.logger), store.WithMetrics(o.metrics))
	if err != nil {
		return nil, err
	}
	return st, nil
}

// formatter returns an OutputFormatter bound to cmd's writers.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.cfg.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.cfg.Verbose,
	}
}

// withStore opens the store, runs fn and closes the store. Failures are
// reported through the formatter and returned as *ExitError.
func (o *RootOptions) withStore(cmd *cobra.Command, action string, fn func(*store.Store, *OutputFormatter) error) error {
	f := o.formatter(cmd)
	defer o.writeMetrics(cmd) // Also on failure, after the store is closed

	st, err := o.openStore()
	if err != nil {
		return f.Fail("failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			o.logger.Error("error closing database", "error", closeErr)
		}
	}()

	if err := fn(st, f); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr
		}
		return f.Fail(fmt.Sprintf("failed to %s", action), err)
	}
	return nil
}

// writeMetrics dumps the operation counters to stderr when --metrics is set.
func (o *RootOptions) writeMetrics(cmd *cobra.Command) {
	if o.cfg == nil || !o.cfg.Metrics {
		return
	}
	o.metrics.WritePrometheus(cmd.ErrOrStderr())
}

// usage reports a bad invocation in the configured format and returns it
// with the command-error exit code.
func (o *RootOptions) usage(cmd *cobra.Command, err error) error {
	f := o.formatter(cmd)
	if f.Format != "text" {
		_ = f.Error(CodeUsage, err.Error(), nil)
	}
	return NewExitError(ExitCommandError, err.Error())
}
