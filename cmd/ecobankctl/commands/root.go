// Package commands implements the ecobankctl command tree.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"ecobank/cmd/ecobankctl/output"
	"ecobank/internal/backend"
	"ecobank/internal/config"
	applog "ecobank/internal/log"
)

type options struct {
	backend    string
	dataFile   string
	sqlitePath string
	jsonOut    bool
	verbose    bool
}

// app is the state shared by every subcommand of one invocation. The
// backend is opened lazily so --help never touches storage.
type app struct {
	opts    options
	logger  *applog.Logger
	be      *backend.Backend
	cleanup backend.CleanupFunc
}

// NewRootCmd builds a fresh command tree. Each call has its own state, so
// tests can execute several trees side by side.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "ecobankctl",
		Short: "ecobank administration CLI",
		Long: `Administer an ecobank ledger directly through its configured storage.

Storage settings come from the same environment variables the server reads
(DATA_BACKEND, DATA_FILE, SQLITE_DB_PATH) and can be overridden with flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.backend, "backend", "", "storage backend: "+strings.Join(backend.GetBackendTypeStrings(), ", ")+" (default $DATA_BACKEND)")
	flags.StringVar(&a.opts.dataFile, "data-file", "", "JSON document path (default $DATA_FILE)")
	flags.StringVar(&a.opts.sqlitePath, "sqlite-path", "", "SQLite database path (default $SQLITE_DB_PATH)")
	flags.BoolVar(&a.opts.jsonOut, "json", false, "print JSON instead of tables")
	flags.BoolVarP(&a.opts.verbose, "verbose", "v", false, "log at debug level to stderr")

	root.AddCommand(
		newVerifyCmd(a),
		newUsersCmd(a),
		newTxnCmd(a),
		newSummaryCmd(a),
		newTransactionsCmd(a),
		newRollupCmd(a),
	)
	return root
}

// config loads the environment configuration with flag overrides applied.
func (a *app) config() (*config.Config, error) {
	cfg := config.Load()
	if a.opts.backend != "" {
		cfg.DataBackend = strings.ToLower(a.opts.backend)
	}
	if a.opts.dataFile != "" {
		cfg.DataFile = a.opts.dataFile
	}
	if a.opts.sqlitePath != "" {
		cfg.SQLiteDBPath = a.opts.sqlitePath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *app) setupLogger(cmd *cobra.Command) {
	if a.logger != nil {
		return
	}
	level := slog.LevelWarn
	if a.opts.verbose {
		level = slog.LevelDebug
	}
	a.logger = applog.New(applog.Config{
		Level:     level,
		Component: applog.ComponentCLI,
		Output:    cmd.ErrOrStderr(),
	})
	applog.SetDefault(a.logger)
}

// withBackend opens the backend for the duration of run.
func (a *app) withBackend(run func(cmd *cobra.Command, args []string, be *backend.Backend) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		be, err := a.open(cmd)
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, a.close())
		}()
		return run(cmd, args, be)
	}
}

func (a *app) open(cmd *cobra.Command) (*backend.Backend, error) {
	if a.be != nil {
		return a.be, nil
	}
	a.setupLogger(cmd)

	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(a.logger.Logger).CreateBackend(ctxOf(cmd), bcfg)
	if err != nil {
		return nil, err
	}
	a.be, a.cleanup = res.Backend, res.Cleanup
	return a.be, nil
}

func (a *app) close() error {
	if a.cleanup == nil {
		return nil
	}
	err := a.cleanup()
	a.be, a.cleanup = nil, nil
	return err
}

// render prints v as JSON under --json, otherwise as a table.
func (a *app) render(w io.Writer, v any, headers []string, rows [][]any, alignRight ...int) error {
	if a.opts.jsonOut {
		return output.RenderJSON(w, v)
	}
	output.RenderTable(w, headers, rows, alignRight...)
	return nil
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// usageError marks argument problems so they read as such.
func usageError(format string, args ...any) error {
	return fmt.Errorf("usage: "+format, args...)
}
