package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/toyz/serupd/internal/cli"
	"github.com/toyz/serupd/internal/config"
	"github.com/toyz/serupd/internal/engine"
	"github.com/toyz/serupd/internal/errors"
	"github.com/toyz/serupd/internal/metadata"
	"github.com/toyz/serupd/internal/parser"
	"github.com/toyz/serupd/internal/utils"
)

// Exit codes
const (
	exitOK          = 0
	exitRunFailed   = 1 // every file failed, or the report could not be written
	exitConfigError = 2 // bad flags, settings, appsettings.json or directory
)

const defaultAppSettings = "appsettings.json"

// flagKeys maps command line flags to their settings keys
var flagKeys = map[string]string{
	"backend":          "backend",
	"placement":        "placement",
	"order":            "order",
	"class-attributes": "class_attributes",
	"dry-run":          "dry_run",
	"jobs":             "jobs",
	"pattern":          "pattern",
	"exclude":          "exclude",
	"query-timeout":    "query_timeout",
	"report":           "report",
}

// app carries the state of one invocation
type app struct {
	out    io.Writer
	errOut io.Writer

	configFile            string
	quiet, verbose, debug bool

	v           *viper.Viper
	settings    *config.Settings
	logger      *zap.Logger
	diagnostics *utils.DiagnosticSystem
	reporter    *cli.DiagnosticReporter
	runID       string

	// open replaces sql.Open when set
	open     metadata.OpenFunc
	exitCode int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], &app{out: os.Stdout, errOut: os.Stderr})
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, a *app) int {
	a.reporter = cli.NewDiagnosticReporter(false)
	a.reporter.SetOutput(a.errOut)

	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)

	if err := cmd.ExecuteContext(ctx); err != nil {
		a.reporter.ReportError(err)
		if a.logger != nil {
			_ = a.logger.Sync()
		}
		return exitCodeFor(err)
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return a.exitCode
}

func exitCodeFor(err error) int {
	switch errors.CodeOf(err) {
	case errors.ConfigurationErrorCode, errors.FileSystemErrorCode:
		return exitConfigError
	}
	return exitRunFailed
}

func newRootCmd(a *app) *cobra.Command {
	d := engine.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "serupd <directory> [appsettings.json]",
		Short: "Synchronize DisplayName attributes of Serenity row classes with database comments",
		Long: `serupd scans a directory for *Row.cs files, reads the column comments of the
table each row class is mapped to and writes them into [DisplayName] attributes.

Connections are read from the Data section of appsettings.json
(Data.<name>.ConnectionString and Data.<name>.ProviderName). With
--class-attributes the table comment also drives the class level attributes.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 || len(args) > 2 {
				return errors.ConfigurationError("arguments", fmt.Sprintf("expected <directory> [appsettings.json], got %d arguments", len(args))).
					WithSuggestion("Run serupd --help for usage")
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			appSettings := defaultAppSettings
			if len(args) == 2 {
				appSettings = args[1]
			}
			return a.sync(cmd.Context(), args[0], appSettings)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.WrapConfigurationError("flags", "parse", err).
			WithSuggestion("Run serupd --help for usage")
	})

	flags := cmd.Flags()
	flags.StringVar(&a.configFile, "config", "", "settings file (default: ./serupd.yaml when present)")
	flags.String("backend", parser.BackendTree, "parser backend ("+strings.Join(parser.Names(), "|")+")")
	flags.String("placement", d.Placement.String(), "where a new DisplayName goes (new-group|first-group)")
	flags.String("order", d.Order.String(), "class attribute order (known-first|unknown-first)")
	flags.Bool("class-attributes", false, "also write the class attribute template from the table comment")
	flags.Bool("dry-run", false, "report changes without writing files")
	flags.Int("jobs", 4, "files processed concurrently")
	flags.String("pattern", "*Row.cs", "file name pattern")
	flags.StringSlice("exclude", []string{"LoggingRow"}, "file name prefixes to skip")
	flags.Duration("query-timeout", 30*time.Second, "timeout of each metadata query")
	flags.String("report", "", "write a YAML run report to this path")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "only show errors")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "show every file")
	flags.BoolVar(&a.debug, "debug", false, "debug output and logs")

	_ = cmd.RegisterFlagCompletionFunc("backend", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return parser.Names(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("placement", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"new-group", "first-group"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("order", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"known-first", "unknown-first"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// setup loads the settings and builds the output and logging
func (a *app) setup(cmd *cobra.Command) error {
	a.v = config.NewViper()
	for flag, key := range flagKeys {
		if err := a.v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return errors.WrapConfigurationError("flags", "bind "+flag, err)
		}
	}

	settings, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.settings = settings

	level := utils.LevelFromFlags(a.quiet, a.verbose, a.debug)
	a.diagnostics = utils.NewDiagnosticSystem(level)
	if a.out != os.Stdout || a.errOut != os.Stderr {
		a.diagnostics.SetOutput(a.out, a.errOut)
	}
	a.reporter = cli.NewDiagnosticReporter(a.verbose || a.debug)
	a.reporter.SetOutput(a.errOut)

	a.runID = uuid.NewString()
	if a.logger == nil {
		logger, err := newLogger(a.verbose, a.debug)
		if err != nil {
			return errors.WrapConfigurationError("logging", "build", err)
		}
		a.logger = logger
	}
	a.logger = a.logger.With(zap.String("run_id", a.runID))

	if used := a.v.ConfigFileUsed(); used != "" {
		a.diagnostics.Verbose("Using settings file %s", used)
	}
	return nil
}

// newLogger builds the structured logger. Logs go to stderr as JSON; only
// warnings are emitted unless --verbose or --debug is set.
func newLogger(verbose, debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	switch {
	case debug:
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case verbose:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return cfg.Build()
}

// sync runs one synchronization over root
func (a *app) sync(ctx context.Context, root, appSettings string) error {
	s := a.settings
	a.diagnostics.Section("serupd")

	connections, err := config.LoadConnections(appSettings)
	if err != nil {
		return err
	}
	if connections.Len() == 0 {
		a.reporter.ReportWarning(fmt.Sprintf("%s defines no connections; every row class will be skipped", appSettings))
	}
	a.diagnostics.Verbose("Connections: %s", strings.Join(connections.Names(), ", "))

	backend, err := parser.NewBackend(s.Backend)
	if err != nil {
		return errors.WrapConfigurationError("settings", "backend", err)
	}
	opts, err := s.EngineOptions()
	if err != nil {
		return err
	}
	eng := engine.New(backend, opts)

	var poolOpts []metadata.PoolOption
	if a.open != nil {
		poolOpts = append(poolOpts, metadata.WithOpener(a.open))
	}
	pool := metadata.NewPool(s.QueryTimeout, a.logger, poolOpts...)
	defer func() {
		if err := pool.Close(); err != nil {
			a.logger.Warn("closing connections", zap.Error(err))
		}
	}()

	a.logger.Info("run started",
		zap.String("root", root),
		zap.String("backend", eng.BackendName()),
		zap.Bool("dry_run", s.DryRun),
		zap.Int("jobs", s.Jobs),
	)

	runner := cli.NewRunner(eng, pool, connections, cli.ConfigFromSettings(s),
		cli.WithDiagnostics(a.diagnostics),
		cli.WithLogger(a.logger),
		cli.WithRunID(a.runID),
	)
	summary, err := runner.Run(ctx, root)
	if err != nil {
		return err
	}

	a.reporter.ReportFailures(summary)
	title := "Synchronization complete"
	if s.DryRun {
		title = "Dry run complete"
	}
	a.diagnostics.Summary(title, summary.Stats())

	if s.Report != "" {
		if err := cli.WriteReport(s.Report, summary); err != nil {
			a.reporter.ReportError(err)
			a.exitCode = exitRunFailed
			return nil
		}
		a.diagnostics.Verbose("Report written to %s", s.Report)
	}

	if summary.AllFailed() {
		a.exitCode = exitRunFailed
	}
	return nil
}
