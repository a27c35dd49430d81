package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/axondata/go-iws"
	"github.com/axondata/go-iws/internal/config"
	"github.com/axondata/go-iws/internal/logger"
	"github.com/axondata/go-iws/internal/tracing"
	"github.com/axondata/go-iws/remote"
)

// errReported marks a failure whose message was already printed
var errReported = errors.New("reported")

// IsReported reports whether err was already shown to the user
func IsReported(err error) bool {
	return errors.Is(err, errReported)
}

// connectFunc opens the runner for cfg and returns a close function
type connectFunc func(ctx context.Context, cfg config.Config, log *slog.Logger) (iws.Runner, func() error, error)

// app carries the state shared by the commands of one invocation
type app struct {
	version string
	connect connectFunc
	in      io.Reader

	// flags
	configPath string
	envFile    string
	url        string
	user       string
	keyFile    string
	knownHosts string
	noQsh      bool
	jsonOutput bool
	output     string
	logLevel   string
	logFormat  string
	trace      bool

	cfg      config.Config
	logger   *slog.Logger
	client   *iws.Client
	closers  []func() error
	shutdown tracing.ShutdownFunc
}

// Execute runs the command line in args and releases the connection
// afterwards, whether or not the command succeeded.
func Execute(ctx context.Context, version string, args []string) error {
	a := &app{version: version, connect: dialRemote, in: os.Stdin}
	return a.run(ctx, args, os.Stdout, os.Stderr)
}

func (a *app) run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRoot(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetIn(a.in)
	err := root.ExecuteContext(ctx)
	if terr := a.teardown(ctx); terr != nil && err == nil {
		err = terr
	}
	return err
}

func newRoot(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "iws",
		Short:         "Manage IBM i Integrated Web Services servers",
		Long:          "iws runs the IWS administration scripts on an IBM i host over SSH and shows their results.",
		Version:       a.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	flags.StringVar(&a.envFile, "env-file", "", "env file to load (default .env when present)")
	flags.StringVar(&a.url, "url", "", "host URL, e.g. ssh://myibmi:22")
	flags.StringVarP(&a.user, "user", "u", "", "SSH user profile")
	flags.StringVar(&a.keyFile, "key-file", "", "SSH private key file")
	flags.StringVar(&a.knownHosts, "known-hosts", "", "known_hosts file for host key checks")
	flags.BoolVar(&a.noQsh, "no-qsh", false, "run scripts in the login shell instead of QShell")
	flags.BoolVar(&a.jsonOutput, "json", false, "output in JSON format")
	flags.StringVarP(&a.output, "output", "o", "", "write output to file instead of stdout")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: text or json")
	flags.BoolVar(&a.trace, "trace", false, "write OpenTelemetry spans to stderr")

	root.AddCommand(
		newServersCmd(a),
		newServicesCmd(a),
		newPropsCmd(a),
		newCreateCmd(a),
		newDeleteCmd(a),
		newStartCmd(a),
		newStopCmd(a),
		newWatchCmd(a),
		newVersionCmd(a),
	)
	return root
}

// setup loads configuration and builds the logger. The connection is
// opened lazily by clientFor so offline commands never dial.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, a.envFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.Host.URL = a.url
	}
	if flags.Changed("user") {
		cfg.Host.User = a.user
	}
	if flags.Changed("key-file") {
		cfg.Host.KeyFile = a.keyFile
	}
	if flags.Changed("known-hosts") {
		cfg.Host.KnownHosts = a.knownHosts
	}
	if a.noQsh {
		cfg.Host.Qsh = false
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	if a.trace {
		cfg.Trace.Enabled = true
	}
	a.cfg = cfg
	a.logger = logger.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)

	if cfg.Trace.Enabled {
		var w io.Writer = cmd.ErrOrStderr()
		if cfg.Trace.Output != "" {
			f, err := os.Create(cfg.Trace.Output)
			if err != nil {
				return fmt.Errorf("trace output: %w", err)
			}
			a.closers = append(a.closers, f.Close)
			w = f
		}
		shutdown, err := tracing.Init("iws", a.version, w)
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		a.shutdown = shutdown
	}
	return nil
}

// clientFor opens the connection on first use
func (a *app) clientFor(ctx context.Context) (*iws.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	runner, closeFn, err := a.connect(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeFn)
	a.client = iws.New(runner,
		iws.WithInstallDir(a.cfg.IWS.InstallDir),
		iws.WithLogger(a.logger),
	)
	return a.client, nil
}

func (a *app) teardown(ctx context.Context) error {
	var errs []error
	if a.shutdown != nil {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		errs = append(errs, a.shutdown(sctx))
		a.shutdown = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func dialRemote(ctx context.Context, cfg config.Config, log *slog.Logger) (iws.Runner, func() error, error) {
	runner, err := remote.New(ctx, cfg.Remote(), remote.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}
	return runner, runner.Close, nil
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			info := iws.GetVersion()
			fmt.Fprintf(cmd.OutOrStdout(), "iws %s (library %s, %d scripts in %s)\n",
				a.version, info.Version, info.Commands, info.InstallDir)
		},
	}
}
