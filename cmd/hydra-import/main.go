// Command hydra-import imports simulation model networks into a Hydra style
// persistence service and runs models against imported networks.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hydraimport/internal/client"
	"hydraimport/internal/config"
	"hydraimport/internal/logging"
	"hydraimport/internal/observability"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

// errReported means the failure is already in the printed status report
var errReported = errors.New("run failed")

// exitError carries the process exit code of a failed command
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the CLI and returns the process exit code
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, a := newRootCmd(stdout)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	a.teardown()
	if err == nil {
		return 0
	}
	if errors.Is(err, errReported) {
		return exitFailure
	}
	fmt.Fprintln(stderr, "Error:", err)
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	return exitFailure
}

type rootOptions struct {
	configPath string
	serverURL  string
	sessionID  string
	logLevel   string
}

// app holds what every subcommand shares once flags and config are resolved
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	metrics *observability.Metrics
	stdout  io.Writer

	shutdownTracing func(context.Context) error
}

func newRootCmd(stdout io.Writer) (*cobra.Command, *app) {
	var opts rootOptions
	a := &app{stdout: stdout}

	cmd := &cobra.Command{
		Use:           "hydra-import",
		Short:         "Import simulation model networks into a Hydra persistence service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context(), opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file (default: search standard locations)")
	flags.StringVarP(&opts.serverURL, "server-url", "u", "", "URL of the persistence service")
	flags.StringVarP(&opts.sessionID, "session-id", "c", "", "Existing session ID; log in with configured credentials when empty")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	cmd.AddCommand(newImportCmd(a), newRunCmd(a))
	return cmd, a
}

func (a *app) setup(ctx context.Context, opts rootOptions) error {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if opts.configPath != "" {
		cfg, path, err = config.LoadFromPath(opts.configPath)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return withCode(exitUsage, err)
	}

	if opts.serverURL != "" {
		cfg.Server.URL = opts.serverURL
	}
	if opts.sessionID != "" {
		cfg.Server.SessionID = opts.sessionID
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return withCode(exitUsage, err)
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return withCode(exitUsage, err)
	}
	if path != "" {
		log.Debug("config loaded", zap.String("path", path))
	}
	log.Debug(cfg.Summary())

	metrics, err := observability.NewMetrics(prometheus.NewRegistry())
	if err != nil {
		return err
	}

	traceOut := io.Writer(os.Stderr)
	if cfg.Tracing.Exporter == "stdout" {
		traceOut = a.stdout
	}
	shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Exporter:    "stdout",
	}, traceOut, log.Named("tracing"))
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	a.metrics = metrics
	a.shutdownTracing = shutdown
	return nil
}

// teardown flushes traces, metrics and logs. It is a no-op when setup
// never ran.
func (a *app) teardown() {
	if a.log == nil {
		return
	}
	if a.shutdownTracing != nil {
		observability.ShutdownWithTimeout(context.Background(), a.shutdownTracing, a.log)
	}
	if path := a.cfg.Metrics.TextfilePath; path != "" {
		if err := a.metrics.WriteTextfile(path); err != nil {
			a.log.Warn("failed to write metrics textfile", zap.String("path", path), zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

// connect creates a client and makes sure it holds a session
func (a *app) connect(ctx context.Context) (*client.Client, error) {
	c, err := client.New(client.Config{
		URL:              a.cfg.Server.URL,
		SessionID:        a.cfg.Server.SessionID,
		Username:         a.cfg.Server.Username,
		Password:         a.cfg.Server.Password,
		Timeout:          a.cfg.Server.Timeout.Duration(),
		MaxRequests:      a.cfg.Breaker.MaxRequests,
		Interval:         a.cfg.Breaker.Interval.Duration(),
		OpenTimeout:      a.cfg.Breaker.OpenTimeout.Duration(),
		FailureThreshold: a.cfg.Breaker.FailureThreshold,
		MinRequests:      a.cfg.Breaker.MinRequests,
	}, a.log.Named("client"), client.WithMetrics(a.metrics))
	if err != nil {
		return nil, err
	}

	a.log.Info("connecting", zap.String("url", a.cfg.Server.URL))
	if a.cfg.Server.SessionID != "" {
		a.log.Info("using existing session")
	}
	if err := c.EnsureSession(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// elapsed logs how long a command took
func (a *app) elapsed(command string, start time.Time, err error) {
	a.metrics.RunFinished(command, err)
	a.log.Info("finished", zap.String("command", command), zap.Duration("elapsed", time.Since(start)), zap.Bool("ok", err == nil))
}
