package iws

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name used for spans
const TracerName = "github.com/axondata/go-iws"

// Client invokes the IWS administration scripts through a Runner and
// decodes their output. A Client holds no mutable state and is safe for
// concurrent use; it does not serialize calls.
type Client struct {
	// InstallDir is the directory holding the scripts on the host
	InstallDir string

	runner Runner
	logger *slog.Logger
	tracer trace.Tracer
}

// Option configures a Client
type Option func(*Client)

// WithInstallDir overrides the script directory
func WithInstallDir(dir string) Option {
	return func(c *Client) {
		c.InstallDir = dir
	}
}

// WithLogger sets the logger used for invocation and retrieval diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTracer sets the tracer used for per-invocation spans
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

// New creates a Client that runs commands through runner.
// The runner is the connection to the host; the Client never creates one.
func New(runner Runner, opts ...Option) *Client {
	c := &Client{
		InstallDir: InstallDir,
		runner:     runner,
		logger:     slog.New(slog.DiscardHandler),
		tracer:     otel.Tracer(TracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute runs the script for cmd with rawArgs appended verbatim.
// It makes exactly one attempt. Exit code 0 and a missing exit code are
// success; any other code yields a *RemoteCommandError carrying stdout.
func (c *Client) Execute(ctx context.Context, cmd Command, rawArgs string) (string, error) {
	if !cmd.Known() {
		return "", &OpError{Command: cmd, Err: ErrUnknownCommand}
	}
	if c.runner == nil {
		return "", &OpError{Command: cmd, Err: ErrNoRunner}
	}

	line := cmd.Path(c.InstallDir)
	if rawArgs != "" {
		line += " " + rawArgs
	}

	id := uuid.NewString()
	ctx, span := c.tracer.Start(ctx, "iws."+cmd.String(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("iws.command", cmd.String()),
			attribute.String("iws.invocation", id),
		),
	)
	defer span.End()

	log := c.logger.With("command", cmd.String(), "invocation", id)
	log.Debug("invoking remote command", "args", rawArgs)

	started := time.Now()
	res, err := c.runner.Run(ctx, line, ModeImmediate)
	elapsed := time.Since(started)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Debug("remote command not run", "elapsed", elapsed, "error", err)
		return "", &OpError{Command: cmd, Err: err}
	}

	if res.ExitCode != nil {
		span.SetAttributes(attribute.Int("iws.exit_code", *res.ExitCode))
	}
	if !res.Succeeded() {
		rerr := &RemoteCommandError{Command: cmd, ExitCode: *res.ExitCode, Stdout: res.Stdout}
		span.SetStatus(codes.Error, rerr.Error())
		log.Debug("remote command failed", "elapsed", elapsed, "exit_code", rerr.ExitCode)
		return "", rerr
	}

	span.SetStatus(codes.Ok, "")
	log.Debug("remote command completed", "elapsed", elapsed, "bytes", len(res.Stdout))
	return res.Stdout, nil
}

// ExecuteWithParameters encodes params in order and runs cmd with them.
// A value containing a single quote fails with ErrUnsafeValue before
// anything is sent to the host.
func (c *Client) ExecuteWithParameters(ctx context.Context, cmd Command, params Parameters) (string, error) {
	args, err := params.Encode()
	if err != nil {
		return "", &OpError{Command: cmd, Err: err}
	}
	return c.Execute(ctx, cmd, args)
}
