package iws

import "context"

// Result is the raw outcome of one remote invocation
type Result struct {
	// ExitCode is nil when the host did not report a distinguishable code
	ExitCode *int
	// Stdout is the captured standard output
	Stdout string
}

// Succeeded reports whether the invocation counts as successful.
// A missing exit code is success: the scripts sometimes omit it.
func (r Result) Succeeded() bool {
	return r.ExitCode == nil || *r.ExitCode == 0
}

// Code returns a pointer to code, for building Results
func Code(code int) *int {
	return &code
}

// Runner executes a command line on the host that owns the IWS scripts.
// An error means the command could not be run at all; a script that ran
// and failed is reported through Result.ExitCode.
type Runner interface {
	Run(ctx context.Context, command string, mode int) (Result, error)
}

// RunnerFunc adapts a function to the Runner interface
type RunnerFunc func(ctx context.Context, command string, mode int) (Result, error)

// Run calls f
func (f RunnerFunc) Run(ctx context.Context, command string, mode int) (Result, error) {
	return f(ctx, command, mode)
}
