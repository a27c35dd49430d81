package iws

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors returned by IWS operations
var (
	// ErrUnavailable is returned by the read operations when the listing or
	// properties could not be retrieved for any reason
	ErrUnavailable = errors.New("iws: unable to retrieve")

	// ErrUnknownCommand indicates a command that is not a registered script
	ErrUnknownCommand = errors.New("iws: unknown command")

	// ErrUnsafeValue indicates a parameter value that cannot be embedded in
	// single quotes without escaping
	ErrUnsafeValue = errors.New("iws: parameter value contains a single quote")

	// ErrMissingField indicates a required create field was not provided
	ErrMissingField = errors.New("iws: required field missing")

	// ErrInvalidPort indicates a starting port outside 1..65535
	ErrInvalidPort = errors.New("iws: invalid port")

	// ErrNoRunner indicates a Client constructed without a Runner
	ErrNoRunner = errors.New("iws: no runner configured")
)

// RemoteCommandError is returned when a script exits with a non-zero code.
// The scripts write their diagnostics to stdout, so Stdout is kept.
type RemoteCommandError struct {
	// Command is the script that failed
	Command Command
	// ExitCode is the exit status reported by the host
	ExitCode int
	// Stdout is everything the script printed
	Stdout string
}

// Error returns a formatted error message
func (e *RemoteCommandError) Error() string {
	msg := fmt.Sprintf("iws %s: exit code %d", e.Command, e.ExitCode)
	if out := strings.TrimSpace(e.Stdout); out != "" {
		msg += ": " + firstLine(out)
	}
	return msg
}

// OpError represents a failure that happened before or around a remote
// invocation: transport errors and parameter validation
type OpError struct {
	// Command is the script that was being invoked
	Command Command
	// Target names the server or service involved, when there is one
	Target string
	// Err is the underlying error
	Err error
}

// Error returns a formatted error message
func (e *OpError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("iws %s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("iws %s %q: %v", e.Command, e.Target, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *OpError) Unwrap() error {
	return e.Err
}

// ExitCode returns the remote exit code carried by err, if any
func ExitCode(err error) (int, bool) {
	var rce *RemoteCommandError
	if errors.As(err, &rce) {
		return rce.ExitCode, true
	}
	return 0, false
}

// MultiError aggregates multiple errors from bulk operations
type MultiError struct {
	// Errors contains all accumulated errors
	Errors []error
}

// Error returns a summary of the accumulated errors
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors occurred", len(m.Errors))
}

// Add appends an error to the collection if it's not nil
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// Err returns nil if no errors occurred, otherwise returns the MultiError itself
func (m *MultiError) Err() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

// Unwrap exposes the collected errors to errors.Is and errors.As
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
