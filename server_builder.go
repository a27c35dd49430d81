package iws

import (
	"fmt"
	"strconv"
	"strings"
)

// ServerBuilder provides a fluent interface for describing a new web
// services server before handing it to CreateServer.
type ServerBuilder struct {
	// Name is the server name (-server)
	Name string
	// StartingPort is the first port of the server's port range (-startingPort)
	StartingPort int
	// UserID is the runtime user profile the server runs under (-userID)
	UserID string
	// PrintErrorDetails asks the script for verbose diagnostics (-printErrorDetails)
	PrintErrorDetails bool
	// Extra holds additional script flags, appended in insertion order
	Extra Parameters
}

// NewServerBuilder creates a ServerBuilder for the named server
func NewServerBuilder(name string) *ServerBuilder {
	return &ServerBuilder{Name: name}
}

// WithStartingPort sets the starting port
func (b *ServerBuilder) WithStartingPort(port int) *ServerBuilder {
	b.StartingPort = port
	return b
}

// WithUserID sets the runtime user profile
func (b *ServerBuilder) WithUserID(user string) *ServerBuilder {
	b.UserID = user
	return b
}

// WithErrorDetails toggles -printErrorDetails
func (b *ServerBuilder) WithErrorDetails(on bool) *ServerBuilder {
	b.PrintErrorDetails = on
	return b
}

// WithValue appends an extra value flag
func (b *ServerBuilder) WithValue(name, value string) *ServerBuilder {
	b.Extra = b.Extra.Value(name, value)
	return b
}

// WithFlag appends an extra presence flag
func (b *ServerBuilder) WithFlag(name string, on bool) *ServerBuilder {
	b.Extra = b.Extra.Flag(name, on)
	return b
}

// Validate checks the required fields. A server cannot be created without
// a name and a starting port.
func (b *ServerBuilder) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("server name: %w", ErrMissingField)
	}
	if b.StartingPort == 0 {
		return fmt.Errorf("starting port: %w", ErrMissingField)
	}
	if b.StartingPort < 1 || b.StartingPort > 65535 {
		return fmt.Errorf("%d: %w", b.StartingPort, ErrInvalidPort)
	}
	return nil
}

// Parameters validates the builder and returns the ordered script flags
func (b *ServerBuilder) Parameters() (Parameters, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	params := Parameters{}.
		Value("server", b.Name).
		Value("startingPort", strconv.Itoa(b.StartingPort)).
		Value("userID", b.UserID).
		Flag("printErrorDetails", b.PrintErrorDetails)

	return append(params, b.Extra...), nil
}
