package iws

import (
	"context"
)

// ListServers returns every server on the host in listing order.
// Any failure is reported as ErrUnavailable; an empty listing is an empty
// slice with a nil error.
func (c *Client) ListServers(ctx context.Context) ([]ServerEntry, error) {
	out, err := c.Execute(ctx, CmdListServers, "")
	if err != nil {
		return nil, c.unavailable(CmdListServers, "", err)
	}
	return ParseServers(out), nil
}

// ListServices returns the services deployed to server
func (c *Client) ListServices(ctx context.Context, server string) ([]ServiceEntry, error) {
	out, err := c.ExecuteWithParameters(ctx, CmdListServices, serverParams(server))
	if err != nil {
		return nil, c.unavailable(CmdListServices, server, err)
	}
	return ParseServices(server, out), nil
}

// ServerProperties returns the configuration properties of server
func (c *Client) ServerProperties(ctx context.Context, server string) ([]Property, error) {
	out, err := c.ExecuteWithParameters(ctx, CmdServerProperties, serverParams(server))
	if err != nil {
		return nil, c.unavailable(CmdServerProperties, server, err)
	}
	return ParseProperties(out), nil
}

// ServiceProperties returns the configuration properties of a service
func (c *Client) ServiceProperties(ctx context.Context, server, service string) ([]Property, error) {
	out, err := c.ExecuteWithParameters(ctx, CmdServiceProperties, serviceParams(server, service))
	if err != nil {
		return nil, c.unavailable(CmdServiceProperties, server+"/"+service, err)
	}
	return ParseProperties(out), nil
}

// unavailable logs the cause of a failed read and returns the sentinel
func (c *Client) unavailable(cmd Command, target string, err error) error {
	attrs := []any{"command", cmd.String(), "error", err}
	if target != "" {
		attrs = append(attrs, "target", target)
	}
	if code, ok := ExitCode(err); ok {
		attrs = append(attrs, "exit_code", code)
	}
	c.logger.Warn("unable to retrieve", attrs...)
	return ErrUnavailable
}

// CreateServer creates the server described by b
func (c *Client) CreateServer(ctx context.Context, b *ServerBuilder) error {
	if b == nil {
		return &OpError{Command: CmdCreateServer, Err: ErrMissingField}
	}
	params, err := b.Parameters()
	if err != nil {
		return &OpError{Command: CmdCreateServer, Target: b.Name, Err: err}
	}
	_, err = c.ExecuteWithParameters(ctx, CmdCreateServer, params)
	return err
}

// DeleteServer deletes server
func (c *Client) DeleteServer(ctx context.Context, server string) error {
	_, err := c.ExecuteWithParameters(ctx, CmdDeleteServer, serverParams(server))
	return err
}

// StartServer starts server
func (c *Client) StartServer(ctx context.Context, server string) error {
	_, err := c.ExecuteWithParameters(ctx, CmdStartServer, serverParams(server))
	return err
}

// StopServer stops server
func (c *Client) StopServer(ctx context.Context, server string) error {
	_, err := c.ExecuteWithParameters(ctx, CmdStopServer, serverParams(server))
	return err
}

// StartService starts service on server
func (c *Client) StartService(ctx context.Context, server, service string) error {
	_, err := c.ExecuteWithParameters(ctx, CmdStartService, serviceParams(server, service))
	return err
}

// StopService stops service on server
func (c *Client) StopService(ctx context.Context, server, service string) error {
	_, err := c.ExecuteWithParameters(ctx, CmdStopService, serviceParams(server, service))
	return err
}
