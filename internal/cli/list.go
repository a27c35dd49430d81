package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/axondata/go-iws"
)

// unavailable prints the friendly message for a failed read
func unavailable(cmd *cobra.Command, what string, err error) error {
	if errors.Is(err, iws.ErrUnavailable) {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s not available.\n", what)
		return fmt.Errorf("%s: %w", what, errReported)
	}
	return err
}

func newServersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "servers",
		Aliases: []string{"ls"},
		Short:   "List web services servers",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.clientFor(cmd.Context())
			if err != nil {
				return err
			}
			servers, err := client.ListServers(cmd.Context())
			if err != nil {
				return unavailable(cmd, "Servers", err)
			}
			return a.render(cmd, servers, func(w io.Writer) error {
				if len(servers) == 0 {
					_, err := fmt.Fprintln(w, "No servers found.")
					return err
				}
				return writeServers(w, servers)
			})
		},
	}
}

func newServicesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "services SERVER",
		Short: "List the services of a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			server := args[0]
			client, err := a.clientFor(cmd.Context())
			if err != nil {
				return err
			}
			services, err := client.ListServices(cmd.Context(), server)
			if err != nil {
				return unavailable(cmd, "Services for "+server, err)
			}
			return a.render(cmd, services, func(w io.Writer) error {
				if len(services) == 0 {
					_, err := fmt.Fprintf(w, "No services found for %s.\n", server)
					return err
				}
				return writeServices(w, services)
			})
		},
	}
}

func newPropsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "props SERVER [SERVICE]",
		Aliases: []string{"properties"},
		Short:   "Show the properties of a server or service",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			server, service := args[0], ""
			if len(args) == 2 {
				service = args[1]
			}
			client, err := a.clientFor(cmd.Context())
			if err != nil {
				return err
			}

			var props []iws.Property
			if service != "" {
				props, err = client.ServiceProperties(cmd.Context(), server, service)
			} else {
				props, err = client.ServerProperties(cmd.Context(), server)
			}
			if err != nil {
				return unavailable(cmd, "Properties for "+describe(server, service), err)
			}
			return a.render(cmd, props, func(w io.Writer) error {
				if len(props) == 0 {
					_, err := fmt.Fprintf(w, "No properties found for %s.\n", describe(server, service))
					return err
				}
				return writeProperties(w, props)
			})
		},
	}
}
