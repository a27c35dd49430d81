package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/axondata/go-iws"
)

// DefaultWaitTimeout bounds --wait
const DefaultWaitTimeout = 5 * time.Minute

type actionFlags struct {
	servers     []string
	wait        bool
	waitTimeout time.Duration
}

func (f *actionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.servers, "servers", nil, "act on several servers concurrently")
	cmd.Flags().BoolVar(&f.wait, "wait", false, "wait until the new state is listed")
	cmd.Flags().DurationVar(&f.waitTimeout, "wait-timeout", DefaultWaitTimeout, "maximum time to wait")
}

// lifecycle describes start or stop
type lifecycle struct {
	verb    string
	doing   string
	past    string
	running bool
	server  func(*iws.Client) func(context.Context, string) error
	service func(*iws.Client) func(context.Context, string, string) error
	bulk    func(*iws.Manager) func(context.Context, ...string) error
}

var (
	startAction = lifecycle{
		verb:    "start",
		doing:   "Starting",
		past:    "Started",
		running: true,
		server:  func(c *iws.Client) func(context.Context, string) error { return c.StartServer },
		service: func(c *iws.Client) func(context.Context, string, string) error { return c.StartService },
		bulk:    func(m *iws.Manager) func(context.Context, ...string) error { return m.Start },
	}
	stopAction = lifecycle{
		verb:    "stop",
		doing:   "Stopping",
		past:    "Stopped",
		running: false,
		server:  func(c *iws.Client) func(context.Context, string) error { return c.StopServer },
		service: func(c *iws.Client) func(context.Context, string, string) error { return c.StopService },
		bulk:    func(m *iws.Manager) func(context.Context, ...string) error { return m.Stop },
	}
)

func newStartCmd(a *app) *cobra.Command {
	return newLifecycleCmd(a, startAction, "Start a server or one of its services")
}

func newStopCmd(a *app) *cobra.Command {
	return newLifecycleCmd(a, stopAction, "Stop a server or one of its services")
}

func newLifecycleCmd(a *app, action lifecycle, short string) *cobra.Command {
	var flags actionFlags
	cmd := &cobra.Command{
		Use:   action.verb + " [SERVER [SERVICE]]",
		Short: short,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(flags.servers) > 0 {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.RangeArgs(1, 2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.clientFor(cmd.Context())
			if err != nil {
				return err
			}
			if len(flags.servers) > 0 {
				return a.runBulk(cmd, client, action, flags)
			}

			server, service := args[0], ""
			if len(args) == 2 {
				service = args[1]
			}
			target := describe(server, service)
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s...\n", action.doing, target)

			if service != "" {
				err = action.service(client)(cmd.Context(), server, service)
			} else {
				err = action.server(client)(cmd.Context(), server)
			}
			if err != nil {
				return a.actionFailed(cmd, action.verb, target, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", action.past, target)

			if flags.wait {
				return a.waitFor(cmd, client, server, service, action.running, flags.waitTimeout)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) runBulk(cmd *cobra.Command, client *iws.Client, action lifecycle, flags actionFlags) error {
	mgr := iws.NewManager(client, iws.WithConcurrency(a.cfg.IWS.Concurrency))
	err := action.bulk(mgr)(cmd.Context(), flags.servers...)
	if err != nil {
		return a.actionFailed(cmd, action.verb, strings.Join(flags.servers, ", "), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", action.past, strings.Join(flags.servers, ", "))
	if flags.wait {
		for _, server := range flags.servers {
			if err := a.waitFor(cmd, client, server, "", action.running, flags.waitTimeout); err != nil {
				return err
			}
		}
	}
	return nil
}

// actionFailed prints the failure message and logs the script output
func (a *app) actionFailed(cmd *cobra.Command, verb, target string, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "Failed to %s %s: %v\n", verb, target, err)
	var rce *iws.RemoteCommandError
	if errors.As(err, &rce) {
		a.logger.Debug("script output", "command", rce.Command.String(), "stdout", rce.Stdout)
	}
	return fmt.Errorf("%s %s: %w", verb, target, errors.Join(errReported, err))
}

func (a *app) waitFor(cmd *cobra.Command, client *iws.Client, server, service string, running bool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	var err error
	if service != "" {
		_, err = client.WaitService(ctx, server, service, running, a.cfg.IWS.PollInterval)
	} else {
		_, err = client.Wait(ctx, server, running, a.cfg.IWS.PollInterval)
	}
	if err != nil {
		return fmt.Errorf("waiting for %s to be %s: %w", describe(server, service), runningLabel(running), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is %s\n", describe(server, service), runningLabel(running))
	return nil
}

func newCreateCmd(a *app) *cobra.Command {
	var (
		port    int
		userID  string
		details bool
		values  []string
		flags   []string
	)
	cmd := &cobra.Command{
		Use:   "create SERVER",
		Short: "Create a web services server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := iws.NewServerBuilder(args[0]).
				WithStartingPort(port).
				WithUserID(userID).
				WithErrorDetails(details)
			for _, kv := range values {
				name, value, ok := strings.Cut(kv, "=")
				if !ok || name == "" {
					return fmt.Errorf("--param %q: expected NAME=VALUE", kv)
				}
				b.WithValue(name, value)
			}
			for _, name := range flags {
				b.WithFlag(name, true)
			}
			if err := b.Validate(); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Server name and starting port required.")
				return errors.Join(errReported, err)
			}

			client, err := a.clientFor(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Creating server %s...\n", b.Name)
			if err := client.CreateServer(cmd.Context(), b); err != nil {
				return a.actionFailed(cmd, "create", b.Name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s.\n", b.Name)
			return nil
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "starting port (required)")
	cmd.Flags().StringVar(&userID, "user-id", "", "runtime user profile")
	cmd.Flags().BoolVar(&details, "details", false, "ask the script for detailed error output")
	cmd.Flags().StringArrayVar(&values, "param", nil, "extra script parameter NAME=VALUE (repeatable)")
	cmd.Flags().StringArrayVar(&flags, "flag", nil, "extra script presence flag NAME (repeatable)")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete SERVER",
		Short: "Delete a web services server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			server := args[0]
			if !yes {
				ok, err := a.confirm(cmd, fmt.Sprintf("Are you sure you want to delete %s?", server))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled.")
					return nil
				}
			}

			client, err := a.clientFor(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Deleting server %s...\n", server)
			if err := client.DeleteServer(cmd.Context(), server); err != nil {
				return a.actionFailed(cmd, "delete", server, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", server)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// confirm asks a yes/no question on the command's input. Input that is a
// file but not a terminal cannot answer, so it is refused.
func (a *app) confirm(cmd *cobra.Command, question string) (bool, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		return false, errors.New("confirmation required: input is not a terminal, use --yes")
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false, nil
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
