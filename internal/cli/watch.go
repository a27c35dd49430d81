package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/axondata/go-iws"
)

func newWatchCmd(a *app) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the server listing and print state changes",
		Long:  "watch prints the server listing once and then one line per server that appears, disappears, starts or stops. Stop it with Ctrl-C.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.clientFor(cmd.Context())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("interval") {
				interval = a.cfg.IWS.PollInterval
			}

			events, cleanup, err := client.Watch(cmd.Context(), interval)
			if err != nil {
				return err
			}
			defer func() { _ = cleanup() }()

			out := cmd.OutOrStdout()
			first := true
			for event := range events {
				if event.Err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s servers not available\n", time.Now().Format(time.TimeOnly))
					continue
				}
				if err := a.printWatchEvent(out, event, first); err != nil {
					return err
				}
				first = false
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", iws.DefaultPollInterval, "poll interval")
	return cmd
}

func (a *app) printWatchEvent(w io.Writer, event iws.WatchEvent, first bool) error {
	if a.jsonOutput {
		return json.NewEncoder(w).Encode(event.Changes)
	}
	if first {
		if len(event.Servers) == 0 {
			_, err := fmt.Fprintln(w, "No servers found.")
			return err
		}
		return writeServers(w, event.Servers)
	}
	stamp := time.Now().Format(time.TimeOnly)
	for _, ch := range event.Changes {
		switch {
		case ch.Before == nil:
			fmt.Fprintf(w, "%s %s appeared (%s)\n", stamp, ch.Name, runningLabel(ch.After.Running))
		case ch.After == nil:
			fmt.Fprintf(w, "%s %s removed\n", stamp, ch.Name)
		default:
			fmt.Fprintf(w, "%s %s %s -> %s\n", stamp, ch.Name, runningLabel(ch.Before.Running), runningLabel(ch.After.Running))
		}
	}
	return nil
}
