package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/axondata/go-iws"
	"github.com/axondata/go-iws/internal/export"
)

// render writes the value produced by a command to stdout or --output,
// as JSON when --json is set and through text otherwise
func (a *app) render(cmd *cobra.Command, v any, text func(w io.Writer) error) error {
	w, commit := export.Target(cmd.OutOrStdout(), a.output)
	if a.jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return err
		}
	} else if err := text(w); err != nil {
		return err
	}
	return commit()
}

func runningLabel(running bool) string {
	if running {
		return "running"
	}
	return "stopped"
}

func writeServers(w io.Writer, servers []iws.ServerEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVER\tSTATE\tSTATUS")
	for _, s := range servers {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, runningLabel(s.Running), s.Status)
	}
	return tw.Flush()
}

func writeServices(w io.Writer, services []iws.ServiceEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVICE\tSTATE\tSTATUS")
	for _, s := range services {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, runningLabel(s.Running), s.Status)
	}
	return tw.Flush()
}

func writeProperties(w io.Writer, props []iws.Property) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROPERTY\tVALUE")
	for _, p := range props {
		fmt.Fprintf(tw, "%s\t%s\n", p.Name, p.Value)
	}
	return tw.Flush()
}

// describe names a server or a server's service the way messages show it:
// "SERVER" or "SERVER (SERVICE)"
func describe(server, service string) string {
	if service == "" {
		return server
	}
	return fmt.Sprintf("%s (%s)", server, service)
}
