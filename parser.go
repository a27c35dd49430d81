package iws

import (
	"strings"
)

// ServerEntry is one line of the server listing
type ServerEntry struct {
	// Name is the server name as reported by the host
	Name string `json:"name"`
	// Running is false when the line mentions the stopped marker
	Running bool `json:"running"`
	// Status is the trailing annotation without parentheses, e.g. "Started"
	Status string `json:"status,omitempty"`
}

// ServiceEntry is one line of a server's service listing
type ServiceEntry struct {
	Name    string `json:"name"`
	Running bool   `json:"running"`
	// Server is the owning server; lookup key only
	Server string `json:"server"`
	Status string `json:"status,omitempty"`
}

// Property is one name/value line of a properties listing
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// listingLine is the shape shared by the server and service listings:
//
//	NAME (Status annotation)
type listingLine struct {
	name    string
	status  string
	running bool
}

// splitLines splits raw output on newlines, dropping a trailing CR
func splitLines(raw string) []string {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// parseListingLine decodes one listing line. The name ends at the last
// "(" so names that contain parentheses survive; running is a plain
// substring test over the whole line.
func parseListingLine(line string) (listingLine, bool) {
	if strings.TrimSpace(line) == "" {
		return listingLine{}, false
	}

	entry := listingLine{running: !strings.Contains(line, StoppedMarker)}
	if idx := strings.LastIndexByte(line, '('); idx >= 0 {
		entry.name = strings.TrimSpace(line[:idx])
		entry.status = strings.TrimSpace(strings.Trim(strings.TrimSpace(line[idx:]), "()"))
	} else {
		entry.name = strings.TrimSpace(line)
	}

	if entry.name == "" {
		return listingLine{}, false
	}
	return entry, true
}

func parseListing(raw string) []listingLine {
	lines := splitLines(raw)
	entries := make([]listingLine, 0, len(lines))
	for _, line := range lines {
		if entry, ok := parseListingLine(line); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

// ParseServers decodes listWebServicesServers output. Blank lines are
// skipped and order is preserved; duplicates are passed through.
func ParseServers(raw string) []ServerEntry {
	lines := parseListing(raw)
	servers := make([]ServerEntry, 0, len(lines))
	for _, l := range lines {
		servers = append(servers, ServerEntry{Name: l.name, Running: l.running, Status: l.status})
	}
	return servers
}

// ParseServices decodes listWebServices output for server
func ParseServices(server, raw string) []ServiceEntry {
	lines := parseListing(raw)
	services := make([]ServiceEntry, 0, len(lines))
	for _, l := range lines {
		services = append(services, ServiceEntry{Name: l.name, Running: l.running, Server: server, Status: l.status})
	}
	return services
}

// ParseProperties decodes getWebServicesServerProperties and
// getWebServiceProperties output. Only lines containing ":" are kept and
// each is split on the first ":" so values such as URLs stay intact.
func ParseProperties(raw string) []Property {
	lines := splitLines(raw)
	props := make([]Property, 0, len(lines))
	for _, line := range lines {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		props = append(props, Property{
			Name:  strings.TrimSpace(name),
			Value: strings.TrimSpace(value),
		})
	}
	return props
}

// Lookup returns the value of the named property
func Lookup(props []Property, name string) (string, bool) {
	for _, p := range props {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}
