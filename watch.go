package iws

import (
	"context"
	"time"

	"vawter.tech/stopper"
)

// WatchEvent represents one observation of the server listing
type WatchEvent struct {
	// Servers is the full listing at the time of the poll
	Servers []ServerEntry
	// Changes lists what differs from the previous poll. The first event
	// reports every server as appeared.
	Changes []ServerChange
	// Err is set when the listing could not be retrieved
	Err error
}

// ServerChange describes a server that appeared, disappeared or changed
// running state between two polls
type ServerChange struct {
	Name string
	// Before is nil when the server appeared
	Before *ServerEntry
	// After is nil when the server disappeared
	After *ServerEntry
}

// WatchCleanupFunc stops a watch and waits for its goroutine to exit
type WatchCleanupFunc func() error

// Watch polls the server listing every interval and emits an event for
// the first poll and for every poll that differs from the previous one.
// The IWS scripts offer no notification mechanism, so polling is the only
// way to observe state changes. The channel is closed after cleanup or
// once ctx is done.
func (c *Client) Watch(ctx context.Context, interval time.Duration) (<-chan WatchEvent, WatchCleanupFunc, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ch := make(chan WatchEvent, 10)

	sctx := stopper.WithContext(ctx)
	sctx.Defer(func() {
		close(ch)
	})

	cleanup := func() error {
		sctx.Stop(100 * time.Millisecond)
		return sctx.Wait()
	}

	sctx.Go(func(sctx *stopper.Context) error {
		send := func(ev WatchEvent) bool {
			select {
			case ch <- ev:
				return true
			case <-sctx.Stopping():
				return false
			case <-sctx.Done():
				return false
			}
		}

		var last []ServerEntry
		first := true
		poll := func() bool {
			servers, err := c.ListServers(sctx)
			if err != nil {
				if sctx.IsStopping() {
					return false
				}
				return send(WatchEvent{Err: err})
			}
			changes := diffServers(last, servers)
			last = servers
			if !first && len(changes) == 0 {
				return true
			}
			first = false
			return send(WatchEvent{Servers: servers, Changes: changes})
		}

		if !poll() {
			return nil
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-sctx.Stopping():
				return nil
			case <-sctx.Done():
				return nil
			case <-ticker.C:
				if !poll() {
					return nil
				}
			}
		}
	})

	return ch, cleanup, nil
}

// Wait blocks until server is listed with the requested running state and
// returns its entry. Unavailable listings are treated as transient and
// polling continues until ctx is done.
func (c *Client) Wait(ctx context.Context, server string, running bool, interval time.Duration) (ServerEntry, error) {
	events, cleanup, err := c.Watch(ctx, interval)
	if err != nil {
		return ServerEntry{}, err
	}
	defer func() { _ = cleanup() }()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return ServerEntry{}, ctx.Err()
				}
				return ServerEntry{}, ErrUnavailable
			}
			if event.Err != nil {
				continue
			}
			for _, s := range event.Servers {
				if s.Name == server && s.Running == running {
					return s, nil
				}
			}
		case <-ctx.Done():
			return ServerEntry{}, ctx.Err()
		}
	}
}

// WaitService blocks until service is listed on server with the requested
// running state. Services have no listing of their own to watch, so this
// polls ListServices directly.
func (c *Client) WaitService(ctx context.Context, server, service string, running bool, interval time.Duration) (ServiceEntry, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		services, err := c.ListServices(ctx, server)
		if err == nil {
			for _, s := range services {
				if s.Name == service && s.Running == running {
					return s, nil
				}
			}
		}

		select {
		case <-ctx.Done():
			return ServiceEntry{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// diffServers compares two listings by name, in listing order. Duplicated
// names compare on their first occurrence.
func diffServers(before, after []ServerEntry) []ServerChange {
	prev := indexServers(before)
	next := indexServers(after)

	var changes []ServerChange
	for _, name := range uniqueNames(after) {
		now := next[name]
		was, seen := prev[name]
		switch {
		case !seen:
			changes = append(changes, ServerChange{Name: name, After: &now})
		case was.Running != now.Running:
			changes = append(changes, ServerChange{Name: name, Before: &was, After: &now})
		}
	}
	for _, name := range uniqueNames(before) {
		if _, ok := next[name]; !ok {
			was := prev[name]
			changes = append(changes, ServerChange{Name: name, Before: &was})
		}
	}
	return changes
}

func indexServers(servers []ServerEntry) map[string]ServerEntry {
	idx := make(map[string]ServerEntry, len(servers))
	for _, s := range servers {
		if _, ok := idx[s.Name]; !ok {
			idx[s.Name] = s
		}
	}
	return idx
}

func uniqueNames(servers []ServerEntry) []string {
	seen := make(map[string]struct{}, len(servers))
	names := make([]string, 0, len(servers))
	for _, s := range servers {
		if _, ok := seen[s.Name]; ok {
			continue
		}
		seen[s.Name] = struct{}{}
		names = append(names, s.Name)
	}
	return names
}
