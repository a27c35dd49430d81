package iws

import (
	"context"
	"sync"
	"time"
)

// Manager runs one operation over several servers concurrently.
// It is a convenience on top of Client; every call it makes is an
// ordinary independent remote invocation.
type Manager struct {
	// Concurrency is the maximum number of concurrent operations
	Concurrency int
	// Timeout is the per-operation timeout
	Timeout time.Duration

	client *Client
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithConcurrency sets the maximum number of concurrent operations
func WithConcurrency(n int) ManagerOption {
	return func(m *Manager) {
		m.Concurrency = n
	}
}

// WithTimeout sets the per-operation timeout
func WithTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.Timeout = d
	}
}

// NewManager creates a Manager with default settings
func NewManager(client *Client, opts ...ManagerOption) *Manager {
	m := &Manager{
		Concurrency: DefaultConcurrency,
		Timeout:     DefaultOperationTimeout,
		client:      client,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.Concurrency < 1 {
		m.Concurrency = 1
	}

	return m
}

func (m *Manager) execute(ctx context.Context, servers []string, op func(context.Context, string) error) error {
	if len(servers) == 0 {
		return nil
	}

	// Semaphore for concurrency control
	sem := make(chan struct{}, m.Concurrency)

	// Finite work, so a WaitGroup is enough
	var wg sync.WaitGroup
	var mu sync.Mutex
	merr := &MultiError{}

	// Launch a goroutine for each server
	for _, server := range servers {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()

			// Acquire semaphore slot
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				mu.Lock()
				merr.Add(ctx.Err())
				mu.Unlock()
				return
			}

			// Create operation context with timeout if configured
			opCtx := ctx
			if m.Timeout > 0 {
				var cancel context.CancelFunc
				opCtx, cancel = context.WithTimeout(ctx, m.Timeout)
				defer cancel()
			}

			// Execute the operation
			if err := op(opCtx, name); err != nil {
				mu.Lock()
				merr.Add(err)
				mu.Unlock()
			}
		}(server)
	}

	// Wait for all goroutines to complete
	wg.Wait()

	return merr.Err()
}

// Start starts the specified servers
func (m *Manager) Start(ctx context.Context, servers ...string) error {
	return m.execute(ctx, servers, m.client.StartServer)
}

// Stop stops the specified servers
func (m *Manager) Stop(ctx context.Context, servers ...string) error {
	return m.execute(ctx, servers, m.client.StopServer)
}

// Properties reads the properties of the specified servers. Servers whose
// properties are unavailable are missing from the map and reported in the
// returned MultiError as *OpError wrapping ErrUnavailable.
func (m *Manager) Properties(ctx context.Context, servers ...string) (map[string][]Property, error) {
	results := make(map[string][]Property, len(servers))
	var mu sync.Mutex

	err := m.execute(ctx, servers, func(ctx context.Context, server string) error {
		props, err := m.client.ServerProperties(ctx, server)
		if err != nil {
			return &OpError{Command: CmdServerProperties, Target: server, Err: err}
		}
		mu.Lock()
		results[server] = props
		mu.Unlock()
		return nil
	})

	return results, err
}
