package iws

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// sequence answers one command with successive outputs, repeating the last
func sequence(runner *fakeRunner, cmd Command, outputs ...string) {
	var mu sync.Mutex
	i := 0
	runner.next = func(c Command, _ string) (Result, error, bool) {
		if c != cmd {
			return Result{}, nil, false
		}
		mu.Lock()
		defer mu.Unlock()
		out := outputs[i]
		if i < len(outputs)-1 {
			i++
		}
		return Result{ExitCode: Code(0), Stdout: out}, nil, true
	}
}

func nextEvent(t *testing.T, events <-chan WatchEvent) WatchEvent {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "events channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}
	return WatchEvent{}
}

func drainClosed(t *testing.T, events <-chan WatchEvent) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("events channel not closed")
		}
	}
}

func TestWatchReportsChanges(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	runner := newFakeRunner()
	sequence(runner, CmdListServers,
		"A (Started)\nB (Stopped)\n",
		"A (Started)\nB (Stopped)\n",
		"A (Started)\nB (Started)\n",
		"A (Started)\n",
	)

	events, cleanup, err := New(runner).Watch(ctx, 5*time.Millisecond)
	require.NoError(t, err)

	first := nextEvent(t, events)
	require.NoError(t, first.Err)
	assert.Len(t, first.Servers, 2)
	require.Len(t, first.Changes, 2)
	assert.Nil(t, first.Changes[0].Before)
	assert.Equal(t, "A", first.Changes[0].Name)
	assert.Equal(t, "B", first.Changes[1].Name)

	// the unchanged second poll is suppressed
	started := nextEvent(t, events)
	require.Len(t, started.Changes, 1)
	ch := started.Changes[0]
	assert.Equal(t, "B", ch.Name)
	require.NotNil(t, ch.Before)
	require.NotNil(t, ch.After)
	assert.False(t, ch.Before.Running)
	assert.True(t, ch.After.Running)

	removed := nextEvent(t, events)
	require.Len(t, removed.Changes, 1)
	assert.Equal(t, "B", removed.Changes[0].Name)
	assert.Nil(t, removed.Changes[0].After)
	assert.Equal(t, []ServerEntry{{Name: "A", Running: true, Status: "Started"}}, removed.Servers)

	require.NoError(t, cleanup())
	drainClosed(t, events)
}

func TestWatchReportsUnavailable(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	runner := newFakeRunner().exit(CmdListServers, 8, "")

	events, cleanup, err := New(runner).Watch(ctx, time.Hour)
	require.NoError(t, err)

	ev := nextEvent(t, events)
	assert.ErrorIs(t, ev.Err, ErrUnavailable)
	assert.Empty(t, ev.Servers)

	require.NoError(t, cleanup())
	drainClosed(t, events)
}

func TestWatchCleanupIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, cleanup, err := New(newFakeRunner()).Watch(ctx, time.Hour)
	require.NoError(t, err)
	nextEvent(t, events)

	require.NoError(t, cleanup())
	done := make(chan error, 1)
	go func() { done <- cleanup() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("second cleanup hung")
	}
}

func TestWait(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	runner := newFakeRunner()
	sequence(runner, CmdListServers,
		"MYSRV (Stopped)\n",
		"MYSRV (Starting)\n",
		"MYSRV (Started)\n",
	)

	entry, err := New(runner).Wait(ctx, "MYSRV", true, 5*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "MYSRV", entry.Name)
	assert.True(t, entry.Running)
	assert.GreaterOrEqual(t, len(runner.Calls()), 2)
}

func TestWaitToleratesUnavailable(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var mu sync.Mutex
	polls := 0
	runner := newFakeRunner()
	runner.next = func(Command, string) (Result, error, bool) {
		mu.Lock()
		defer mu.Unlock()
		polls++
		if polls < 3 {
			return Result{}, errors.New("timeout"), true
		}
		return Result{ExitCode: Code(0), Stdout: "MYSRV (Stopped)\n"}, nil, true
	}

	entry, err := New(runner).Wait(ctx, "MYSRV", false, 5*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, entry.Running)
}

func TestWaitHonorsContext(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	runner := newFakeRunner().reply(CmdListServers, "MYSRV (Stopped)\n")

	_, err := New(runner).Wait(ctx, "MYSRV", true, 5*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWaitService(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	runner := newFakeRunner()
	sequence(runner, CmdListServices,
		"ConvertTemp (Started)\n",
		"ConvertTemp (Stopped)\n",
	)

	entry, err := New(runner).WaitService(ctx, "MYSRV", "ConvertTemp", false, 5*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, ServiceEntry{Name: "ConvertTemp", Running: false, Server: "MYSRV", Status: "Stopped"}, entry)
}

func TestWaitServiceHonorsContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	runner := newFakeRunner().exit(CmdListServices, 8, "")

	_, err := New(runner).WaitService(ctx, "MYSRV", "ConvertTemp", true, 5*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDiffServers(t *testing.T) {
	before := []ServerEntry{
		{Name: "A", Running: true},
		{Name: "B", Running: true},
		{Name: "C", Running: false},
	}
	after := []ServerEntry{
		{Name: "D", Running: true},
		{Name: "A", Running: true},
		{Name: "C", Running: true},
		{Name: "D", Running: false},
	}

	changes := diffServers(before, after)
	require.Len(t, changes, 3)

	assert.Equal(t, "D", changes[0].Name)
	assert.Nil(t, changes[0].Before)
	assert.True(t, changes[0].After.Running, "duplicates compare on first occurrence")

	assert.Equal(t, "C", changes[1].Name)
	assert.False(t, changes[1].Before.Running)
	assert.True(t, changes[1].After.Running)

	assert.Equal(t, "B", changes[2].Name)
	assert.Nil(t, changes[2].After)

	assert.Empty(t, diffServers(after, after))
}
