package iws

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func serverArg(line string) string {
	_, rest, _ := strings.Cut(line, "-server '")
	name, _, _ := strings.Cut(rest, "'")
	return name
}

func TestManagerStart(t *testing.T) {
	runner := newFakeRunner()
	mgr := NewManager(New(runner), WithConcurrency(2), WithTimeout(time.Second))

	if err := mgr.Start(context.Background(), "SRV1", "SRV2", "SRV3"); err != nil {
		t.Fatal(err)
	}

	calls := runner.Calls()
	if len(calls) != 3 {
		t.Fatalf("got %d calls, want 3", len(calls))
	}
	seen := make(map[string]bool)
	for _, c := range calls {
		if commandOf(c.Line) != CmdStartServer {
			t.Errorf("unexpected command line %q", c.Line)
		}
		seen[serverArg(c.Line)] = true
	}
	for _, name := range []string{"SRV1", "SRV2", "SRV3"} {
		if !seen[name] {
			t.Errorf("%s was not started", name)
		}
	}
}

func TestManagerEmptyServers(t *testing.T) {
	runner := newFakeRunner()
	mgr := NewManager(New(runner))

	if err := mgr.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
	props, err := mgr.Properties(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(props) != 0 || len(runner.Calls()) != 0 {
		t.Error("empty server list should not invoke anything")
	}
}

func TestManagerCollectsFailures(t *testing.T) {
	runner := newFakeRunner()
	runner.next = func(cmd Command, line string) (Result, error, bool) {
		if serverArg(line) == "BAD" {
			return Result{ExitCode: Code(8), Stdout: "not found"}, nil, true
		}
		return Result{}, nil, false
	}
	mgr := NewManager(New(runner))

	err := mgr.Stop(context.Background(), "GOOD", "BAD", "ALSO_GOOD")
	if err == nil {
		t.Fatal("expected error")
	}

	var merr *MultiError
	if !errors.As(err, &merr) {
		t.Fatalf("expected MultiError, got %T", err)
	}
	if len(merr.Errors) != 1 {
		t.Fatalf("got %d errors, want 1", len(merr.Errors))
	}
	if code, ok := ExitCode(err); !ok || code != 8 {
		t.Errorf("ExitCode = %d, %v", code, ok)
	}
	if len(runner.Calls()) != 3 {
		t.Errorf("one failure must not stop the others")
	}
}

func TestManagerConcurrencyLimit(t *testing.T) {
	var active, peak int32
	runner := RunnerFunc(func(ctx context.Context, _ string, _ int) (Result, error) {
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return Result{ExitCode: Code(0)}, nil
	})

	mgr := NewManager(New(runner), WithConcurrency(2))
	if err := mgr.Start(context.Background(), "A", "B", "C", "D", "E", "F"); err != nil {
		t.Fatal(err)
	}
	if p := atomic.LoadInt32(&peak); p > 2 {
		t.Errorf("peak concurrency %d exceeds limit 2", p)
	}
}

func TestManagerTimeout(t *testing.T) {
	runner := RunnerFunc(func(ctx context.Context, _ string, _ int) (Result, error) {
		<-ctx.Done()
		return Result{}, ctx.Err()
	})
	mgr := NewManager(New(runner), WithTimeout(20*time.Millisecond))

	err := mgr.Start(context.Background(), "SLOW")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v, want deadline exceeded", err)
	}
}

func TestManagerProperties(t *testing.T) {
	runner := newFakeRunner()
	runner.next = func(cmd Command, line string) (Result, error, bool) {
		switch serverArg(line) {
		case "SRV1":
			return Result{ExitCode: Code(0), Stdout: "port: 10000\n"}, nil, true
		case "GONE":
			return Result{ExitCode: Code(8)}, nil, true
		}
		return Result{}, nil, false
	}
	mgr := NewManager(New(runner))

	props, err := mgr.Properties(context.Background(), "SRV1", "GONE")

	if v, ok := Lookup(props["SRV1"], "port"); !ok || v != "10000" {
		t.Errorf("SRV1 port = %q, %v", v, ok)
	}
	if _, ok := props["GONE"]; ok {
		t.Error("unavailable server present in results")
	}

	var opErr *OpError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected OpError, got %v", err)
	}
	if opErr.Target != "GONE" || !errors.Is(err, ErrUnavailable) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestNewManagerClampsConcurrency(t *testing.T) {
	mgr := NewManager(New(newFakeRunner()), WithConcurrency(0))
	if mgr.Concurrency != 1 {
		t.Errorf("Concurrency = %d, want 1", mgr.Concurrency)
	}
}
