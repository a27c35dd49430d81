package iws

import (
	"context"
	"strings"
	"sync"
)

// invocation records one call to fakeRunner
type invocation struct {
	Line string
	Mode int
}

// fakeRunner answers commands from a script table keyed by Command.
// Commands without an entry succeed with empty output.
type fakeRunner struct {
	mu      sync.Mutex
	calls   []invocation
	results map[Command]Result
	errs    map[Command]error
	// next, when set, is consulted before the tables
	next func(cmd Command, line string) (Result, error, bool)
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		results: make(map[Command]Result),
		errs:    make(map[Command]error),
	}
}

func (f *fakeRunner) reply(cmd Command, stdout string) *fakeRunner {
	f.results[cmd] = Result{ExitCode: Code(0), Stdout: stdout}
	return f
}

func (f *fakeRunner) exit(cmd Command, code int, stdout string) *fakeRunner {
	f.results[cmd] = Result{ExitCode: Code(code), Stdout: stdout}
	return f
}

func (f *fakeRunner) fail(cmd Command, err error) *fakeRunner {
	f.errs[cmd] = err
	return f
}

func (f *fakeRunner) Run(_ context.Context, line string, mode int) (Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, invocation{Line: line, Mode: mode})
	next := f.next
	f.mu.Unlock()

	cmd := commandOf(line)
	if next != nil {
		if res, err, ok := next(cmd, line); ok {
			return res, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[cmd]; ok {
		return Result{}, err
	}
	if res, ok := f.results[cmd]; ok {
		return res, nil
	}
	return Result{ExitCode: Code(0)}, nil
}

func (f *fakeRunner) Calls() []invocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]invocation, len(f.calls))
	copy(out, f.calls)
	return out
}

// commandOf extracts the command name from a script invocation line
func commandOf(line string) Command {
	script, _, _ := strings.Cut(line, " ")
	if i := strings.LastIndexByte(script, '/'); i >= 0 {
		script = script[i+1:]
	}
	return Command(strings.TrimSuffix(script, ScriptSuffix))
}
