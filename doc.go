// Package iws manages IBM i Integrated Web Services servers by invoking the
// vendor administration scripts under /QIBM/ProdData/OS/WebServices/bin
// and decoding their text output.
//
// The Client never opens a connection itself. It is handed a Runner, which
// executes one command line on the host and reports exit code and stdout:
//
//	runner, err := remote.New(ctx, remote.Config{URL: "ssh://myibmi:22", User: "QSECOFR"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer runner.Close()
//
//	client := iws.New(runner)
//	servers, err := client.ListServers(ctx)
//	if errors.Is(err, iws.ErrUnavailable) {
//	    fmt.Println("servers not available")
//	}
//
// # Reads and actions
//
// The read operations (ListServers, ListServices, ServerProperties,
// ServiceProperties) never return the underlying failure. They return
// ErrUnavailable so callers can tell "nothing there" (empty slice, nil
// error) from "could not look".
//
// The actions (CreateServer, DeleteServer, StartServer, StopServer,
// StartService, StopService) return the failure unchanged: a
// *RemoteCommandError when a script exits non-zero, carrying the script's
// stdout, or an *OpError when the command could not be run or its
// parameters were rejected.
//
// # Parameters
//
// Script flags are built with Parameters, which keeps insertion order:
//
//	params := iws.Parameters{}.
//	    Value("server", "MYSERVER").
//	    Flag("printErrorDetails", true)
//	// -server 'MYSERVER' -printErrorDetails
//
// Values are placed between single quotes without escaping. A value that
// contains a single quote is rejected with ErrUnsafeValue.
//
// # Manager and Watch
//
// Manager starts or stops several servers concurrently. Watch polls the
// server listing and reports changes; Wait blocks until a server reaches a
// running or stopped state.
package iws
