package iws

import "time"

// Remote installation constants
const (
	// InstallDir is where the IWS administration scripts live on the host
	InstallDir = "/QIBM/ProdData/OS/WebServices/bin"

	// ScriptSuffix is appended to a command name to form the script file name
	ScriptSuffix = ".sh"

	// ModeImmediate is the execution mode handed to the Runner for every
	// invocation. The connection layer treats 1 as run-and-wait.
	ModeImmediate = 1

	// StoppedMarker is the literal that marks a listing line as not running
	StoppedMarker = "Stopped"
)

// Defaults for the optional components
const (
	// DefaultPollInterval is the default interval between listing polls in Watch and Wait
	DefaultPollInterval = 5 * time.Second

	// DefaultConcurrency is the default number of concurrent Manager operations
	DefaultConcurrency = 4

	// DefaultOperationTimeout is the default per-server Manager timeout
	DefaultOperationTimeout = 2 * time.Minute
)

// Command names a registered IWS administration script
type Command string

const (
	// CmdListServers lists all web services servers
	CmdListServers Command = "listWebServicesServers"
	// CmdListServices lists the services deployed to a server
	CmdListServices Command = "listWebServices"
	// CmdServerProperties prints the properties of a server
	CmdServerProperties Command = "getWebServicesServerProperties"
	// CmdServiceProperties prints the properties of a service
	CmdServiceProperties Command = "getWebServiceProperties"
	// CmdCreateServer creates a server
	CmdCreateServer Command = "createWebServicesServer"
	// CmdDeleteServer deletes a server
	CmdDeleteServer Command = "deleteWebServicesServer"
	// CmdStartServer starts a server
	CmdStartServer Command = "startWebServicesServer"
	// CmdStartService starts a service
	CmdStartService Command = "startWebService"
	// CmdStopServer stops a server
	CmdStopServer Command = "stopWebServicesServer"
	// CmdStopService stops a service
	CmdStopService Command = "stopWebService"
)

var registered = map[Command]bool{
	CmdListServers:       false,
	CmdListServices:      false,
	CmdServerProperties:  false,
	CmdServiceProperties: false,
	CmdCreateServer:      true,
	CmdDeleteServer:      true,
	CmdStartServer:       true,
	CmdStartService:      true,
	CmdStopServer:        true,
	CmdStopService:       true,
}

// Commands returns every registered command in a stable order
func Commands() []Command {
	return []Command{
		CmdListServers,
		CmdListServices,
		CmdServerProperties,
		CmdServiceProperties,
		CmdCreateServer,
		CmdDeleteServer,
		CmdStartServer,
		CmdStartService,
		CmdStopServer,
		CmdStopService,
	}
}

// String returns the command name
func (c Command) String() string {
	return string(c)
}

// Known reports whether c is one of the registered scripts
func (c Command) Known() bool {
	_, ok := registered[c]
	return ok
}

// Mutating reports whether the command changes server state on the host
func (c Command) Mutating() bool {
	return registered[c]
}

// Script returns the script file name, e.g. listWebServices.sh
func (c Command) Script() string {
	return string(c) + ScriptSuffix
}

// Path returns the absolute script path under dir
func (c Command) Path(dir string) string {
	if dir == "" {
		dir = InstallDir
	}
	if dir[len(dir)-1] == '/' {
		return dir + c.Script()
	}
	return dir + "/" + c.Script()
}
