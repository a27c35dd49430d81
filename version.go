package iws

// Version is the current version of the go-iws library
const Version = "0.3.0"

// VersionInfo contains detailed version information
type VersionInfo struct {
	// Version is the semantic version
	Version string
	// InstallDir is the script directory the library targets by default
	InstallDir string
	// Commands is the number of registered scripts
	Commands int
}

// GetVersion returns the current version information
func GetVersion() VersionInfo {
	return VersionInfo{
		Version:    Version,
		InstallDir: InstallDir,
		Commands:   len(Commands()),
	}
}
