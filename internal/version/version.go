package version

import (
	"fmt"
	"runtime"
)

// Product names the generator in version output and configuration headers
const Product = "emgdconf"

// Generator returns the tag written into the header of every generated
// configuration, for example "emgdconf v1.2.0-abcdef1"
func Generator(version string) string {
	if version == "" {
		version = "dev"
	}
	return Product + " " + version
}

// GetVersion returns a formatted version string
func GetVersion(version, commit, buildTime string) string {
	if version == "" {
		version = "dev"
	}
	if commit == "" {
		return version
	}
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return fmt.Sprintf("%s-%s", version, commit)
}

// GetDetailedVersion returns detailed version information
func GetDetailedVersion(version, commit, buildTime string) string {
	if version == "" {
		version = "dev"
	}
	if commit == "" {
		commit = "unknown"
	}
	if buildTime == "" {
		buildTime = "unknown"
	}

	return fmt.Sprintf(`%s (EMGD display configuration generator)
Version:    %s
Commit:     %s
Built:      %s
Go version: %s
OS/Arch:    %s/%s`,
		Product, version, commit, buildTime,
		runtime.Version(),
		runtime.GOOS, runtime.GOARCH)
}