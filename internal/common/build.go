package common

import (
	"fmt"
	"runtime/debug"
)

// Version and GitCommit can be set via ldflags at build time
var (
	Version   = "dev"
	GitCommit = "unknown"
)

const ClientName = "ledger-cli"

func GetModuleBuildInfo() (string, string, bool) {
	if Version != "dev" {
		return Version, GitCommit, true
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		version := info.Main.Version
		var gitCommit string

		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				gitCommit = setting.Value
				break
			}
		}

		return version, gitCommit, true
	}
	return "", "", false
}

// GetUserAgent is sent with every API request so the backend can tell
// client builds apart in its logs.
func GetUserAgent() string {
	version, gitCommit, ok := GetModuleBuildInfo()
	if !ok || len(version) == 0 {
		return ClientName
	}
	if len(gitCommit) > 8 {
		gitCommit = gitCommit[:8]
	}
	if len(gitCommit) == 0 {
		return fmt.Sprintf("%s/%s", ClientName, version)
	}
	return fmt.Sprintf("%s/%s (%s)", ClientName, version, gitCommit)
}
