package main

import (
	"fmt"
	"runtime/debug"
	"strings"
)

var (
	// Set at build time via go build -ldflags
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// buildInfo fills whatever -ldflags left unset from the module and VCS data
// the Go toolchain embeds in the binary
type buildInfo struct {
	version string
	commit  string
	time    string
	dirty   bool
}

var readBuildInfo = debug.ReadBuildInfo

func resolveBuildInfo() buildInfo {
	info := buildInfo{version: Version, commit: GitCommit, time: BuildTime}

	bi, ok := readBuildInfo()
	if !ok {
		return info
	}
	if info.version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.version = strings.TrimPrefix(bi.Main.Version, "v")
	}
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			if info.commit == "unknown" && setting.Value != "" {
				info.commit = setting.Value
				if len(info.commit) > 7 {
					info.commit = info.commit[:7]
				}
			}
		case "vcs.time":
			if info.time == "unknown" && setting.Value != "" {
				info.time = setting.Value
			}
		case "vcs.modified":
			info.dirty = setting.Value == "true"
		}
	}
	return info
}

// GetVersionInfo returns formatted version information
func GetVersionInfo() string {
	info := resolveBuildInfo()
	return fmt.Sprintf("tagstream v%s (commit: %s, built: %s)", info.version, info.commitLabel(), info.time)
}

// GetGitCommit returns the short commit hash, or "unknown"
func GetGitCommit() string {
	return resolveBuildInfo().commitLabel()
}

// GetBuildInfo returns detailed build information
func GetBuildInfo() string {
	info := resolveBuildInfo()
	return fmt.Sprintf("tagstream v%s\nCommit: %s\nBuild Time: %s", info.version, info.commitLabel(), info.time)
}

func (b buildInfo) commitLabel() string {
	if b.dirty && b.commit != "unknown" {
		return b.commit + "-dirty"
	}
	return b.commit
}
