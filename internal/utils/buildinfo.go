package utils

import (
	"runtime/debug"
	"strings"
)

const (
	unknownVersion     = "unknown"
	developmentVersion = "(devel)"
)

// Version is injected at build time with
// -ldflags "-X github.com/temirov/fsviz/internal/utils.Version=v1.2.3".
var Version = ""

// GetApplicationVersion attempts to determine the application version.
// It prefers the linker-injected Version, then the module version recorded in
// the Go build info, then the VCS revision stamped by the toolchain.
func GetApplicationVersion() string {
	if trimmed := strings.TrimSpace(Version); trimmed != "" {
		return trimmed
	}

	buildInfo, buildInfoAvailable := debug.ReadBuildInfo()
	if !buildInfoAvailable {
		return unknownVersion
	}
	if buildInfo.Main.Version != "" && buildInfo.Main.Version != developmentVersion {
		return buildInfo.Main.Version
	}

	return revisionFromSettings(buildInfo.Settings)
}

// revisionFromSettings formats the vcs.revision build setting, marking dirty trees.
func revisionFromSettings(settings []debug.BuildSetting) string {
	var revision string
	var modified bool
	for _, setting := range settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if revision == "" {
		return unknownVersion
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	if modified {
		return revision + "-dirty"
	}
	return revision
}
