package cli

import (
	"runtime/debug"
	"strings"
)

const (
	versionTemplateConstant       = "{{.Name}} version: {{.Version}}\n"
	developmentVersionConstant    = "dev"
	buildInfoDevelVersionConstant = "(devel)"
)

// Version is set at link time with -ldflags "-X github.com/temirov/rstfmt-action/cmd/cli.Version=v1.2.3".
var Version string

func resolveVersion() string {
	if trimmedVersion := strings.TrimSpace(Version); len(trimmedVersion) > 0 {
		return trimmedVersion
	}
	buildInfo, available := debug.ReadBuildInfo()
	if !available || len(buildInfo.Main.Version) == 0 || buildInfo.Main.Version == buildInfoDevelVersionConstant {
		return developmentVersionConstant
	}
	return buildInfo.Main.Version
}
