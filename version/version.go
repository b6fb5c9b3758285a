package version

import (
	"runtime/debug"
	"strings"
)

// ModulePath is the flowkit module path.
const ModulePath = "github.com/kbukum/flowkit"

// Version overrides the detected version when set at build time.
var Version = ""

// Info describes the running flowkit build.
type Info struct {
	Version   string `json:"version"`
	Revision  string `json:"revision,omitempty"`
	GoVersion string `json:"go_version"`
	Dirty     bool   `json:"dirty,omitempty"`
}

var readBuildInfo = debug.ReadBuildInfo

// Get resolves version information. Without build info or an override the
// version is "dev".
func Get() Info {
	info := Info{Version: Version}
	bi, ok := readBuildInfo()
	if !ok {
		if info.Version == "" {
			info.Version = "dev"
		}
		return info
	}
	info.GoVersion = bi.GoVersion

	if info.Version == "" {
		info.Version = moduleVersion(bi)
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
			if len(info.Revision) > 7 {
				info.Revision = info.Revision[:7]
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	return info
}

func moduleVersion(bi *debug.BuildInfo) string {
	if bi.Main.Path == ModulePath && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	for _, dep := range bi.Deps {
		if dep.Path != ModulePath {
			continue
		}
		if dep.Replace != nil && dep.Replace.Version != "" {
			return dep.Replace.Version
		}
		return dep.Version
	}
	return "dev"
}

// String returns the version, suffixed with the revision when known.
func String() string {
	info := Get()
	parts := []string{strings.TrimPrefix(info.Version, "v")}
	if info.Revision != "" {
		parts = append(parts, info.Revision)
	}
	s := strings.Join(parts, "+")
	if info.Dirty {
		s += "-dirty"
	}
	return s
}
