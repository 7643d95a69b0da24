package harnessdebug

import (
	"runtime/debug"
	"strconv"
)

// BuildCommit reports the vcs.revision stamped by the go tool,
// with a " (dirty)" suffix when the tree had uncommitted changes.
// Binaries produced by "go run" report "unknown".
func BuildCommit() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown (built without module support?)"
	}

	rev := "unknown"
	dirty := false
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			if d, err := strconv.ParseBool(s.Value); err == nil {
				dirty = d
			}
		}
	}

	if dirty {
		return rev + " (dirty)"
	}
	return rev
}

// DependencyVersion returns the version of module path linked into the binary, or "" when absent.
func DependencyVersion(path string) string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, dep := range bi.Deps {
		if dep.Path == path {
			return dep.Version
		}
	}
	return ""
}
