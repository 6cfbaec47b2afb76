package common

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is stamped at link time:
//
//	go build -ldflags "-X github.com/Alia5/progen/internal/codegen/common.Version=1.2.3"
var Version = ""

// DevVersion is reported by binaries built without a stamped Version.
const DevVersion = "0.0.1-dev"

// GetVersion returns the stamped tool version without a leading "v".
// The manifest records it, so a new release regenerates everything.
func GetVersion() (string, error) {
	if Version == "" {
		return DevVersion, nil
	}
	v := strings.TrimPrefix(Version, "v")
	if base, _, _ := strings.Cut(v, "-"); !strings.Contains(base, ".") {
		return "", fmt.Errorf("invalid version format: %s (expected x.y.z)", Version)
	}
	return v, nil
}

// Release is a version split into its numeric parts. Missing or
// non-numeric parts are zero.
type Release struct {
	Major, Minor, Patch int
	Suffix              string // e.g. "dev" or "dirty"
}

// ParseVersion splits "1.2.3" or "1.2.3-dirty".
func ParseVersion(version string) Release {
	base, suffix, _ := strings.Cut(version, "-")
	r := Release{Suffix: suffix}
	for i, n := range strings.SplitN(base, ".", 3) {
		v, _ := strconv.Atoi(n)
		switch i {
		case 0:
			r.Major = v
		case 1:
			r.Minor = v
		case 2:
			r.Patch = v
		}
	}
	return r
}

// LogAttrs returns r as slog key/value pairs.
func (r Release) LogAttrs() []any {
	return []any{"major", r.Major, "minor", r.Minor, "patch", r.Patch}
}
