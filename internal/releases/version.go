package releases

import (
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

type parsedVersion struct {
	core  *semver.Version
	build int64
}

// parseVersion reads VMS versions like 5.1.2.37996: a semver core plus a
// numeric build component
func parseVersion(v string) (parsedVersion, bool) {
	parts := strings.SplitN(strings.TrimSpace(v), ".", 4)
	core := strings.Join(parts[:min(len(parts), 3)], ".")

	sv, err := semver.NewVersion(core)
	if err != nil {
		return parsedVersion{}, false
	}

	var build int64
	if len(parts) == 4 {
		build, err = strconv.ParseInt(parts[3], 10, 64)
		if err != nil {
			return parsedVersion{}, false
		}
	}
	return parsedVersion{core: sv, build: build}, true
}

// CompareVersions returns -1, 0 or 1. Versions that do not parse sort
// below versions that do.
func CompareVersions(a, b string) int {
	va, okA := parseVersion(a)
	vb, okB := parseVersion(b)

	switch {
	case okA && okB:
		if c := va.core.Compare(vb.core); c != 0 {
			return c
		}
		switch {
		case va.build < vb.build:
			return -1
		case va.build > vb.build:
			return 1
		}
		return 0
	case okA:
		return 1
	case okB:
		return -1
	}
	return strings.Compare(a, b)
}

// Latest returns the highest released version of the given publication type.
// An empty publicationType matches every release.
func Latest(rs []Release, publicationType string) (Release, bool) {
	var (
		best  Release
		found bool
	)
	for _, r := range Released(rs) {
		if publicationType != "" && r.PublicationType != publicationType {
			continue
		}
		if !found || CompareVersions(r.Version, best.Version) > 0 {
			best = r
			found = true
		}
	}
	return best, found
}
