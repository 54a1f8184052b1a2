// Package release extracts the published version from a release manifest.
package release

import (
	"github.com/Masterminds/semver/v3"
)

// Version is a dotted major.minor.patch release version.
type Version struct {
	raw    string
	parsed *semver.Version
}

// ParseVersion parses a major.minor.patch token.
func ParseVersion(s string) (Version, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return Version{}, err
	}
	return Version{raw: s, parsed: v}, nil
}

// MustParseVersion is ParseVersion for constants and tests.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version exactly as it appeared in the manifest.
func (v Version) String() string { return v.raw }

func (v Version) Major() uint64 { return v.parsed.Major() }
func (v Version) Minor() uint64 { return v.parsed.Minor() }
func (v Version) Patch() uint64 { return v.parsed.Patch() }

// Compare returns -1, 0 or 1 when v is older than, equal to or newer than o.
func (v Version) Compare(o Version) int {
	return v.parsed.Compare(o.parsed)
}
