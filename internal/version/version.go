// Package version normalizes and compares the dotted version strings reported
// by external tools.
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// knownDecorations are stripped from tool versions before comparison. Anything
// after the first remaining '-' is treated as a build suffix and dropped too.
var knownDecorations = []string{"-beta", "-DEV"}

// Version is a parsed major.minor pair.
type Version struct {
	Major int
	Minor int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Less reports whether v sorts before other.
func (v Version) Less(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	return v.Minor < other.Minor
}

// Normalize strips the leading "v", known release decorations, and patch
// components, returning a "major.minor" string. "v1.42.0-beta" becomes "1.42".
func Normalize(raw string) string {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(value, "v")
	for _, suffix := range knownDecorations {
		if idx := strings.Index(value, suffix); idx >= 0 {
			value = value[:idx]
		}
	}
	if idx := strings.IndexAny(value, "-+ "); idx >= 0 {
		value = value[:idx]
	}
	parts := strings.Split(value, ".")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return strings.Join(parts, ".")
}

// Parse normalizes raw and parses the result. A missing minor component is
// treated as zero.
func Parse(raw string) (Version, error) {
	normalized := Normalize(raw)
	if normalized == "" {
		return Version{}, errors.New("empty version")
	}
	parts := strings.Split(normalized, ".")
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return Version{}, fmt.Errorf("parse version %q: invalid major %q", raw, parts[0])
	}
	var minor int
	if len(parts) > 1 {
		minor, err = strconv.Atoi(parts[1])
		if err != nil {
			return Version{}, fmt.Errorf("parse version %q: invalid minor %q", raw, parts[1])
		}
	}
	if major < 0 || minor < 0 {
		return Version{}, fmt.Errorf("parse version %q: negative component", raw)
	}
	return Version{Major: major, Minor: minor}, nil
}

// AtLeast reports whether actual satisfies the minimum. Both values are
// normalized first.
func AtLeast(actual, minimum string) (bool, error) {
	have, err := Parse(actual)
	if err != nil {
		return false, err
	}
	want, err := Parse(minimum)
	if err != nil {
		return false, err
	}
	return !have.Less(want), nil
}

// FromToolOutput extracts the version token from the first line of a tool's
// version output, for example "rclone v1.65.0" yields "v1.65.0".
func FromToolOutput(output string) (string, error) {
	line := strings.TrimSpace(output)
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = strings.TrimSpace(line[:idx])
	}
	for _, field := range strings.Fields(line) {
		candidate := strings.TrimPrefix(field, "v")
		if candidate != "" && candidate[0] >= '0' && candidate[0] <= '9' {
			return field, nil
		}
	}
	return "", fmt.Errorf("no version token in %q", line)
}
