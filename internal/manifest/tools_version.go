package manifest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ToolsVersion is the minimum tooling version declared on the first line of
// a manifest, e.g. "// swift-tools-version:5.9".
type ToolsVersion struct {
	Major int
	Minor int
}

// MinimumEditableVersion is the oldest tools version the edit operations
// support. Manifests older than this predate the manifest API shapes the
// synthesizers produce.
var MinimumEditableVersion = ToolsVersion{Major: 5, Minor: 2}

func (v ToolsVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast reports whether v is o or newer.
func (v ToolsVersion) AtLeast(o ToolsVersion) bool {
	if v.Major != o.Major {
		return v.Major > o.Major
	}
	return v.Minor >= o.Minor
}

var toolsVersionRe = regexp.MustCompile(`^//\s*swift-tools-version:\s*(\d+)\.(\d+)(?:\.\d+)?`)

// ParseToolsVersion extracts the declared tools version from manifest text.
// The declaration must be the first line of the file.
func ParseToolsVersion(text string) (ToolsVersion, bool) {
	line := text
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimRight(line, "\r")
	m := toolsVersionRe.FindStringSubmatch(line)
	if m == nil {
		return ToolsVersion{}, false
	}
	major, err := strconv.Atoi(m[1])
	if err != nil {
		return ToolsVersion{}, false
	}
	minor, err := strconv.Atoi(m[2])
	if err != nil {
		return ToolsVersion{}, false
	}
	return ToolsVersion{Major: major, Minor: minor}, true
}
