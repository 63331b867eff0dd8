package manifest

import "fmt"

// RequirementKind discriminates the closed set of dependency requirement
// variants. Adding a kind must update every switch in this package and in
// the edit synthesizers; none of them has a default case for a reason.
type RequirementKind int

const (
	Exact RequirementKind = iota
	Revision
	Branch
	UpToNextMajor
	UpToNextMinor
	Range
	ClosedRange
	LocalPath
)

// Requirement describes how a dependency's version is pinned. It is pure
// data and owns no reference to any syntax node.
type Requirement struct {
	Kind       RequirementKind
	Version    string // Exact, UpToNextMajor, UpToNextMinor
	Identifier string // Revision
	Name       string // Branch
	Lower      string // Range, ClosedRange
	Upper      string // Range (exclusive), ClosedRange (inclusive)
}

// ExactRequirement pins to a single version.
func ExactRequirement(version string) Requirement {
	return Requirement{Kind: Exact, Version: version}
}

// RevisionRequirement pins to a commit identifier.
func RevisionRequirement(id string) Requirement {
	return Requirement{Kind: Revision, Identifier: id}
}

// BranchRequirement follows a branch head.
func BranchRequirement(name string) Requirement {
	return Requirement{Kind: Branch, Name: name}
}

// UpToNextMajorRequirement allows versions from the given one up to the
// next major.
func UpToNextMajorRequirement(version string) Requirement {
	return Requirement{Kind: UpToNextMajor, Version: version}
}

// UpToNextMinorRequirement allows versions from the given one up to the
// next minor.
func UpToNextMinorRequirement(version string) Requirement {
	return Requirement{Kind: UpToNextMinor, Version: version}
}

// RangeRequirement allows lower <= v < upper.
func RangeRequirement(lower, upper string) Requirement {
	return Requirement{Kind: Range, Lower: lower, Upper: upper}
}

// ClosedRangeRequirement allows lower <= v <= upper.
func ClosedRangeRequirement(lower, upper string) Requirement {
	return Requirement{Kind: ClosedRange, Lower: lower, Upper: upper}
}

// LocalPathRequirement marks a path-addressed dependency, which carries no
// version requirement at all.
func LocalPathRequirement() Requirement {
	return Requirement{Kind: LocalPath}
}

// String renders the requirement for diagnostics and pin records.
func (r Requirement) String() string {
	switch r.Kind {
	case Exact:
		return fmt.Sprintf("exact(%s)", r.Version)
	case Revision:
		return fmt.Sprintf("revision(%s)", r.Identifier)
	case Branch:
		return fmt.Sprintf("branch(%s)", r.Name)
	case UpToNextMajor:
		return fmt.Sprintf("from(%s)", r.Version)
	case UpToNextMinor:
		return fmt.Sprintf("upToNextMinor(%s)", r.Version)
	case Range:
		return fmt.Sprintf("%s..<%s", r.Lower, r.Upper)
	case ClosedRange:
		return fmt.Sprintf("%s...%s", r.Lower, r.Upper)
	case LocalPath:
		return "localPath"
	}
	return fmt.Sprintf("unknown(%d)", int(r.Kind))
}
