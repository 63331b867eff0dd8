// Package manifest gives semantic meaning to a parsed manifest tree. The
// loader walks the syntax produced by the parser package and extracts the
// package name, dependencies, targets and products into plain data. It is
// deliberately read-only: edits happen on the syntax tree, never on these
// structures, and the loader is re-run over printed output to verify that
// an edited tree still means what the editor intended.
package manifest

// TargetKind discriminates the target declaration forms.
type TargetKind int

const (
	TargetLibrary TargetKind = iota
	TargetExecutable
	TargetTest
	TargetBinary
)

func (k TargetKind) String() string {
	switch k {
	case TargetLibrary:
		return "target"
	case TargetExecutable:
		return "executableTarget"
	case TargetTest:
		return "testTarget"
	case TargetBinary:
		return "binaryTarget"
	}
	return "unknown"
}

// ProductKind discriminates product declaration forms.
type ProductKind int

const (
	ProductLibrary ProductKind = iota
	ProductExecutable
)

func (k ProductKind) String() string {
	switch k {
	case ProductLibrary:
		return "library"
	case ProductExecutable:
		return "executable"
	}
	return "unknown"
}

// LibraryLinkage is the optional type: argument of a library product.
type LibraryLinkage int

const (
	LinkageAutomatic LibraryLinkage = iota
	LinkageStatic
	LinkageDynamic
)

// Dependency is one entry of the package's dependencies array.
type Dependency struct {
	// Identity is the canonical name derived from the URL or path; it is
	// what duplicate detection compares.
	Identity    string
	URL         string
	Path        string
	Requirement Requirement
}

// Target is one entry of the targets array.
type Target struct {
	Name string
	Kind TargetKind
	// Dependencies holds the names referenced by the target's dependencies
	// array, whether written as bare strings or as .target/.product forms.
	Dependencies []string
	// URL, Path and Checksum are populated for binary targets only.
	URL      string
	Path     string
	Checksum string
}

// Product is one entry of the products array.
type Product struct {
	Name    string
	Kind    ProductKind
	Linkage LibraryLinkage
	Targets []string
}

// Manifest is the semantic view of one manifest file. Slice order matches
// declaration order in the source.
type Manifest struct {
	Name         string
	ToolsVersion ToolsVersion
	Dependencies []Dependency
	Targets      []Target
	Products     []Product
}

// Dependency returns the dependency with the given identity, or nil.
func (m *Manifest) Dependency(identity string) *Dependency {
	for i := range m.Dependencies {
		if m.Dependencies[i].Identity == identity {
			return &m.Dependencies[i]
		}
	}
	return nil
}

// Target returns the target with the given name, or nil.
func (m *Manifest) Target(name string) *Target {
	for i := range m.Targets {
		if m.Targets[i].Name == name {
			return &m.Targets[i]
		}
	}
	return nil
}

// Product returns the product with the given name, or nil.
func (m *Manifest) Product(name string) *Product {
	for i := range m.Products {
		if m.Products[i].Name == name {
			return &m.Products[i]
		}
	}
	return nil
}
