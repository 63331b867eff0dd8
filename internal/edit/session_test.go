package edit_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/manifedit/manifedit/internal/diag"
	"github.com/manifedit/manifedit/internal/edit"
	"github.com/manifedit/manifedit/internal/manifest"
)

const sampleManifest = `// swift-tools-version:5.9
import PackageDescription

let package = Package(
    name: "Sample",
    dependencies: [
        .package(url: "https://github.com/apple/swift-log", from: "1.5.0"),
    ],
    targets: [
        .target(name: "Sample", dependencies: ["Logging"]),
        .testTarget(name: "SampleTests", dependencies: ["Sample"]),
    ]
)
`

func newSession(t *testing.T, src string) *edit.Session {
	t.Helper()

	s, err := edit.NewSession(src, "Package.swift")
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func assertEditError(t *testing.T, err error, kind edit.ErrorKind) *edit.Error {
	t.Helper()

	if err == nil {
		t.Fatalf("operation succeeded, expected a %s error", kind)
	}
	var ee *edit.Error
	if !errors.As(err, &ee) {
		t.Fatalf("operation returned %T, expected *edit.Error", err)
	}
	if ee.Kind != kind {
		t.Fatalf("error kind = %s, want %s (message: %s)", ee.Kind, kind, ee.Message)
	}
	return ee
}

func assertText(t *testing.T, s *edit.Session, want string) {
	t.Helper()

	if got := s.Text(); got != want {
		t.Errorf("session text mismatch\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestAddPackageDependency(t *testing.T) {
	s := newSession(t, sampleManifest)
	before := len(s.Manifest().Dependencies)

	err := s.AddPackageDependency("https://github.com/apple/swift-nio.git",
		manifest.UpToNextMajorRequirement("2.60.0"))
	if err != nil {
		t.Fatalf("AddPackageDependency: %v", err)
	}

	m := s.Manifest()
	if len(m.Dependencies) != before+1 {
		t.Fatalf("got %d dependencies, want %d", len(m.Dependencies), before+1)
	}
	if m.Dependencies[0].Identity != "swift-log" {
		t.Errorf("existing dependency moved: %q", m.Dependencies[0].Identity)
	}
	dep := m.Dependency("swift-nio")
	if dep == nil {
		t.Fatalf("swift-nio not present after edit")
	}
	if want := manifest.UpToNextMajorRequirement("2.60.0"); dep.Requirement != want {
		t.Errorf("requirement = %v, want %v", dep.Requirement, want)
	}

	want := strings.Replace(sampleManifest,
		`        .package(url: "https://github.com/apple/swift-log", from: "1.5.0"),
`,
		`        .package(url: "https://github.com/apple/swift-log", from: "1.5.0"),
        .package(url: "https://github.com/apple/swift-nio.git", from: "2.60.0"),
`, 1)
	assertText(t, s, want)
}

func TestAddPackageDependencyRequirementShapes(t *testing.T) {
	cases := []struct {
		name string
		req  manifest.Requirement
		want string
	}{
		{"exact", manifest.ExactRequirement("2.0.0"),
			`.package(url: "https://example.com/dep.git", .exact("2.0.0"))`},
		{"revision", manifest.RevisionRequirement("0123abcd"),
			`.package(url: "https://example.com/dep.git", .revision("0123abcd"))`},
		{"branch", manifest.BranchRequirement("main"),
			`.package(url: "https://example.com/dep.git", .branch("main"))`},
		{"upToNextMinor", manifest.UpToNextMinorRequirement("1.4.0"),
			`.package(url: "https://example.com/dep.git", .upToNextMinor(from: "1.4.0"))`},
		{"range", manifest.RangeRequirement("1.0.0", "2.0.0"),
			`.package(url: "https://example.com/dep.git", "1.0.0" ..< "2.0.0")`},
		{"closedRange", manifest.ClosedRangeRequirement("1.0.0", "1.9.9"),
			`.package(url: "https://example.com/dep.git", "1.0.0" ... "1.9.9")`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := newSession(t, sampleManifest)
			if err := s.AddPackageDependency("https://example.com/dep.git", c.req); err != nil {
				t.Fatalf("AddPackageDependency: %v", err)
			}
			if !strings.Contains(s.Text(), c.want) {
				t.Errorf("text does not contain %s\n%s", c.want, s.Text())
			}
			dep := s.Manifest().Dependency("dep")
			if dep == nil {
				t.Fatalf("dep not present after edit")
			}
			if dep.Requirement != c.req {
				t.Errorf("reloaded requirement = %v, want %v", dep.Requirement, c.req)
			}
		})
	}
}

func TestAddLocalPackageDependency(t *testing.T) {
	s := newSession(t, sampleManifest)

	if err := s.AddPackageDependency("../LocalKit", manifest.LocalPathRequirement()); err != nil {
		t.Fatalf("AddPackageDependency: %v", err)
	}
	if !strings.Contains(s.Text(), `.package(path: "../LocalKit")`) {
		t.Errorf("text does not contain the path dependency\n%s", s.Text())
	}
	if s.Manifest().Dependency("localkit") == nil {
		t.Errorf("localkit not present after edit")
	}
}

func TestAddDuplicateDependencyFails(t *testing.T) {
	s := newSession(t, sampleManifest)

	// Same identity as the existing swift-log entry despite the different
	// spelling of the URL.
	err := s.AddPackageDependency("https://github.com/apple/swift-log.git",
		manifest.ExactRequirement("1.0.0"))
	ee := assertEditError(t, err, edit.Precondition)
	if ee.Code != diag.CodeEditPrecondition {
		t.Errorf("code = %s, want %s", ee.Code, diag.CodeEditPrecondition)
	}
	assertText(t, s, sampleManifest)
}

func TestAddTargetCreatesTargetsArray(t *testing.T) {
	const src = `// swift-tools-version:5.9
import PackageDescription

let package = Package(
    name: "Bare",
    swiftLanguageVersions: [.v5]
)
`
	s := newSession(t, src)

	err := s.AddTarget(edit.TargetDescriptor{Name: "Core", Kind: manifest.TargetLibrary})
	if err != nil {
		t.Fatalf("AddTarget: %v", err)
	}

	const want = `// swift-tools-version:5.9
import PackageDescription

let package = Package(
    name: "Bare",
    targets: [
        .target(name: "Core"),
    ],
    swiftLanguageVersions: [.v5]
)
`
	assertText(t, s, want)

	m := s.Manifest()
	if len(m.Targets) != 1 || m.Targets[0].Name != "Core" {
		t.Errorf("targets after reload = %+v", m.Targets)
	}
}

func TestAddTargetWithDependencies(t *testing.T) {
	s := newSession(t, sampleManifest)

	err := s.AddTarget(edit.TargetDescriptor{
		Name:         "SampleCLI",
		Kind:         manifest.TargetExecutable,
		Dependencies: []string{"Sample", "Logging"},
	})
	if err != nil {
		t.Fatalf("AddTarget: %v", err)
	}
	want := `.executableTarget(name: "SampleCLI", dependencies: ["Sample", "Logging"]),`
	if !strings.Contains(s.Text(), want) {
		t.Errorf("text does not contain %s\n%s", want, s.Text())
	}
	if tgt := s.Manifest().Target("SampleCLI"); tgt == nil || tgt.Kind != manifest.TargetExecutable {
		t.Errorf("SampleCLI not reloaded as an executable target")
	}
}

func TestAddDuplicateTargetFails(t *testing.T) {
	s := newSession(t, sampleManifest)

	err := s.AddTarget(edit.TargetDescriptor{Name: "Sample", Kind: manifest.TargetLibrary})
	assertEditError(t, err, edit.Precondition)
	assertText(t, s, sampleManifest)
}

func TestAddBinaryTargetChecksumRules(t *testing.T) {
	const remote = "https://example.com/engine.zip"
	const local = "Vendor/Engine.xcframework"

	t.Run("remote with checksum succeeds", func(t *testing.T) {
		s := newSession(t, sampleManifest)
		if err := s.AddBinaryTarget("Engine", remote, "abc123"); err != nil {
			t.Fatalf("AddBinaryTarget: %v", err)
		}
		want := `.binaryTarget(name: "Engine", url: "https://example.com/engine.zip", checksum: "abc123"),`
		if !strings.Contains(s.Text(), want) {
			t.Errorf("text does not contain %s\n%s", want, s.Text())
		}
	})
	t.Run("remote without checksum fails", func(t *testing.T) {
		s := newSession(t, sampleManifest)
		err := s.AddBinaryTarget("Engine", remote, "")
		assertEditError(t, err, edit.Precondition)
		assertText(t, s, sampleManifest)
	})
	t.Run("local with checksum fails", func(t *testing.T) {
		s := newSession(t, sampleManifest)
		err := s.AddBinaryTarget("Engine", local, "abc123")
		assertEditError(t, err, edit.Precondition)
		assertText(t, s, sampleManifest)
	})
	t.Run("local without checksum succeeds", func(t *testing.T) {
		s := newSession(t, sampleManifest)
		if err := s.AddBinaryTarget("Engine", local, ""); err != nil {
			t.Fatalf("AddBinaryTarget: %v", err)
		}
		want := `.binaryTarget(name: "Engine", path: "Vendor/Engine.xcframework"),`
		if !strings.Contains(s.Text(), want) {
			t.Errorf("text does not contain %s\n%s", want, s.Text())
		}
		if tgt := s.Manifest().Target("Engine"); tgt == nil || tgt.Kind != manifest.TargetBinary {
			t.Errorf("Engine not reloaded as a binary target")
		}
	})
}

func TestAddTargetDependency(t *testing.T) {
	s := newSession(t, sampleManifest)

	if err := s.AddTargetDependency("Sample", "NIO"); err != nil {
		t.Fatalf("AddTargetDependency: %v", err)
	}
	want := `.target(name: "Sample", dependencies: ["Logging", "NIO"]),`
	if !strings.Contains(s.Text(), want) {
		t.Errorf("text does not contain %s\n%s", want, s.Text())
	}

	err := s.AddTargetDependency("Sample", "NIO")
	assertEditError(t, err, edit.Precondition)

	err = s.AddTargetDependency("NoSuchTarget", "NIO")
	assertEditError(t, err, edit.EntityNotFound)
}

func TestAddTargetDependencyCreatesArray(t *testing.T) {
	const src = `// swift-tools-version:5.9
import PackageDescription

let package = Package(
    name: "Thin",
    targets: [
        .target(name: "Thin", path: "Sources/Thin"),
    ]
)
`
	s := newSession(t, src)

	if err := s.AddTargetDependency("Thin", "Logging"); err != nil {
		t.Fatalf("AddTargetDependency: %v", err)
	}
	// The synthesized dependencies array lands before path:.
	want := `.target(name: "Thin", dependencies: ["Logging"], path: "Sources/Thin"),`
	if !strings.Contains(s.Text(), want) {
		t.Errorf("text does not contain %s\n%s", want, s.Text())
	}
}

func TestAddProductAndProductTarget(t *testing.T) {
	s := newSession(t, sampleManifest)

	err := s.AddProduct(edit.ProductDescriptor{
		Name:    "SampleLib",
		Kind:    manifest.ProductLibrary,
		Linkage: manifest.LinkageDynamic,
		Targets: []string{"Sample"},
	})
	if err != nil {
		t.Fatalf("AddProduct: %v", err)
	}
	want := `.library(name: "SampleLib", type: .dynamic, targets: ["Sample"]),`
	if !strings.Contains(s.Text(), want) {
		t.Errorf("text does not contain %s\n%s", want, s.Text())
	}
	// The synthesized products array comes before dependencies.
	text := s.Text()
	if strings.Index(text, "products:") > strings.Index(text, "dependencies:") {
		t.Errorf("products: should precede dependencies:\n%s", text)
	}

	if err := s.AddProductTarget("SampleLib", "SampleTests"); err != nil {
		t.Fatalf("AddProductTarget: %v", err)
	}
	prod := s.Manifest().Product("SampleLib")
	if prod == nil || len(prod.Targets) != 2 || prod.Targets[1] != "SampleTests" {
		t.Errorf("product after edits = %+v", prod)
	}

	err = s.AddProductTarget("SampleLib", "SampleTests")
	assertEditError(t, err, edit.Precondition)
	err = s.AddProductTarget("SampleLib", "NoSuchTarget")
	assertEditError(t, err, edit.EntityNotFound)
	err = s.AddProductTarget("NoSuchProduct", "Sample")
	assertEditError(t, err, edit.EntityNotFound)
}

func TestInsertIntoConcatenatedArray(t *testing.T) {
	const src = `// swift-tools-version:5.9
import PackageDescription

let extra = [
    .package(url: "https://github.com/apple/swift-log", from: "1.5.0"),
]

let package = Package(
    name: "Concat",
    dependencies: extra + [
        .package(url: "https://github.com/apple/swift-nio", from: "2.0.0"),
    ],
    targets: []
)
`
	s := newSession(t, src)

	err := s.AddPackageDependency("https://github.com/apple/swift-metrics",
		manifest.UpToNextMajorRequirement("2.4.0"))
	if err != nil {
		t.Fatalf("AddPackageDependency: %v", err)
	}

	want := strings.Replace(src,
		`        .package(url: "https://github.com/apple/swift-nio", from: "2.0.0"),
`,
		`        .package(url: "https://github.com/apple/swift-nio", from: "2.0.0"),
        .package(url: "https://github.com/apple/swift-metrics", from: "2.4.0"),
`, 1)
	assertText(t, s, want)
}

func TestIncompatibleArrayArgument(t *testing.T) {
	const src = `// swift-tools-version:5.9
import PackageDescription

let package = Package(
    name: "Opaque",
    dependencies: makeDependencies(),
    targets: []
)
`
	s := newSession(t, src)

	err := s.AddPackageDependency("https://example.com/dep.git",
		manifest.ExactRequirement("1.0.0"))
	ee := assertEditError(t, err, edit.Ambiguous)
	if ee.Code != diag.CodeEditArgumentIncompatible {
		t.Errorf("code = %s, want %s", ee.Code, diag.CodeEditArgumentIncompatible)
	}
	assertText(t, s, src)
}

func TestToolsVersionGate(t *testing.T) {
	const src = `// swift-tools-version:5.1
import PackageDescription

let package = Package(
    name: "Old",
    targets: []
)
`
	s := newSession(t, src)

	err := s.AddTarget(edit.TargetDescriptor{Name: "Core", Kind: manifest.TargetLibrary})
	ee := assertEditError(t, err, edit.Precondition)
	if ee.Code != diag.CodeEditToolsVersionTooOld {
		t.Errorf("code = %s, want %s", ee.Code, diag.CodeEditToolsVersionTooOld)
	}
	assertText(t, s, src)
}

func TestInterpolatedNamesNeverMatch(t *testing.T) {
	const src = `// swift-tools-version:5.9
import PackageDescription

let package = Package(
    name: "Dynamic",
    targets: [
        .target(name: "App\(suffix)"),
        .target(name: "Fixed"),
    ]
)
`
	s := newSession(t, src)

	// The interpolated entry is invisible to the semantic view.
	if len(s.Manifest().Targets) != 1 {
		t.Fatalf("got %d targets, want 1", len(s.Manifest().Targets))
	}

	err := s.AddTargetDependency(`App\(suffix)`, "Logging")
	assertEditError(t, err, edit.EntityNotFound)

	if err := s.AddTargetDependency("Fixed", "Logging"); err != nil {
		t.Fatalf("AddTargetDependency: %v", err)
	}
}

func TestSequentialOperationsCompose(t *testing.T) {
	s := newSession(t, sampleManifest)

	if err := s.AddPackageDependency("https://github.com/apple/swift-nio.git",
		manifest.UpToNextMajorRequirement("2.60.0")); err != nil {
		t.Fatalf("AddPackageDependency: %v", err)
	}
	if err := s.AddTarget(edit.TargetDescriptor{
		Name: "NIOSupport", Kind: manifest.TargetLibrary, Dependencies: []string{"NIO"},
	}); err != nil {
		t.Fatalf("AddTarget: %v", err)
	}
	if err := s.AddProduct(edit.ProductDescriptor{
		Name: "NIOSupport", Kind: manifest.ProductLibrary, Targets: []string{"NIOSupport"},
	}); err != nil {
		t.Fatalf("AddProduct: %v", err)
	}

	m := s.Manifest()
	if len(m.Dependencies) != 2 || len(m.Targets) != 3 || len(m.Products) != 1 {
		t.Errorf("manifest after edits: %d deps, %d targets, %d products",
			len(m.Dependencies), len(m.Targets), len(m.Products))
	}
	// Each edit's output must itself be loadable from scratch.
	if _, err := manifest.Load(s.Text(), "Package.swift"); err != nil {
		t.Errorf("final text does not load: %v", err)
	}
}
