package edit_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/manifedit/manifedit/internal/edit"
	"github.com/manifedit/manifedit/internal/manifest"
	"github.com/manifedit/manifedit/internal/pin"
)

type fakeResolver struct {
	tags     []string
	branches map[string]bool
}

func (f *fakeResolver) Tags(ctx context.Context, url string) ([]string, error) {
	return f.tags, nil
}

func (f *fakeResolver) HasBranch(ctx context.Context, url, name string) (bool, error) {
	return f.branches[name], nil
}

func writeManifest(t *testing.T, src string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "Package.swift")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestEditorResolvesAndPins(t *testing.T) {
	path := writeManifest(t, sampleManifest)
	pins, err := pin.Load(filepath.Join(filepath.Dir(path), "pins.json"))
	if err != nil {
		t.Fatalf("pin.Load: %v", err)
	}
	ed := &edit.Editor{
		Resolver: &fakeResolver{tags: []string{"2.60.0", "2.59.0"}},
		Pins:     pins,
	}

	err = ed.AddPackageDependency(context.Background(), path,
		"https://github.com/apple/swift-nio.git", nil)
	if err != nil {
		t.Fatalf("AddPackageDependency: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `.package(url: "https://github.com/apple/swift-nio.git", from: "2.60.0"),`) {
		t.Errorf("manifest on disk missing resolved dependency:\n%s", data)
	}

	p, ok := pins.Get("swift-nio")
	if !ok {
		t.Fatalf("no pin recorded for swift-nio")
	}
	if p.Requirement != "from(2.60.0)" {
		t.Errorf("pin requirement = %q, want from(2.60.0)", p.Requirement)
	}
}

func TestEditorLocalPathWithoutRequirement(t *testing.T) {
	path := writeManifest(t, sampleManifest)
	ed := &edit.Editor{}

	err := ed.AddPackageDependency(context.Background(), path, "../LocalKit", nil)
	if err != nil {
		t.Fatalf("AddPackageDependency: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `.package(path: "../LocalKit"),`) {
		t.Errorf("manifest on disk missing path dependency:\n%s", data)
	}
}

func TestEditorLeavesFileUntouchedOnFailure(t *testing.T) {
	path := writeManifest(t, sampleManifest)
	ed := &edit.Editor{}

	req := manifest.ExactRequirement("1.0.0")
	err := ed.AddPackageDependency(context.Background(), path,
		"https://github.com/apple/swift-log.git", &req)
	if err == nil {
		t.Fatalf("duplicate dependency should fail")
	}
	data, _ := os.ReadFile(path)
	if string(data) != sampleManifest {
		t.Errorf("file changed after failed operation")
	}
}

func TestEditorRemoteWithoutResolverFails(t *testing.T) {
	path := writeManifest(t, sampleManifest)
	ed := &edit.Editor{}

	err := ed.AddPackageDependency(context.Background(), path,
		"https://github.com/apple/swift-nio.git", nil)
	if err == nil {
		t.Fatalf("expected an error without a resolver")
	}
}

func TestEditorAddTargetWritesBack(t *testing.T) {
	path := writeManifest(t, sampleManifest)
	ed := &edit.Editor{}

	err := ed.AddTarget(path, edit.TargetDescriptor{
		Name: "Extra", Kind: manifest.TargetLibrary,
	})
	if err != nil {
		t.Fatalf("AddTarget: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `.target(name: "Extra"),`) {
		t.Errorf("manifest on disk missing new target:\n%s", data)
	}
}
