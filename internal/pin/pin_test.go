package pin_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/manifedit/manifedit/internal/pin"
)

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pins.json")

	s, err := pin.Load(path)
	if err != nil {
		t.Fatalf("Load of missing file: %v", err)
	}
	s.Set(pin.Pin{Identity: "swift-nio", Location: "https://github.com/apple/swift-nio.git", Requirement: "from(2.60.0)"})
	s.Set(pin.Pin{Identity: "swift-log", Location: "https://github.com/apple/swift-log.git", Requirement: "exact(1.5.3)"})
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := pin.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, ok := reloaded.Get("swift-nio")
	if !ok {
		t.Fatalf("swift-nio pin missing after reload")
	}
	if p.Requirement != "from(2.60.0)" {
		t.Errorf("requirement = %q, want from(2.60.0)", p.Requirement)
	}
	all := reloaded.All()
	if len(all) != 2 || all[0].Identity != "swift-log" || all[1].Identity != "swift-nio" {
		t.Errorf("All() = %v", all)
	}
}

func TestStoreOverwritesByIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pins.json")

	s, err := pin.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s.Set(pin.Pin{Identity: "dep", Requirement: "from(1.0.0)"})
	s.Set(pin.Pin{Identity: "dep", Requirement: "from(2.0.0)"})
	if len(s.All()) != 1 {
		t.Fatalf("expected one pin, got %d", len(s.All()))
	}
	if p, _ := s.Get("dep"); p.Requirement != "from(2.0.0)" {
		t.Errorf("requirement = %q, want from(2.0.0)", p.Requirement)
	}
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pins.json")
	if err := os.WriteFile(path, []byte(`{"version": 99, "pins": []}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := pin.Load(path); err == nil {
		t.Fatalf("Load accepted an unsupported store version")
	}
}
