// Package pin persists the requirement chosen for each added dependency,
// keyed by package identity. The store is a plain JSON file next to the
// manifest; it is bookkeeping for later inspection, not an input to the
// edit engine.
package pin

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

const storeVersion = 1

// Pin records one resolved dependency.
type Pin struct {
	Identity    string `json:"identity"`
	Location    string `json:"location"`
	Requirement string `json:"requirement"`
}

type storeFile struct {
	Version int   `json:"version"`
	Pins    []Pin `json:"pins"`
}

// Store is a keyed pin collection bound to a file path. It is not safe for
// concurrent use.
type Store struct {
	path string
	pins map[string]Pin
}

// Load reads the store at path. A missing file yields an empty store bound
// to that path.
func Load(path string) (*Store, error) {
	s := &Store{path: path, pins: make(map[string]Pin)}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	var f storeFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("reading pin store %s: %w", path, err)
	}
	if f.Version != storeVersion {
		return nil, fmt.Errorf("pin store %s has unsupported version %d", path, f.Version)
	}
	for _, p := range f.Pins {
		s.pins[p.Identity] = p
	}
	return s, nil
}

// Set records a pin, replacing any existing one with the same identity.
func (s *Store) Set(p Pin) {
	s.pins[p.Identity] = p
}

// Get returns the pin for an identity.
func (s *Store) Get(identity string) (Pin, bool) {
	p, ok := s.pins[identity]
	return p, ok
}

// All returns every pin ordered by identity.
func (s *Store) All() []Pin {
	out := make([]Pin, 0, len(s.pins))
	for _, p := range s.pins {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out
}

// Save writes the store back to its path. The write goes through a
// temporary file and rename so a crash never leaves a half-written store.
func (s *Store) Save() error {
	f := storeFile{Version: storeVersion, Pins: s.All()}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
