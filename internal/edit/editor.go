package edit

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/manifedit/manifedit/internal/manifest"
	"github.com/manifedit/manifedit/internal/pin"
	"github.com/manifedit/manifedit/internal/vcs"
)

// Editor wires the edit session to its surroundings: reading and writing
// the manifest file, resolving a version when the caller gave none, and
// recording pins. All blocking work happens here, strictly before or after
// the session operation, never inside it. The file is rewritten only after
// an operation commits.
type Editor struct {
	// Resolver supplies version information for add-dependency requests
	// without an explicit requirement. Nil makes such requests an error.
	Resolver vcs.TagResolver
	// Pins, when non-nil, records the requirement chosen for every added
	// dependency.
	Pins *pin.Store
}

// AddPackageDependency adds a dependency on location to the manifest at
// path. When req is nil, a remote location is resolved through the
// Resolver and a local one becomes a path dependency.
func (e *Editor) AddPackageDependency(ctx context.Context, path, location string, req *manifest.Requirement) error {
	var r manifest.Requirement
	switch {
	case req != nil:
		r = *req
	case !isRemoteLocation(location):
		r = manifest.LocalPathRequirement()
	case e.Resolver == nil:
		return fmt.Errorf("no version requirement given for %s and no resolver configured", location)
	default:
		var err error
		r, err = vcs.ResolveLatest(ctx, e.Resolver, location)
		if err != nil {
			return fmt.Errorf("resolving a version for %s: %w", location, err)
		}
	}

	err := e.edit(path, func(s *Session) error {
		return s.AddPackageDependency(location, r)
	})
	if err != nil {
		return err
	}

	if e.Pins != nil {
		e.Pins.Set(pin.Pin{
			Identity:    manifest.PackageIdentity(location),
			Location:    location,
			Requirement: r.String(),
		})
		if err := e.Pins.Save(); err != nil {
			return fmt.Errorf("recording pin: %w", err)
		}
	}
	return nil
}

// AddTarget adds a regular target to the manifest at path.
func (e *Editor) AddTarget(path string, desc TargetDescriptor) error {
	return e.edit(path, func(s *Session) error {
		return s.AddTarget(desc)
	})
}

// AddBinaryTarget adds a binary target to the manifest at path.
func (e *Editor) AddBinaryTarget(path, name, location, checksum string) error {
	return e.edit(path, func(s *Session) error {
		return s.AddBinaryTarget(name, location, checksum)
	})
}

// AddTargetDependency adds a dependency name to an existing target.
func (e *Editor) AddTargetDependency(path, targetName, dependencyName string) error {
	return e.edit(path, func(s *Session) error {
		return s.AddTargetDependency(targetName, dependencyName)
	})
}

// AddProduct adds a product to the manifest at path.
func (e *Editor) AddProduct(path string, desc ProductDescriptor) error {
	return e.edit(path, func(s *Session) error {
		return s.AddProduct(desc)
	})
}

// AddProductTarget adds a target name to an existing product.
func (e *Editor) AddProductTarget(path, productName, targetName string) error {
	return e.edit(path, func(s *Session) error {
		return s.AddProductTarget(productName, targetName)
	})
}

// edit runs one session operation against the file at path and writes the
// result back with the file's original permissions.
func (e *Editor) edit(path string, op func(*Session) error) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	s, err := NewSession(string(data), path)
	if err != nil {
		return err
	}
	if err := op(s); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s.Text()), mode)
}
