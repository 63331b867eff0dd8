package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/manifedit/manifedit/internal/diag"
	"github.com/manifedit/manifedit/internal/edit"
	"github.com/manifedit/manifedit/internal/manifest"
	"github.com/manifedit/manifedit/internal/pin"
	"github.com/manifedit/manifedit/internal/vcs"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: manifedit <command> [options]\n")
		fmt.Fprintf(os.Stderr, "\nCommands:\n")
		fmt.Fprintf(os.Stderr, "  add-dependency <manifest> <url-or-path>      Add a package dependency\n")
		fmt.Fprintf(os.Stderr, "  add-target <manifest> <name>                 Add a target\n")
		fmt.Fprintf(os.Stderr, "  add-binary-target <manifest> <name> <loc>    Add a binary target\n")
		fmt.Fprintf(os.Stderr, "  add-target-dependency <manifest> <tgt> <dep> Add a dependency to a target\n")
		fmt.Fprintf(os.Stderr, "  add-product <manifest> <name>                Add a product\n")
		fmt.Fprintf(os.Stderr, "  add-product-target <manifest> <prod> <tgt>   Add a target to a product\n")
		fmt.Fprintf(os.Stderr, "  check <manifest>                             Load a manifest and report problems\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "add-dependency":
		runAddDependency(args)
	case "add-target":
		runAddTarget(args)
	case "add-binary-target":
		runAddBinaryTarget(args)
	case "add-target-dependency":
		runAddTargetDependency(args)
	case "add-product":
		runAddProduct(args)
	case "add-product-target":
		runAddProductTarget(args)
	case "check":
		runCheck(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func runAddDependency(args []string) {
	fs := flag.NewFlagSet("add-dependency", flag.ExitOnError)
	exact := fs.String("exact", "", "require exactly this version")
	from := fs.String("from", "", "require this version up to the next major")
	upToNextMinor := fs.String("up-to-next-minor", "", "require this version up to the next minor")
	branch := fs.String("branch", "", "follow this branch")
	revision := fs.String("revision", "", "pin to this commit")
	rangeSpec := fs.String("range", "", `version range, "LO..<HI" or "LO...HI"`)
	pinsPath := fs.String("pins", "", "record the chosen requirement in this pin file")
	fs.Parse(args)

	if fs.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "Usage: manifedit add-dependency <manifest> <url-or-path> [options]\n")
		os.Exit(1)
	}
	path, location := fs.Arg(0), fs.Arg(1)

	req, err := requirementFromFlags(*exact, *from, *upToNextMinor, *branch, *revision, *rangeSpec)
	if err != nil {
		fatal(path, err)
	}

	ed := &edit.Editor{Resolver: &vcs.GitResolver{}}
	if *pinsPath != "" {
		pins, err := pin.Load(*pinsPath)
		if err != nil {
			fatal(path, err)
		}
		ed.Pins = pins
	}
	if err := ed.AddPackageDependency(context.Background(), path, location, req); err != nil {
		fatal(path, err)
	}
}

// requirementFromFlags maps the mutually exclusive requirement flags to a
// requirement value; nil means "resolve the latest version".
func requirementFromFlags(exact, from, upToNextMinor, branch, revision, rangeSpec string) (*manifest.Requirement, error) {
	var reqs []manifest.Requirement
	if exact != "" {
		reqs = append(reqs, manifest.ExactRequirement(exact))
	}
	if from != "" {
		reqs = append(reqs, manifest.UpToNextMajorRequirement(from))
	}
	if upToNextMinor != "" {
		reqs = append(reqs, manifest.UpToNextMinorRequirement(upToNextMinor))
	}
	if branch != "" {
		reqs = append(reqs, manifest.BranchRequirement(branch))
	}
	if revision != "" {
		reqs = append(reqs, manifest.RevisionRequirement(revision))
	}
	if rangeSpec != "" {
		if lo, hi, ok := strings.Cut(rangeSpec, "..<"); ok {
			reqs = append(reqs, manifest.RangeRequirement(lo, hi))
		} else if lo, hi, ok := strings.Cut(rangeSpec, "..."); ok {
			reqs = append(reqs, manifest.ClosedRangeRequirement(lo, hi))
		} else {
			return nil, fmt.Errorf("range %q must use LO..<HI or LO...HI", rangeSpec)
		}
	}
	switch len(reqs) {
	case 0:
		return nil, nil
	case 1:
		return &reqs[0], nil
	default:
		return nil, errors.New("at most one requirement flag may be given")
	}
}

func runAddTarget(args []string) {
	fs := flag.NewFlagSet("add-target", flag.ExitOnError)
	kind := fs.String("type", "library", "target type: library, executable or test")
	deps := fs.String("dependencies", "", "comma-separated dependency names")
	fs.Parse(args)

	if fs.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "Usage: manifedit add-target <manifest> <name> [options]\n")
		os.Exit(1)
	}
	path, name := fs.Arg(0), fs.Arg(1)

	desc := edit.TargetDescriptor{Name: name, Dependencies: splitList(*deps)}
	switch *kind {
	case "library":
		desc.Kind = manifest.TargetLibrary
	case "executable":
		desc.Kind = manifest.TargetExecutable
	case "test":
		desc.Kind = manifest.TargetTest
	default:
		fmt.Fprintf(os.Stderr, "Unknown target type: %s\n", *kind)
		os.Exit(1)
	}

	ed := &edit.Editor{}
	if err := ed.AddTarget(path, desc); err != nil {
		fatal(path, err)
	}
}

func runAddBinaryTarget(args []string) {
	fs := flag.NewFlagSet("add-binary-target", flag.ExitOnError)
	checksum := fs.String("checksum", "", "checksum of the remote artifact")
	fs.Parse(args)

	if fs.NArg() != 3 {
		fmt.Fprintf(os.Stderr, "Usage: manifedit add-binary-target <manifest> <name> <url-or-path> [options]\n")
		os.Exit(1)
	}
	path, name, location := fs.Arg(0), fs.Arg(1), fs.Arg(2)

	ed := &edit.Editor{}
	if err := ed.AddBinaryTarget(path, name, location, *checksum); err != nil {
		fatal(path, err)
	}
}

func runAddTargetDependency(args []string) {
	if len(args) != 3 {
		fmt.Fprintf(os.Stderr, "Usage: manifedit add-target-dependency <manifest> <target> <dependency>\n")
		os.Exit(1)
	}
	ed := &edit.Editor{}
	if err := ed.AddTargetDependency(args[0], args[1], args[2]); err != nil {
		fatal(args[0], err)
	}
}

func runAddProduct(args []string) {
	fs := flag.NewFlagSet("add-product", flag.ExitOnError)
	kind := fs.String("type", "library", "product type: library or executable")
	linkage := fs.String("linkage", "", "library linkage: static or dynamic")
	targets := fs.String("targets", "", "comma-separated target names")
	fs.Parse(args)

	if fs.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "Usage: manifedit add-product <manifest> <name> [options]\n")
		os.Exit(1)
	}
	path, name := fs.Arg(0), fs.Arg(1)

	desc := edit.ProductDescriptor{Name: name, Targets: splitList(*targets)}
	switch *kind {
	case "library":
		desc.Kind = manifest.ProductLibrary
	case "executable":
		desc.Kind = manifest.ProductExecutable
	default:
		fmt.Fprintf(os.Stderr, "Unknown product type: %s\n", *kind)
		os.Exit(1)
	}
	switch *linkage {
	case "":
		desc.Linkage = manifest.LinkageAutomatic
	case "static":
		desc.Linkage = manifest.LinkageStatic
	case "dynamic":
		desc.Linkage = manifest.LinkageDynamic
	default:
		fmt.Fprintf(os.Stderr, "Unknown linkage: %s\n", *linkage)
		os.Exit(1)
	}

	ed := &edit.Editor{}
	if err := ed.AddProduct(path, desc); err != nil {
		fatal(path, err)
	}
}

func runAddProductTarget(args []string) {
	if len(args) != 3 {
		fmt.Fprintf(os.Stderr, "Usage: manifedit add-product-target <manifest> <product> <target>\n")
		os.Exit(1)
	}
	ed := &edit.Editor{}
	if err := ed.AddProductTarget(args[0], args[1], args[2]); err != nil {
		fatal(args[0], err)
	}
}

func runCheck(args []string) {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "Usage: manifedit check <manifest>\n")
		os.Exit(1)
	}
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	m, err := manifest.Load(string(data), path)
	if err != nil {
		fatal(path, err)
	}
	fmt.Printf("%s: package %q, %d dependencies, %d targets, %d products (tools %s)\n",
		path, m.Name, len(m.Dependencies), len(m.Targets), len(m.Products), m.ToolsVersion)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// fatal reports an error and exits. Structured diagnostics are rendered
// with source context; anything else prints as a plain message.
func fatal(manifestPath string, err error) {
	f := diag.NewFormatter()
	if data, readErr := os.ReadFile(manifestPath); readErr == nil {
		f.AddSource(manifestPath, string(data))
	}

	var ee *edit.Error
	var le *manifest.LoadError
	switch {
	case errors.As(err, &ee):
		f.Format(ee.ToDiagnostic())
	case errors.As(err, &le):
		f.Format(le.ToDiagnostic())
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}
