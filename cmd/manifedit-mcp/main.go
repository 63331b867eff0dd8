// manifedit-mcp exposes the manifest edit operations as MCP tools so code
// agents can modify package manifests without rewriting whole files. It
// speaks stdio by default and HTTP when --addr is given.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/manifedit/manifedit/internal/edit"
	"github.com/manifedit/manifedit/internal/manifest"
	"github.com/manifedit/manifedit/internal/vcs"
)

const serverName = "manifedit-mcp"

var version = "dev"

var (
	showVersion = flag.Bool("version", false, "Print version information and exit")
	addr        = flag.String("addr", "", "Address to listen on (e.g., localhost:8080); empty means stdio")
	logfile     = flag.String("logfile", "", "Path to log file for debugging (stdio mode logs are otherwise discarded)")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s version %s\n", serverName, version)
		return
	}

	// In stdio mode stdout belongs to the protocol; logs go to a file or
	// nowhere.
	switch {
	case *addr != "":
		log.SetOutput(os.Stdout)
	case *logfile != "":
		f, err := os.OpenFile(*logfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.SetOutput(io.Discard)
		} else {
			log.SetOutput(f)
		}
	default:
		log.SetOutput(io.Discard)
	}

	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil)
	registerTools(server)

	if *addr != "" {
		handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
			return server
		}, &mcp.StreamableHTTPOptions{JSONResponse: true})
		http.Handle("/", handler)
		log.Printf("[%s] listening on %s", serverName, *addr)
		if err := http.ListenAndServe(*addr, nil); err != nil {
			log.Fatalf("[%s] HTTP server failed: %v", serverName, err)
		}
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(context.Background(), &mcp.StdioTransport{})
	}()

	select {
	case err := <-serverErrCh:
		if err != nil {
			fmt.Fprintf(os.Stderr, "[%s] server ended: %v\n", serverName, err)
		}
	case sig := <-sigCh:
		fmt.Fprintf(os.Stderr, "[%s] received signal: %v\n", serverName, sig)
	}
}

type addDependencyParams struct {
	ManifestPath  string `json:"manifest_path" jsonschema:"path to the manifest file to edit"`
	Location      string `json:"location" jsonschema:"repository URL or local path of the dependency"`
	Exact         string `json:"exact,omitempty" jsonschema:"require exactly this version"`
	From          string `json:"from,omitempty" jsonschema:"require this version up to the next major"`
	UpToNextMinor string `json:"up_to_next_minor,omitempty" jsonschema:"require this version up to the next minor"`
	Branch        string `json:"branch,omitempty" jsonschema:"follow this branch"`
	Revision      string `json:"revision,omitempty" jsonschema:"pin to this commit"`
	RangeLower    string `json:"range_lower,omitempty" jsonschema:"lower bound of a version range (inclusive)"`
	RangeUpper    string `json:"range_upper,omitempty" jsonschema:"upper bound of a version range (exclusive unless range_closed)"`
	RangeClosed   bool   `json:"range_closed,omitempty" jsonschema:"treat the upper bound as inclusive"`
}

type addTargetParams struct {
	ManifestPath string   `json:"manifest_path" jsonschema:"path to the manifest file to edit"`
	Name         string   `json:"name" jsonschema:"name of the new target"`
	Type         string   `json:"type,omitempty" jsonschema:"target type: library (default), executable or test"`
	Dependencies []string `json:"dependencies,omitempty" jsonschema:"dependency names of the new target"`
}

type addBinaryTargetParams struct {
	ManifestPath string `json:"manifest_path" jsonschema:"path to the manifest file to edit"`
	Name         string `json:"name" jsonschema:"name of the new binary target"`
	Location     string `json:"location" jsonschema:"artifact URL or local path"`
	Checksum     string `json:"checksum,omitempty" jsonschema:"artifact checksum, required for remote locations"`
}

type addTargetDependencyParams struct {
	ManifestPath string `json:"manifest_path" jsonschema:"path to the manifest file to edit"`
	Target       string `json:"target" jsonschema:"name of the existing target"`
	Dependency   string `json:"dependency" jsonschema:"dependency name to add to the target"`
}

type addProductParams struct {
	ManifestPath string   `json:"manifest_path" jsonschema:"path to the manifest file to edit"`
	Name         string   `json:"name" jsonschema:"name of the new product"`
	Type         string   `json:"type,omitempty" jsonschema:"product type: library (default) or executable"`
	Linkage      string   `json:"linkage,omitempty" jsonschema:"library linkage: static or dynamic (default automatic)"`
	Targets      []string `json:"targets,omitempty" jsonschema:"target names the product vends"`
}

type addProductTargetParams struct {
	ManifestPath string `json:"manifest_path" jsonschema:"path to the manifest file to edit"`
	Product      string `json:"product" jsonschema:"name of the existing product"`
	Target       string `json:"target" jsonschema:"target name to add to the product"`
}

type checkParams struct {
	ManifestPath string `json:"manifest_path" jsonschema:"path to the manifest file to inspect"`
}

type editResult struct {
	Message string `json:"message" jsonschema:"human-readable outcome"`
}

type checkResult struct {
	Name         string `json:"name" jsonschema:"package name"`
	ToolsVersion string `json:"tools_version" jsonschema:"declared tools version"`
	Dependencies int    `json:"dependencies" jsonschema:"number of dependencies"`
	Targets      int    `json:"targets" jsonschema:"number of targets"`
	Products     int    `json:"products" jsonschema:"number of products"`
}

func registerTools(server *mcp.Server) {
	newEditor := func() *edit.Editor {
		return &edit.Editor{Resolver: &vcs.GitResolver{}}
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "manifest_add_dependency",
		Description: "Add a package dependency to a manifest. Give at most one requirement; with none, the latest tagged version is resolved from the repository.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in addDependencyParams) (*mcp.CallToolResult, editResult, error) {
		r, err := requirementFromParams(in)
		if err != nil {
			return nil, editResult{}, err
		}
		if err := newEditor().AddPackageDependency(ctx, in.ManifestPath, in.Location, r); err != nil {
			return nil, editResult{}, err
		}
		return nil, editResult{Message: fmt.Sprintf("added dependency on %s", in.Location)}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "manifest_add_target",
		Description: "Add a library, executable or test target to a manifest.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in addTargetParams) (*mcp.CallToolResult, editResult, error) {
		kind, err := targetKind(in.Type)
		if err != nil {
			return nil, editResult{}, err
		}
		desc := edit.TargetDescriptor{Name: in.Name, Kind: kind, Dependencies: in.Dependencies}
		if err := newEditor().AddTarget(in.ManifestPath, desc); err != nil {
			return nil, editResult{}, err
		}
		return nil, editResult{Message: fmt.Sprintf("added target %s", in.Name)}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "manifest_add_binary_target",
		Description: "Add a binary target to a manifest. Remote locations require a checksum; local paths must not have one.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in addBinaryTargetParams) (*mcp.CallToolResult, editResult, error) {
		if err := newEditor().AddBinaryTarget(in.ManifestPath, in.Name, in.Location, in.Checksum); err != nil {
			return nil, editResult{}, err
		}
		return nil, editResult{Message: fmt.Sprintf("added binary target %s", in.Name)}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "manifest_add_target_dependency",
		Description: "Add a dependency name to an existing target's dependencies array.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in addTargetDependencyParams) (*mcp.CallToolResult, editResult, error) {
		if err := newEditor().AddTargetDependency(in.ManifestPath, in.Target, in.Dependency); err != nil {
			return nil, editResult{}, err
		}
		return nil, editResult{Message: fmt.Sprintf("added %s to target %s", in.Dependency, in.Target)}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "manifest_add_product",
		Description: "Add a library or executable product to a manifest.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in addProductParams) (*mcp.CallToolResult, editResult, error) {
		desc, err := productDescriptor(in)
		if err != nil {
			return nil, editResult{}, err
		}
		if err := newEditor().AddProduct(in.ManifestPath, desc); err != nil {
			return nil, editResult{}, err
		}
		return nil, editResult{Message: fmt.Sprintf("added product %s", in.Name)}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "manifest_add_product_target",
		Description: "Add a target name to an existing product's targets array.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in addProductTargetParams) (*mcp.CallToolResult, editResult, error) {
		if err := newEditor().AddProductTarget(in.ManifestPath, in.Product, in.Target); err != nil {
			return nil, editResult{}, err
		}
		return nil, editResult{Message: fmt.Sprintf("added %s to product %s", in.Target, in.Product)}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "manifest_check",
		Description: "Load a manifest and report its package name, tools version and entity counts without editing anything.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in checkParams) (*mcp.CallToolResult, checkResult, error) {
		data, err := os.ReadFile(in.ManifestPath)
		if err != nil {
			return nil, checkResult{}, err
		}
		m, err := manifest.Load(string(data), in.ManifestPath)
		if err != nil {
			return nil, checkResult{}, err
		}
		return nil, checkResult{
			Name:         m.Name,
			ToolsVersion: m.ToolsVersion.String(),
			Dependencies: len(m.Dependencies),
			Targets:      len(m.Targets),
			Products:     len(m.Products),
		}, nil
	})
}

func requirementFromParams(in addDependencyParams) (*manifest.Requirement, error) {
	var reqs []manifest.Requirement
	if in.Exact != "" {
		reqs = append(reqs, manifest.ExactRequirement(in.Exact))
	}
	if in.From != "" {
		reqs = append(reqs, manifest.UpToNextMajorRequirement(in.From))
	}
	if in.UpToNextMinor != "" {
		reqs = append(reqs, manifest.UpToNextMinorRequirement(in.UpToNextMinor))
	}
	if in.Branch != "" {
		reqs = append(reqs, manifest.BranchRequirement(in.Branch))
	}
	if in.Revision != "" {
		reqs = append(reqs, manifest.RevisionRequirement(in.Revision))
	}
	if in.RangeLower != "" || in.RangeUpper != "" {
		if in.RangeLower == "" || in.RangeUpper == "" {
			return nil, fmt.Errorf("a version range needs both range_lower and range_upper")
		}
		if in.RangeClosed {
			reqs = append(reqs, manifest.ClosedRangeRequirement(in.RangeLower, in.RangeUpper))
		} else {
			reqs = append(reqs, manifest.RangeRequirement(in.RangeLower, in.RangeUpper))
		}
	}
	switch len(reqs) {
	case 0:
		return nil, nil
	case 1:
		return &reqs[0], nil
	default:
		return nil, fmt.Errorf("give at most one version requirement")
	}
}

func targetKind(s string) (manifest.TargetKind, error) {
	switch s {
	case "", "library":
		return manifest.TargetLibrary, nil
	case "executable":
		return manifest.TargetExecutable, nil
	case "test":
		return manifest.TargetTest, nil
	default:
		return 0, fmt.Errorf("unknown target type %q", s)
	}
}

func productDescriptor(in addProductParams) (edit.ProductDescriptor, error) {
	desc := edit.ProductDescriptor{Name: in.Name, Targets: in.Targets}
	switch in.Type {
	case "", "library":
		desc.Kind = manifest.ProductLibrary
	case "executable":
		desc.Kind = manifest.ProductExecutable
	default:
		return desc, fmt.Errorf("unknown product type %q", in.Type)
	}
	switch in.Linkage {
	case "":
		desc.Linkage = manifest.LinkageAutomatic
	case "static":
		desc.Linkage = manifest.LinkageStatic
	case "dynamic":
		desc.Linkage = manifest.LinkageDynamic
	default:
		return desc, fmt.Errorf("unknown linkage %q", in.Linkage)
	}
	return desc, nil
}
