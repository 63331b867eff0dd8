// Package vcs resolves version information for remote git repositories. It
// is consulted only when a dependency is added without an explicit
// requirement; the edit engine itself never touches the network.
package vcs

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// TagResolver looks up remote repository metadata.
type TagResolver interface {
	// Tags returns the tag names of the repository, unordered.
	Tags(ctx context.Context, url string) ([]string, error)
	// HasBranch reports whether the repository has a branch with the name.
	HasBranch(ctx context.Context, url, name string) (bool, error)
}

// GitResolver implements TagResolver by shelling out to git ls-remote.
type GitResolver struct {
	// GitPath overrides the git executable; empty means "git" from PATH.
	GitPath string
}

func (g *GitResolver) git() string {
	if g.GitPath != "" {
		return g.GitPath
	}
	return "git"
}

func (g *GitResolver) Tags(ctx context.Context, url string) ([]string, error) {
	out, err := exec.CommandContext(ctx, g.git(), "ls-remote", "--tags", url).Output()
	if err != nil {
		return nil, fmt.Errorf("listing tags of %s: %w", url, err)
	}
	var tags []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(string(out), "\n") {
		_, ref, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		name, ok := strings.CutPrefix(ref, "refs/tags/")
		if !ok {
			continue
		}
		// Annotated tags appear twice, once with a ^{} suffix.
		name = strings.TrimSuffix(name, "^{}")
		if !seen[name] {
			seen[name] = true
			tags = append(tags, name)
		}
	}
	return tags, nil
}

func (g *GitResolver) HasBranch(ctx context.Context, url, name string) (bool, error) {
	out, err := exec.CommandContext(ctx, g.git(), "ls-remote", "--heads", url, "refs/heads/"+name).Output()
	if err != nil {
		return false, fmt.Errorf("probing branch %s of %s: %w", name, url, err)
	}
	return strings.TrimSpace(string(out)) != "", nil
}
