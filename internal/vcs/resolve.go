package vcs

import (
	"context"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/manifedit/manifedit/internal/manifest"
)

// ResolveLatest picks a requirement for a repository with no explicit one:
// the highest non-prerelease semantic-version tag if any exist, else the
// highest tag of any kind, else the head of the primary branch, probing
// for "main" before falling back to "master".
func ResolveLatest(ctx context.Context, r TagResolver, url string) (manifest.Requirement, error) {
	tags, err := r.Tags(ctx, url)
	if err != nil {
		return manifest.Requirement{}, err
	}

	var bestStable, bestAny string
	for _, tag := range tags {
		v := tag
		if !strings.HasPrefix(v, "v") {
			v = "v" + v
		}
		if !semver.IsValid(v) {
			continue
		}
		if bestAny == "" || semver.Compare(v, canonical(bestAny)) > 0 {
			bestAny = tag
		}
		if semver.Prerelease(v) != "" {
			continue
		}
		if bestStable == "" || semver.Compare(v, canonical(bestStable)) > 0 {
			bestStable = tag
		}
	}
	if bestStable != "" {
		return manifest.UpToNextMajorRequirement(strings.TrimPrefix(bestStable, "v")), nil
	}
	if bestAny != "" {
		return manifest.UpToNextMajorRequirement(strings.TrimPrefix(bestAny, "v")), nil
	}

	ok, err := r.HasBranch(ctx, url, "main")
	if err != nil {
		return manifest.Requirement{}, err
	}
	if ok {
		return manifest.BranchRequirement("main"), nil
	}
	return manifest.BranchRequirement("master"), nil
}

func canonical(tag string) string {
	if strings.HasPrefix(tag, "v") {
		return tag
	}
	return "v" + tag
}
