package vcs_test

import (
	"context"
	"testing"

	"github.com/manifedit/manifedit/internal/manifest"
	"github.com/manifedit/manifedit/internal/vcs"
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

func TestResolveLatestPrefersStableTags(t *testing.T) {
	r := &fakeResolver{tags: []string{"1.0.0", "2.1.0", "2.2.0-beta.1", "0.9.0"}}

	req, err := vcs.ResolveLatest(context.Background(), r, "https://example.com/repo.git")
	if err != nil {
		t.Fatalf("ResolveLatest: %v", err)
	}
	if want := manifest.UpToNextMajorRequirement("2.1.0"); req != want {
		t.Errorf("requirement = %v, want %v", req, want)
	}
}

func TestResolveLatestAcceptsVPrefixedTags(t *testing.T) {
	r := &fakeResolver{tags: []string{"v1.2.3", "v1.10.0", "v1.9.9"}}

	req, err := vcs.ResolveLatest(context.Background(), r, "https://example.com/repo.git")
	if err != nil {
		t.Fatalf("ResolveLatest: %v", err)
	}
	if want := manifest.UpToNextMajorRequirement("1.10.0"); req != want {
		t.Errorf("requirement = %v, want %v", req, want)
	}
}

func TestResolveLatestFallsBackToPrereleases(t *testing.T) {
	r := &fakeResolver{tags: []string{"1.0.0-alpha.1", "1.0.0-beta.2"}}

	req, err := vcs.ResolveLatest(context.Background(), r, "https://example.com/repo.git")
	if err != nil {
		t.Fatalf("ResolveLatest: %v", err)
	}
	if want := manifest.UpToNextMajorRequirement("1.0.0-beta.2"); req != want {
		t.Errorf("requirement = %v, want %v", req, want)
	}
}

func TestResolveLatestProbesPrimaryBranch(t *testing.T) {
	r := &fakeResolver{branches: map[string]bool{"main": true}}
	req, err := vcs.ResolveLatest(context.Background(), r, "https://example.com/repo.git")
	if err != nil {
		t.Fatalf("ResolveLatest: %v", err)
	}
	if want := manifest.BranchRequirement("main"); req != want {
		t.Errorf("requirement = %v, want %v", req, want)
	}

	r = &fakeResolver{tags: []string{"not-a-version"}, branches: map[string]bool{}}
	req, err = vcs.ResolveLatest(context.Background(), r, "https://example.com/repo.git")
	if err != nil {
		t.Fatalf("ResolveLatest: %v", err)
	}
	if want := manifest.BranchRequirement("master"); req != want {
		t.Errorf("requirement = %v, want %v", req, want)
	}
}
