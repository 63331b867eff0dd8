package manifest

import "strings"

// PackageIdentity derives the canonical identity of a dependency from its
// location: the last path component, stripped of a trailing ".git" suffix
// and lowercased. Both URL forms ("https://host/org/repo.git") and scp-like
// git locations ("git@host:org/repo.git") reduce the same way.
func PackageIdentity(location string) string {
	s := strings.TrimRight(location, "/")
	if idx := strings.LastIndexByte(s, '/'); idx >= 0 {
		s = s[idx+1:]
	}
	if idx := strings.LastIndexByte(s, ':'); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(s, ".git")
	return strings.ToLower(s)
}
