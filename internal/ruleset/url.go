package ruleset

import (
	"fmt"
	"strings"
)

// ParseGitHubURL extracts owner and repo from a repository link.
// Accepted forms include "https://github.com/owner/repo/releases",
// "github.com/owner/repo" and plain "owner/repo".
func ParseGitHubURL(s string) (owner, repo string, err error) {
	rest := strings.TrimSpace(s)
	if idx := strings.Index(rest, "://"); idx >= 0 {
		rest = rest[idx+3:]
	}

	// Drop a host segment ("github.com/") if the first part looks like one
	if idx := strings.Index(rest, "/"); idx > 0 && strings.Contains(rest[:idx], ".") {
		rest = rest[idx+1:]
	}

	var parts []string
	for _, p := range strings.Split(rest, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return "", "", fmt.Errorf("not a repository link: %q", s)
	}

	owner = parts[0]
	repo = strings.TrimSuffix(parts[1], ".git")
	if i := strings.IndexAny(repo, "?#"); i >= 0 {
		repo = repo[:i]
	}
	if owner == "" || repo == "" {
		return "", "", fmt.Errorf("not a repository link: %q", s)
	}
	return owner, repo, nil
}

// URL returns the web link for a record's repository
func (r Record) URL() string {
	return fmt.Sprintf("https://github.com/%s/%s/", r.Owner, r.Repo)
}
