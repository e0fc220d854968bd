// Package known lists community rulesets from the upstream tracking issue.
package known

import (
	"bufio"
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/distantorigin/mode-manager/internal/github"
	"github.com/distantorigin/mode-manager/internal/ruleset"
)

// The ppy/osu issue where ruleset authors post their projects
const (
	IssueOwner  = "ppy"
	IssueRepo   = "osu"
	IssueNumber = 5852
)

var (
	// "URL: link", with optional markdown bold around the label or value
	urlLine = regexp.MustCompile(`^.*?\**URL\**\s?:\s?\**(?P<url>.+?)\**\s*$`)
	// [text](link)
	mdLink = regexp.MustCompile(`\]\((\S+?)\)`)
)

// CommentLister fetches the comments of an issue
type CommentLister interface {
	ListIssueComments(ctx context.Context, owner, repo string, number int) ([]github.IssueComment, error)
}

// Repo is a known ruleset repository
type Repo struct {
	Owner string
	Name  string
	// Comment links back to the post that announced it
	Comment string
}

func (r Repo) String() string { return r.Owner + "/" + r.Name }

// ExtractURL returns the value of the first "URL:" line in a comment body
func ExtractURL(body string) (string, bool) {
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		m := urlLine.FindStringSubmatch(strings.TrimRight(sc.Text(), "\r"))
		if m == nil {
			continue
		}
		value := strings.TrimSpace(m[urlLine.SubexpIndex("url")])
		if link := mdLink.FindStringSubmatch(value); link != nil {
			value = link[1]
		}
		return strings.Trim(value, "<>"), true
	}
	return "", false
}

// Parse turns issue comments into repositories, in posting order and without
// duplicates. Comments without a usable GitHub URL are skipped.
func Parse(comments []github.IssueComment, log *slog.Logger) []Repo {
	if log == nil {
		log = slog.Default()
	}

	seen := make(map[string]bool)
	var repos []Repo
	for _, c := range comments {
		raw, ok := ExtractURL(c.Body)
		if !ok {
			log.Debug("comment has no ruleset URL", "comment", c.ID)
			continue
		}
		owner, name, err := ruleset.ParseGitHubURL(raw)
		if err != nil {
			log.Debug("comment URL is not a GitHub repository", "comment", c.ID, "url", raw, "error", err)
			continue
		}
		key := strings.ToLower(owner + "/" + name)
		if seen[key] {
			continue
		}
		seen[key] = true
		repos = append(repos, Repo{Owner: owner, Name: name, Comment: c.HTMLURL})
	}
	return repos
}

// Fetch downloads the tracking issue's comments and parses them
func Fetch(ctx context.Context, client CommentLister, log *slog.Logger) ([]Repo, error) {
	comments, err := client.ListIssueComments(ctx, IssueOwner, IssueRepo, IssueNumber)
	if err != nil {
		return nil, err
	}
	return Parse(comments, log), nil
}
