// Package resolver decides whether an installed ruleset is current by
// comparing its recorded tag with the repository's release list.
package resolver

import (
	"context"
	"log/slog"
	"strings"

	"github.com/distantorigin/mode-manager/internal/github"
	"github.com/distantorigin/mode-manager/internal/paths"
	"github.com/distantorigin/mode-manager/internal/ruleset"
)

// ReleaseLister returns a repository's releases, newest first
type ReleaseLister interface {
	ListReleases(ctx context.Context, owner, repo string) ([]github.Release, error)
}

// Classify computes a record's status from a release list and a file probe.
// The first release is taken as the latest; no version ordering is applied.
// A nil hasFile means the install folder is unknown and the file check is skipped.
func Classify(rec ruleset.Record, releases []github.Release, hasFile func(name string) bool) (ruleset.Status, *github.Release) {
	if len(releases) == 0 {
		return ruleset.Unchecked, nil
	}
	latest := &releases[0]

	current := findTag(releases, rec.Tag)
	if current == nil || !strings.EqualFold(latest.TagName, current.TagName) {
		return ruleset.UpdateRequired, latest
	}

	if hasFile != nil && !hasFile(rec.FileName) {
		return ruleset.FileMissing, latest
	}
	return ruleset.UpToDate, latest
}

func findTag(releases []github.Release, tag string) *github.Release {
	for i := range releases {
		if strings.EqualFold(releases[i].TagName, tag) {
			return &releases[i]
		}
	}
	return nil
}

// Resolver fetches release lists and classifies records
type Resolver struct {
	Lister ReleaseLister
	Logger *slog.Logger
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Resolve returns the status of rec and the latest release, if any.
// Lookup failures are logged and resolve to Unchecked; they are never returned.
func (r *Resolver) Resolve(ctx context.Context, rec ruleset.Record, installDir string) (ruleset.Status, *github.Release) {
	log := r.logger().With("ruleset", rec.Slug())

	releases, err := r.Lister.ListReleases(ctx, rec.Owner, rec.Repo)
	if err != nil {
		log.Warn("release lookup failed", "error", err)
		releases = nil
	}

	status, latest := Classify(rec, releases, paths.FileProbe(installDir))
	attrs := []any{"installed", rec.Tag, "status", status}
	if latest != nil {
		attrs = append(attrs, "latest", latest.TagName)
	}
	log.Debug("resolved", attrs...)
	return status, latest
}

// Resolution is the outcome for one record of a ResolveAll pass
type Resolution struct {
	Index  int
	Status ruleset.Status
	Latest *github.Release
}

// ResolveAll resolves every record in order. Once ctx is done the remaining
// records are reported Unchecked without further lookups.
func (r *Resolver) ResolveAll(ctx context.Context, records []ruleset.Record, installDir string) []Resolution {
	results := make([]Resolution, len(records))
	for i, rec := range records {
		results[i] = Resolution{Index: i, Status: ruleset.Unchecked}
		if ctx.Err() != nil {
			continue
		}
		results[i].Status, results[i].Latest = r.Resolve(ctx, rec, installDir)
	}
	return results
}
