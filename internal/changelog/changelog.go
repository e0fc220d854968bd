package changelog

import (
	"fmt"
	"strings"
	"time"

	"github.com/distantorigin/mode-manager/internal/updater"
)

// maxNoteLines caps how much of a release body goes into the notes
const maxNoteLines = 15

// BuildSummary describes a finished batch: counts, then one line per item
func BuildSummary(res *updater.Result, completed time.Time) string {
	var b strings.Builder

	succeeded, skipped, failed := res.Succeeded(), res.Skipped(), res.Failed()

	b.WriteString("Ruleset Update Summary\n\n")
	fmt.Fprintf(&b, "Update completed: %s\n", completed.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Total: %d rulesets (%d updated, %d skipped, %d failed)\n",
		len(res.Items), len(succeeded), len(skipped), len(failed))

	if len(res.Items) == 0 {
		return b.String()
	}

	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", 60))
	b.WriteString("\n\n")

	if len(succeeded) > 0 {
		fmt.Fprintf(&b, "Updated (%d):\n", len(succeeded))
		for _, o := range succeeded {
			fmt.Fprintf(&b, "  + %s: %s -> %s\n", o.Record.FileName, displayTag(o.Pending.Record.Tag), o.Record.Tag)
		}
		b.WriteString("\n")
	}

	if len(skipped) > 0 {
		fmt.Fprintf(&b, "Skipped, no matching file in release (%d):\n", len(skipped))
		for _, o := range skipped {
			fmt.Fprintf(&b, "  ~ %s (%s)\n", o.Record.FileName, o.Pending.Release.TagName)
		}
		b.WriteString("\n")
	}

	if len(failed) > 0 {
		fmt.Fprintf(&b, "Failed (%d):\n", len(failed))
		for _, o := range failed {
			fmt.Fprintf(&b, "  - %s: %v\n", o.Record.FileName, o.Err)
			if o.Trashed != "" {
				fmt.Fprintf(&b, "    previous file kept at %s\n", o.Trashed)
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}

func displayTag(tag string) string {
	if tag == "" {
		return "(none)"
	}
	return tag
}

// FormatNoteLine tidies one line of a release body: markdown list markers
// and headings are dropped and the first letter is capitalized.
func FormatNoteLine(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "#")
	line = strings.TrimSpace(line)
	for _, marker := range []string{"- ", "* ", "+ "} {
		line = strings.TrimPrefix(line, marker)
	}
	if line == "" {
		return ""
	}
	r := []rune(line)
	r[0] = []rune(strings.ToUpper(string(r[0])))[0]
	return string(r)
}

// ReleaseNotes lists what each pending update would install
func ReleaseNotes(pending []updater.Pending) string {
	if len(pending) == 0 {
		return ""
	}

	var b strings.Builder
	for i, p := range pending {
		if i > 0 {
			b.WriteString("\n")
		}
		rel := p.Release
		title := rel.TagName
		if rel.Name != "" && rel.Name != rel.TagName {
			title = fmt.Sprintf("%s (%s)", rel.Name, rel.TagName)
		}
		fmt.Fprintf(&b, "%s/%s %s -> %s\n", p.Record.Owner, p.Record.Repo, displayTag(p.Record.Tag), title)
		if !rel.PublishedAt.IsZero() {
			fmt.Fprintf(&b, "Released %s\n", rel.PublishedAt.Format("2006-01-02"))
		}

		written := 0
		for line := range strings.Lines(rel.Body) {
			note := FormatNoteLine(line)
			if note == "" {
				continue
			}
			if written == maxNoteLines {
				b.WriteString("  ...\n")
				break
			}
			fmt.Fprintf(&b, "  * %s\n", note)
			written++
		}
		if written == 0 {
			b.WriteString("  No release notes.\n")
		}
	}
	return b.String()
}
