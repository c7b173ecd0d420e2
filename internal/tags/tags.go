// Package tags retroactively creates version tags for releases that
// were never tagged, by replaying the info.txt history of an
// extension's repository.
package tags

import (
	"log/slog"
	"sort"

	"github.com/ImSingee/go-ex/ee"
	"github.com/ImSingee/go-ex/pp"

	"github.com/dwtools/dwfix/internal/dokuwiki"
	"github.com/dwtools/dwfix/internal/github"
	"github.com/dwtools/dwfix/internal/lib/confhash"
)

// SourceHost is the part of the github client the backfill needs.
type SourceHost interface {
	ReadFile(path string, ref string) (*github.File, error)
	ListCommits(path string, page int) ([]github.Commit, error)
	ListTags(page int) ([]github.Tag, error)
	CreateTag(name string, sha string) error
}

type Backfill struct {
	ext  *dokuwiki.Extension
	host SourceHost

	dryRun bool
}

func NewBackfill(ext *dokuwiki.Extension, host SourceHost) *Backfill {
	return &Backfill{ext: ext, host: host}
}

// SetDryRun makes the backfill report the tags it would create without
// creating them.
func (b *Backfill) SetDryRun(dryRun bool) {
	b.dryRun = dryRun
}

// change is one version introduced by a commit to the info.txt.
type change struct {
	Version string
	SHA     string
}

// Run creates the missing version tags. A tag that cannot be created
// is skipped, the remaining versions are still processed.
func (b *Backfill) Run() error {
	tags, err := b.fetchTags()
	if err != nil {
		return err
	}
	slog.Debug("existing tags", "tags", tags)

	// everything at or before the newest known tag is already covered
	newest := newestTagSHA(tags)

	changes, err := b.infoTxtChanges(newest)
	if err != nil {
		return err
	}

	for _, c := range changes {
		if _, tagged := tags[c.Version]; tagged {
			continue
		}

		if b.dryRun {
			pp.Println("Would tag " + c.SHA + " with " + c.Version)
			continue
		}

		if err := b.host.CreateTag(c.Version, c.SHA); err != nil {
			pp.RedPrintln("Cannot tag " + c.SHA + " with " + c.Version + ": " + err.Error())
			continue
		}
		pp.Println("Tagged " + c.SHA + " with " + c.Version)
	}

	return nil
}

// fetchTags returns all existing tags as name -> commit sha. A
// repository without any tags answers 404, which counts as no tags,
// not as an error.
func (b *Backfill) fetchTags() (map[string]string, error) {
	tags := map[string]string{}

	for page := 1; ; page++ {
		list, err := b.host.ListTags(page)
		if err != nil {
			if github.IsNotFound(err) {
				return tags, nil
			}
			return nil, ee.Wrap(err, "cannot list tags")
		}
		if len(list) == 0 {
			break
		}

		for _, tag := range list {
			tags[tag.Name] = tag.SHA
		}

		if len(list) < github.PerPage {
			break
		}
	}

	return tags, nil
}

// newestTagSHA returns the sha of the lexicographically greatest tag
// name, or the empty string when there are no tags. Tag names are
// version dates, so the greatest name is the newest release.
func newestTagSHA(tags map[string]string) string {
	newest := ""
	for name := range tags {
		if name > newest {
			newest = name
		}
	}
	if newest == "" {
		return ""
	}
	return tags[newest]
}

// infoTxtChanges walks the info.txt commit history newest to oldest,
// stopping at the newest already-tagged commit, and collects which
// version each commit declared. The walk order makes the oldest commit
// that declared a version win, which is the commit the tag should
// point at. The result is sorted ascending by version so tags are
// created oldest first.
func (b *Backfill) infoTxtChanges(newest string) ([]change, error) {
	infoTxt := b.ext.InfoTxt()
	versions := map[string]string{}

walk:
	for page := 1; ; page++ {
		commits, err := b.host.ListCommits(infoTxt, page)
		if err != nil {
			return nil, ee.Wrapf(err, "cannot list commits for %s", infoTxt)
		}
		if len(commits) == 0 {
			break
		}

		for _, commit := range commits {
			if commit.SHA == newest {
				break walk
			}
			slog.Debug("reading version info", "commit", commit.SHA)

			file, err := b.host.ReadFile(infoTxt, commit.SHA)
			if err != nil {
				// the file may not exist yet at this revision
				slog.Debug("skipping commit", "commit", commit.SHA, "error", err)
				continue
			}

			info := confhash.ParseString(string(file.Content), false)
			version := info["date"]
			if version == "" {
				slog.Debug("no date at this revision", "commit", commit.SHA)
				continue
			}

			// overwriting here is intended: we walk newest to oldest,
			// so the last write is the oldest commit for this version
			versions[version] = commit.SHA
		}

		if len(commits) < github.PerPage {
			break
		}
	}

	changes := make([]change, 0, len(versions))
	for version, sha := range versions {
		changes = append(changes, change{Version: version, SHA: sha})
	}
	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Version < changes[j].Version
	})

	return changes, nil
}
