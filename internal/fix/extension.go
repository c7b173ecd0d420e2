// Package fix reconciles an extension's version date between the
// plugin repository listing, the info.txt in its source repository and
// its commit history.
package fix

import (
	"strings"
	"time"

	"github.com/ImSingee/go-ex/ee"
	"github.com/ImSingee/go-ex/pp"

	"github.com/dwtools/dwfix/internal/dokuwiki"
	"github.com/dwtools/dwfix/internal/github"
	"github.com/dwtools/dwfix/internal/lib/confhash"
)

// SourceHost is the part of the github client the fixer needs.
type SourceHost interface {
	ReadFile(path string, ref string) (*github.File, error)
	WriteFile(path string, sha string, content []byte, message string) error
	ListCommits(path string, page int) ([]github.Commit, error)
}

// Wiki is the part of the dokuwiki client the fixer needs.
type Wiki interface {
	ReadPage(page string) (string, error)
	WritePage(page string, content string) error
}

type Fixer struct {
	ext  *dokuwiki.Extension
	host SourceHost
	wiki Wiki

	dryRun bool
	now    func() time.Time
}

func NewFixer(ext *dokuwiki.Extension, host SourceHost, wiki Wiki) *Fixer {
	return &Fixer{
		ext:  ext,
		host: host,
		wiki: wiki,
		now:  time.Now,
	}
}

// SetDryRun makes the fixer report what it would change without
// writing anything.
func (f *Fixer) SetDryRun(dryRun bool) {
	f.dryRun = dryRun
}

// Fix runs one reconciliation. The info.txt is updated before the
// wiki page because it is the authoritative document; if the run is
// interrupted in between, the next run will catch the page up.
//
// A page whose lastupdate field does not carry the cached directory
// date is skipped with a warning, everything else is an error for this
// extension.
func (f *Fixer) Fix() error {
	metadata, err := f.infoTxtVersion()
	if err != nil {
		return err
	}

	commit, err := lastSignificantCommitDate(f.host, f.now)
	if err != nil {
		return ee.Wrap(err, "cannot determine the last significant commit")
	}

	versions := Versions{
		Directory: f.ext.Version,
		Metadata:  metadata,
		Commit:    commit,
	}

	pp.Println("dokuwiki.org version: " + versions.Directory)
	pp.Println("github.com version:   " + versions.Metadata)
	pp.Println("last real commit:     " + versions.Commit)

	resolution := Resolve(versions)
	if !resolution.NeedsUpdate() {
		pp.Println("versions match, no update needed.")
		return nil
	}
	pp.Println("target version:       " + resolution.Target)

	if resolution.UpdateMetadata {
		if err := f.updateInfoTxt(versions.Metadata, resolution.Target); err != nil {
			return err
		}
	} else {
		pp.Println(f.ext.InfoTxt() + " is uptodate already.")
	}

	if resolution.UpdateDirectory {
		err := f.updatePage(versions.Directory, resolution.Target)
		if ee.Is(err, ErrNoMatch) {
			// the cached directory date may differ from what is
			// actually on the page
			pp.RedPrintln("Skipping " + f.ext.Page + ": " + err.Error())
		} else if err != nil {
			return err
		}
	} else {
		pp.Println("extension page is uptodate already.")
	}

	return nil
}

// infoTxtVersion reads the date field from the extension's info.txt.
// A missing date is an error, never defaulted: it could be an
// intentionally future-dated entry we must not overwrite.
func (f *Fixer) infoTxtVersion() (string, error) {
	file, err := f.host.ReadFile(f.ext.InfoTxt(), "")
	if err != nil {
		return "", ee.Wrapf(err, "cannot fetch %s", f.ext.InfoTxt())
	}

	info := confhash.ParseString(string(file.Content), false)

	date := info["date"]
	if date == "" {
		return "", ee.Errorf("%s has no date field", f.ext.InfoTxt())
	}

	return date, nil
}

func (f *Fixer) updateInfoTxt(current string, target string) error {
	infoTxt := f.ext.InfoTxt()

	// fetch again right before writing to get a fresh content hash
	file, err := f.host.ReadFile(infoTxt, "")
	if err != nil {
		return ee.Wrapf(err, "cannot fetch %s", infoTxt)
	}

	patched, err := PatchInfoTxt(string(file.Content), current, target)
	if err != nil {
		return err
	}

	if f.dryRun {
		pp.Println("Would update " + infoTxt + " at github.")
		return nil
	}

	err = f.host.WriteFile(infoTxt, file.SHA, []byte(patched), "Version upped")
	if err != nil {
		return ee.Wrapf(err, "cannot write %s", infoTxt)
	}

	pp.Println("Updated " + infoTxt + " at github.")
	return nil
}

func (f *Fixer) updatePage(current string, target string) error {
	content, err := f.wiki.ReadPage(f.ext.Page)
	if err != nil {
		return err
	}
	if strings.TrimSpace(content) == "" {
		return ee.Errorf("page %s is empty", f.ext.Page)
	}

	patched, err := PatchPage(content, current, target)
	if err != nil {
		return err
	}

	if f.dryRun {
		pp.Println("Would update " + f.ext.Page + " at dokuwiki.org.")
		return nil
	}

	if err := f.wiki.WritePage(f.ext.Page, patched); err != nil {
		return err
	}

	pp.Println("Updated " + f.ext.Page + " at dokuwiki.org.")
	return nil
}
