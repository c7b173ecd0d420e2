package fix

import (
	"regexp"

	"github.com/ImSingee/go-ex/ee"
)

// ErrNoMatch is returned when a patch cannot find the expected current
// version at its anchor. The document must not be written back then.
var ErrNoMatch = ee.New("current version not found at the expected position")

// PatchInfoTxt replaces the current version date in an info.txt with
// the target. The date is only touched on the `date` line, anything
// else in the file stays as it is.
func PatchInfoTxt(content string, current string, target string) (string, error) {
	pattern := regexp.MustCompile(`(\n[ \t]*date[ \t]+)` + regexp.QuoteMeta(current))

	patched, ok := replaceFirst(pattern, content, target)
	if !ok {
		return "", ee.Wrapf(ErrNoMatch, "cannot update date %s in info.txt", current)
	}
	return patched, nil
}

// PatchPage replaces the current version date in a wiki page's
// lastupdate field. The field is only matched inside the extension's
// data block, the same date appearing in free text is left alone.
func PatchPage(content string, current string, target string) (string, error) {
	pattern := regexp.MustCompile(
		`(?s)(\n---- (?:plugin|template) ----.*?lastupdate(?:_dt)? *: *)` + regexp.QuoteMeta(current),
	)

	patched, ok := replaceFirst(pattern, content, target)
	if !ok {
		return "", ee.Wrapf(ErrNoMatch, "cannot update date %s in the page", current)
	}
	return patched, nil
}

// replaceFirst replaces the text following pattern's first capture
// group with target, in the first match only.
func replaceFirst(pattern *regexp.Regexp, content string, target string) (string, bool) {
	loc := pattern.FindStringSubmatchIndex(content)
	if loc == nil {
		return "", false
	}

	// loc[3] is the end of the anchor group, loc[1] the end of the
	// whole match; the text between them is the current version
	return content[:loc[3]] + target + content[loc[1]:], true
}
