package dokuwiki

import (
	"crypto/md5"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ImSingee/go-ex/ee"
	"github.com/go-resty/resty/v2"
	"github.com/ysmood/gson"
)

// Extension is one usable result from the plugin repository's search
// API: a listed, non-bundled extension hosted on github.
type Extension struct {
	Page       string // full page id, e.g. plugin:example or template:example
	Version    string // last update date recorded in the repository
	IsTemplate bool
	Owner      string // github owner
	Repo       string // github repository name
}

// InfoTxt returns the metadata file name for this extension type.
func (e *Extension) InfoTxt() string {
	if e.IsTemplate {
		return "template.info.txt"
	}
	return "plugin.info.txt"
}

func (e *Extension) String() string {
	return e.Page
}

var githubURLPattern = regexp.MustCompile(`(?i)github\.com/([^/]+)/([^/]+)`)

// LookupExtensions queries the plugin repository for the given
// identifier. An identifier containing `@` is treated as an author
// email and matches all of the author's extensions, anything else as a
// single extension name (templates prefixed with `template:`).
//
// Results that cannot be processed are silently dropped: bundled
// extensions, entries without a last update date and repositories not
// hosted on github.
func LookupExtensions(base string, identifier string) ([]*Extension, error) {
	url := base + "/lib/plugins/pluginrepo/api.php"

	// anonymous request, the search api needs no credentials
	req := resty.New().SetTimeout(30 * time.Second).R()

	if strings.Contains(identifier, "@") {
		req.SetQueryParam("mail[]", authorID(identifier))
	} else {
		req.SetQueryParam("ext[]", identifier)
	}

	resp, err := req.Get(url)
	if err != nil {
		return nil, ee.Wrapf(err, "cannot search the plugin repository for %s", identifier)
	}
	if resp.StatusCode() > 299 {
		return nil, ee.Errorf("cannot search the plugin repository for %s: status code = %d", identifier, resp.StatusCode())
	}

	return parseSearchResults(resp.Body()), nil
}

func parseSearchResults(body []byte) []*Extension {
	extensions := []*Extension{}

	for _, result := range gson.New(body).Arr() {
		ext := parseSearchResult(result.Map())
		if ext != nil {
			extensions = append(extensions, ext)
		}
	}

	return extensions
}

func parseSearchResult(in map[string]gson.JSON) *Extension {
	if bundled, _ := in["bundled"].Val().(bool); bundled {
		return nil
	}

	lastupdate, _ := in["lastupdate"].Val().(string)
	if lastupdate == "" {
		return nil
	}

	sourcerepo, _ := in["sourcerepo"].Val().(string)
	m := githubURLPattern.FindStringSubmatch(sourcerepo)
	if m == nil {
		return nil
	}

	page, _ := in["plugin"].Val().(string)
	if page == "" {
		return nil
	}

	isTemplate := strings.HasPrefix(page, "template:")
	if !isTemplate {
		page = "plugin:" + page
	}

	return &Extension{
		Page:       page,
		Version:    lastupdate,
		IsTemplate: isTemplate,
		Owner:      m[1],
		Repo:       m[2],
	}
}

// authorID is the hash the repository uses to identify authors without
// exposing their email address.
func authorID(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	return fmt.Sprintf("%x", md5.Sum([]byte(normalized)))
}
