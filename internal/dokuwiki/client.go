// Package dokuwiki talks to dokuwiki.org: raw page reads, form-based
// page writes and the plugin repository's search API.
package dokuwiki

import (
	"regexp"
	"time"

	"github.com/ImSingee/go-ex/ee"
	"github.com/go-resty/resty/v2"
)

const DefaultBase = "https://www.dokuwiki.org"

type Client struct {
	r    *resty.Client
	base string
	user string
	pass string
}

// NewClient creates a client that can read and save wiki pages with
// the given dokuwiki.org account.
func NewClient(user, pass string) *Client {
	r := resty.New()
	r.SetTimeout(30 * time.Second)
	r.SetHeader("User-Agent", "dwfix/1.0")

	return &Client{
		r:    r,
		base: DefaultBase,
		user: user,
		pass: pass,
	}
}

// SetBase changes the wiki base url, e.g. to a test server.
func (c *Client) SetBase(base string) {
	c.base = base
}

// ReadPage returns the raw wiki text of the given page.
func (c *Client) ReadPage(page string) (string, error) {
	url := c.base + "/" + page

	resp, err := c.r.R().
		SetQueryParam("do", "export_raw").
		Get(url)
	if err != nil {
		return "", ee.Wrapf(err, "cannot fetch page %s", page)
	}
	if resp.StatusCode() > 299 {
		return "", ee.Errorf("cannot fetch page %s: status code = %d", page, resp.StatusCode())
	}

	return resp.String(), nil
}

var (
	secTokPattern = regexp.MustCompile(`<input type="hidden" name="sectok" value="([0-9a-f]{32})" />`)
	errorPattern  = regexp.MustCompile(`(?s)<div class="error">(.*?)</div>`)
)

// WritePage saves new content for the given page. The wiki's edit form
// embeds a one-time security token, so the save is a two-step process:
// open the page for editing, extract the token, then post the save.
func (c *Client) WritePage(page string, content string) error {
	url := c.base + "/doku.php"

	resp, err := c.r.R().
		SetFormData(map[string]string{
			"id": page,
			"do": "edit",
			"u":  c.user,
			"p":  c.pass,
		}).
		Post(url)
	if err != nil {
		return ee.Wrapf(err, "cannot open page %s for editing", page)
	}
	if resp.StatusCode() > 299 {
		return ee.Errorf("cannot open page %s for editing: status code = %d", page, resp.StatusCode())
	}

	secTok, ok := extractSecTok(resp.String())
	if !ok {
		return ee.Errorf("cannot open page %s for editing, it may be locked or the credentials are wrong", page)
	}

	resp, err = c.r.R().
		SetFormData(map[string]string{
			"id":       page,
			"prefix":   "",
			"suffix":   "",
			"wikitext": content,
			"summary":  "version upped",
			"sectok":   secTok,
			"do":       "save",
		}).
		Post(url)
	if err != nil {
		return ee.Wrapf(err, "cannot save page %s", page)
	}
	if resp.StatusCode() > 299 {
		return ee.Errorf("cannot save page %s: status code = %d", page, resp.StatusCode())
	}

	if m := errorPattern.FindStringSubmatch(resp.String()); m != nil {
		return ee.Errorf("saving page %s failed: %s", page, m[1])
	}

	return nil
}

func extractSecTok(body string) (string, bool) {
	m := secTokPattern.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	return m[1], true
}
