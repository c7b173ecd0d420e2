// Package github is a minimal client for the parts of the GitHub REST
// API the version fixer needs: repository contents, commits and tag
// refs.
package github

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ImSingee/go-ex/ee"
	"github.com/ImSingee/go-ex/mr"
	"github.com/go-resty/resty/v2"
)

const DefaultAPIBase = "https://api.github.com"

// PerPage is the page size used for all list endpoints.
const PerPage = 100

type Client struct {
	r       *resty.Client
	apiBase string
	owner   string
	repo    string
}

// NewClient creates a client authenticated with the given user and API
// key, working on the given repository.
func NewClient(user, key, owner, repo string) *Client {
	r := resty.New()
	r.SetTimeout(30 * time.Second)
	r.SetRetryCount(3)
	r.SetRetryWaitTime(2 * time.Second)
	r.SetBasicAuth(user, key)
	r.SetHeader("Accept", "application/vnd.github.v3+json")
	r.SetHeader("User-Agent", "dwfix/1.0")

	return &Client{
		r:       r,
		apiBase: DefaultAPIBase,
		owner:   owner,
		repo:    repo,
	}
}

// SetAPIBase changes the API endpoint, e.g. to a test server.
func (c *Client) SetAPIBase(base string) {
	c.apiBase = strings.TrimRight(base, "/")
}

func (c *Client) url(endpoint string) string {
	return fmt.Sprintf("%s/repos/%s/%s/%s", c.apiBase, c.owner, c.repo, endpoint)
}

// File is one file fetched from the contents API.
type File struct {
	Content []byte // decoded
	SHA     string
}

type contentsResponse struct {
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

// ReadFile fetches a file via the contents API. An empty ref means the
// default branch.
func (c *Client) ReadFile(path string, ref string) (*File, error) {
	url := c.url("contents/" + path)

	req := c.r.R().SetResult(&contentsResponse{})
	if ref != "" {
		req.SetQueryParam("ref", ref)
	}

	resp, err := req.Get(url)
	if err := c.check(resp, err, "GET", url); err != nil {
		return nil, err
	}

	result := resp.Result().(*contentsResponse)

	// the API wraps the base64 payload in newlines
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(result.Content, "\n", ""))
	if err != nil {
		return nil, ee.Wrapf(err, "cannot decode content of %s", path)
	}

	return &File{Content: raw, SHA: result.SHA}, nil
}

// WriteFile replaces a file via the contents API. sha has to be the
// hash of the file's current content as returned by ReadFile.
func (c *Client) WriteFile(path string, sha string, content []byte, message string) error {
	url := c.url("contents/" + path)

	resp, err := c.r.R().
		SetBody(map[string]string{
			"sha":     sha,
			"message": message,
			"content": base64.StdEncoding.EncodeToString(content),
		}).
		Put(url)

	return c.check(resp, err, "PUT", url)
}

// Commit is one entry of the commit list endpoint.
type Commit struct {
	SHA            string
	Message        string
	AuthorDate     string // RFC 3339
	CommitterEmail string
}

type commitResponse struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Date string `json:"date"`
		} `json:"author"`
		Committer struct {
			Email string `json:"email"`
		} `json:"committer"`
	} `json:"commit"`
}

// ListCommits returns one page of the repository's commit history,
// newest first. A non-empty path restricts the history to commits
// touching that path. Pages start at 1.
func (c *Client) ListCommits(path string, page int) ([]Commit, error) {
	url := c.url("commits")

	req := c.r.R().
		SetResult(&[]commitResponse{}).
		SetQueryParam("per_page", fmt.Sprintf("%d", PerPage)).
		SetQueryParam("page", fmt.Sprintf("%d", page))
	if path != "" {
		req.SetQueryParam("path", path)
	}

	resp, err := req.Get(url)
	if err := c.check(resp, err, "GET", url); err != nil {
		return nil, err
	}

	commits := *resp.Result().(*[]commitResponse)

	return mr.Map(commits, func(in commitResponse, _ int) Commit {
		return Commit{
			SHA:            in.SHA,
			Message:        in.Commit.Message,
			AuthorDate:     in.Commit.Author.Date,
			CommitterEmail: in.Commit.Committer.Email,
		}
	}), nil
}

// Tag is a tag ref and the commit it points at.
type Tag struct {
	Name string
	SHA  string
}

type refResponse struct {
	Ref    string `json:"ref"`
	Object struct {
		SHA string `json:"sha"`
	} `json:"object"`
}

// ListTags returns one page of the repository's tag refs. Repositories
// without any tags answer 404 here; callers that want to treat that as
// "no tags" should check IsNotFound.
func (c *Client) ListTags(page int) ([]Tag, error) {
	url := c.url("git/refs/tags")

	resp, err := c.r.R().
		SetResult(&[]refResponse{}).
		SetQueryParam("per_page", fmt.Sprintf("%d", PerPage)).
		SetQueryParam("page", fmt.Sprintf("%d", page)).
		Get(url)
	if err := c.check(resp, err, "GET", url); err != nil {
		return nil, err
	}

	refs := *resp.Result().(*[]refResponse)

	tags := make([]Tag, 0, len(refs))
	for _, ref := range refs {
		name, ok := strings.CutPrefix(ref.Ref, "refs/tags/")
		if !ok {
			continue
		}
		tags = append(tags, Tag{Name: name, SHA: ref.Object.SHA})
	}

	return tags, nil
}

// CreateTag creates a lightweight tag pointing at the given commit.
func (c *Client) CreateTag(name string, sha string) error {
	url := c.url("git/refs")

	slog.Debug("create tag", "tag", name, "sha", sha)

	resp, err := c.r.R().
		SetBody(map[string]string{
			"ref": "refs/tags/" + name,
			"sha": sha,
		}).
		Post(url)

	return c.check(resp, err, "POST", url)
}

func (c *Client) check(resp *resty.Response, err error, method, url string) error {
	if err != nil {
		return ee.Wrapf(err, "cannot talk to github api (%s %s)", method, url)
	}

	if resp.StatusCode() > 299 {
		return &APIError{
			StatusCode: resp.StatusCode(),
			Method:     method,
			URL:        url,
			Body:       resp.String(),
		}
	}

	return nil
}
