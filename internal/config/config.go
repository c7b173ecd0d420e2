// Package config loads the credential file for dokuwiki.org and
// github.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ImSingee/go-ex/ee"

	"github.com/dwtools/dwfix/internal/lib/confhash"
)

const ConfFileName = ".dwfix.conf"

const template = `## Uncomment the following lines and set correct credentials
#dokuwiki_user  <your user at dokuwiki.org>
#dokuwiki_pass  <your password at dokuwiki.org>
#github_user    <your user at github.com>
#github_key     <your API key at github.com>
`

type Credentials struct {
	DokuwikiUser string
	DokuwikiPass string
	GithubUser   string
	GithubKey    string
}

// DefaultPath returns the credential file location in the user's home
// directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", ee.Wrap(err, "cannot determine home directory")
	}
	return filepath.Join(home, ConfFileName), nil
}

// Load reads the credentials from the given file. If the file does not
// exist yet, a commented template is written there and an error asking
// the operator to fill it in is returned. Missing or empty keys are an
// error as well.
func Load(path string) (*Credentials, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, ee.Wrapf(err, "cannot read credentials from %s", path)
		}

		if err := writeTemplate(path); err != nil {
			return nil, err
		}
		return nil, ee.Errorf("created %s, please edit the credentials in it", path)
	}

	conf := confhash.Parse(strings.Split(string(raw), "\n"), false)

	creds := &Credentials{
		DokuwikiUser: conf["dokuwiki_user"],
		DokuwikiPass: conf["dokuwiki_pass"],
		GithubUser:   conf["github_user"],
		GithubKey:    conf["github_key"],
	}

	if creds.DokuwikiUser == "" ||
		creds.DokuwikiPass == "" ||
		creds.GithubUser == "" ||
		creds.GithubKey == "" {
		return nil, ee.Errorf("please edit the credentials in %s", path)
	}

	return creds, nil
}

func writeTemplate(path string) error {
	err := os.WriteFile(path, []byte(template), 0o600)
	if err != nil {
		return ee.Wrapf(err, "cannot create credential template at %s", path)
	}
	return nil
}
