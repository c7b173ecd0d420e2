package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ImSingee/go-ex/ee"
	"github.com/ImSingee/go-ex/mr"
	"github.com/ImSingee/go-ex/pp"
	"github.com/gobwas/glob"
	"github.com/spf13/cobra"

	"github.com/dwtools/dwfix/internal/config"
	"github.com/dwtools/dwfix/internal/dokuwiki"
	"github.com/dwtools/dwfix/internal/fix"
	"github.com/dwtools/dwfix/internal/github"
	"github.com/dwtools/dwfix/internal/lib/xlog"
	"github.com/dwtools/dwfix/internal/tags"
	"github.com/dwtools/dwfix/internal/version"
)

const help = `Update the version of a DokuWiki plugin or template.

The tool compares the version on the extension's dokuwiki.org page,
the date in its info.txt at github and the date of the last
significant commit, then updates whatever is behind.

Usage:
  dwfix <extension>            fix one extension
  dwfix template:<extension>   fix one template
  dwfix <email>                fix all extensions of this author
  dwfix tags <extension|email> backfill missing version tags
`

type options struct {
	conf   string
	dryRun bool
	only   string
	debug  bool
}

func main() {
	o := &options{}

	app := &cobra.Command{
		Use:           "dwfix <extension|email>",
		Long:          help,
		Version:       version.GetVersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(args[0], false)
		},
	}

	app.AddCommand(&cobra.Command{
		Use:   "tags <extension|email>",
		Short: "create missing version tags from the info.txt history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(args[0], true)
		},
	})

	app.PersistentFlags().SortFlags = false
	app.PersistentFlags().StringVar(&o.conf, "conf", "", "credential file (default ~/"+config.ConfFileName+")")
	app.PersistentFlags().BoolVarP(&o.dryRun, "dry-run", "n", false, "don't actually execute any changes")
	app.PersistentFlags().StringVar(&o.only, "only", "", "only process extensions whose page id matches this glob")
	app.PersistentFlags().BoolVar(&o.debug, "debug", false, "print additional debug information")
	app.PersistentFlags().BoolP("quiet", "q", false, "quiet mode (hide any output)")
	app.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		quiet, _ := cmd.Flags().GetBool("quiet")
		if quiet {
			pp.Stdout.ChangeWriter(io.Discard)
			pp.Stderr.ChangeWriter(io.Discard)
		}

		xlog.Setup(o.debug && !quiet)

		return nil
	}

	err := app.Execute()
	if err != nil {
		l("Error: %v", err)
		os.Exit(1)
	}
}

func (o *options) run(identifier string, backfillTags bool) error {
	confPath := o.conf
	if confPath == "" {
		var err error
		confPath, err = config.DefaultPath()
		if err != nil {
			return err
		}
	}

	creds, err := config.Load(confPath)
	if err != nil {
		return err
	}

	extensions, err := dokuwiki.LookupExtensions(dokuwiki.DefaultBase, identifier)
	if err != nil {
		return err
	}

	extensions, err = o.filterOnly(extensions)
	if err != nil {
		return err
	}
	if len(extensions) == 0 {
		return ee.Errorf("no usable extension found for %s, make sure it is listed and hosted on github", identifier)
	}

	// an email matches many extensions; one failing must not stop the
	// others
	multi := strings.Contains(identifier, "@")

	for _, ext := range extensions {
		pp.BluePrintln(">>> Checking", ext.Page)

		err := o.process(ext, creds, backfillTags)
		if err != nil {
			if !multi {
				return err
			}
			pp.ERedPrintln("Error:", err.Error())
		}
	}

	return nil
}

func (o *options) process(ext *dokuwiki.Extension, creds *config.Credentials, backfillTags bool) error {
	host := github.NewClient(creds.GithubUser, creds.GithubKey, ext.Owner, ext.Repo)

	if backfillTags {
		backfill := tags.NewBackfill(ext, host)
		backfill.SetDryRun(o.dryRun)
		return backfill.Run()
	}

	fixer := fix.NewFixer(ext, host, dokuwiki.NewClient(creds.DokuwikiUser, creds.DokuwikiPass))
	fixer.SetDryRun(o.dryRun)
	return fixer.Fix()
}

func (o *options) filterOnly(extensions []*dokuwiki.Extension) ([]*dokuwiki.Extension, error) {
	if o.only == "" {
		return extensions, nil
	}

	g, err := glob.Compile(o.only)
	if err != nil {
		return nil, ee.Wrapf(err, "invalid glob %s", o.only)
	}

	return mr.Filter(extensions, func(ext *dokuwiki.Extension, _ int) bool {
		return g.Match(ext.Page)
	}), nil
}

func l(msg string, args ...any) {
	s := msg
	if len(args) != 0 {
		s = fmt.Sprintf(msg, args...)
	}

	_, _ = os.Stderr.Write([]byte("dwfix - " + strings.TrimSpace(s) + "\n"))
}
