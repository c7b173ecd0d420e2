package fix

import (
	"strings"
	"time"

	"github.com/dwtools/dwfix/internal/github"
)

const translationBotEmail = "translate@dokuwiki.org"

// lastSignificantCommitDate walks the commit history newest first and
// returns the author date of the first commit that is neither a merge,
// nor a translation tool commit, nor an earlier automated version
// bump. When every commit is disqualified it falls back to today.
func lastSignificantCommitDate(host SourceHost, now func() time.Time) (string, error) {
	for page := 1; ; page++ {
		commits, err := host.ListCommits("", page)
		if err != nil {
			return "", err
		}
		if len(commits) == 0 {
			break
		}

		for _, commit := range commits {
			if isSignificant(commit) {
				return datePart(commit.AuthorDate), nil
			}
		}

		if len(commits) < github.PerPage {
			break
		}
	}

	return now().Format("2006-01-02"), nil
}

func isSignificant(commit github.Commit) bool {
	message := strings.ToLower(commit.Message)

	if strings.HasPrefix(message, "merge") {
		return false
	}
	if commit.CommitterEmail == translationBotEmail {
		return false
	}
	if strings.HasPrefix(message, "version upped") {
		return false
	}

	return true
}

// datePart truncates an RFC 3339 timestamp to its date.
func datePart(timestamp string) string {
	if len(timestamp) < 10 {
		return timestamp
	}
	return timestamp[:10]
}
