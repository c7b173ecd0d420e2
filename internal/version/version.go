package version

import "fmt"

// set via -ldflags at build time
var (
	version = "DEV"
	commit  = ""
	buildAt = ""
)

func Version() string {
	return version
}

func GetVersionString() string {
	return fmt.Sprintf("%s\nCommit: %s\nBuild At: %s", version, commit, buildAt)
}
