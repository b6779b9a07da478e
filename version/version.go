package version

import "fmt"

// Set at build time with -ldflags "-X github.com/TFMV/tabmatch/version.Version=...".
var Version = "1.0.0"
var BuildDate = "2026-10-19"
var Commit = ""

func GetVersion() string {
	return Version
}

func GetBuildDate() string {
	return BuildDate
}

// String formats the version line shown by the CLI and the API.
func String() string {
	s := fmt.Sprintf("tabmatch %s (built %s)", Version, BuildDate)
	if Commit != "" {
		s += " " + Commit
	}
	return s
}
