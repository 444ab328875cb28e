// Package buildinfo holds values stamped in at link time, e.g.
//
//	go build -ldflags "-X github.com/YoshitsuguKoike/regwiz/internal/buildinfo.Version=v1.2.0 \
//	  -X github.com/YoshitsuguKoike/regwiz/internal/buildinfo.Commit=$(git rev-parse --short HEAD)"
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// GetVersion returns Version, or "dev" for unstamped builds
func GetVersion() string {
	if Version == "" {
		return "dev"
	}
	return Version
}

// Summary is the one-line form shown by `regwiz version` and logged at server start
func Summary() string {
	s := GetVersion()
	if Commit != "" {
		s = fmt.Sprintf("%s (%s)", s, Commit)
	}
	if Date != "" {
		s = fmt.Sprintf("%s built %s", s, Date)
	}
	return s
}
