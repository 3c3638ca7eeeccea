// Package version holds build metadata set by the linker.
package version

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
	BuiltBy = ""
)

// Full returns the version line printed by --version.
func Full() string {
	result := fmt.Sprintf("scrumsim %s, commit %s, built at %s", Version, Commit, Date)
	if BuiltBy != "" {
		result += fmt.Sprintf(" by %s", BuiltBy)
	}
	return result
}
