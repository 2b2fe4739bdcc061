package build

import "fmt"

// Name is the program name reported by the version command.
const Name = "imdb-mcp"

// Set at link time, e.g.
//
//	go build -ldflags "-X github.com/rohmanhakim/imdb-mcp/internal/build.Version=1.2.0"
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// FullVersion returns the version string with commit hash appended.
// Format: "Version+Commit" (e.g., "1.0.0+abc123")
func FullVersion() string {
	return Version + "+" + Commit
}

// Describe is the one-line banner printed by `imdb-mcp version`.
func Describe() string {
	return fmt.Sprintf("%s %s (built %s)", Name, FullVersion(), BuildTime)
}
